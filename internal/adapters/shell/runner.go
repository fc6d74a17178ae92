// Package shell runs package.json scripts through the system shell.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// Shell is the interpreter scripts are handed to.
const Shell = "sh"

// Option configures a Runner.
type Option func(*Runner)

// WithPTY runs scripts attached to a pseudo-terminal so tools keep their
// colors and progress output. Stdout and stderr are merged in this mode.
func WithPTY(enable bool) Option {
	return func(r *Runner) { r.usePTY = enable }
}

// Runner implements ports.ScriptRunner.
type Runner struct {
	logger ports.Logger
	usePTY bool
}

var _ ports.ScriptRunner = (*Runner)(nil)

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger, opts ...Option) *Runner {
	r := &Runner{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes script with "sh -c" in dir. Extra args are quoted and
// appended; <dir>/node_modules/.bin is prepended to PATH.
func (r *Runner) Run(ctx context.Context, dir, script string, args []string, stdout, stderr io.Writer) error {
	line := commandLine(script, args)
	env := resolveEnvironment(os.Environ(), binDir(dir))

	newCmd := func() *exec.Cmd {
		cmd := exec.CommandContext(ctx, Shell, "-c", line) //nolint:gosec // scripts come from the project manifest
		cmd.Dir = dir
		cmd.Env = env
		return cmd
	}

	r.logger.Debug("running script", "dir", dir, "command", line)

	var err error
	if r.usePTY {
		err = runPTY(newCmd(), stdout)
		if errors.Is(err, errNoPTY) {
			r.logger.Debug("pty unavailable, using pipes")
			err = runPipes(newCmd(), stdout, stderr)
		}
	} else {
		err = runPipes(newCmd(), stdout, stderr)
	}
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return zerr.With(zerr.With(zerr.Wrap(err, "script failed"), "command", line), "exit_code", exitCode)
}

var errNoPTY = errors.New("pty unavailable")

func runPipes(cmd *exec.Cmd, stdout, stderr io.Writer) error {
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

func runPTY(cmd *exec.Cmd, stdout io.Writer) error {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return errors.Join(errNoPTY, err)
	}
	defer func() { _ = ptmx.Close() }()

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	if err := cmd.Start(); err != nil {
		_ = tty.Close()
		return err
	}
	// The child holds its own copy; closing ours lets the copy loop see EOF.
	_ = tty.Close()

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		_, _ = io.Copy(stdout, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	return err
}

var safeArg = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// commandLine appends args to script, single-quoting anything the shell
// would otherwise interpret.
func commandLine(script string, args []string) string {
	if len(args) == 0 {
		return script
	}
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		if safeArg.MatchString(arg) {
			quoted = append(quoted, arg)
			continue
		}
		quoted = append(quoted, "'"+strings.ReplaceAll(arg, "'", `'\''`)+"'")
	}
	return script + " " + strings.Join(quoted, " ")
}

func binDir(dir string) string {
	return filepath.Join(dir, domain.ModulesDirName, domain.BinDirName)
}

// resolveEnvironment returns sysEnv with bin prepended to PATH.
func resolveEnvironment(sysEnv []string, bin string) []string {
	envMap := make(map[string]string, len(sysEnv)+1)
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}

	if sysPath := envMap["PATH"]; sysPath != "" {
		envMap["PATH"] = bin + string(os.PathListSeparator) + sysPath
	} else {
		envMap["PATH"] = bin
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}
