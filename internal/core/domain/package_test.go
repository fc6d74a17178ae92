package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/core/domain"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		input    string
		name     string
		selector string
		kind     domain.SelectorKind
	}{
		{input: "left-pad", name: "left-pad", selector: "", kind: domain.SelectorLatest},
		{input: "left-pad@latest", name: "left-pad", selector: "latest", kind: domain.SelectorLatest},
		{input: "left-pad@1.3.0", name: "left-pad", selector: "1.3.0", kind: domain.SelectorExact},
		{input: "left-pad@v1.3.0", name: "left-pad", selector: "1.3.0", kind: domain.SelectorExact},
		{input: "left-pad@^1.3.0", name: "left-pad", selector: "^1.3.0", kind: domain.SelectorRange},
		{input: "left-pad@1.3", name: "left-pad", selector: "1.3", kind: domain.SelectorRange},
		{input: "@types/node", name: "@types/node", selector: "", kind: domain.SelectorLatest},
		{input: "@types/node@20.1.0", name: "@types/node", selector: "20.1.0", kind: domain.SelectorExact},
		{input: "react@18.3.0-canary.1", name: "react", selector: "18.3.0-canary.1", kind: domain.SelectorExact},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req, err := domain.ParseRequest(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.name, req.Name)
			assert.Equal(t, tt.selector, req.Selector.Raw)
			assert.Equal(t, tt.kind, req.Selector.Kind)
		})
	}
}

func TestParseRequest_Invalid(t *testing.T) {
	for _, input := range []string{"", "@", "@scope", "@scope/", "a/b", "../evil", "has space"} {
		t.Run(input, func(t *testing.T) {
			_, err := domain.ParseRequest(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidPackageName))
		})
	}
}

func TestSelector_Version(t *testing.T) {
	assert.Equal(t, "2.0.0", domain.ParseSelector("2.0.0").Version())
	assert.Empty(t, domain.ParseSelector("latest").Version())
	assert.Empty(t, domain.ParseSelector("~2.0.0").Version())
}

func TestSlotName(t *testing.T) {
	tests := []struct {
		entry string
		want  string
	}{
		{entry: "left-pad-1.3.0", want: "left-pad"},
		{entry: "lodash-4.17.21", want: "lodash"},
		{entry: "a-1.0.0-beta.1", want: "a"},
		{entry: "@scope/pkg-2.0.0", want: "@scope/pkg"},
		{entry: "weird-name-notaversion", want: "weird-name"},
		{entry: "plain", want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.SlotName(tt.entry))
		})
	}
}

func TestResolvedPackage_EntryName(t *testing.T) {
	pkg := domain.ResolvedPackage{Name: "left-pad", Version: "1.3.0"}
	assert.Equal(t, "left-pad-1.3.0", pkg.EntryName())
	assert.Equal(t, "left-pad", domain.SlotName(pkg.EntryName()))

	name, version := domain.SplitEntryName("is-odd-3.0.1")
	assert.Equal(t, "is-odd", name)
	assert.Equal(t, "3.0.1", version)
}
