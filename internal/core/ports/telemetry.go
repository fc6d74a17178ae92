package ports

import "context"

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
	// Shutdown flushes and releases the tracer's resources.
	Shutdown(ctx context.Context) error
}

// Span represents a unit of work.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// Metrics records install counters.
type Metrics interface {
	// PackageInstalled counts a materialized package. fromCache is false when it was downloaded.
	PackageInstalled(fromCache bool)
	// InstallFailed counts a failed task by error kind.
	InstallFailed(kind string)
	// ObserveFetch records the duration of a fetch and extract in seconds.
	ObserveFetch(seconds float64)
	// Flush writes the collected metrics to their sink, if one is configured.
	Flush() error
}
