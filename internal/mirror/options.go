package mirror

import (
	"io"
	"log/slog"
	"time"
)

// Options configures a Propagator, a Reconciler or a Mirror.
type Options struct {
	// Filter hides matching paths from both components. Nil hides nothing.
	Filter *Filter
	// ModTimeWindow treats modification times this close together as equal,
	// for replica filesystems that store coarse timestamps. Zero means a
	// source file must be strictly newer to be copied again.
	ModTimeWindow time.Duration
	// DryRun logs every action without touching the replica.
	DryRun bool
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return o.Logger
}
