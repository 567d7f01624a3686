package pollard

import (
	"runtime"

	"go.uber.org/zap"
)

// Option customizes how trees are grown and cross-validated.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	workers int
	pruner  Pruner
}

// WithLogger makes operations log their progress on the given logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers sets how many cross-validation folds are processed
// concurrently. Values below 1 mean one per CPU.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPruner makes growth consult the given Pruner before accepting every
// split. By default no split is rejected while growing.
func WithPruner(p Pruner) Option {
	return func(o *options) {
		if p != nil {
			o.pruner = p
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop(), pruner: NoPruner()}
	for _, opt := range opts {
		opt(o)
	}
	if o.workers < 1 {
		o.workers = runtime.NumCPU()
	}
	return o
}
