package document

import (
	"github.com/dshills/lexfold/internal/logging"
	"github.com/dshills/lexfold/internal/syntax/fold"
)

type options struct {
	logger   *logging.Logger
	maxDepth int
	foldOpts []fold.Option
}

// Option is a functional option for configuring a Document.
type Option func(*options)

// WithLogger sets the logger used by the document and its fold manager.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxDepth bounds fold nesting. Zero means fold.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithFoldOptions passes options through to the fold manager.
func WithFoldOptions(opts ...fold.Option) Option {
	return func(o *options) {
		o.foldOpts = append(o.foldOpts, opts...)
	}
}
