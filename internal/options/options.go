// Package options implements the generic functional-options plumbing
// underlying reader.Option and writer.Option: a reader/writer config struct
// is built once via New/WithXxx calls and applied in order by Apply, so
// adding a new knob never changes either constructor's signature.
package options

// Option mutates a *config (reader's or writer's) during construction, or
// reports why it can't.
type Option[T any] interface {
	apply(T) error
}

// Func adapts a plain function into an Option[T].
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New wraps fn as an Option[T], for options that can fail validation
// (e.g. rejecting an unsupported codec tag).
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// Apply runs every opts against target in order, stopping at the first
// error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}

// NoError wraps fn as an Option[T] for options that simply set a field and
// cannot fail (e.g. injecting a logger).
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}
