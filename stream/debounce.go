package stream

import (
	"context"
	"time"
)

// Debounce emits the latest value once the source has been quiet for
// quiet. A burst of file events collapses into a single reload. When the
// source ends, a pending value is still emitted before the end (or the
// source error) is reported.
func Debounce[T any](s *Stream[T], quiet time.Duration) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			pumpCtx, cancel := context.WithCancel(ctx)
			source := s.create(pumpCtx)
			values := make(chan T)
			failed := make(chan error, 1)

			go func() {
				defer close(values)
				for {
					v, ok, err := source.Next(pumpCtx)
					if err != nil {
						failed <- err
						return
					}
					if !ok {
						return
					}
					select {
					case values <- v:
					case <-pumpCtx.Done():
						return
					}
				}
			}()

			return &debounceIter[T]{
				values: values,
				failed: failed,
				quiet:  quiet,
				stop: func() error {
					cancel()
					return source.Close()
				},
			}
		},
	}
}

type debounceIter[T any] struct {
	values <-chan T
	failed <-chan error
	quiet  time.Duration
	stop   func() error
}

func (it *debounceIter[T]) Next(ctx context.Context) (T, bool, error) {
	var (
		latest  T
		pending bool
		settled <-chan time.Time // nil until the first value of a burst
	)
	for {
		select {
		case v, open := <-it.values:
			if !open {
				if pending {
					return latest, true, nil
				}
				var zero T
				select {
				case err := <-it.failed:
					return zero, false, err
				default:
					return zero, false, nil
				}
			}
			latest, pending = v, true
			settled = time.After(it.quiet)
		case <-settled:
			return latest, true, nil
		case <-ctx.Done():
			var zero T
			return zero, false, ctx.Err()
		}
	}
}

func (it *debounceIter[T]) Close() error { return it.stop() }
