package goprune

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ReduceAll reduces every input against the same descriptor concurrently.
// Results keep the order of inputs. The first error cancels the remaining
// work and is returned; a cancelled ctx stops scheduling.
func ReduceAll(ctx context.Context, inputs []any, m Descriptor, opts ...Options) ([]any, error) {
	out := make([]any, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := Reduce(in, m, opts...)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
