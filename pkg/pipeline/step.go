package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-ciplan/pkg/pipeline/model"
)

func sequentialOneToManyFn[I any, O any](ctx context.Context, pipe *Pipeline, goIdx int, input *model.Step[I], output *model.Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
	for {
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				return nil
			}

			startFn := time.Now()
			outs, err := oneToManyFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}
			endFn := time.Since(startFn)

			for _, opt := range pipe.opts {
				err := opt.OnStepOutput(input.Details, output.Details, endFn)
				if err != nil {
					return errors.Wrap(err, "unable to run on step output function")
				}
			}

			for _, out := range outs {
				// check the context again so running go routines stop feeding the pipeline
				select {
				case <-ctx.Done():
					return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
				case output.Output <- out:
				}
			}
		}
	}
}

func oneToMany[I any, O any](ctx context.Context, pipe *Pipeline, input *model.Step[I], output *model.Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
	if output.Details.Concurrent <= 1 {
		return sequentialOneToManyFn(ctx, pipe, 0, input, output, oneToManyFn)
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	for goIdx := 0; goIdx < output.Details.Concurrent; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToManyFn(dCtx, pipe, localGoIdx, input, output, oneToManyFn)
		})
	}

	return errGrp.Wait()
}

// AddStepOneToMany adds a step turning every input element into zero or more output elements.
func AddStepOneToMany[I any, O any](pipe *Pipeline, name string, input *model.Step[I], oneToManyFn func(context.Context, I) ([]O, error), opts ...StepOption) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}

	cfg := &stepConfig{concurrent: 1}
	for _, opt := range opts {
		opt(cfg)
	}

	output := make(chan O)
	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.NormalStepType,
			Name:       name,
			Concurrent: cfg.concurrent,
		},
		Output: output,
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareStep([]*model.StepInfo{input.Details}, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before step function")
		}
	}

	errC := make(chan error, 1)
	pipe.errcList.add(newErrorChan(name, errC))

	pipe.goFn = append(pipe.goFn, func(ctx context.Context) {
		defer func() {
			close(output)
			close(errC)
		}()

		err := oneToMany(ctx, pipe, input, step, oneToManyFn)
		if err != nil {
			errC <- err
		}
	})

	return step, nil
}

// AddStepOneToOne adds a step turning every input element into exactly one output element.
func AddStepOneToOne[I any, O any](pipe *Pipeline, name string, input *model.Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption) (*model.Step[O], error) {
	return AddStepOneToMany(pipe, name, input, func(ctx context.Context, in I) ([]O, error) {
		out, err := oneToOneFn(ctx, in)
		if err != nil {
			return nil, err
		}

		return []O{out}, nil
	}, opts...)
}
