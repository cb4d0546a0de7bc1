package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-ciplan/pkg/pipeline/model"
)

// AddRootStep adds a step producing the pipeline input. stepFn must stop sending
// when ctx is done.
func AddRootStep[O any](pipe *Pipeline, name string, stepFn func(ctx context.Context, rootChan chan<- O) error) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	output := make(chan O)
	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.RootStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: output,
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareStep(nil, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before root step function")
		}
	}

	errC := make(chan error, 1)
	pipe.errcList.add(newErrorChan(name, errC))

	pipe.goFn = append(pipe.goFn, func(ctx context.Context) {
		defer func() {
			close(output)
			close(errC)
		}()

		err := stepFn(ctx, output)
		if err != nil {
			errC <- err
		}
	})

	return step, nil
}
