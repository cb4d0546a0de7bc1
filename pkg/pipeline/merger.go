package pipeline

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-ciplan/pkg/pipeline/model"
)

func runStepMerger[I any](ctx context.Context, errC chan<- error, step, outputStep *model.Step[I]) {
	for {
		select {
		case <-ctx.Done():
			reportOnce(errC, ctx.Err())

			return
		case entry, ok := <-step.Output:
			if !ok {
				return
			}

			select {
			case <-ctx.Done():
				reportOnce(errC, ctx.Err())

				return
			case outputStep.Output <- entry:
			}
		}
	}
}

// AddMerger adds a merger step to the pipeline. It merges the output of the steps into a single channel
// which is closed once every input step is exhausted.
func AddMerger[I any](pipe *Pipeline, name string, steps ...*model.Step[I]) (*model.Step[I], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if len(steps) == 0 {
		return nil, ErrNoInputSteps
	}

	output := make(chan I)
	outputStep := &model.Step[I]{
		Details: &model.StepInfo{
			Type:       model.MergerStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: output,
	}

	stepInfos := make([]*model.StepInfo, len(steps))
	for i, step := range steps {
		if step == nil {
			return nil, ErrInputMustBeSet
		}
		stepInfos[i] = step.Details
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareStep(stepInfos, outputStep.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before merger function")
		}
	}

	errC := make(chan error, 1)
	pipe.errcList.add(newErrorChan(name, errC))

	wgrp := &sync.WaitGroup{}
	wgrp.Add(len(steps))

	pipe.goFn = append(pipe.goFn, func(context.Context) {
		wgrp.Wait()
		close(errC)
		close(output)
	})

	for _, step := range steps {
		localStep := step
		pipe.goFn = append(pipe.goFn, func(ctx context.Context) {
			defer wgrp.Done()
			runStepMerger(ctx, errC, localStep, outputStep)
		})
	}

	return outputStep, nil
}

// reportOnce keeps the first error of a step with several goroutines.
func reportOnce(errC chan<- error, err error) {
	select {
	case errC <- err:
	default:
	}
}
