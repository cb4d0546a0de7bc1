package measure

import (
	"time"

	"github.com/askiada/go-ciplan/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	return nil
}

func (pm *pipelineMeasure) PrepareStep(_ []*model.StepInfo, step *model.StepInfo) error {
	pm.AddMetric(step.Name, step.Concurrent)

	return nil
}

func (pm *pipelineMeasure) PrepareSink(_, step *model.StepInfo) error {
	pm.AddMetric(step.Name, step.Concurrent)

	return nil
}

func (pm *pipelineMeasure) OnStepOutput(_, step *model.StepInfo, computationDuration time.Duration) error {
	pm.GetMetric(step.Name).AddDuration(computationDuration)

	return nil
}

func (pm *pipelineMeasure) OnSinkOutput(_, step *model.StepInfo, computationDuration time.Duration) error {
	pm.GetMetric(step.Name).AddDuration(computationDuration)

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure returns a pipeline option recording the computation time of every step into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
