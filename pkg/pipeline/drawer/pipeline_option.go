package drawer

import (
	"bytes"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-ciplan/pkg/pipeline/measure"
	"github.com/askiada/go-ciplan/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m        measure.Measure
	fileName string
}

func (pd *pipelineDrawer) New() error {
	return nil
}

func (pd *pipelineDrawer) PrepareStep(parentSteps []*model.StepInfo, step *model.StepInfo) error {
	err := pd.AddStep(step.Name)
	if err != nil {
		return err
	}

	for _, parentStep := range parentSteps {
		err := pd.AddLink(parentStep.Name, step.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (pd *pipelineDrawer) PrepareSink(parentStep, step *model.StepInfo) error {
	err := pd.AddStep(step.Name)
	if err != nil {
		return err
	}

	return pd.AddLink(parentStep.Name, step.Name)
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	var buf bytes.Buffer
	err := pd.Draw(&buf)
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return WriteFile(pd.fileName, buf.Bytes())
}

func (pd *pipelineDrawer) OnStepOutput(_, _ *model.StepInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnSinkOutput(_, _ *model.StepInfo, _ time.Duration) error {
	return nil
}

// PipelineDrawer returns a pipeline option drawing the steps into fileName once the pipeline finishes.
// When measure is set, it must also be registered on the pipeline, before this option.
func PipelineDrawer(drawer Drawer, measure measure.Measure, fileName string) model.PipelineOption {
	return &pipelineDrawer{drawer, measure, fileName}
}
