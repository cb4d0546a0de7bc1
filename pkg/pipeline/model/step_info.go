package model

type stepType string

const (
	RootStepType   stepType = "root"
	NormalStepType stepType = "step"
	SinkStepType   stepType = "sink"
	MergerStepType stepType = "merger"
)

// StepInfo describes a step to the pipeline options.
type StepInfo struct {
	Type       stepType
	Name       string
	Concurrent int
}

// Step is the output side of a pipeline step. Downstream steps read from Output.
type Step[O any] struct {
	Output  chan O
	Details *StepInfo
}
