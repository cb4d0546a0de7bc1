package pipeline

// StepOption configures a normal step.
type StepOption func(s *stepConfig)

type stepConfig struct {
	concurrent int
}

// StepConcurrency sets how many goroutines consume the input of the step.
func StepConcurrency(concurrent int) StepOption {
	return func(s *stepConfig) {
		s.concurrent = concurrent
	}
}
