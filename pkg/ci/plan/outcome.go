package plan

import (
	"github.com/askiada/go-ciplan/pkg/ci/model"
)

// Status of a job, a stage or a build.
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusErrored  Status = "errored"
	StatusCanceled Status = "canceled"
	StatusSkipped  Status = "skipped"
)

// AttributeStatus is the vertex attribute Evaluate sets on job vertices.
const AttributeStatus = "status"

// ExitCodes are the exit codes of the phases of one job. A missing phase exited 0.
type ExitCodes map[model.Phase]int

// JobStatus returns the status of a job from the exit codes of its phases.
//
// A non-zero exit in a setup phase errors the job and stops it. script, before_deploy and deploy failures
// fail it. The exit codes of after_* phases never change the status.
func JobStatus(codes ExitCodes) (Status, model.Phase) {
	for _, phase := range []model.Phase{model.PhaseBeforeInstall, model.PhaseInstall, model.PhaseBeforeScript} {
		if codes[phase] != 0 {
			return StatusErrored, phase
		}
	}
	if codes[model.PhaseScript] != 0 {
		return StatusFailed, model.PhaseScript
	}
	for _, phase := range []model.Phase{model.PhaseBeforeDeploy, model.PhaseDeploy} {
		if codes[phase] != 0 {
			return StatusFailed, phase
		}
	}

	return StatusPassed, ""
}

// JobOutcome is the result of one job.
type JobOutcome struct {
	Entry  *Entry
	Status Status
	// Phase is the phase which decided a failed or errored status.
	Phase model.Phase
}

// StageOutcome is the result of one stage.
type StageOutcome struct {
	Name   string
	Status Status
	Jobs   []*JobOutcome
}

// Outcome is the result of a build.
type Outcome struct {
	Status Status
	Stages []*StageOutcome
	// WaitsFor lists the job numbers the build result depends on. With fast_finish the allow-failure
	// jobs are left out.
	WaitsFor []int
}

// Passed reports whether the build passed.
func (o *Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// ExitCode returns 0 for a passing build and 1 otherwise.
func (o *Outcome) ExitCode() int {
	if o.Passed() {
		return 0
	}

	return 1
}

// Job returns the outcome of a job number.
func (o *Outcome) Job(number int) (*JobOutcome, bool) {
	for _, stage := range o.Stages {
		for _, job := range stage.Jobs {
			if job.Entry.Job.Number == number {
				return job, true
			}
		}
	}

	return nil, false
}

func blocking(job *JobOutcome) bool {
	if job.Entry.Job.AllowFailure {
		return false
	}

	return job.Status == StatusFailed || job.Status == StatusErrored
}

// Evaluate computes the outcome of the build from the exit codes of each job, keyed by job number.
// Jobs without exit codes passed.
//
// A stage fails when one of its jobs fails or errors without being allowed to. The stages after it are
// canceled. The build errors when a blocking job errored, fails when a blocking job failed and passes
// otherwise. Evaluate marks every job vertex with its status.
func (p *Plan) Evaluate(results map[int]ExitCodes) (*Outcome, error) {
	out := &Outcome{Status: StatusPassed}
	broken := false

	for _, stage := range p.Stages {
		so := &StageOutcome{Name: stage.Name}
		for _, entry := range stage.Entries {
			jo := &JobOutcome{Entry: entry}
			switch {
			case !entry.Run:
				jo.Status = StatusSkipped
			case broken:
				jo.Status = StatusCanceled
			default:
				jo.Status, jo.Phase = JobStatus(results[entry.Job.Number])
				if !p.FastFinish || !entry.Job.AllowFailure {
					out.WaitsFor = append(out.WaitsFor, entry.Job.Number)
				}
			}
			so.Jobs = append(so.Jobs, jo)

			err := p.Mark(entry.Job.ID(), AttributeStatus, string(jo.Status))
			if err != nil {
				return nil, err
			}
		}

		so.Status = stageStatus(so, broken)
		if so.Status == StatusFailed || so.Status == StatusErrored {
			broken = true
		}
		out.Stages = append(out.Stages, so)
	}

	for _, stage := range out.Stages {
		for _, job := range stage.Jobs {
			if !blocking(job) {
				continue
			}
			if job.Status == StatusErrored {
				out.Status = StatusErrored
			} else if out.Status != StatusErrored {
				out.Status = StatusFailed
			}
		}
	}

	return out, nil
}

func stageStatus(so *StageOutcome, canceled bool) Status {
	if canceled {
		for _, job := range so.Jobs {
			if job.Status != StatusSkipped {
				return StatusCanceled
			}
		}

		return StatusSkipped
	}

	status := StatusSkipped
	for _, job := range so.Jobs {
		switch {
		case blocking(job) && job.Status == StatusErrored:
			return StatusErrored
		case blocking(job):
			status = StatusFailed
		case job.Status != StatusSkipped && status == StatusSkipped:
			status = StatusPassed
		}
	}

	return status
}
