package lint

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-ciplan/pkg/ci/model"
	"github.com/askiada/go-ciplan/pkg/pipeline"
	"github.com/askiada/go-ciplan/pkg/pipeline/measure"
	pipelinemodel "github.com/askiada/go-ciplan/pkg/pipeline/model"
)

// ErrInputMustBeSet is returned when Lint is called without a config or an expansion.
var ErrInputMustBeSet = errors.New("config and expansion must be set")

// Linter runs rules over a pipeline definition.
type Linter struct {
	rules       []Rule
	disabled    map[string]struct{}
	concurrency int
	logger      *zap.Logger
	measure     measure.Measure
	pipeOpts    []pipelinemodel.PipelineOption
}

// Option configures a Linter.
type Option func(l *Linter)

// WithRules replaces the default rules.
func WithRules(rules ...Rule) Option {
	return func(l *Linter) {
		l.rules = rules
	}
}

// WithDisabled disables rules by name.
func WithDisabled(names ...string) Option {
	return func(l *Linter) {
		for _, name := range names {
			l.disabled[name] = struct{}{}
		}
	}
}

// WithConcurrency sets how many jobs are checked at the same time.
func WithConcurrency(concurrency int) Option {
	return func(l *Linter) {
		if concurrency > 0 {
			l.concurrency = concurrency
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Linter) {
		l.logger = logger
	}
}

// WithMeasure records the time spent in every step of a lint run.
func WithMeasure(m measure.Measure) Option {
	return func(l *Linter) {
		l.measure = m
	}
}

// WithPipelineOptions adds options to the pipeline of every lint run, after the measure option.
func WithPipelineOptions(opts ...pipelinemodel.PipelineOption) Option {
	return func(l *Linter) {
		l.pipeOpts = append(l.pipeOpts, opts...)
	}
}

// New returns a linter running the default rules.
func New(opts ...Option) *Linter {
	l := &Linter{
		rules:       DefaultRules(),
		disabled:    map[string]struct{}{},
		concurrency: 4,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Linter) enabled() ([]JobRule, []ConfigRule) {
	var jobRules []JobRule
	var configRules []ConfigRule
	for _, rule := range l.rules {
		if _, ok := l.disabled[rule.Name()]; ok {
			l.logger.Debug("rule disabled", zap.String("rule", rule.Name()))

			continue
		}
		if jr, ok := rule.(JobRule); ok {
			jobRules = append(jobRules, jr)
		}
		if cr, ok := rule.(ConfigRule); ok {
			configRules = append(configRules, cr)
		}
	}

	return jobRules, configRules
}

// Lint checks the definition. Job rules run concurrently over the expanded jobs while config rules
// run next to them. The returned diagnostics are sorted.
func (l *Linter) Lint(ctx context.Context, in *Input) (*Result, error) {
	if in == nil || in.Config == nil || in.Expansion == nil {
		return nil, ErrInputMustBeSet
	}
	if in.Logger == nil {
		withLogger := *in
		withLogger.Logger = l.logger
		in = &withLogger
	}

	jobRules, configRules := l.enabled()

	var opts []pipelinemodel.PipelineOption
	if l.measure != nil {
		opts = append(opts, measure.PipelineMeasure(l.measure))
	}
	opts = append(opts, l.pipeOpts...)

	pipe, err := pipeline.New(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create pipeline")
	}

	jobsStep, err := pipeline.AddRootStep(pipe, "jobs", func(ctx context.Context, rootChan chan<- *model.Job) error {
		for _, job := range in.Expansion.Jobs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- job:
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to add jobs step")
	}

	jobDiags, err := pipeline.AddStepOneToMany(pipe, "job rules", jobsStep, func(ctx context.Context, job *model.Job) ([]Diagnostic, error) {
		var res []Diagnostic
		for _, rule := range jobRules {
			res = append(res, rule.CheckJob(ctx, in, job)...)
		}

		return res, nil
	}, pipeline.StepConcurrency(l.concurrency))
	if err != nil {
		return nil, errors.Wrap(err, "unable to add job rules step")
	}

	configDiags, err := pipeline.AddRootStep(pipe, "config rules", func(ctx context.Context, rootChan chan<- Diagnostic) error {
		return runConfigRules(ctx, in, configRules, rootChan)
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to add config rules step")
	}

	merged, err := pipeline.AddMerger(pipe, "diagnostics", jobDiags, configDiags)
	if err != nil {
		return nil, errors.Wrap(err, "unable to add merger")
	}

	var diags []Diagnostic
	err = pipeline.AddSink(pipe, "collect", merged, func(_ context.Context, d Diagnostic) error {
		diags = append(diags, d)

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to add sink")
	}

	err = pipe.Run()
	if err != nil {
		return nil, errors.Wrap(err, "unable to lint")
	}

	res := &Result{Diagnostics: normalize(diags)}
	l.logger.Debug("lint done",
		zap.Int("jobs", len(in.Expansion.Jobs)),
		zap.Int("errors", res.Errors()),
		zap.Int("warnings", res.Warnings()),
		zap.Duration("elapsed", pipe.Elapsed()),
	)

	return res, nil
}

func runConfigRules(ctx context.Context, in *Input, rules []ConfigRule, out chan<- Diagnostic) error {
	var mu sync.Mutex
	var diags []Diagnostic

	errGrp, dCtx := errgroup.WithContext(ctx)
	for _, rule := range rules {
		localRule := rule
		errGrp.Go(func() error {
			res, err := localRule.CheckConfig(dCtx, in)
			if err != nil {
				return errors.Wrapf(err, "rule %s", localRule.Name())
			}
			mu.Lock()
			diags = append(diags, res...)
			mu.Unlock()

			return nil
		})
	}

	err := errGrp.Wait()
	if err != nil {
		return err
	}

	for _, d := range diags {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- d:
		}
	}

	return nil
}
