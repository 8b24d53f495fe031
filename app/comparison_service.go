package app

import (
	"context"
	"time"

	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal"
	"hypotest/internal/dataset"
	"hypotest/internal/errors"
	"hypotest/internal/hypothesis"
	"hypotest/internal/profiling"
	"hypotest/models"
	"hypotest/ports"
)

// AnalysisDefaults fill in whatever a request leaves unset
type AnalysisDefaults struct {
	Alpha       float64
	Method      stats.Method
	Alternative stats.Alternative
	Concurrency int
}

// DefaultAnalysis is a two-sided Welch test at the 5% level
func DefaultAnalysis() AnalysisDefaults {
	return AnalysisDefaults{
		Alpha:       hypothesis.DefaultAlpha,
		Method:      stats.MethodWelch,
		Alternative: stats.TwoSided,
		Concurrency: 4,
	}
}

// Options override the service defaults for one comparison
type Options struct {
	Alpha       *float64 `json:"alpha,omitempty" yaml:"alpha"`
	Method      string   `json:"method,omitempty" yaml:"method"`
	Alternative string   `json:"alternative,omitempty" yaml:"alternative"`
}

// SampleRequest compares two explicit samples
type SampleRequest struct {
	Name    string
	LabelA  string
	LabelB  string
	SampleA []float64
	SampleB []float64
	Options Options
}

// GroupRequest compares valueColumn between two groups of groupColumn
type GroupRequest struct {
	Name        string
	GroupColumn string
	ValueColumn string
	GroupA      string
	GroupB      string
	Options     Options
}

// ComparisonService runs mean comparisons and records them
type ComparisonService struct {
	repo     ports.ComparisonRepository
	defaults AnalysisDefaults
	logger   *internal.Logger
	now      func() time.Time
}

// NewComparisonService creates a comparison service; repo may be nil, in
// which case results are returned but not persisted.
func NewComparisonService(repo ports.ComparisonRepository, defaults AnalysisDefaults) *ComparisonService {
	zero := DefaultAnalysis()
	if defaults.Alpha == 0 {
		defaults.Alpha = zero.Alpha
	}
	if defaults.Method == "" {
		defaults.Method = zero.Method
	}
	if defaults.Alternative == "" {
		defaults.Alternative = zero.Alternative
	}
	if defaults.Concurrency <= 0 {
		defaults.Concurrency = zero.Concurrency
	}
	return &ComparisonService{
		repo:     repo,
		defaults: defaults,
		logger:   internal.DefaultLogger.With("ComparisonService"),
		now:      time.Now,
	}
}

// SetLogger replaces the service logger
func (s *ComparisonService) SetLogger(logger *internal.Logger) {
	s.logger = logger.With("ComparisonService")
}

// Defaults returns the analysis defaults in effect
func (s *ComparisonService) Defaults() AnalysisDefaults {
	return s.defaults
}

// CompareSamples runs the configured t-test on two inline samples
func (s *ComparisonService) CompareSamples(ctx context.Context, req SampleRequest) (*models.Comparison, error) {
	labelA, labelB := req.LabelA, req.LabelB
	if labelA == "" {
		labelA = "A"
	}
	if labelB == "" {
		labelB = "B"
	}

	comparison := &models.Comparison{
		Name:   req.Name,
		Source: models.InlineSource,
		GroupA: labelA,
		GroupB: labelB,
	}
	if err := s.compare(comparison, req.SampleA, req.SampleB, req.Options); err != nil {
		return nil, err
	}
	if err := s.save(ctx, comparison); err != nil {
		return nil, err
	}
	return comparison, nil
}

// CompareGroups splits table by GroupColumn and compares ValueColumn between
// GroupA and GroupB. Missing or non-numeric values are skipped and counted.
func (s *ComparisonService) CompareGroups(ctx context.Context, table *dataset.Table, req GroupRequest) (*models.Comparison, error) {
	if table == nil {
		return nil, errors.InvalidInput("no table to compare")
	}

	sampleA, skippedA, err := table.NumericWhere(req.GroupColumn, req.GroupA, req.ValueColumn)
	if err != nil {
		return nil, err
	}
	sampleB, skippedB, err := table.NumericWhere(req.GroupColumn, req.GroupB, req.ValueColumn)
	if err != nil {
		return nil, err
	}
	if skippedA+skippedB > 0 {
		s.logger.Warn("%s: skipped %d/%d non-numeric %q values", req.Name, skippedA, skippedB, req.ValueColumn)
	}

	comparison := &models.Comparison{
		Name:        req.Name,
		Source:      table.Source,
		GroupColumn: req.GroupColumn,
		ValueColumn: req.ValueColumn,
		GroupA:      req.GroupA,
		GroupB:      req.GroupB,
		SkippedA:    skippedA,
		SkippedB:    skippedB,
	}
	if err := s.compare(comparison, sampleA, sampleB, req.Options); err != nil {
		return nil, errors.Wrapf(err, "%s=%q vs %q", req.GroupColumn, req.GroupA, req.GroupB)
	}
	if err := s.save(ctx, comparison); err != nil {
		return nil, err
	}
	return comparison, nil
}

// Get returns a stored comparison
func (s *ComparisonService) Get(ctx context.Context, id core.ComparisonID) (*models.Comparison, error) {
	if s.repo == nil {
		return nil, errors.InternalError("no repository configured")
	}
	return s.repo.Get(ctx, id)
}

// List returns stored comparisons newest first
func (s *ComparisonService) List(ctx context.Context, limit, offset int) ([]*models.Comparison, error) {
	if s.repo == nil {
		return nil, errors.InternalError("no repository configured")
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *ComparisonService) compare(c *models.Comparison, sampleA, sampleB []float64, opts Options) error {
	config, alpha, err := s.resolve(opts)
	if err != nil {
		return err
	}

	result, err := hypothesis.NewMeanComparator(config).Compare(sampleA, sampleB, alpha)
	if err != nil {
		return err
	}

	summaryA, err := profiling.Describe(sampleA)
	if err != nil {
		return err
	}
	summaryB, err := profiling.Describe(sampleB)
	if err != nil {
		return err
	}

	c.ID = core.NewComparisonID()
	c.SummaryA = summaryA
	c.SummaryB = summaryB
	c.Result = result
	c.CreatedAt = s.now().UTC()
	return nil
}

func (s *ComparisonService) resolve(opts Options) (hypothesis.Config, float64, error) {
	alpha := s.defaults.Alpha
	if opts.Alpha != nil {
		alpha = *opts.Alpha
	}

	config := hypothesis.Config{Method: s.defaults.Method, Alternative: s.defaults.Alternative}
	if opts.Method != "" {
		m, err := stats.ParseMethod(opts.Method)
		if err != nil {
			return config, 0, errors.InvalidConfiguration("%v", err)
		}
		config.Method = m
	}
	if opts.Alternative != "" {
		a, err := stats.ParseAlternative(opts.Alternative)
		if err != nil {
			return config, 0, errors.InvalidConfiguration("%v", err)
		}
		config.Alternative = a
	}
	return config, alpha, nil
}

func (s *ComparisonService) save(ctx context.Context, c *models.Comparison) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return errors.Wrap(err, "save comparison")
	}
	s.logger.Debug("Saved comparison %s (%s)", c.ID, c.Name)
	return nil
}
