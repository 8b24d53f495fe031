package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"

	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/errors"
	"hypotest/internal/profiling"
	"hypotest/models"
	"hypotest/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ComparisonRepositoryImpl implements ComparisonRepository over sqlx.
// Queries use ? placeholders rebound per driver, so it serves PostgreSQL and SQLite.
type ComparisonRepositoryImpl struct {
	db *sqlx.DB
}

// NewComparisonRepository creates a new SQL comparison repository
func NewComparisonRepository(db *sqlx.DB) ports.ComparisonRepository {
	return &ComparisonRepositoryImpl{db: db}
}

// comparisonRow is the flattened storage form of models.Comparison
type comparisonRow struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	Source           string    `db:"source"`
	GroupColumn      string    `db:"group_column"`
	ValueColumn      string    `db:"value_column"`
	GroupA           string    `db:"group_a"`
	GroupB           string    `db:"group_b"`
	SkippedA         int       `db:"skipped_a"`
	SkippedB         int       `db:"skipped_b"`
	Method           string    `db:"method"`
	Alternative      string    `db:"alternative"`
	Alpha            float64   `db:"alpha"`
	NA               int       `db:"n_a"`
	NB               int       `db:"n_b"`
	MeanA            float64   `db:"mean_a"`
	MeanB            float64   `db:"mean_b"`
	VarianceA        float64   `db:"variance_a"`
	VarianceB        float64   `db:"variance_b"`
	Statistic        float64   `db:"statistic"`
	DegreesOfFreedom float64   `db:"degrees_of_freedom"`
	StandardError    float64   `db:"standard_error"`
	PValue           float64   `db:"p_value"`
	EffectSize       float64   `db:"effect_size"`
	CILower          float64   `db:"ci_lower"`
	CIUpper          float64   `db:"ci_upper"`
	RejectNull       bool      `db:"reject_null"`
	Degenerate       bool      `db:"degenerate"`
	SummaryA         string    `db:"summary_a"`
	SummaryB         string    `db:"summary_b"`
	CreatedAt        dbTime    `db:"created_at"`
}

const insertComparison = `
	INSERT INTO comparisons (
		id, name, source, group_column, value_column, group_a, group_b, skipped_a, skipped_b,
		method, alternative, alpha, n_a, n_b, mean_a, mean_b, variance_a, variance_b,
		statistic, degrees_of_freedom, standard_error, p_value, effect_size, ci_lower, ci_upper,
		reject_null, degenerate, summary_a, summary_b, created_at
	) VALUES (
		:id, :name, :source, :group_column, :value_column, :group_a, :group_b, :skipped_a, :skipped_b,
		:method, :alternative, :alpha, :n_a, :n_b, :mean_a, :mean_b, :variance_a, :variance_b,
		:statistic, :degrees_of_freedom, :standard_error, :p_value, :effect_size, :ci_lower, :ci_upper,
		:reject_null, :degenerate, :summary_a, :summary_b, :created_at
	)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		reject_null = EXCLUDED.reject_null,
		p_value = EXCLUDED.p_value,
		statistic = EXCLUDED.statistic`

// Save inserts a comparison, updating the decision fields if the ID already exists
func (r *ComparisonRepositoryImpl) Save(ctx context.Context, comparison *models.Comparison) error {
	row, err := toRow(comparison)
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, insertComparison, row); err != nil {
		return errors.DatabaseError("failed to save comparison", err)
	}
	return nil
}

// Get retrieves a comparison by ID
func (r *ComparisonRepositoryImpl) Get(ctx context.Context, id core.ComparisonID) (*models.Comparison, error) {
	var row comparisonRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT * FROM comparisons WHERE id = ?"), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("comparison " + id.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get comparison", err)
	}
	return fromRow(row)
}

// List returns comparisons newest first
func (r *ComparisonRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*models.Comparison, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var rows []comparisonRow
	query := r.db.Rebind("SELECT * FROM comparisons ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, errors.DatabaseError("failed to list comparisons", err)
	}

	comparisons := make([]*models.Comparison, 0, len(rows))
	for _, row := range rows {
		c, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		comparisons = append(comparisons, c)
	}
	return comparisons, nil
}

func toRow(c *models.Comparison) (comparisonRow, error) {
	summaryA, err := json.Marshal(c.SummaryA)
	if err != nil {
		return comparisonRow{}, errors.Wrap(err, "failed to encode summary A")
	}
	summaryB, err := json.Marshal(c.SummaryB)
	if err != nil {
		return comparisonRow{}, errors.Wrap(err, "failed to encode summary B")
	}

	res := c.Result
	return comparisonRow{
		ID:               c.ID.String(),
		Name:             c.Name,
		Source:           c.Source,
		GroupColumn:      c.GroupColumn,
		ValueColumn:      c.ValueColumn,
		GroupA:           c.GroupA,
		GroupB:           c.GroupB,
		SkippedA:         c.SkippedA,
		SkippedB:         c.SkippedB,
		Method:           string(res.Method),
		Alternative:      string(res.Alternative),
		Alpha:            res.Alpha,
		NA:               res.NA,
		NB:               res.NB,
		MeanA:            res.MeanA,
		MeanB:            res.MeanB,
		VarianceA:        res.VarianceA,
		VarianceB:        res.VarianceB,
		Statistic:        res.Statistic,
		DegreesOfFreedom: res.DegreesOfFreedom,
		StandardError:    res.StandardError,
		PValue:           res.PValue,
		EffectSize:       res.EffectSize,
		CILower:          res.ConfidenceInterval.Lower,
		CIUpper:          res.ConfidenceInterval.Upper,
		RejectNull:       res.RejectNull,
		Degenerate:       res.Degenerate,
		SummaryA:         string(summaryA),
		SummaryB:         string(summaryB),
		CreatedAt:        dbTime(c.CreatedAt.UTC()),
	}, nil
}

func fromRow(row comparisonRow) (*models.Comparison, error) {
	var summaryA, summaryB profiling.Summary
	if err := json.Unmarshal([]byte(row.SummaryA), &summaryA); err != nil {
		return nil, errors.Wrap(err, "failed to decode summary A")
	}
	if err := json.Unmarshal([]byte(row.SummaryB), &summaryB); err != nil {
		return nil, errors.Wrap(err, "failed to decode summary B")
	}

	return &models.Comparison{
		ID:          core.ComparisonID(row.ID),
		Name:        row.Name,
		Source:      row.Source,
		GroupColumn: row.GroupColumn,
		ValueColumn: row.ValueColumn,
		GroupA:      row.GroupA,
		GroupB:      row.GroupB,
		SkippedA:    row.SkippedA,
		SkippedB:    row.SkippedB,
		SummaryA:    summaryA,
		SummaryB:    summaryB,
		Result: stats.TestResult{
			Statistic:          row.Statistic,
			PValue:             row.PValue,
			RejectNull:         row.RejectNull,
			Alpha:              row.Alpha,
			Method:             stats.Method(row.Method),
			Alternative:        stats.Alternative(row.Alternative),
			DegreesOfFreedom:   row.DegreesOfFreedom,
			StandardError:      row.StandardError,
			MeanA:              row.MeanA,
			MeanB:              row.MeanB,
			VarianceA:          row.VarianceA,
			VarianceB:          row.VarianceB,
			NA:                 row.NA,
			NB:                 row.NB,
			EffectSize:         row.EffectSize,
			ConfidenceInterval: stats.Interval{Lower: row.CILower, Upper: row.CIUpper},
			Degenerate:         row.Degenerate,
		},
		CreatedAt: time.Time(row.CreatedAt),
	}, nil
}
