package postgres

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypotest/adapters/db/migrations"
	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/errors"
	"hypotest/internal/profiling"
	"hypotest/models"
	"hypotest/ports"
)

func newTestRepository(t *testing.T) ports.ComparisonRepository {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.NewMigrator(db).Up(ctx))
	return NewComparisonRepository(db)
}

func sampleComparison(name string, createdAt time.Time) *models.Comparison {
	return &models.Comparison{
		ID:          core.NewComparisonID(),
		Name:        name,
		Source:      "loop_trips.csv",
		GroupColumn: "weather_conditions",
		ValueColumn: "duration_seconds",
		GroupA:      "Good",
		GroupB:      "Bad",
		SkippedA:    2,
		SummaryA:    profiling.Summary{N: 888, Mean: 1999.68, Median: 1800},
		SummaryB:    profiling.Summary{N: 180, Mean: 2427.21, Median: 2540},
		Result: stats.TestResult{
			Statistic:          -6.946,
			PValue:             6.5e-12,
			RejectNull:         true,
			Alpha:              0.05,
			Method:             stats.MethodWelch,
			Alternative:        stats.TwoSided,
			DegreesOfFreedom:   286.4,
			StandardError:      61.5,
			MeanA:              1999.68,
			MeanB:              2427.21,
			VarianceA:          576382.0,
			VarianceB:          520294.1,
			NA:                 888,
			NB:                 180,
			EffectSize:         -0.57,
			ConfidenceInterval: stats.Interval{Lower: -548.7, Upper: -306.4},
		},
		CreatedAt: createdAt,
	}
}

func TestComparisonRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	created := time.Date(2017, 11, 25, 16, 0, 0, 0, time.UTC)
	want := sampleComparison("loop-ohare-weather", created)
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Get(ctx, want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.GroupA, got.GroupA)
	assert.Equal(t, want.SkippedA, got.SkippedA)
	assert.Equal(t, want.SummaryA, got.SummaryA)
	assert.Equal(t, want.Result, got.Result)
	assert.True(t, created.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)
}

func TestComparisonRepository_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	c := sampleComparison("first", time.Now())
	require.NoError(t, repo.Save(ctx, c))

	c.Name = "renamed"
	require.NoError(t, repo.Save(ctx, c))

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	all, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestComparisonRepository_GetMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), core.NewComparisonID())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestComparisonRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, repo.Save(ctx, sampleComparison(name, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "newest", all[0].Name)
	assert.Equal(t, "oldest", all[2].Name)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "middle", page[0].Name)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "root@/db")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
