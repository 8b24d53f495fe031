package models

import (
	"time"

	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/profiling"
)

// InlineSource marks comparisons whose samples came from a request body
const InlineSource = "inline"

// Comparison is one recorded two-sample mean comparison with its provenance
type Comparison struct {
	ID          core.ComparisonID `json:"id"`
	Name        string            `json:"name"`
	Source      string            `json:"source"`
	GroupColumn string            `json:"group_column,omitempty"`
	ValueColumn string            `json:"value_column,omitempty"`
	GroupA      string            `json:"group_a"`
	GroupB      string            `json:"group_b"`
	SkippedA    int               `json:"skipped_a"` // rows dropped as missing/non-numeric
	SkippedB    int               `json:"skipped_b"`
	SummaryA    profiling.Summary `json:"summary_a"`
	SummaryB    profiling.Summary `json:"summary_b"`
	Result      stats.TestResult  `json:"result"`
	CreatedAt   time.Time         `json:"created_at"`
}
