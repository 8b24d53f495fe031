package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypotest/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"ALPHA", "TEST_METHOD", "TEST_ALTERNATIVE", "PLAN_CONCURRENCY", "DATABASE_DRIVER", "DATABASE_URL", "PORT", "GIN_MODE"} {
		t.Setenv(key, "")
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var trips = filepath.Join("testdata", "trips.csv")

func TestCompareCommand(t *testing.T) {
	out, err := execute(t, "compare", trips,
		"--group-column", "weather", "--value-column", "duration",
		"--a", "Good", "--b", "Bad", "--format", "json")
	require.NoError(t, err)

	var results []models.Comparison
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.InDelta(t, 0.0085128631313781695, results[0].Result.PValue, 1e-10)
	assert.Equal(t, 1, results[0].SkippedB)
	assert.Equal(t, "duration by weather", results[0].Name)
}

func TestCompareCommandMarkdown(t *testing.T) {
	out, err := execute(t, "compare", trips,
		"--group-column", "weather", "--value-column", "duration",
		"--a", "Good", "--b", "Bad", "--alpha", "0.001")
	require.NoError(t, err)
	assert.Contains(t, out, "fail to reject H0")
	assert.Contains(t, out, "no evidence that the mean of duration differs between Good and Bad")
}

func TestCompareCommandRequiresFlags(t *testing.T) {
	_, err := execute(t, "compare", trips, "--group-column", "weather")
	assert.Error(t, err)
}

func TestGroupsCommand(t *testing.T) {
	out, err := execute(t, "groups", trips, "--column", "weather")
	require.NoError(t, err)
	assert.Regexp(t, `Bad\s+5\n`, out)
	assert.Regexp(t, `Good\s+4\n`, out)
}

func TestMissingCommand(t *testing.T) {
	out, err := execute(t, "missing", trips)
	require.NoError(t, err)
	assert.Contains(t, out, "9 rows")
	assert.Regexp(t, `duration\s+1\s+11\.11%`, out)
}

func TestDescribeCommand(t *testing.T) {
	out, err := execute(t, "describe", trips, "--column", "duration", "--group-column", "weather")
	require.NoError(t, err)
	assert.Contains(t, out, "Bad\n  n=4 skipped=1")
	assert.Contains(t, out, "Good\n  n=4 skipped=0")
	assert.Contains(t, out, "mean=2.5")
}

func TestTopCommand(t *testing.T) {
	out, err := execute(t, "top", trips, "--column", "duration", "--n", "2")
	require.NoError(t, err)
	assert.Equal(t, "weather\tduration\tcommute\nBad\t9\tpm\nBad\t7\tam\n", out)
}

func TestTopCommandRejectsBadCount(t *testing.T) {
	_, err := execute(t, "top", trips, "--column", "duration", "--n", "0")
	assert.Error(t, err)

	_, err = execute(t, "top", trips, "--column", "trips_amount")
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	data, err := filepath.Abs(trips)
	require.NoError(t, err)

	plan := "comparisons:\n" +
		"  - name: weather\n    file: " + data + "\n    group_column: weather\n    value_column: duration\n    group_a: Good\n    group_b: Bad\n" +
		"  - name: commute\n    file: " + data + "\n    group_column: commute\n    value_column: duration\n    group_a: am\n    group_b: pm\n"
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, writeFile(path, plan))

	out, err := execute(t, "run", path, "--format", "json")
	require.NoError(t, err)

	var results []models.Comparison
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "weather", results[0].Name)
	assert.Equal(t, "commute", results[1].Name)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
