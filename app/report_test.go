package app

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypotest/domain/stats"
	"hypotest/internal/errors"
	"hypotest/models"
)

func reportFixture() []*models.Comparison {
	return []*models.Comparison{
		{
			Name:        "weather",
			ValueColumn: "duration",
			GroupA:      "Good",
			GroupB:      "Bad",
			Result: stats.TestResult{
				Statistic: -3.97, PValue: 0.0085, RejectNull: true, Alpha: 0.05,
				Alternative: stats.TwoSided, DegreesOfFreedom: 5.58, NA: 4, NB: 4,
				MeanA: 2.5, MeanB: 6.75, EffectSize: -2.8,
			},
		},
		{
			Name:   "platform|split",
			GroupA: "PC",
			GroupB: "PS4",
			Result: stats.TestResult{
				Statistic: 0.4, PValue: 0.69, Alpha: 0.05, Alternative: stats.TwoSided,
				DegreesOfFreedom: 40, NA: 21, NB: 23,
			},
		},
	}
}

func TestRenderReport_Markdown(t *testing.T) {
	out, err := RenderReport(reportFixture(), FormatMarkdown)
	require.NoError(t, err)

	md := string(out)
	assert.Contains(t, md, "| weather | Good | Bad | 4 | 4 |")
	assert.Contains(t, md, `platform\|split`)
	assert.Contains(t, md, "reject H0")
	assert.Contains(t, md, "fail to reject H0")
	assert.Contains(t, md, "the mean of duration differs between Good and Bad (p = 0.0085 < 0.05")
	assert.Contains(t, md, "no evidence that the mean differs between PC and PS4 (p = 0.69 >= 0.05)")
}

func TestRenderReport_OneSidedConclusion(t *testing.T) {
	comparisons := reportFixture()[:1]
	comparisons[0].Result.Alternative = stats.Less

	out, err := RenderReport(comparisons, "md")
	require.NoError(t, err)
	assert.Contains(t, string(out), "is lower for Good than for Bad")
}

func TestRenderReport_HTML(t *testing.T) {
	out, err := RenderReport(reportFixture(), FormatHTML)
	require.NoError(t, err)

	page := string(out)
	assert.True(t, strings.Contains(page, "<html"), page)
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<title>Mean comparisons</title>")
}

func TestRenderReport_JSON(t *testing.T) {
	out, err := RenderReport(reportFixture(), FormatJSON)
	require.NoError(t, err)

	var decoded []models.Comparison
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 0.0085, decoded[0].Result.PValue)
}

func TestRenderReport_UnknownFormat(t *testing.T) {
	_, err := RenderReport(reportFixture(), "pdf")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
