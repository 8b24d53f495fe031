package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"hypotest/domain/stats"
	"hypotest/internal/errors"
	"hypotest/models"
)

// Report formats
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// RenderReport renders comparisons as markdown, a standalone HTML page or JSON
func RenderReport(comparisons []*models.Comparison, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md", "":
		return renderMarkdown(comparisons), nil
	case FormatHTML:
		return renderHTML(comparisons), nil
	case FormatJSON:
		out, err := json.MarshalIndent(comparisons, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "encode report")
		}
		return append(out, '\n'), nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown report format %q (want markdown, html or json)", format))
	}
}

func renderMarkdown(comparisons []*models.Comparison) []byte {
	var b bytes.Buffer

	b.WriteString("# Mean comparisons\n\n")
	b.WriteString("| Comparison | A | B | n(A) | n(B) | mean(A) | mean(B) | t | df | p | Decision |\n")
	b.WriteString("|---|---|---|---:|---:|---:|---:|---:|---:|---:|---|\n")
	for _, c := range comparisons {
		r := c.Result
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d | %.4g | %.4g | %.4f | %.2f | %.4g | %s |\n",
			escapeCell(c.Name), escapeCell(c.GroupA), escapeCell(c.GroupB),
			r.NA, r.NB, r.MeanA, r.MeanB, r.Statistic, r.DegreesOfFreedom, r.PValue, r.Decision())
	}

	b.WriteString("\n## Conclusions\n\n")
	for _, c := range comparisons {
		fmt.Fprintf(&b, "- **%s**: %s\n", c.Name, conclusion(c))
	}
	return b.Bytes()
}

func renderHTML(comparisons []*models.Comparison) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Mean comparisons",
	})
	return markdown.ToHTML(renderMarkdown(comparisons), p, renderer)
}

// conclusion states the decision in words. The null is rejected only when
// p < alpha.
func conclusion(c *models.Comparison) string {
	r := c.Result
	what := "the mean"
	if c.ValueColumn != "" {
		what = "the mean of " + c.ValueColumn
	}

	if !r.RejectNull {
		return fmt.Sprintf("no evidence that %s differs between %s and %s (p = %.4g >= %g)",
			what, c.GroupA, c.GroupB, r.PValue, r.Alpha)
	}

	relation := "differs between " + c.GroupA + " and " + c.GroupB
	switch r.Alternative {
	case stats.Less:
		relation = "is lower for " + c.GroupA + " than for " + c.GroupB
	case stats.Greater:
		relation = "is higher for " + c.GroupA + " than for " + c.GroupB
	}
	return fmt.Sprintf("%s %s (p = %.4g < %g, d = %.2f)", what, relation, r.PValue, r.Alpha, r.EffectSize)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
