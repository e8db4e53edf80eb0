package reporting

import (
	"fmt"
	"strings"
	"time"

	"swipe-analytics-lab/internal/stats"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# A/B Test Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Account: %d\n\n", r.DatingAccountID))
	sb.WriteString(fmt.Sprintf("Tests: %d | Completed: %d | Running: %d\n\n",
		r.TestCount, r.CompletedCount, r.RunningCount))

	if len(r.Rows) == 0 {
		sb.WriteString("No A/B tests found for this account.\n")
		return sb.String()
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Test | Status | Winner | Final |\n")
	sb.WriteString("|------|--------|--------|-------|\n")
	for _, row := range r.Rows {
		final := "interim"
		if row.Final {
			final = "final"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			row.TestName, row.Status, row.Winner, final))
	}
	sb.WriteString("\n")

	// Per-test detail
	for _, row := range r.Rows {
		sb.WriteString(fmt.Sprintf("## %s (test %d)\n\n", row.TestName, row.TestID))
		sb.WriteString(fmt.Sprintf("Status: %s | Winner: %s\n\n", row.Status, row.Winner))

		sb.WriteString("| Variant | Profile | Swipes | Right | Left | Super | Matches | MatchRate | AvgAIScore | MsgRate |\n")
		sb.WriteString("|---------|---------|--------|-------|------|-------|---------|-----------|-----------|--------|\n")
		sb.WriteString(variantMarkdownRow("A", &row.VariantA))
		sb.WriteString(variantMarkdownRow("B", &row.VariantB))
		sb.WriteString("\n")

		sb.WriteString(variantMixLine("A", &row.VariantA))
		sb.WriteString(variantMixLine("B", &row.VariantB))
		sb.WriteString("\n")

		if row.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("**Recommendation:** %s\n\n", row.Recommendation))
		}
	}

	return sb.String()
}

func variantMixLine(label string, v *VariantRow) string {
	mix := stats.Breakdown(v.RightSwipes, v.LeftSwipes, v.SuperSwipes)
	return fmt.Sprintf("Swipe mix %s: %.1f%% right / %.1f%% left / %.1f%% super\n",
		label, mix.RightPct, mix.LeftPct, mix.SuperPct)
}

func variantMarkdownRow(label string, v *VariantRow) string {
	name := v.ProfileName
	if name == "" {
		name = fmt.Sprintf("profile %d", v.ProfileID)
	}
	return fmt.Sprintf("| %s | %s | %d | %d | %d | %d | %d | %.4f | %.4f | %.4f |\n",
		label, name,
		v.TotalSwipes, v.RightSwipes, v.LeftSwipes, v.SuperSwipes, v.MatchesCount,
		v.MatchRate, v.AvgAIScore, v.MessageResponseRate)
}
