package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders test results as CSV string, one row per variant.
func RenderCSV(rows []TestResultRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("test_id,test_name,status,winner,final,variant,profile_id,profile_name,")
	sb.WriteString("total_swipes,right_swipes,left_swipes,super_swipes,matches_count,")
	sb.WriteString("match_rate,avg_ai_score,message_response_rate\n")

	// Rows
	for _, row := range rows {
		sb.WriteString(variantCSVRow(&row, "A", &row.VariantA))
		sb.WriteString(variantCSVRow(&row, "B", &row.VariantB))
	}

	return sb.String()
}

func variantCSVRow(row *TestResultRow, label string, v *VariantRow) string {
	return fmt.Sprintf("%d,%s,%s,%s,%t,%s,%d,%s,%d,%d,%d,%d,%d,%.6f,%.6f,%.6f\n",
		row.TestID,
		csvEscape(row.TestName),
		row.Status,
		row.Winner,
		row.Final,
		label,
		v.ProfileID,
		csvEscape(v.ProfileName),
		v.TotalSwipes,
		v.RightSwipes,
		v.LeftSwipes,
		v.SuperSwipes,
		v.MatchesCount,
		v.MatchRate,
		v.AvgAIScore,
		v.MessageResponseRate,
	)
}

// csvEscape quotes fields containing commas, quotes or newlines.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
