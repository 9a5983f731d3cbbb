package calendar

import (
	"fmt"
	"strings"
)

const emptyAgenda = "この期間に予定はありません。"

// FormatAgenda renders events as one bullet line each.
func FormatAgenda(events []Event) string {
	if len(events) == 0 {
		return emptyAgenda
	}

	lines := make([]string, 0, len(events))
	for _, e := range events {
		title := e.Title
		if title == "" {
			title = "無題"
		}
		line := fmt.Sprintf("・%s %s", e.Start.Format("01月02日 15:04"), title)
		if e.Location != "" {
			line += fmt.Sprintf(" (%s)", e.Location)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
