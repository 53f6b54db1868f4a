package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
)

// Report renders a run snapshot as markdown.
func Report(title string, s domain.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if s.ErrorMessage != "" {
		fmt.Fprintf(&sb, "> **error:** %s\n\n", escape(s.ErrorMessage))
	}

	if len(s.NodeResults) == 0 {
		sb.WriteString("_no results_\n")
	} else {
		sb.WriteString("| # | node | value |\n|---|---|---|\n")
		for i, r := range s.NodeResults {
			fmt.Fprintf(&sb, "| %d | `%s` | %s |\n", i+1, r.NodeID, escape(fmt.Sprint(r.Value)))
		}
	}

	if s.Telemetry.Enabled() && len(s.Telemetry.Events) > 0 {
		sb.WriteString("\n## Events\n\n")
		for _, e := range s.Telemetry.Events {
			fmt.Fprintf(&sb, "- `%s` %s at %s\n", e.NodeID, e.Status, e.At.Format("15:04:05.000"))
		}
	}
	return sb.String()
}

// escape keeps a value on one table row.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", "<br>")
}
