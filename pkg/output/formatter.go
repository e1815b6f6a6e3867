package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ericmutta/rollup/pkg/models"
)

// Format renders an analysis report in the selected format. "json" is
// the machine surface, "human" a colored terminal summary.
func Format(rep models.Report, format string, color bool) string {
	switch format {
	case "json":
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Sprintf("{\"error\":\"failed to marshal report: %v\"}", err)
		}
		return string(out)

	case "human":
		return formatHuman(rep, color)

	default:
		return ""
	}
}

func formatHuman(rep models.Report, color bool) string {
	cHead, cLabel, cValue, cDrop, cKeep, cReset := "", "", "", "", "", ""
	if color {
		cHead = "\x1b[38;5;45m"
		cLabel = "\x1b[38;5;81m"
		cValue = "\x1b[38;5;153m"
		cDrop = "\x1b[38;5;196m"
		cKeep = "\x1b[38;5;114m"
		cReset = "\x1b[0m"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s[+] Treeshaking Report%s\n", cHead, cReset))
	sb.WriteString(fmt.Sprintf("    %sPasses:%s  %s%d%s\n", cLabel, cReset, cValue, rep.Passes, cReset))
	sb.WriteString(fmt.Sprintf("    %sModules:%s %s%d%s\n", cLabel, cReset, cValue, len(rep.Modules), cReset))

	for _, m := range rep.Modules {
		marker := cKeep + "kept" + cReset
		if !m.Included {
			marker = cDrop + "dropped" + cReset
		}
		entry := ""
		if m.Entry {
			entry = " (entry)"
		}
		sb.WriteString(fmt.Sprintf("\n    %s%s%s%s [%s]\n", cValue, m.ID, cReset, entry, marker))

		for _, exp := range m.Exports {
			state := cDrop + "unused" + cReset
			if exp.Included {
				state = cKeep + "included" + cReset
			} else if exp.Referenced {
				state = cValue + "referenced" + cReset
			}
			sb.WriteString(fmt.Sprintf("      %sexport%s %-20s %s\n", cLabel, cReset, exp.Name, state))
		}
		for _, imp := range m.Imports {
			origin := imp.Source
			if imp.External {
				origin += " (external)"
			} else if !imp.Resolved {
				origin += " (unresolved)"
			}
			sb.WriteString(fmt.Sprintf("      %simport%s %-20s from %s\n", cLabel, cReset, imp.LocalName, origin))
		}
		if len(m.Kept) > 0 {
			ranges := make([]string, len(m.Kept))
			for i, r := range m.Kept {
				if r.StartLine == r.EndLine {
					ranges[i] = fmt.Sprintf("%d", r.StartLine)
				} else {
					ranges[i] = fmt.Sprintf("%d-%d", r.StartLine, r.EndLine)
				}
			}
			sb.WriteString(fmt.Sprintf("      %slines kept:%s %s\n", cLabel, cReset, strings.Join(ranges, ", ")))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
