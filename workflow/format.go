package workflow

import (
	"strings"
	"unicode/utf8"
)

// sectionHeadings are report section titles promoted to markdown headings.
var sectionHeadings = []string{
	"executive summary",
	"key findings",
	"issues/errors",
	"recommendations",
	"analysis",
}

// FormatMarkdown normalizes an aggregator report into clean markdown. Known
// section titles become level-two headings unless already marked, bullet
// markers are normalized to "- ", and everything else passes through
// unchanged.
func FormatMarkdown(output string) string {
	lines := strings.Split(output, "\n")
	formatted := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			formatted = append(formatted, "")
			continue
		}

		switch {
		case isSectionHeading(line):
			if !strings.HasPrefix(line, "#") {
				formatted = append(formatted, "## "+line)
			} else {
				formatted = append(formatted, line)
			}
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•"):
			if !strings.HasPrefix(line, "- ") {
				_, size := utf8.DecodeRuneInString(line)
				line = "- " + strings.TrimSpace(line[size:])
			}
			formatted = append(formatted, line)
		default:
			formatted = append(formatted, line)
		}
	}

	return strings.Join(formatted, "\n")
}

func isSectionHeading(line string) bool {
	lower := strings.ToLower(line)
	for _, heading := range sectionHeadings {
		if strings.Contains(lower, heading) {
			return true
		}
	}
	return false
}
