package domain

import "strings"

// FormatNotes turns the wizard's free-text notes into display form.
// "-" means no notes; comma-separated items become bullet lines.
func FormatNotes(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "-" {
		return ""
	}
	if !strings.Contains(text, ",") {
		return text
	}
	var lines []string
	for _, p := range strings.Split(text, ",") {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, "— "+p)
		}
	}
	return strings.Join(lines, "\n")
}
