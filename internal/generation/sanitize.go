package generation

import (
	"regexp"
	"strings"
)

// fencePattern matches a reply that is a single markdown code block, with an
// optional info string such as "diff" or "patch".
var fencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_+-]*[ \t]*\r?\n(.*?)\r?\n?```$")

// SanitizePatch strips a markdown fence wrapped around the whole artifact.
// Content with text outside the fence is returned untouched. Reports whether
// a fence was removed.
func SanitizePatch(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	m := fencePattern.FindStringSubmatch(trimmed)
	if m == nil || strings.Contains(m[1], "\n```") {
		return content, false
	}
	return m[1] + "\n", true
}
