// Package emails pulls contact addresses, including "(at)" obfuscations,
// out of raw page markup.
package emails

import (
	"regexp"
	"strings"
)

// Applied in order over the raw markup so addresses in scripts and
// attributes are also captured.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+\s@\s[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+\s\(at\)\s[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+\s*\(at\)\s*[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

// Extract returns the distinct normalized addresses found in markup, in
// first-seen order. Deduplication is case-sensitive.
func Extract(markup string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, re := range patterns {
		for _, match := range re.FindAllString(markup, -1) {
			addr := Normalize(match)
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}

// Normalize strips whitespace and rewrites "(at)" to "@".
func Normalize(match string) string {
	compact := strings.Join(strings.Fields(match), "")
	return strings.ReplaceAll(compact, "(at)", "@")
}
