package wpref

import (
	"regexp"
	"strconv"
	"strings"
)

// referencePattern matches work package tokens such as "#482" or "OP#482".
// The bracketed form "[OP#482]" matches through its inner token.
var referencePattern = regexp.MustCompile(`(?i)(?:op)?#(\d+)`)

// Reference is a work package reference extracted from an entry description.
// Text carries the description with the matched token removed.
type Reference struct {
	ID   int64
	Raw  string
	Text string
}

// Parse extracts the first work package reference from a description.
// Later references in the same description are ignored. The second return
// value is false when the description contains no reference.
func Parse(description string) (Reference, bool) {
	match := referencePattern.FindStringSubmatchIndex(description)
	if match == nil {
		return Reference{}, false
	}

	id, err := strconv.ParseInt(description[match[2]:match[3]], 10, 64)
	if err != nil || id <= 0 {
		return Reference{}, false
	}

	start, end := match[0], match[1]
	raw := description[start:end]
	if start > 0 && end < len(description) && description[start-1] == '[' && description[end] == ']' {
		start--
		end++
	}

	return Reference{
		ID:   id,
		Raw:  raw,
		Text: collapse(description[:start] + " " + description[end:]),
	}, true
}

func collapse(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}
