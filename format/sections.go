package format

import (
	"strings"
)

// RawSectionID is the sentinel section used when a response could not be
// split into its declared sections, and for stream deltas emitted before
// section boundaries are known.
const RawSectionID = "raw"

// ParseSections splits raw model output into the format's declared sections.
//
// Section boundaries are detected by matching each line against the declared
// section titles (and ids), tolerating common markdown decoration: leading
// '#' runs, bold markers and a trailing colon. The parser is best-effort: if
// no declared heading is recognized anywhere in the text, the whole output is
// returned under RawSectionID instead of failing the agent result. Text
// preceding the first recognized heading is also kept under RawSectionID.
func ParseSections(f ResponseFormat, text string) map[string]string {
	if len(f.Sections) == 0 {
		return map[string]string{RawSectionID: text}
	}

	anchors := make(map[string]string, len(f.Sections)*2)
	for _, s := range f.Sections {
		anchors[normalizeHeading(s.Title)] = s.ID
		anchors[normalizeHeading(s.ID)] = s.ID
	}

	sections := make(map[string]string)
	current := RawSectionID
	matched := false
	var buf strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(buf.String())
		buf.Reset()
		if chunk == "" {
			return
		}
		if prev, ok := sections[current]; ok {
			sections[current] = prev + "\n\n" + chunk
		} else {
			sections[current] = chunk
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if id, ok := anchors[normalizeHeading(line)]; ok {
			flush()
			current = id
			matched = true
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	if !matched {
		return map[string]string{RawSectionID: text}
	}
	return sections
}

// normalizeHeading strips markdown heading decoration and case so titles
// match loosely: "## Summary:", "**summary**" and "Summary" are equivalent.
func normalizeHeading(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	s = strings.TrimSuffix(s, ":")
	s = strings.TrimSpace(s)
	return strings.ToLower(s)
}
