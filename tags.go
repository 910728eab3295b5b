package museca

import (
	"strconv"
	"strings"
)

// Metadata is the flat #KEY:value; tag mapping pulled from a chart document.
// Keys are lowercased. Built once, read-only afterward.
type Metadata map[string]string

// The illustrator credit is first-write-wins: charts repeat #CREDIT inside
// per-difficulty blocks for the effector name, and only the top-level one
// names the illustrator.
const creditTag = "credit"

// extractTags scans the whole document for tag lines. A tag line starts with
// '#', ends with ';' and carries a ':' between the delimiters; anything else
// is ignored, since chart files are mostly note data.
func extractTags(lines []sourceLine) Metadata {
	info := Metadata{}
	for _, l := range lines {
		line := l.text
		if !strings.HasPrefix(line, "#") || !strings.HasSuffix(line, ";") {
			continue
		}
		body := line[1 : len(line)-1]
		key, value, found := strings.Cut(body, ":")
		if !found {
			continue
		}
		key = strings.ToLower(key)
		if key == creditTag {
			if _, dup := info[creditTag]; dup {
				continue
			}
		}
		info[key] = value
	}
	return info
}

func (m Metadata) Get(key string) string {
	return m[key]
}

// Float reads a tag as a float, falling back to def when absent or
// unparsable. Chart offsets and preview positions come through here.
func (m Metadata) Float(key string, def float64) float64 {
	raw, ok := m[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def
	}
	return v
}

// OffsetMS is the chart-wide offset applied to every computed time.
func (m Metadata) OffsetMS() float64 {
	return m.Float("offset", 0.0) * 1000.0
}
