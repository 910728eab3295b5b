// reader.go
package museca

import (
	"strings"
)

// sourceLine is one raw chart line tagged with its 1-based position in the
// document, kept through splitting so resolver errors can point at it.
type sourceLine struct {
	num  int
	text string
}

// lineReader walks a chart document line by line. Line endings are
// normalized to \n up front; a trailing sentinel empty line is appended so
// block scanners always see one line past the real content, the same as the
// authoring tools do.
type lineReader struct {
	lines []string
	idx   int
}

func lineReaderNew(data []byte) *lineReader {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	lines = append(lines, "")
	return &lineReader{lines: lines}
}

// Next returns the next line and its 1-based number, ok=false past the end.
func (r *lineReader) Next() (sourceLine, bool) {
	if r.idx >= len(r.lines) {
		return sourceLine{}, false
	}
	l := sourceLine{num: r.idx + 1, text: r.lines[r.idx]}
	r.idx++
	return l, true
}

func (r *lineReader) All() []sourceLine {
	out := make([]sourceLine, 0, len(r.lines)-r.idx)
	for {
		l, ok := r.Next()
		if !ok {
			return out
		}
		out = append(out, l)
	}
}
