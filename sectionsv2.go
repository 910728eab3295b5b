package museca

import (
	"strings"

	"github.com/pkg/errors"
)

// Section splitter, 16-lane dialect ******************************************
//
// The .ssc-style layout wraps each difficulty in a #NOTEDATA block whose
// header fields arrive as tags (#STEPSTYPE, #CREDIT, #DIFFICULTY, #METER)
// followed by a #NOTES marker and the measure rows. #BPMS and #LABELS are
// standalone blocks terminated by any line ending in ';' (single-line form
// included); #BGCHANGES blocks are recognized only to be discarded.

type v2SplitResult struct {
	charts map[string]*rawSection
	tempo  []string
	labels []string
}

type v2State int

const (
	v2Outside v2State = iota
	v2Notedata
	v2Tempo
	v2Label
	v2Skip
)

// tagValue extracts the value of a single-line '#TAG:value;'-shaped line,
// without the trailing terminator.
func tagValue(strip string) string {
	_, val, found := strings.Cut(strip, ":")
	if !found || val == "" {
		return ""
	}
	return val[:len(val)-1]
}

// entryValue trims a continuation line of a multiline #BPMS/#LABELS block:
// the payload minus its trailing ',' or ';'.
func entryValue(strip string) string {
	if strip == "" {
		return ""
	}
	if c := strip[len(strip)-1]; c == ',' || c == ';' {
		return strip[:len(strip)-1]
	}
	return strip
}

func splitSectionsV2(lines []sourceLine) (*v2SplitResult, error) {
	out := &v2SplitResult{charts: map[string]*rawSection{}}

	state := v2Outside
	var cur *rawSection
	var entries []string
	notesStarted := false
	sectionStart := 0

	for _, l := range lines {
		line := l.text
		strip := strings.TrimSpace(line)

		switch state {
		case v2Outside:
			switch {
			case strings.HasPrefix(line, "#BGCHANGES"):
				if !strings.HasSuffix(strip, ";") {
					state = v2Skip
				}
			case strip == "#NOTEDATA:;":
				state = v2Notedata
				cur = &rawSection{}
				notesStarted = false
				sectionStart = l.num
			case strings.HasPrefix(strip, "#BPMS"):
				entries = []string{tagValue(strip)}
				if strings.HasSuffix(strip, ";") {
					out.tempo = append(out.tempo, entries...)
				} else {
					state = v2Tempo
					sectionStart = l.num
				}
			case strings.HasPrefix(strip, "#LABELS"):
				entries = []string{tagValue(strip)}
				if strings.HasSuffix(strip, ";") {
					out.labels = append(out.labels, entries...)
				} else {
					state = v2Label
					sectionStart = l.num
				}
			case strip == ";":
				return nil, errors.Errorf("spurious end section on line %d", l.num)
			}

		case v2Notedata:
			switch {
			case strip == "#NOTEDATA:;":
				return nil, errors.Errorf(
					"unexpected NOTEDATA section on line %d inside existing section starting on line %d",
					l.num, sectionStart,
				)
			case strip == ";":
				if cur.difficulty != "" {
					out.charts[strings.ToLower(cur.difficulty)] = cur
				}
				state = v2Outside
			case notesStarted:
				// Comment rows and stray terminators never count as measure
				// data.
				if !strings.HasPrefix(strip, "//") && !strings.HasPrefix(strip, ";") {
					cur.data = append(cur.data, l)
				}
			case strings.HasPrefix(strip, "#STEPSTYPE"):
				cur.style = tagValue(strip)
			case strings.HasPrefix(strip, "#DIFFICULTY"):
				cur.difficulty = tagValue(strip)
			case strings.HasPrefix(strip, "#METER"):
				cur.rating = tagValue(strip)
			case strings.HasPrefix(strip, "#CREDIT"):
				// #CREDIT inside #NOTEDATA is the effector. The top-level
				// #CREDIT names the illustrator and stays in Metadata.
				cur.author = tagValue(strip)
			case strings.HasPrefix(strip, "#NOTES"):
				notesStarted = true
			}

		case v2Tempo, v2Label:
			if strings.HasSuffix(strip, ";") {
				if strip != ";" {
					entries = append(entries, entryValue(strip))
				}
				if state == v2Tempo {
					out.tempo = append(out.tempo, entries...)
				} else {
					out.labels = append(out.labels, entries...)
				}
				state = v2Outside
			} else {
				entries = append(entries, entryValue(strip))
			}

		case v2Skip:
			if strings.HasSuffix(strip, ";") {
				state = v2Outside
			}
		}
	}

	if state == v2Notedata || state == v2Tempo || state == v2Label {
		return nil, errors.Errorf("unterminated section starting on line %d", sectionStart)
	}

	return out, nil
}
