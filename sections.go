package museca

import (
	"strings"

	"github.com/pkg/errors"
)

// rawSection is one difficulty's unparsed block: the four mandatory header
// fields plus the raw measure-row stream.
type rawSection struct {
	style      string
	author     string
	difficulty string
	rating     string
	data       []sourceLine
}

const sectionHeaderCount = 4

func (s *rawSection) setHeaderField(idx int, value string) {
	switch idx {
	case 0:
		s.style = value
	case 1:
		s.author = value
	case 2:
		s.difficulty = value
	case 3:
		s.rating = value
	}
}

// Section splitter, 6-lane dialect *******************************************
//
// .mu charts carry one #NOTES: block per difficulty:
//
//	#NOTES:
//	     museca-single:
//	     Effector Name:
//	     novice:
//	     5:
//	  ...measure rows...
//	  ;
//
// The four indented header lines are positional. A bare ';' line closes the
// block. Nesting is not a thing; a second #NOTES: inside an open block is a
// format error, as is a ';' with no open block.
func splitSections(lines []sourceLine) (map[string]*rawSection, error) {
	sections := map[string]*rawSection{}

	var cur *rawSection
	inSection := false
	headerIdx := 0
	sectionStart := 0

	for _, l := range lines {
		line := l.text
		switch {
		case line == "#NOTES:":
			if inSection {
				return nil, errors.Errorf(
					"unexpected NOTES section on line %d inside existing section starting on line %d",
					l.num, sectionStart,
				)
			}
			inSection = true
			headerIdx = 0
			sectionStart = l.num
			cur = &rawSection{}

		// Header lines are indented and end with ':'. The same shape can
		// occur in tag garbage outside a block; it only counts inside one.
		case strings.HasSuffix(line, ":") && len(line) > len(strings.TrimSpace(line)):
			if inSection && headerIdx < sectionHeaderCount {
				cur.setHeaderField(headerIdx, strings.TrimSpace(line[:len(line)-1]))
				headerIdx++
			}

		case strings.TrimSpace(line) == ";":
			if !inSection {
				return nil, errors.Errorf("spurious end section on line %d", l.num)
			}
			if headerIdx < sectionHeaderCount {
				return nil, errors.Errorf(
					"not enough metadata in section starting on line %d", sectionStart,
				)
			}
			inSection = false
			sections[strings.ToLower(cur.difficulty)] = cur

		case inSection:
			cur.data = append(cur.data, l)
		}
	}

	if inSection {
		return nil, errors.Errorf("unterminated section starting on line %d", sectionStart)
	}

	return sections, nil
}
