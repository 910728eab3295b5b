package museca

import (
	"strings"

	"github.com/pkg/errors"
)

// 16-lane dialect ************************************************************
//
// StepMania-style rows, sixteen columns wide: pedal, five tap columns, five
// left-spin columns, five right-spin columns. Tap-channel codes map straight
// to notes and holds; the two spin channels are read jointly per lane. A
// mine anywhere in a lane's triple ends that lane's open storm.

type smDialect struct{}

func (smDialect) isSeparator(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), ",")
}

// Storms may be closed past the final measure (or never); only holds must
// pair up before end of chart.
func (smDialect) exemptSpinsAtEnd() bool { return true }

func (smDialect) resolveRow(rc *resolver, row sourceLine) error {
	mset := strings.TrimSpace(row.text)
	if mset == "" {
		return nil
	}
	if len(mset) != smLaneCount {
		return errors.Errorf("invalid measure data on line %d", row.num)
	}

	for lane, cols := range smLaneGroups {
		if lane == lanePedal {
			if err := resolvePedal(rc, mset[cols[0]], row.num); err != nil {
				return err
			}
			continue
		}

		tap := mset[cols[0]]
		spinL := mset[cols[1]]
		spinR := mset[cols[2]]

		// Mines first: a mine in any channel of this lane terminates the
		// lane's open storm, and is nothing else.
		if tap == smNoteMine || spinL == smNoteMine || spinR == smNoteMine {
			if !rc.closePending(lane, categoryLargeSpinner) {
				return errors.Errorf(
					"end spin note with no start spin found for lane %d on line %d",
					lane, row.num,
				)
			}
		}

		switch tap {
		case smNoteTap:
			rc.emit(instantEvent(EventKindNote, lane, rc.curtime))
		case smNoteHoldStart:
			rc.pending.push(row.num, instantEvent(EventKindHold, lane, rc.curtime))
		case smNoteHoldEnd:
			if !rc.closePending(lane, categoryHold) {
				return errors.Errorf(
					"end hold note with no start hold found for lane %d on line %d",
					lane, row.num,
				)
			}
		default:
			if !smKnownNote(tap) {
				return errors.Errorf(
					"unknown normal note type %q for lane %d on line %d",
					string(tap), lane, row.num,
				)
			}
		}

		if err := resolveSpins(rc, lane, spinL, spinR, row.num); err != nil {
			return err
		}
	}

	return nil
}

func spinActive(c byte) bool {
	return c == smNoteTap || c == smNoteHoldStart
}

func resolveSpins(rc *resolver, lane int, spinL, spinR byte, line int) error {
	// Both spin channels active at once collapse to a non-directional spin:
	// a storm if either side holds, a small spinner if both tap. Hold ends
	// in the spin channels are meaningless; storms only close on mines.
	if spinActive(spinL) && spinActive(spinR) {
		if spinL == smNoteHoldStart || spinR == smNoteHoldStart {
			rc.pending.push(line, instantEvent(EventKindLargeSpinner, lane, rc.curtime))
		} else {
			rc.emit(instantEvent(EventKindSmallSpinner, lane, rc.curtime))
		}
		return nil
	}

	invalid := false
	if spinL != smNoteNone {
		switch spinL {
		case smNoteTap:
			rc.emit(instantEvent(EventKindSmallSpinnerLeft, lane, rc.curtime))
		case smNoteHoldStart:
			rc.pending.push(line, instantEvent(EventKindLargeSpinnerLeft, lane, rc.curtime))
		default:
			if !smKnownNote(spinL) {
				invalid = true
			}
		}
	}
	if spinR != smNoteNone {
		switch spinR {
		case smNoteTap:
			rc.emit(instantEvent(EventKindSmallSpinnerRight, lane, rc.curtime))
		case smNoteHoldStart:
			rc.pending.push(line, instantEvent(EventKindLargeSpinnerRight, lane, rc.curtime))
		default:
			if !smKnownNote(spinR) {
				invalid = true
			}
		}
	}
	if invalid {
		return errors.Errorf(
			"unknown spin note type [%s %s] for lane %d on line %d",
			string(spinL), string(spinR), lane, line,
		)
	}
	return nil
}

// The pedal only holds: taps and mines on it are chart bugs.
func resolvePedal(rc *resolver, code byte, line int) error {
	switch code {
	case smNoteHoldStart:
		rc.pending.push(line, instantEvent(EventKindHold, lanePedal, rc.curtime))
	case smNoteHoldEnd:
		if !rc.closePending(lanePedal, categoryHold) {
			return errors.Errorf(
				"end hold note with no start hold found for lane %d on line %d",
				lanePedal, line,
			)
		}
	case smNoteTap, smNoteMine:
		return errors.Errorf(
			"invalid note type %q for foot pedal on line %d", string(code), line,
		)
	}
	return nil
}

// Grafica from labels ********************************************************

// graficaFromLabels derives the six section markers from the GRAFICA_ label
// sequence. Unlike the 6-lane toggle this is strict: wrong count or wrong
// name order is fatal.
func graficaFromLabels(labels []Label, beats []BeatPoint, offsetMS float64) ([]Event, error) {
	var relevant []Label
	for _, l := range labels {
		if strings.HasPrefix(l.Name, "GRAFICA_") {
			relevant = append(relevant, l)
		}
	}
	if len(relevant) != len(graficaLabels) {
		return nil, errors.Errorf(
			"found %d GRAFICA_ items in #LABELS, need %d",
			len(relevant), len(graficaLabels),
		)
	}

	var events []Event
	for i, l := range relevant {
		if l.Name != graficaLabels[i] {
			return nil, errors.Errorf(
				"unexpected %s label found in #LABELS, was expecting %s",
				l.Name, graficaLabels[i],
			)
		}
		kind := EventKindGraficaStart
		if i%2 == 1 {
			kind = EventKindGraficaEnd
		}
		events = append(events, markerEvent(kind, float64(beatsToMS(beats, l.Beat, offsetMS))))
	}
	return events, nil
}

// SMChart ********************************************************************

var smDifficulties = []string{"easy", "medium", "hard"}

// SMChart is a fully compiled 16-lane chart.
type SMChart struct {
	metadata Metadata
	sections map[string]*rawSection
	beats    []BeatPoint
	labels   []Label
	timeline *Timeline
	events   map[string][]Event
	warnings []string
}

// SMChartNew parses and resolves an .sm/.ssc-style chart document. Tempo and
// label data come from the single-line tags when present, falling back to
// the multiline blocks the splitter collected.
func SMChartNew(data []byte) (*SMChart, error) {
	lines := lineReaderNew(data).All()

	c := &SMChart{
		metadata: extractTags(lines),
		events:   map[string][]Event{},
	}

	split, err := splitSectionsV2(lines)
	if err != nil {
		return nil, err
	}
	c.sections = split.charts

	tempoRaws := split.tempo
	if raw := c.metadata.Get("bpms"); raw != "" {
		tempoRaws = []string{raw}
	}
	c.beats = parseTempoEntries(tempoRaws)

	labelRaws := split.labels
	if raw := c.metadata.Get("labels"); raw != "" {
		labelRaws = strings.Split(raw, ",")
	}
	c.labels = parseLabelEntries(labelRaws)

	offset := c.metadata.OffsetMS()

	// Breakpoint positions live on the millisecond axis, projected from the
	// beat domain through all prior segments.
	var points []Breakpoint
	for _, p := range c.beats {
		points = append(points, Breakpoint{
			Position: float64(beatsToMS(c.beats, p.Beat, offset)),
			BPM:      p.BPM,
		})
	}
	c.timeline = timelineNew(points)

	for _, diff := range smDifficulties {
		sec, ok := split.charts[diff]
		if !ok {
			continue
		}
		grafica, err := graficaFromLabels(c.labels, c.beats, offset)
		if err != nil {
			return nil, errors.Wrapf(err, "difficulty %s", diff)
		}
		rc := resolverNew(c.timeline, offset, &c.warnings)
		for _, e := range grafica {
			rc.emit(e)
		}
		events, err := rc.resolve(smDialect{}, sec.data)
		if err != nil {
			return nil, errors.Wrapf(err, "difficulty %s", diff)
		}
		c.events[diff] = events
	}

	return c, nil
}

func (c *SMChart) Metadata() Metadata { return c.metadata }
func (c *SMChart) Tempo() *Timeline   { return c.timeline }
func (c *SMChart) Warnings() []string { return c.warnings }

func (c *SMChart) Events(difficulty string) ([]Event, bool) {
	events, ok := c.events[difficulty]
	return events, ok
}

func (c *SMChart) Rating(difficulty string) string {
	if sec, ok := c.sections[difficulty]; ok {
		return sec.rating
	}
	return ""
}

func (c *SMChart) Author(difficulty string) string {
	if sec, ok := c.sections[difficulty]; ok {
		return sec.author
	}
	return ""
}

// Labels exposes the parsed timeline labels.
func (c *SMChart) Labels() []Label { return c.labels }

// tempoTrack positions export in beats for this dialect.
func (c *SMChart) tempoTrack() []Breakpoint {
	out := make([]Breakpoint, len(c.beats))
	for i, p := range c.beats {
		out[i] = Breakpoint{Position: p.Beat, BPM: p.BPM}
	}
	return out
}

func (c *SMChart) exportProfile() exportProfile {
	return smExportProfile
}
