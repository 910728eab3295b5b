package museca

import (
	"strings"

	"github.com/pkg/errors"
)

// 6-lane (.mu) dialect *******************************************************
//
// One character per lane, six lanes per group, several space-separated
// groups allowed on one row. Lane 6 (index 5) is the foot pedal and only
// takes plain holds.

var muTapKinds = map[byte]int{
	'1': EventKindNote,
	's': EventKindSmallSpinner,
	'l': EventKindSmallSpinnerLeft,
	'r': EventKindSmallSpinnerRight,
}

var muHoldKinds = map[byte]int{
	'2': EventKindHold,
	'S': EventKindLargeSpinner,
	'L': EventKindLargeSpinnerLeft,
	'R': EventKindLargeSpinnerRight,
}

type muDialect struct{}

func (muDialect) isSeparator(text string) bool {
	return strings.TrimSpace(text) == ","
}

// Every hold and spin must close before end of chart in this dialect.
func (muDialect) exemptSpinsAtEnd() bool { return false }

func (muDialect) resolveRow(rc *resolver, row sourceLine) error {
	graficaSeen := false

	for _, group := range strings.Split(row.text, " ") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		if len(group) != laneCount {
			return errors.Errorf("invalid measure data on line %d", row.num)
		}

		for lane := 0; lane < laneCount; lane++ {
			code := group[lane]
			switch {
			case code == '0':

			case code == '1' || code == 's' || code == 'l' || code == 'r':
				if lane == lanePedal {
					return errors.Errorf("invalid regular note for foot pedal on line %d", row.num)
				}
				rc.emit(instantEvent(muTapKinds[code], lane, rc.curtime))

			case code == '2' || code == 'S' || code == 'L' || code == 'R':
				if lane == lanePedal && code != '2' {
					return errors.Errorf("invalid spin note for foot pedal on line %d", row.num)
				}
				rc.pending.push(row.num, instantEvent(muHoldKinds[code], lane, rc.curtime))

			case code == '3':
				if !rc.closePending(lane, categoryHold) {
					return errors.Errorf(
						"end hold note with no start hold found for lane %d on line %d",
						lane+1, row.num,
					)
				}

			case code == 'T':
				if !rc.closePending(lane, categoryLargeSpinner) {
					return errors.Errorf(
						"end spin note with no start spin found for lane %d on line %d",
						lane+1, row.num,
					)
				}

			case code == 'G':
				if graficaSeen {
					return errors.Errorf("multiple grafica toggles on line %d", row.num)
				}
				graficaSeen = true
				if err := rc.toggleGrafica(row.num); err != nil {
					return err
				}

			default:
				return errors.Errorf(
					"unknown note type %q for lane %d on line %d",
					string(code), lane+1, row.num,
				)
			}
		}
	}

	return nil
}

// MUChart ********************************************************************

var muDifficulties = []string{"novice", "advanced", "exhaust"}

// MUChart is a fully compiled 6-lane chart: metadata, tempo timeline and one
// time-sorted event list per present difficulty.
type MUChart struct {
	metadata Metadata
	sections map[string]*rawSection
	timeline *Timeline
	events   map[string][]Event
	warnings []string
}

// MUChartNew parses and resolves a .mu chart document.
func MUChartNew(data []byte) (*MUChart, error) {
	lines := lineReaderNew(data).All()

	c := &MUChart{
		metadata: extractTags(lines),
		events:   map[string][]Event{},
	}

	sections, err := splitSections(lines)
	if err != nil {
		return nil, err
	}
	c.sections = sections

	// Tempo tag positions are chart-relative seconds.
	var points []Breakpoint
	for _, p := range parseTempoEntries([]string{c.metadata.Get("bpms")}) {
		points = append(points, Breakpoint{Position: p.Beat * 1000.0, BPM: p.BPM})
	}
	c.timeline = timelineNew(points)

	offset := c.metadata.OffsetMS()
	for _, diff := range muDifficulties {
		sec, ok := sections[diff]
		if !ok {
			continue
		}
		rc := resolverNew(c.timeline, offset, &c.warnings)
		events, err := rc.resolve(muDialect{}, sec.data)
		if err != nil {
			return nil, errors.Wrapf(err, "difficulty %s", diff)
		}
		if rc.graficaToggles != len(graficaLabels) {
			rc.warnf("difficulty %s: expected %d grafica toggles, found %d",
				diff, len(graficaLabels), rc.graficaToggles)
		}
		c.events[diff] = events
	}

	return c, nil
}

func (c *MUChart) Metadata() Metadata { return c.metadata }
func (c *MUChart) Tempo() *Timeline   { return c.timeline }
func (c *MUChart) Warnings() []string { return c.warnings }

// Events returns the resolved event list for a difficulty, ok=false when the
// chart does not carry it.
func (c *MUChart) Events(difficulty string) ([]Event, bool) {
	events, ok := c.events[difficulty]
	return events, ok
}

func (c *MUChart) Rating(difficulty string) string {
	if sec, ok := c.sections[difficulty]; ok {
		return sec.rating
	}
	return ""
}

func (c *MUChart) Author(difficulty string) string {
	if sec, ok := c.sections[difficulty]; ok {
		return sec.author
	}
	return ""
}

// tempoTrack positions export in milliseconds for this dialect.
func (c *MUChart) tempoTrack() []Breakpoint {
	return c.timeline.Points()
}

func (c *MUChart) exportProfile() exportProfile {
	return muExportProfile
}
