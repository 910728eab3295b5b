package museca

import (
	"fmt"

	"github.com/pkg/errors"
)

// Measure event resolver *****************************************************
//
// Both input dialects reduce to the same walk: split the row stream into
// measures at separator rows, time each measure off the tempo in effect at
// its start, emit measure/beat markers, then let the dialect's code table
// turn each row into events. Only the lane topology and code table differ,
// so they come in through the dialect strategy.

type dialect interface {
	// isSeparator reports whether a raw row delimits measures.
	isSeparator(text string) bool
	// resolveRow classifies every lane code of one row at rc.curtime.
	resolveRow(rc *resolver, row sourceLine) error
	// exemptSpinsAtEnd allows large spinner opens to survive end-of-chart.
	exemptSpinsAtEnd() bool
}

// resolver carries the per-difficulty resolution state. It lives for exactly
// one pass and never crosses difficulty boundaries.
type resolver struct {
	timeline *Timeline
	events   []Event
	pending  *pendingSet
	warnings *[]string
	curtime  float64

	// Inline grafica toggle state, 6-lane dialect only.
	graficaToggles int
}

func resolverNew(timeline *Timeline, offsetMS float64, warnings *[]string) *resolver {
	return &resolver{
		timeline: timeline,
		pending:  pendingSetNew(),
		warnings: warnings,
		curtime:  offsetMS,
	}
}

func (rc *resolver) warnf(format string, args ...interface{}) {
	*rc.warnings = append(*rc.warnings, fmt.Sprintf(format, args...))
}

func (rc *resolver) emit(e Event) {
	rc.events = append(rc.events, e)
}

// resolve walks one difficulty's row stream and returns its time-sorted
// event list. Fatal errors abort the difficulty with no partial output.
func (rc *resolver) resolve(d dialect, rows []sourceLine) ([]Event, error) {
	// Synthetic trailing separator so the final measure always terminates.
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		rows = append(rows[:len(rows):len(rows)], sourceLine{num: last.num + 1, text: ","})
	}

	var measure []sourceLine
	for _, row := range rows {
		if d.isSeparator(row.text) {
			if err := rc.resolveMeasure(d, measure, row.num); err != nil {
				return nil, err
			}
			measure = nil
		} else {
			measure = append(measure, row)
		}
	}

	if err := checkResolved(rc.pending, d.exemptSpinsAtEnd()); err != nil {
		return nil, err
	}

	return sequenceEvents(rc.events), nil
}

func (rc *resolver) resolveMeasure(d dialect, rows []sourceLine, endLine int) error {
	if len(rows) == 0 {
		return errors.Errorf("measure ending on line %d has no rows", endLine)
	}

	bpm, err := rc.timeline.BPMAt(rc.curtime)
	if err != nil {
		return errors.Wrapf(err, "measure ending on line %d", endLine)
	}

	// Measures are 4/4. The operation order here matches the authoring
	// tools so truncated millisecond values agree exactly.
	secondsPerBeat := 60.0 / bpm
	secondsPerMeasure := secondsPerBeat * 4.0
	msPerRow := (secondsPerMeasure / float64(len(rows))) * 1000.0
	msPerMarker := (secondsPerMeasure / 4) * 1000.0

	rc.emit(markerEvent(EventKindMeasureMarker, rc.curtime))
	rc.emit(markerEvent(EventKindBeatMarker, rc.curtime+msPerMarker))
	rc.emit(markerEvent(EventKindBeatMarker, rc.curtime+msPerMarker*2))
	rc.emit(markerEvent(EventKindBeatMarker, rc.curtime+msPerMarker*3))

	for _, row := range rows {
		if err := d.resolveRow(rc, row); err != nil {
			return err
		}
		rc.curtime += msPerRow
	}

	return nil
}

// closePending finishes the nearest-pushed open event of the category in the
// lane, stamping the current time as its end.
func (rc *resolver) closePending(lane, category int) bool {
	evt, ok := rc.pending.close(lane, category, rc.curtime)
	if !ok {
		return false
	}
	rc.emit(evt)
	return true
}

// toggleGrafica flips the inline grafica section state: starts on even
// toggles, ends on odd ones, hard-capped at three complete sections.
func (rc *resolver) toggleGrafica(line int) error {
	if rc.graficaToggles >= len(graficaLabels) {
		return errors.Errorf(
			"grafica toggle on line %d exceeds the %d allowed sections",
			line, graficaSectionCount,
		)
	}
	kind := EventKindGraficaStart
	if rc.graficaToggles%2 == 1 {
		kind = EventKindGraficaEnd
	}
	rc.emit(markerEvent(kind, rc.curtime))
	rc.graficaToggles++
	return nil
}
