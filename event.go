package museca

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Event is one time-stamped gameplay event. Start and End are chart-relative
// milliseconds; instantaneous events have Start == End. For the marker kinds
// (measure, beat, grafica start/end) Lane carries the kind value itself, not
// a playable lane. Downstream consumers key off that duplication.
type Event struct {
	Kind  int
	Lane  int
	Start int64
	End   int64
}

func (e Event) String() string {
	return fmt.Sprintf("Event(k:%d l:%d %d..%d)", e.Kind, e.Lane, e.Start, e.End)
}

func instantEvent(kind, lane int, at float64) Event {
	ms := int64(at)
	return Event{Kind: kind, Lane: lane, Start: ms, End: ms}
}

func markerEvent(kind int, at float64) Event {
	return instantEvent(kind, kind, at)
}

// Pending events *************************************************************

type pendingKey struct {
	lane     int
	category int
}

type pendingEvent struct {
	line int // source line that opened it
	seq  int // push order across the whole difficulty
	evt  Event
}

// pendingSet holds provisionally-open events keyed by (lane, pairing
// category). close pops the nearest-pushed open in that slot.
type pendingSet struct {
	open map[pendingKey][]pendingEvent
	seq  int
}

func pendingSetNew() *pendingSet {
	return &pendingSet{open: make(map[pendingKey][]pendingEvent)}
}

func (p *pendingSet) push(line int, evt Event) {
	key := pendingKey{lane: evt.Lane, category: pendingCategoryOf(evt.Kind)}
	p.open[key] = append(p.open[key], pendingEvent{line: line, seq: p.seq, evt: evt})
	p.seq++
}

func (p *pendingSet) close(lane, category int, end float64) (Event, bool) {
	key := pendingKey{lane: lane, category: category}
	stack := p.open[key]
	if len(stack) == 0 {
		return Event{}, false
	}
	pe := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(p.open, key)
	} else {
		p.open[key] = stack[:len(stack)-1]
	}
	pe.evt.End = int64(end)
	return pe.evt, true
}

// unresolved returns every still-open event in push order.
func (p *pendingSet) unresolved() []pendingEvent {
	var out []pendingEvent
	for _, stack := range p.open {
		out = append(out, stack...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Sequencer ******************************************************************

// sequenceEvents orders a difficulty's emitted events by start time. The sort
// is stable: ties keep emission order. Duplicate starts are preserved.
func sequenceEvents(events []Event) []Event {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start < events[j].Start
	})
	return events
}

// checkResolved fails on the first event still open at end of chart, in push
// order. exemptSpins leaves large spinner opens alone; the 16-lane dialect
// allows a storm to outlive the chart.
func checkResolved(pending *pendingSet, exemptSpins bool) error {
	for _, pe := range pending.unresolved() {
		if exemptSpins && pendingCategoryOf(pe.evt.Kind) == categoryLargeSpinner {
			continue
		}
		return errors.Errorf(
			"note started on line %d for lane %d is missing end marker",
			pe.line, pe.evt.Lane+1,
		)
	}
	return nil
}
