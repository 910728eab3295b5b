package museca

// Event kinds ****************************************************************
// Numeric vocabulary shared with the game-side XML consumers. The gaps are
// real: kinds 8-10 and 13 are unused by the format.
const (
	EventKindNote = iota
	EventKindHold
	EventKindLargeSpinner
	EventKindLargeSpinnerLeft
	EventKindLargeSpinnerRight
	EventKindSmallSpinner
	EventKindSmallSpinnerLeft
	EventKindSmallSpinnerRight

	EventKindMeasureMarker = 11
	EventKindBeatMarker    = 12

	EventKindGraficaStart = 14
	EventKindGraficaEnd   = 15
)

// pendingCategory groups open-event kinds for start/end pairing. A hold end
// only matches a hold, a spin end (or a mine) only matches one of the three
// large spinner variants.
const (
	categoryHold = iota
	categoryLargeSpinner
)

func pendingCategoryOf(kind int) int {
	switch kind {
	case EventKindLargeSpinner, EventKindLargeSpinnerLeft, EventKindLargeSpinnerRight:
		return categoryLargeSpinner
	default:
		return categoryHold
	}
}

// Lanes **********************************************************************

// Lane 5 is the foot pedal in both dialects' output topology.
const (
	laneCount = 6
	lanePedal = 5
)

// 16-lane dialect column layout: pedal first, then five tap columns, five
// left-spin columns, five right-spin columns.
const (
	smLanePedal = iota
	smLane1
	smLane2
	smLane3
	smLane4
	smLane5
	smLane1L
	smLane2L
	smLane3L
	smLane4L
	smLane5L
	smLane1R
	smLane2R
	smLane3R
	smLane4R
	smLane5R

	smLaneCount = 16
)

// smLaneGroups maps each output lane to its source columns: tap channel,
// left spin channel, right spin channel. The pedal has a single column.
var smLaneGroups = [laneCount][]int{
	{smLane1, smLane1L, smLane1R},
	{smLane2, smLane2L, smLane2R},
	{smLane3, smLane3L, smLane3R},
	{smLane4, smLane4L, smLane4R},
	{smLane5, smLane5L, smLane5R},
	{smLanePedal},
}

// 16-lane dialect note codes.
const (
	smNoteNone      = '0'
	smNoteTap       = '1'
	smNoteHoldStart = '2'
	smNoteHoldEnd   = '3'
	smNoteMine      = 'M'
)

func smKnownNote(c byte) bool {
	switch c {
	case smNoteNone, smNoteTap, smNoteHoldStart, smNoteHoldEnd, smNoteMine:
		return true
	}
	return false
}

// Grafica ********************************************************************

// The 16-lane dialect marks grafica sections with timeline labels. Exactly
// these six names, in this order.
var graficaLabels = []string{
	"GRAFICA_1_START", "GRAFICA_1_END",
	"GRAFICA_2_START", "GRAFICA_2_END",
	"GRAFICA_3_START", "GRAFICA_3_END",
}

const graficaSectionCount = 3
