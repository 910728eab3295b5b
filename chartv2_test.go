package museca

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func smChartDoc(rows ...string) []byte {
	doc := "#TITLE:Test Song;\n" +
		"#ARTIST:Somebody;\n" +
		"#OFFSET:0.0;\n" +
		"#BPMS:0.000=120.000;\n" +
		"#LABELS:0.000=GRAFICA_1_START,\n" +
		"1.000=GRAFICA_1_END,\n" +
		"2.000=GRAFICA_2_START,\n" +
		"3.000=GRAFICA_2_END,\n" +
		"4.000=GRAFICA_3_START,\n" +
		"5.000=GRAFICA_3_END;\n" +
		"#NOTEDATA:;\n" +
		"#STEPSTYPE:museca-single16;\n" +
		"#CREDIT:Effector Name;\n" +
		"#DIFFICULTY:medium;\n" +
		"#METER:7;\n" +
		"#NOTES:\n"
	for _, r := range rows {
		doc += r + "\n"
	}
	doc += ";\n"
	return []byte(doc)
}

// smRow builds one 16-column row with the given codes placed by column.
func smRow(codes map[int]byte) string {
	row := []byte("0000000000000000")
	for col, c := range codes {
		row[col] = c
	}
	return string(row)
}

func TestSMChartRowTiming(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{1: '1'}),
		smRow(map[int]byte{2: '1'}),
		smRow(map[int]byte{3: '1'}),
		smRow(map[int]byte{4: '1'}),
	))
	require.NoError(t, err)

	notes := eventsOfKind(mustEvents(t, chart, "medium"), EventKindNote)
	require.Len(t, notes, 4)
	for i, n := range notes {
		require.Equal(t, i, n.Lane)
		require.Equal(t, int64(i*500), n.Start)
	}
}

func TestSMChartGraficaFromLabels(t *testing.T) {
	// No measure rows at all: the grafica markers stand alone, projected
	// from beats (120 BPM puts one beat at 500ms).
	chart, err := SMChartNew(smChartDoc())
	require.NoError(t, err)

	events := mustEvents(t, chart, "medium")
	starts := eventsOfKind(events, EventKindGraficaStart)
	ends := eventsOfKind(events, EventKindGraficaEnd)
	require.Len(t, starts, 3)
	require.Len(t, ends, 3)

	require.Equal(t, int64(0), starts[0].Start)
	require.Equal(t, int64(500), ends[0].Start)
	require.Equal(t, int64(1000), starts[1].Start)
	require.Equal(t, int64(2500), ends[2].Start)
	require.Equal(t, EventKindGraficaStart, starts[0].Lane)
}

func TestSMChartHold(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{1: '2'}),
		smRow(nil),
		smRow(map[int]byte{1: '3'}),
		smRow(nil),
	))
	require.NoError(t, err)

	holds := eventsOfKind(mustEvents(t, chart, "medium"), EventKindHold)
	require.Len(t, holds, 1)
	require.Equal(t, 0, holds[0].Lane)
	require.Equal(t, int64(0), holds[0].Start)
	require.Equal(t, int64(1000), holds[0].End)
}

func TestSMChartPedal(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{0: '2'}),
		smRow(nil),
		smRow(map[int]byte{0: '3'}),
		smRow(nil),
	))
	require.NoError(t, err)

	holds := eventsOfKind(mustEvents(t, chart, "medium"), EventKindHold)
	require.Len(t, holds, 1)
	require.Equal(t, lanePedal, holds[0].Lane)
}

func TestSMChartStormClosedByMine(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{6: '2'}), // left spin hold start on lane 0
		smRow(nil),
		smRow(map[int]byte{1: 'M'}), // mine anywhere in the lane group
		smRow(nil),
	))
	require.NoError(t, err)

	storms := eventsOfKind(mustEvents(t, chart, "medium"), EventKindLargeSpinnerLeft)
	require.Len(t, storms, 1)
	require.Equal(t, 0, storms[0].Lane)
	require.Equal(t, int64(0), storms[0].Start)
	require.Equal(t, int64(1000), storms[0].End)
}

func TestSMChartStormSurvivesEndOfChart(t *testing.T) {
	// Storms are exempt from the end-of-chart pairing check.
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{6: '2'}),
	))
	require.NoError(t, err)

	events := mustEvents(t, chart, "medium")
	require.Empty(t, eventsOfKind(events, EventKindLargeSpinnerLeft),
		"an unclosed storm never reaches the event list")
}

func TestSMChartNonDirectionalSpins(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{6: '1', 11: '1'}), // both tap: small non-directional
		smRow(map[int]byte{7: '2', 12: '1'}), // either holds: storm on lane 1
		smRow(map[int]byte{2: 'M'}),          // close it
		smRow(nil),
	))
	require.NoError(t, err)
	events := mustEvents(t, chart, "medium")

	smalls := eventsOfKind(events, EventKindSmallSpinner)
	require.Len(t, smalls, 1)
	require.Equal(t, 0, smalls[0].Lane)

	storms := eventsOfKind(events, EventKindLargeSpinner)
	require.Len(t, storms, 1)
	require.Equal(t, 1, storms[0].Lane)
	require.Equal(t, int64(500), storms[0].Start)
	require.Equal(t, int64(1000), storms[0].End)
}

func TestSMChartDirectedSpins(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{6: '1'}),  // small left, lane 0
		smRow(map[int]byte{12: '1'}), // small right, lane 1
		smRow(nil),
		smRow(nil),
	))
	require.NoError(t, err)
	events := mustEvents(t, chart, "medium")

	require.Len(t, eventsOfKind(events, EventKindSmallSpinnerLeft), 1)
	require.Len(t, eventsOfKind(events, EventKindSmallSpinnerRight), 1)
}

func TestSMChartSpinHoldEndIgnored(t *testing.T) {
	// '3' in a spin channel means nothing; storms only close on mines.
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{6: '3'}),
	))
	require.NoError(t, err)

	events := mustEvents(t, chart, "medium")
	for _, kind := range []int{
		EventKindSmallSpinnerLeft, EventKindLargeSpinnerLeft,
		EventKindSmallSpinner, EventKindLargeSpinner,
	} {
		require.Empty(t, eventsOfKind(events, kind))
	}
}

func TestSMChartErrors(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want string
	}{
		{"short row", []string{"010000000000000"}, "invalid measure data"},
		{"unknown tap code", []string{smRow(map[int]byte{1: 'X'})}, "unknown normal note type"},
		{"unknown spin code", []string{smRow(map[int]byte{6: 'X'})}, "unknown spin note type"},
		{"pedal tap", []string{smRow(map[int]byte{0: '1'})}, "invalid note type"},
		{"pedal mine", []string{smRow(map[int]byte{0: 'M'})}, "invalid note type"},
		{"hold end without start", []string{smRow(map[int]byte{1: '3'})}, "end hold note with no start hold"},
		{"mine without storm", []string{smRow(map[int]byte{1: 'M'})}, "end spin note with no start spin"},
		{"unterminated hold", []string{smRow(map[int]byte{1: '2'})}, "missing end marker"},
		{"empty measure", []string{","}, "has no rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SMChartNew(smChartDoc(tt.rows...))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
			require.Contains(t, err.Error(), "difficulty medium")
		})
	}
}

func TestSMChartPedalIgnoresOtherCodes(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(
		smRow(map[int]byte{0: 'F'}),
	))
	require.NoError(t, err)
	require.Empty(t, eventsOfKind(mustEvents(t, chart, "medium"), EventKindHold))
}

func TestSMChartGraficaLabelErrors(t *testing.T) {
	incomplete := "#BPMS:0.000=120.000;\n" +
		"#LABELS:0.000=GRAFICA_1_START,\n" +
		"1.000=GRAFICA_1_END;\n" +
		"#NOTEDATA:;\n" +
		"#DIFFICULTY:medium;\n" +
		"#NOTES:\n" +
		";\n"
	_, err := SMChartNew([]byte(incomplete))
	require.Error(t, err)
	require.Contains(t, err.Error(), "GRAFICA_ items")

	misordered := "#BPMS:0.000=120.000;\n" +
		"#LABELS:0.000=GRAFICA_1_END,\n" +
		"1.000=GRAFICA_1_START,\n" +
		"2.000=GRAFICA_2_START,\n" +
		"3.000=GRAFICA_2_END,\n" +
		"4.000=GRAFICA_3_START,\n" +
		"5.000=GRAFICA_3_END;\n" +
		"#NOTEDATA:;\n" +
		"#DIFFICULTY:medium;\n" +
		"#NOTES:\n" +
		";\n"
	_, err = SMChartNew([]byte(misordered))
	require.Error(t, err)
	require.Contains(t, err.Error(), "was expecting GRAFICA_1_START")
}

func TestSMChartTempoFallbackFromBlock(t *testing.T) {
	// Multiline #BPMS never lands in the tag map, so the chart falls back
	// to the splitter's block entries.
	doc := "#BPMS:\n" +
		"0.000=120.000,\n" +
		"4.000=240.000;\n" +
		"#LABELS:0.000=GRAFICA_1_START,\n" +
		"1.000=GRAFICA_1_END,\n" +
		"2.000=GRAFICA_2_START,\n" +
		"3.000=GRAFICA_2_END,\n" +
		"4.000=GRAFICA_3_START,\n" +
		"5.000=GRAFICA_3_END;\n" +
		"#NOTEDATA:;\n" +
		"#DIFFICULTY:medium;\n" +
		"#NOTES:\n" +
		smRow(map[int]byte{1: '1'}) + "\n" +
		";\n"

	chart, err := SMChartNew([]byte(doc))
	require.NoError(t, err)

	track := chart.tempoTrack()
	require.Len(t, track, 2)
	require.Equal(t, 0.0, track[0].Position)
	require.Equal(t, 120.0, track[0].BPM)
	require.Equal(t, 4.0, track[1].Position)
	require.Equal(t, 240.0, track[1].BPM)

	// Timeline positions are projected onto milliseconds.
	points := chart.Tempo().Points()
	require.Equal(t, 0.0, points[0].Position)
	require.Equal(t, 2000.0, points[1].Position)
}

func TestSMChartAccessors(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(smRow(nil)))
	require.NoError(t, err)

	require.Equal(t, "Test Song", chart.Metadata().Get("title"))
	require.Equal(t, "7", chart.Rating("medium"))
	require.Equal(t, "Effector Name", chart.Author("medium"))
	require.Len(t, chart.Labels(), 6)

	_, ok := chart.Events("hard")
	require.False(t, ok)
}
