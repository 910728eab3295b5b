package museca

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChartXMLBasics(t *testing.T) {
	chart, err := MUChartNew(muChartDoc(
		"200000",
		"000000",
		"300000",
		"000000",
	))
	require.NoError(t, err)

	xml := string(ChartXML(chart, "novice"))

	require.Contains(t, xml, `<ticks __type="s32">480</ticks>`)
	require.Contains(t, xml, `<num __type="s32">4</num>`)
	require.Contains(t, xml, `<denomi __type="s32">4</denomi>`)

	// 120 BPM: val is microseconds per beat, bpm is hundredths.
	require.Contains(t, xml, `<val __type="s32">500000</val>`)
	require.Contains(t, xml, `<bpm __type="s64">12000</bpm>`)

	// The hold on lane 0 exports on lane 6.
	require.Contains(t, xml, `<type __type="s32">6</type>`)
	require.Contains(t, xml, `<kind __type="s32">1</kind>`)
	require.Contains(t, xml, `<etime_ms __type="s64">1000</etime_ms>`)

	// Markers carry their kind as the lane.
	require.Contains(t, xml, `<type __type="s32">11</type>`)
	require.Contains(t, xml, `<type __type="s32">12</type>`)
}

func TestChartXMLMissingDifficulty(t *testing.T) {
	chart, err := MUChartNew(muChartDoc("100000"))
	require.NoError(t, err)
	require.Nil(t, ChartXML(chart, "exhaust"))
}

func TestChartXMLPedalHoldKeepsLane(t *testing.T) {
	chart, err := MUChartNew(muChartDoc(
		"000002",
		"000000",
		"000003",
		"000000",
	))
	require.NoError(t, err)

	xml := string(ChartXML(chart, "novice"))
	require.Contains(t, xml, `<type __type="s32">5</type>`)
}

func TestChartXMLBeatDomainTempo(t *testing.T) {
	doc := "#BPMS:0.000=120.000,4.000=240.000;\n" +
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

	xml := string(ChartXML(chart, "medium"))

	// Tempo rows in this dialect put hundredths of a beat in time.
	require.Contains(t, xml, `<time __type="s32">400</time>`)
	require.Contains(t, xml, `<val __type="s32">250000</val>`)
	require.Contains(t, xml, `<bpm __type="s64">24000</bpm>`)
}

func TestMusicInfoXML(t *testing.T) {
	chart, err := MUChartNew(muChartDoc("100000"))
	require.NoError(t, err)

	data, err := MusicInfoXML(chart, 123)
	require.NoError(t, err)
	xml := string(data)

	require.Contains(t, xml, `encoding="shift-jis"`)
	require.Contains(t, xml, `<music id="123">`)
	require.Contains(t, xml, `<label>123</label>`)
	require.Contains(t, xml, `<title_name>Test Song</title_name>`)
	require.Contains(t, xml, `<artist_name>Somebody</artist_name>`)
	require.Contains(t, xml, `<volume __type="u16">75</volume>`)
	require.Contains(t, xml, `<tier __type="s8">-2</tier>`)
	require.Contains(t, xml, `<bpm_min __type="u32">12000</bpm_min>`)
	require.Contains(t, xml, `<bpm_max __type="u32">12000</bpm_max>`)

	// Rated novice exists: difnum 5, purchasable. Infinite never does.
	require.Contains(t, xml, `<difnum __type="u8">5</difnum>`)
	require.Contains(t, xml, `<effected_by>Effector Name</effected_by>`)
	require.Contains(t, xml, `<limited __type="u8">3</limited>`)
	require.Contains(t, xml, `<limited __type="u8">1</limited>`)
	require.Contains(t, xml, `<price __type="s32">-1</price>`)
	require.Contains(t, xml, "<novice>")
	require.Contains(t, xml, "<infinite>")
}

func TestMusicInfoXMLProfileV2(t *testing.T) {
	chart, err := SMChartNew(smChartDoc(smRow(nil)))
	require.NoError(t, err)

	data, err := MusicInfoXML(chart, 77)
	require.NoError(t, err)
	xml := string(data)

	require.Contains(t, xml, `<volume __type="u16">90</volume>`)
	require.Contains(t, xml, `<tier __type="s8">0</tier>`)
	require.Contains(t, xml, `<price __type="s32">-2</price>`)
	// The medium chart exports into the advanced node.
	require.Contains(t, xml, `<difnum __type="u8">7</difnum>`)
	// Unrated difficulties use the special limited value.
	require.Contains(t, xml, `<limited __type="u8">2</limited>`)
}

func TestUpdateMusicInfo(t *testing.T) {
	chart, err := MUChartNew(muChartDoc("100000"))
	require.NoError(t, err)

	old := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<mdb>` +
		`<music id="123"><info><label>stale</label></info></music>` +
		`<music id="456"><info><label>456</label></info></music>` +
		`</mdb>`

	merged, err := UpdateMusicInfo(chart, 123, []byte(old))
	require.NoError(t, err)
	xml := string(merged)

	require.Equal(t, 1, strings.Count(xml, `id="123"`), "old entry replaced")
	require.Contains(t, xml, `id="456"`)
	require.NotContains(t, xml, "stale")
	require.Contains(t, xml, `<title_name>Test Song</title_name>`)
	require.Contains(t, xml, `encoding="shift-jis"`)
}

func TestUpdateMusicInfoRejectsGarbage(t *testing.T) {
	chart, err := MUChartNew(muChartDoc("100000"))
	require.NoError(t, err)

	_, err = UpdateMusicInfo(chart, 1, []byte("<mdb"))
	require.Error(t, err)

	_, err = UpdateMusicInfo(chart, 1, []byte("<notmdb></notmdb>"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid XML file layout")
}
