package museca

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	xml "github.com/subchen/go-xmldom"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const shiftJISProcInst = `<?xml version="1.0" encoding="shift-jis"?>`

// Chart is the exporter's view of a compiled chart, either dialect.
type Chart interface {
	Metadata() Metadata
	Tempo() *Timeline
	Warnings() []string
	Events(difficulty string) ([]Event, bool)
	Rating(difficulty string) string
	Author(difficulty string) string

	// tempoTrack yields breakpoints on whatever axis this dialect encodes
	// tempo rows with, milliseconds or beats.
	tempoTrack() []Breakpoint
	exportProfile() exportProfile
}

// exportProfile **************************************************************
//
// The two dialects fill the music database with slightly different tag
// sources and constants. Everything that differs lives here so the export
// path itself stays single.

type difficultyMapping struct {
	Source string // difficulty key in the chart document, "" for none
	Target string // difficulty node name in the database
}

type exportProfile struct {
	titleYomiganaTag  string
	artistYomiganaTag string
	asciiTag          string // "" means the fixed placeholder
	creditFallback    string
	authorFallback    string
	volume            string
	price             string
	tier              string
	limitedSpecial    string
	difficulties      []difficultyMapping
}

var muExportProfile = exportProfile{
	titleYomiganaTag:  "title_yomigana",
	artistYomiganaTag: "artist_yomigana",
	volume:            "75",
	price:             "-1",
	tier:              "-2",
	limitedSpecial:    "1",
	difficulties: []difficultyMapping{
		{"novice", "novice"},
		{"advanced", "advanced"},
		{"exhaust", "exhaust"},
		{"", "infinite"},
	},
}

var smExportProfile = exportProfile{
	titleYomiganaTag:  "titletranslit",
	artistYomiganaTag: "artisttranslit",
	asciiTag:          "subtitletranslit",
	creditFallback:    "dummy",
	authorFallback:    "dummy",
	volume:            "90",
	price:             "-2",
	tier:              "0",
	limitedSpecial:    "2",
	difficulties: []difficultyMapping{
		{"easy", "novice"},
		{"medium", "advanced"},
		{"hard", "exhaust"},
		{"", "infinite"},
	},
}

// XML helpers ****************************************************************

func textNode(parent *xml.Node, name, value string) *xml.Node {
	n := parent.CreateNode(name)
	n.Text = value
	return n
}

func typedNode(parent *xml.Node, name, value, typ string) *xml.Node {
	return textNode(parent, name, value).SetAttributeValue("__type", typ)
}

// Chart export ***************************************************************

var markerKinds = map[int]bool{
	EventKindMeasureMarker: true,
	EventKindBeatMarker:    true,
	EventKindGraficaStart:  true,
	EventKindGraficaEnd:    true,
}

var remappedKinds = map[int]bool{
	EventKindHold:              true,
	EventKindLargeSpinner:      true,
	EventKindLargeSpinnerLeft:  true,
	EventKindLargeSpinnerRight: true,
}

// ChartXML renders a single difficulty's timeline to game chart XML.
// A difficulty the chart does not carry renders to nothing.
func ChartXML(c Chart, difficulty string) []byte {
	events, ok := c.Events(difficulty)
	if !ok {
		return nil
	}

	doc := xml.NewDocument("data")
	root := doc.Root

	smfInfo := root.CreateNode("smf_info")
	typedNode(smfInfo, "ticks", "480", "s32")

	tempoInfo := smfInfo.CreateNode("tempo_info")
	for _, bp := range c.tempoTrack() {
		tempo := tempoInfo.CreateNode("tempo")
		typedNode(tempo, "time", strconv.Itoa(int(bp.Position*100)), "s32")
		typedNode(tempo, "delta_time", "0", "s32")
		typedNode(tempo, "val", strconv.Itoa(int((60.0/bp.BPM)*1000000)), "s32")
		typedNode(tempo, "bpm", strconv.FormatInt(int64(bp.BPM*100), 10), "s64")
	}

	// No signature change support, a single fixed 4/4.
	sigInfo := smfInfo.CreateNode("sig_info")
	signature := sigInfo.CreateNode("signature")
	typedNode(signature, "time", "0", "s32")
	typedNode(signature, "delta_time", "0", "s32")
	typedNode(signature, "num", "4", "s32")
	typedNode(signature, "denomi", "4", "s32")

	for _, e := range events {
		lane := e.Lane
		if markerKinds[e.Kind] {
			// Global events, the lane encodes the kind.
			lane = e.Kind
		}
		if remappedKinds[e.Kind] && lane >= 0 && lane <= 4 {
			// Holds and storms use lanes 6-10. The foot pedal stays at 5,
			// it can only ever be a hold.
			lane = 6 + lane
		}

		ev := root.CreateNode("event")
		typedNode(ev, "stime_ms", strconv.FormatInt(e.Start, 10), "s64")
		typedNode(ev, "etime_ms", strconv.FormatInt(e.End, 10), "s64")
		typedNode(ev, "type", strconv.Itoa(lane), "s32")
		typedNode(ev, "kind", strconv.Itoa(e.Kind), "s32")
	}

	return []byte(doc.XMLPretty())
}

// Music database export ******************************************************

func addMusicEntry(mdb *xml.Node, c Chart, id int) error {
	profile := c.exportProfile()
	meta := c.Metadata()

	minBPM, maxBPM, err := c.Tempo().MinMaxBPM()
	if err != nil {
		return err
	}

	music := mdb.CreateNode("music").SetAttributeValue("id", strconv.Itoa(id))
	info := music.CreateNode("info")

	asciiName := "dummy"
	if profile.asciiTag != "" {
		if v := meta.Get(profile.asciiTag); v != "" {
			asciiName = v
		}
	}

	textNode(info, "label", strconv.Itoa(id))
	textNode(info, "title_name", meta.Get("title"))
	textNode(info, "title_yomigana", meta.Get(profile.titleYomiganaTag))
	textNode(info, "artist_name", meta.Get("artist"))
	textNode(info, "artist_yomigana", meta.Get(profile.artistYomiganaTag))
	textNode(info, "ascii", asciiName)
	typedNode(info, "bpm_min", strconv.Itoa(int(minBPM*100)), "u32")
	typedNode(info, "bpm_max", strconv.Itoa(int(maxBPM*100)), "u32")
	typedNode(info, "distribution_date", time.Now().Format("20060102"), "u32")
	typedNode(info, "volume", profile.volume, "u16")
	typedNode(info, "bg_no", "0", "u16")
	typedNode(info, "genre", "16", "u8")
	typedNode(info, "is_fixed", "1", "u8")
	typedNode(info, "version", "1", "u8")
	typedNode(info, "demo_pri", "-2", "s8")
	typedNode(info, "world", "0", "u8")
	textNode(info, "license", meta.Get("license"))
	typedNode(info, "tier", profile.tier, "s8")
	typedNode(info, "vmlink_phase", "0", "s32")
	typedNode(info, "inf_ver", "0", "u8")

	credit := meta.Get(creditTag)
	if credit == "" {
		credit = profile.creditFallback
	}

	difficulty := music.CreateNode("difficulty")
	for _, dm := range profile.difficulties {
		node := difficulty.CreateNode(dm.Target)

		rating := "0"
		author := profile.authorFallback
		if dm.Source != "" {
			if r := c.Rating(dm.Source); r != "" {
				rating = r
			}
			if a := c.Author(dm.Source); a != "" {
				author = a
			}
		}

		limited := "3"
		if dm.Source == "" || rating == "0" {
			limited = profile.limitedSpecial
		}

		typedNode(node, "difnum", rating, "u8")
		textNode(node, "illustrator", credit)
		textNode(node, "effected_by", author)
		typedNode(node, "price", profile.price, "s32")
		typedNode(node, "limited", limited, "u8")
	}

	return nil
}

func encodeMusicDB(doc *xml.Document) ([]byte, error) {
	// The game wants shift-jis with a matching declaration.
	doc.ProcInst = shiftJISProcInst
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(doc.XMLPretty()))
	if err != nil {
		return nil, errors.Wrap(err, "encoding music database")
	}
	return out, nil
}

// MusicInfoXML builds a fresh single-entry music database for the chart.
func MusicInfoXML(c Chart, id int) ([]byte, error) {
	doc := xml.NewDocument("mdb")
	if err := addMusicEntry(doc.Root, c, id); err != nil {
		return nil, err
	}
	return encodeMusicDB(doc)
}

// UpdateMusicInfo merges the chart into an existing music database, replacing
// any previous entries carrying the same ID. The input may be utf-8 or
// shift-jis regardless of what its declaration claims.
func UpdateMusicInfo(c Chart, id int, oldData []byte) ([]byte, error) {
	data := oldData
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
		if err != nil {
			return nil, errors.Wrap(err, "unable to parse existing XML data")
		}
		data = decoded
	}

	doc, err := xml.ParseXML(string(data))
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse existing XML data")
	}
	mdb := doc.Root
	if mdb == nil || mdb.Name != "mdb" {
		return nil, errors.New("invalid XML file layout")
	}

	kept := mdb.Children[:0]
	for _, child := range mdb.Children {
		if child.Name == "music" && child.GetAttributeValue("id") == strconv.Itoa(id) {
			continue
		}
		kept = append(kept, child)
	}
	mdb.Children = kept

	if err := addMusicEntry(mdb, c, id); err != nil {
		return nil, err
	}
	return encodeMusicDB(doc)
}
