package museca

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Tempo timeline *************************************************************

// Breakpoint is one sample of the piecewise-constant tempo curve. Position is
// chart-relative milliseconds; BPM holds from here until the next breakpoint.
type Breakpoint struct {
	Position float64
	BPM      float64
}

type Timeline struct {
	points []Breakpoint
}

func timelineNew(points []Breakpoint) *Timeline {
	sorted := make([]Breakpoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	return &Timeline{points: sorted}
}

// BPMAt returns the tempo in effect at the given time: the latest breakpoint
// at or before it. The first breakpoint is the implicit floor for any time
// before it. A chart with no tempo entries cannot be timed at all.
func (t *Timeline) BPMAt(at float64) (float64, error) {
	if len(t.points) == 0 {
		return 0, errors.New("can't determine BPM: no tempo breakpoints")
	}
	bpm := t.points[0].BPM
	for _, p := range t.points {
		if p.Position > at {
			break
		}
		bpm = p.BPM
	}
	return bpm, nil
}

func (t *Timeline) Points() []Breakpoint {
	return t.points
}

// MinMaxBPM reports the slowest and fastest breakpoint rates.
func (t *Timeline) MinMaxBPM() (minBPM, maxBPM float64, err error) {
	if len(t.points) == 0 {
		return 0, 0, errors.New("no tempo breakpoints")
	}
	minBPM, maxBPM = t.points[0].BPM, t.points[0].BPM
	for _, p := range t.points[1:] {
		if p.BPM < minBPM {
			minBPM = p.BPM
		}
		if p.BPM > maxBPM {
			maxBPM = p.BPM
		}
	}
	return minBPM, maxBPM, nil
}

// Beat projection ************************************************************

// BeatPoint is a tempo sample in the beat domain, used by the 16-lane
// dialect whose #BPMS positions count beats instead of seconds.
type BeatPoint struct {
	Beat float64
	BPM  float64
}

// beatsToMS projects a beat position onto the millisecond axis by summing
// elapsed time across every breakpoint segment before it, then converting
// the remainder at the final segment's rate. Assumes 4/4 throughout; the
// result is truncated to integer milliseconds, the offset truncated
// separately, matching the authoring tools digit for digit.
func beatsToMS(points []BeatPoint, beat, offsetMS float64) int64 {
	total := 0.0
	for i, p := range points {
		if i+1 < len(points) && points[i+1].Beat <= beat {
			total += (points[i+1].Beat - p.Beat) / p.BPM * 60000.0
			continue
		}
		total += (beat - p.Beat) / p.BPM * 60000.0
		break
	}
	return int64(total) + int64(offsetMS)
}

// Entry parsing **************************************************************

// parseTempoEntries reads position=rate pairs out of raw entry strings,
// splitting each on commas. Entries without '=' (or with unparsable numbers)
// are skipped, not fatal: authoring tools pad these lists freely.
func parseTempoEntries(raws []string) []BeatPoint {
	var out []BeatPoint
	for _, raw := range raws {
		for _, entry := range strings.Split(raw, ",") {
			pos, val, found := strings.Cut(entry, "=")
			if !found {
				continue
			}
			p, err := strconv.ParseFloat(strings.TrimSpace(pos), 64)
			if err != nil {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				continue
			}
			out = append(out, BeatPoint{Beat: p, BPM: v})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Beat < out[j].Beat })
	return out
}

// Labels *********************************************************************

// Label is a named timeline position (beat domain). Only used to locate
// grafica section boundaries in the 16-lane dialect.
type Label struct {
	Beat float64
	Name string
}

func parseLabelEntries(raws []string) []Label {
	var out []Label
	for _, raw := range raws {
		pos, name, found := strings.Cut(raw, "=")
		if !found {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(pos), 64)
		if err != nil {
			continue
		}
		out = append(out, Label{Beat: p, Name: name})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Beat < out[j].Beat })
	return out
}
