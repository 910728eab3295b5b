package museca

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
)

// Audio transcode ************************************************************
//
// The game wants MS-ADPCM wav at 44100Hz. Full tracks go through a single
// ffmpeg pass; previews route through sox for the trim and fade, with
// plain wav on both sides since sox codec support is spotty.

const fadeLength = 0.5

// ADPCM transcodes one source audio file into 2dx payloads. Converted data
// is cached, each variant runs its pipeline at most once.
type ADPCM struct {
	ffmpeg string
	sox    string

	filename      string
	previewOffset float64
	previewLength float64

	fullData    []byte
	previewData []byte
}

func ADPCMNew(ffmpeg, sox, filename string, previewOffset, previewLength float64) *ADPCM {
	return &ADPCM{
		ffmpeg:        ffmpeg,
		sox:           sox,
		filename:      filename,
		previewOffset: previewOffset,
		previewLength: previewLength,
	}
}

func (a *ADPCM) checkFile() error {
	if _, err := os.Stat(a.filename); err != nil {
		return errors.Errorf("file %q does not exist", a.filename)
	}
	return nil
}

func (a *ADPCM) runPipe(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "running %s", args[0])
	}
	return out.Bytes(), nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FullData converts the whole source file.
func (a *ADPCM) FullData(ctx context.Context) ([]byte, error) {
	if a.fullData != nil {
		return a.fullData, nil
	}
	if err := a.checkFile(); err != nil {
		return nil, err
	}

	data, err := a.runPipe(ctx, nil,
		a.ffmpeg,
		"-y",
		"-hide_banner",
		"-nostats",
		"-loglevel", "quiet",
		"-i", a.filename,
		"-acodec", "adpcm_ms",
		"-ar", "44100",
		"-f", "wav",
		"-",
	)
	if err != nil {
		return nil, err
	}
	a.fullData = data
	return data, nil
}

// PreviewData cuts and fades the preview window out of the source file.
func (a *ADPCM) PreviewData(ctx context.Context) ([]byte, error) {
	if a.previewData != nil {
		return a.previewData, nil
	}
	if err := a.checkFile(); err != nil {
		return nil, err
	}

	wav, err := a.runPipe(ctx, nil,
		a.ffmpeg,
		"-y",
		"-hide_banner",
		"-nostats",
		"-loglevel", "quiet",
		"-i", a.filename,
		"-f", "wav",
		"-",
	)
	if err != nil {
		return nil, err
	}

	// Sox fades act weird at clip edges, so trim with a buffer on both
	// sides, fade into the buffer, then trim the buffer back off.
	cut, err := a.runPipe(ctx, wav,
		a.sox,
		"-V1",
		"-t", ".wav", "-",
		"-t", ".wav", "-",
		"trim", ftoa(a.previewOffset-fadeLength), ftoa(a.previewLength+fadeLength),
		"fade", ftoa(fadeLength*2.0), ftoa(a.previewLength+fadeLength), ftoa(fadeLength),
		"trim", ftoa(fadeLength), ftoa(a.previewLength),
	)
	if err != nil {
		return nil, err
	}

	data, err := a.runPipe(ctx, cut,
		a.ffmpeg,
		"-y",
		"-hide_banner",
		"-nostats",
		"-loglevel", "quiet",
		"-i", "-",
		"-acodec", "adpcm_ms",
		"-ar", "44100",
		"-f", "wav",
		"-",
	)
	if err != nil {
		return nil, err
	}
	a.previewData = data
	return data, nil
}
