package museca

import (
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Config *********************************************************************

// Config carries the tool-level settings that do not belong in the chart
// document: where to write, which binaries to transcode with, and the
// preview window defaults used when the chart does not specify one.

type Config struct {
	OutputDir string

	FFmpegPath string
	SoxPath    string

	// Fallback preview length in seconds when the chart carries no
	// samplelength tag.
	PreviewLength float64
}

func ConfigDefault() *Config {
	return &Config{
		OutputDir:     ".",
		FFmpegPath:    "ffmpeg",
		SoxPath:       "sox",
		PreviewLength: 10.0,
	}
}

// ConfigLoad reads settings from an ini file over the defaults. Unknown
// keys are ignored, missing keys keep their defaults.
func ConfigLoad(path string) (*Config, error) {
	c := ConfigDefault()

	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}

	output := f.Section("output")
	if k := output.Key("directory"); k.String() != "" {
		c.OutputDir = k.String()
	}

	tools := f.Section("tools")
	if k := tools.Key("ffmpeg"); k.String() != "" {
		c.FFmpegPath = k.String()
	}
	if k := tools.Key("sox"); k.String() != "" {
		c.SoxPath = k.String()
	}

	audio := f.Section("audio")
	if k := audio.Key("preview_length"); k.String() != "" {
		v, err := k.Float64()
		if err != nil {
			return nil, errors.Wrapf(err, "loading config %s", path)
		}
		c.PreviewLength = v
	}

	return c, nil
}
