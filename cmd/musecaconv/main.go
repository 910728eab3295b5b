package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	museca "github.com/DragonMinded/sm2museca"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	directoryFlag string
	updateXMLFlag string
	configFlag    string
	dialectFlag   string
)

var rootCmd = &cobra.Command{
	Use:          "musecaconv FILE ID",
	Short:        "convert StepMania-like charts to Museca format",
	Args:         cobra.ExactArgs(2),
	RunE:         convertCmd,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&directoryFlag, "directory", "d", "", "directory to place files in, defaults to the current directory")
	rootCmd.Flags().StringVarP(&updateXMLFlag, "update-xml", "x", "", "music database XML file to update in place instead of writing music-info.xml")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "tool configuration ini file")
	rootCmd.Flags().StringVar(&dialectFlag, "dialect", "", "chart dialect, mu or sm, defaults from the file extension")
}

// difficultyFile pairs a source difficulty with its chart file suffix.
type difficultyFile struct {
	source string
	suffix string
}

var (
	muDifficultyFiles = []difficultyFile{
		{"novice", "nov"},
		{"advanced", "adv"},
		{"exhaust", "exh"},
	}
	smDifficultyFiles = []difficultyFile{
		{"easy", "nov"},
		{"medium", "adv"},
		{"hard", "exh"},
	}
)

func parseChart(filename string, data []byte) (museca.Chart, []difficultyFile, error) {
	dialect := dialectFlag
	if dialect == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".sm", ".ssc":
			dialect = "sm"
		default:
			dialect = "mu"
		}
	}

	switch dialect {
	case "sm":
		chart, err := museca.SMChartNew(data)
		return chart, smDifficultyFiles, err
	case "mu":
		chart, err := museca.MUChartNew(data)
		return chart, muDifficultyFiles, err
	default:
		return nil, nil, errors.Errorf("unknown dialect %q", dialect)
	}
}

func convertCmd(cmd *cobra.Command, args []string) error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	id, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Errorf("invalid song ID %q", args[1])
	}

	cfg := museca.ConfigDefault()
	if configFlag != "" {
		cfg, err = museca.ConfigLoad(configFlag)
		if err != nil {
			return err
		}
	}
	if directoryFlag != "" {
		cfg.OutputDir = directoryFlag
	}

	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	log.Info("parsing chart data",
		zap.String("file", args[0]),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)

	chart, difficulties, err := parseChart(args[0], data)
	if err != nil {
		return err
	}
	for _, warning := range chart.Warnings() {
		log.Warn(warning)
	}

	prefix := fmt.Sprintf("01_%04d", id)

	log.Info("writing XML", zap.String("directory", outDir))
	if updateXMLFlag != "" {
		old, err := os.ReadFile(updateXMLFlag)
		if err != nil {
			return err
		}
		merged, err := museca.UpdateMusicInfo(chart, id, old)
		if err != nil {
			return err
		}
		if err := os.WriteFile(updateXMLFlag, merged, 0644); err != nil {
			return err
		}
	} else {
		info, err := museca.MusicInfoXML(chart, id)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, "music-info.xml"), info, 0644); err != nil {
			return err
		}
	}

	for _, df := range difficulties {
		name := filepath.Join(outDir, prefix+"_"+df.suffix+".xml")
		if err := os.WriteFile(name, museca.ChartXML(chart, df.source), 0644); err != nil {
			return err
		}
	}

	define := fmt.Sprintf("#define %s   0\n", prefix)
	if err := os.WriteFile(filepath.Join(outDir, prefix+".def"), []byte(define), 0644); err != nil {
		return err
	}
	define = fmt.Sprintf("#define %s_prv   0\n", prefix)
	if err := os.WriteFile(filepath.Join(outDir, prefix+"_prv.def"), []byte(define), 0644); err != nil {
		return err
	}

	if music := chart.Metadata().Get("music"); music != "" {
		if err := convertAudio(cmd.Context(), log, cfg, chart, music, outDir, prefix); err != nil {
			return err
		}
	}

	log.Info("done")
	return nil
}

func convertAudio(ctx context.Context, log *zap.Logger, cfg *museca.Config, chart museca.Chart, music, outDir, prefix string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	meta := chart.Metadata()

	start := meta.Get("samplestart")
	if start == "" {
		return errors.New("music file present but no sample start specified for preview")
	}
	sampleStart, err := strconv.ParseFloat(start, 64)
	if err != nil {
		return errors.Errorf("invalid sample start %q", start)
	}

	sampleLength := cfg.PreviewLength
	if raw := meta.Get("samplelength"); raw == "" {
		log.Warn("no sample length specified", zap.Float64("assuming_seconds", sampleLength))
	} else {
		sampleLength, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.Errorf("invalid sample length %q", raw)
		}
	}

	adpcm := museca.ADPCMNew(cfg.FFmpegPath, cfg.SoxPath, music, sampleStart, sampleLength)

	log.Info("converting audio", zap.String("file", music))
	full, err := adpcm.FullData(ctx)
	if err != nil {
		return err
	}
	if err := writeArchive(filepath.Join(outDir, prefix+".2dx"), prefix, full, log); err != nil {
		return err
	}

	log.Info("converting preview")
	preview, err := adpcm.PreviewData(ctx)
	if err != nil {
		return err
	}
	return writeArchive(filepath.Join(outDir, prefix+"_prv.2dx"), prefix+"_prv", preview, log)
}

func writeArchive(path, name string, wav []byte, log *zap.Logger) error {
	twodx := museca.TwoDXNew()
	if err := twodx.SetName(name); err != nil {
		return err
	}
	twodx.WriteFile(name+"_1.wav", wav)

	data, err := twodx.Bytes()
	if err != nil {
		return err
	}
	log.Info("writing audio archive",
		zap.String("file", path),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return os.WriteFile(path, data, 0644)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
