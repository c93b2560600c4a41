// main.go
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"charcoal/internal/config"
	"charcoal/internal/ffmpeg"
	"charcoal/internal/ui"
)

const version = "0.3.0"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Bold(true)
)

// app bundles the injected capabilities so command flows are testable with
// the mocks package.
type app struct {
	cfg      *config.AppConfig
	toolkit  ffmpeg.Toolkit
	prompter ui.Prompter
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}

	a := &app{
		cfg:      cfg,
		toolkit:  ffmpeg.NewCLI(),
		prompter: ui.TerminalPrompter{},
	}

	if err := a.rootCmd().Execute(); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	opts := &convertOptions{}

	root := &cobra.Command{
		Use:     "charcoal [input] [output-dir]",
		Short:   "Interactive video/image to ASCII frame generator",
		Version: version,
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(titleStyle.Render("charcoal"))
			return a.runConvert(cmd, args, opts)
		},
		SilenceUsage: true,
	}

	flags := root.Flags()
	flags.IntVar(&opts.columns, "columns", 0, "target columns for scaling (width)")
	flags.IntVar(&opts.fps, "fps", 0, "frames per second when extracting from video")
	flags.Float64Var(&opts.fontRatio, "font-ratio", 0, "font aspect ratio (character width:height)")
	flags.IntVar(&opts.luminance, "luminance", -1, "luminance threshold (0-255) for blank cells")
	flags.BoolVar(&opts.useDefault, "default", false, "use the default quality preset")
	flags.BoolVarP(&opts.small, "small", "s", false, "use smaller quality settings")
	flags.BoolVarP(&opts.large, "large", "l", false, "use larger quality settings")
	flags.BoolVar(&opts.color, "colors", false, "keep source colors in the output frames")
	flags.BoolVar(&opts.keepImages, "keep-images", false, "keep intermediate image files")
	flags.BoolVar(&opts.logDetails, "log-details", false, "log generation details to standard output")
	flags.BoolVar(&opts.strict, "strict", false, "abort on the first frame that fails to convert")
	flags.IntVar(&opts.workers, "workers", 0, "parallel conversion workers (0 = all CPUs)")
	flags.StringVar(&opts.start, "start", "", "start time for video conversion (e.g. 00:01:23.456 or 83.456)")
	flags.StringVar(&opts.end, "end", "", "end time for video conversion")
	flags.StringVar(&opts.preprocess, "preprocess", "", "raw ffmpeg filter chain applied before scaling")
	flags.StringVar(&opts.preprocessPreset, "preprocess-preset", "", "named preprocessing preset (e.g. contours, vivid)")
	root.MarkFlagsMutuallyExclusive("default", "small", "large")
	root.MarkFlagsMutuallyExclusive("preprocess", "preprocess-preset")

	root.AddCommand(a.trimCmd(), a.loopCmd(), a.renderCmd(), a.playCmd(), a.presetsCmd())
	return root
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List configured quality presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range a.cfg.PresetNames() {
				p := a.cfg.Presets[name]
				marker := " "
				if name == a.cfg.DefaultPreset {
					marker = "*"
				}
				fmt.Printf("%s %-10s columns=%d fps=%d font_ratio=%g luminance=%d\n",
					marker, name, p.Columns, p.FPS, p.FontRatio, p.Luminance)
			}
			return nil
		},
	}
}

// newProgressBar builds the themed bar used for conversion and rendering.
func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetRenderBlankState(true),
	)
}
