// commands.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"charcoal/internal/frame"
	"charcoal/internal/loop"
	"charcoal/internal/player"
	"charcoal/internal/render"
	"charcoal/internal/ui"
	"charcoal/internal/validation"
)

func (a *app) trimCmd() *cobra.Command {
	var left, right, top, bottom, all int
	var inPlace bool
	var outDir string

	cmd := &cobra.Command{
		Use:   "trim <frames-dir>",
		Short: "Trim columns and rows off every frame in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, kind, err := validation.ValidateInputPath(args[0])
			if err != nil {
				return err
			}
			if kind != validation.KindDirectory {
				return fmt.Errorf("trim expects a directory of frame files")
			}

			l, r, t, b := all, all, all, all
			if cmd.Flags().Changed("left") {
				l = left
			}
			if cmd.Flags().Changed("right") {
				r = right
			}
			if cmd.Flags().Changed("top") {
				t = top
			}
			if cmd.Flags().Changed("bottom") {
				b = bottom
			}
			if l == 0 && r == 0 && t == 0 && b == 0 {
				return fmt.Errorf("nothing to trim: set --all or a directional flag")
			}
			if inPlace == (outDir != "") {
				return fmt.Errorf("choose exactly one of --in-place or --out")
			}
			if outDir != "" {
				if outDir, err = validation.ValidateOutputDir(outDir); err != nil {
					return err
				}
			}

			if _, err := frame.TrimSequence(dir, l, r, t, b, inPlace, outDir); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Trim completed: left=%d, right=%d, top=%d, bottom=%d", l, r, t, b))
			return nil
		},
	}

	cmd.Flags().IntVar(&all, "all", 0, "trim this many cells from every side")
	cmd.Flags().IntVar(&left, "left", 0, "columns to trim from the left")
	cmd.Flags().IntVar(&right, "right", 0, "columns to trim from the right")
	cmd.Flags().IntVar(&top, "top", 0, "rows to trim from the top")
	cmd.Flags().IntVar(&bottom, "bottom", 0, "rows to trim from the bottom")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "rewrite the frames in the source directory")
	cmd.Flags().StringVar(&outDir, "out", "", "write trimmed frames to this directory")
	return cmd
}

func (a *app) loopCmd() *cobra.Command {
	var export, repeat, quiet bool

	cmd := &cobra.Command{
		Use:   "loop <frames-dir>",
		Short: "Find a repeating segment in a frame sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, kind, err := validation.ValidateInputPath(args[0])
			if err != nil {
				return err
			}
			if kind != validation.KindDirectory {
				return fmt.Errorf("loop expects a directory of frame files")
			}

			seq, err := frame.LoadSequence(dir)
			if err != nil {
				return err
			}
			frames := make([]*frame.Frame, len(seq.Frames))
			for i, f := range seq.Frames {
				frames[i] = f.Frame
			}

			res, err := loop.Detect(frames)
			if err != nil {
				return err
			}
			fmt.Printf("Loop found: frames %d..%d, period %d (%d repeats)\n",
				res.Start+1, res.End, res.Period, res.Repeats())

			switch {
			case export:
				return a.exportLoop(dir, seq, res)
			case repeat:
				return a.repeatLoop(dir, seq, res)
			case quiet:
				return nil
			}

			for {
				action, err := a.prompter.Select("Choose an action",
					[]string{"Export loop", "Repeat loop", "Quit"})
				if err != nil {
					return err
				}
				switch action {
				case "Export loop":
					if err := a.exportLoop(dir, seq, res); err != nil {
						return err
					}
				case "Repeat loop":
					if err := a.repeatLoop(dir, seq, res); err != nil {
						return err
					}
					// The sequence on disk changed; reload before another pass.
					if seq, err = frame.LoadSequence(dir); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&export, "export", false, "export one loop cycle to a sibling directory")
	cmd.Flags().BoolVar(&repeat, "repeat", false, "splice one extra loop cycle into the sequence")
	cmd.Flags().BoolVar(&quiet, "detect-only", false, "report the loop without prompting")
	return cmd
}

func (a *app) exportLoop(dir string, seq *frame.Sequence, res loop.Result) error {
	out := loop.ExportDirName(dir, res)
	if err := loop.Export(seq, res, out); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Exported loop to %s", out))
	return nil
}

func (a *app) repeatLoop(dir string, seq *frame.Sequence, res loop.Result) error {
	if err := loop.Repeat(seq, res, dir); err != nil {
		return err
	}
	ui.Success("Loop repeated")
	return nil
}

func (a *app) renderCmd() *cobra.Command {
	var output, audioFrom string
	var fps, quality, fontSize, workers int
	var fontRatio float64

	cmd := &cobra.Command{
		Use:   "render <frames-dir>",
		Short: "Render a frame sequence back into a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, kind, err := validation.ValidateInputPath(args[0])
			if err != nil {
				return err
			}
			if kind != validation.KindDirectory {
				return fmt.Errorf("render expects a directory of frame files")
			}
			if output == "" {
				output = filepath.Base(dir) + ".mp4"
			}
			outPath, exists, err := validation.ValidateOutputFile(output)
			if err != nil {
				return err
			}
			if exists {
				ok, err := a.prompter.Confirm(fmt.Sprintf("%s exists. Overwrite?", outPath))
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("operation cancelled")
				}
			}

			seq, err := frame.LoadSequence(dir)
			if err != nil {
				return err
			}

			ropts := render.DefaultOptions()
			if cmd.Flags().Changed("font-size") {
				ropts.FontSize = fontSize
			}
			if cmd.Flags().Changed("font-ratio") {
				ropts.FontRatio = fontRatio
			}

			audioPath := ""
			if audioFrom != "" {
				src, srcKind, err := validation.ValidateInputPath(audioFrom)
				if err != nil {
					return err
				}
				if srcKind != validation.KindVideo {
					return fmt.Errorf("--audio-from expects a video file")
				}
				tmp, err := os.CreateTemp("", "charcoal_audio_*.aac")
				if err != nil {
					return fmt.Errorf("creating audio temp file: %v", err)
				}
				tmp.Close()
				defer os.Remove(tmp.Name())
				if err := a.toolkit.ExtractAudio(src, tmp.Name()); err != nil {
					return err
				}
				audioPath = tmp.Name()
			}

			bar := newProgressBar(len(seq.Frames), "Rendering frames")
			err = render.Video(a.toolkit, seq, render.VideoOptions{
				Output:    outPath,
				FPS:       fps,
				Quality:   quality,
				AudioPath: audioPath,
				Workers:   workers,
			}, ropts, func(done, total int) {
				bar.Set(done)
			})
			bar.Finish()
			fmt.Println()
			if err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Video saved to %s", outPath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output video path (default <dir>.mp4)")
	cmd.Flags().IntVar(&fps, "fps", 30, "output frame rate")
	cmd.Flags().IntVar(&quality, "quality", 18, "x264 CRF quality (0-51, lower is better)")
	cmd.Flags().IntVar(&fontSize, "font-size", 14, "rendered glyph cell height in pixels")
	cmd.Flags().Float64Var(&fontRatio, "font-ratio", 0.5, "rendered glyph width:height ratio")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel render workers (0 = all CPUs)")
	cmd.Flags().StringVar(&audioFrom, "audio-from", "", "mux the audio track of this video into the output")
	return cmd
}

func (a *app) playCmd() *cobra.Command {
	var fps int
	var loopPlayback bool

	cmd := &cobra.Command{
		Use:   "play <frames-dir>",
		Short: "Play a frame sequence in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, kind, err := validation.ValidateInputPath(args[0])
			if err != nil {
				return err
			}
			if kind != validation.KindDirectory {
				return fmt.Errorf("play expects a directory of frame files")
			}
			seq, err := frame.LoadSequence(dir)
			if err != nil {
				return err
			}
			return player.Play(seq, player.Options{FPS: fps, Loop: loopPlayback})
		},
	}

	cmd.Flags().IntVar(&fps, "fps", 30, "playback frame rate")
	cmd.Flags().BoolVar(&loopPlayback, "loop", false, "restart playback from the first frame")
	return cmd
}
