// convert.go
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"charcoal/internal/ascii"
	"charcoal/internal/ffmpeg"
	"charcoal/internal/frame"
	"charcoal/internal/pipeline"
	"charcoal/internal/ui"
	"charcoal/internal/validation"
)

type convertOptions struct {
	columns          int
	fps              int
	fontRatio        float64
	luminance        int
	useDefault       bool
	small            bool
	large            bool
	color            bool
	keepImages       bool
	logDetails       bool
	strict           bool
	workers          int
	start            string
	end              string
	preprocess       string
	preprocessPreset string
}

func (a *app) runConvert(cmd *cobra.Command, args []string, opts *convertOptions) error {
	interactive := !(opts.useDefault || opts.small || opts.large)

	input := ""
	if len(args) > 0 {
		input = args[0]
	} else {
		if !interactive {
			return fmt.Errorf("input file must be provided when using a preset")
		}
		files, err := findMediaFiles(".")
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no media files found in current directory")
		}
		input, err = a.prompter.Select("Choose an input file", files)
		if err != nil {
			return err
		}
	}

	inputPath, kind, err := validation.ValidateInputPath(input)
	if err != nil {
		return err
	}

	outputPath := "."
	if len(args) > 1 {
		outputPath = args[1]
	}
	// A file input gets its own directory named after the file stem.
	if kind != validation.KindDirectory {
		stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outputPath = filepath.Join(outputPath, stem)
	}
	outputPath, err = validation.ValidateOutputDir(outputPath)
	if err != nil {
		return err
	}

	presetName := ""
	switch {
	case opts.small:
		presetName = "small"
	case opts.large:
		presetName = "large"
	}
	preset, err := a.cfg.Preset(presetName)
	if err != nil {
		return err
	}

	columns := preset.Columns
	fps := preset.FPS
	fontRatio := preset.FontRatio
	luminance := int(preset.Luminance)
	start, end := a.cfg.DefaultStart, a.cfg.DefaultEnd

	if cmd.Flags().Changed("columns") {
		columns = opts.columns
	}
	if cmd.Flags().Changed("fps") {
		fps = opts.fps
	}
	if cmd.Flags().Changed("font-ratio") {
		fontRatio = opts.fontRatio
	}
	if cmd.Flags().Changed("luminance") {
		luminance = opts.luminance
	}
	if cmd.Flags().Changed("start") {
		start = opts.start
	}
	if cmd.Flags().Changed("end") {
		end = opts.end
	}

	if interactive {
		if !cmd.Flags().Changed("columns") {
			if columns, err = a.prompter.InputInt("Columns (width)", columns); err != nil {
				return err
			}
		}
		if !cmd.Flags().Changed("font-ratio") {
			if fontRatio, err = a.prompter.InputFloat("Font ratio", fontRatio); err != nil {
				return err
			}
		}
		if !cmd.Flags().Changed("luminance") {
			if luminance, err = a.prompter.InputInt("Luminance threshold", luminance); err != nil {
				return err
			}
		}
		if kind == validation.KindVideo {
			if !cmd.Flags().Changed("fps") {
				if fps, err = a.prompter.InputInt("Frames per second (FPS)", fps); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("start") {
				if start, err = a.prompter.Input("Start time (e.g. 00:00:05)", start); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("end") {
				if end, err = a.prompter.Input("End time (optional)", end); err != nil {
					return err
				}
			}
		}
	}

	if luminance < 0 || luminance > 255 {
		return fmt.Errorf("luminance must be in [0,255], got %d", luminance)
	}
	palette, err := ascii.NewPalette(a.cfg.ASCIIChars)
	if err != nil {
		return err
	}
	asciiOpts := &ascii.Options{
		Columns:   columns,
		FontRatio: fontRatio,
		Threshold: uint8(luminance),
		Palette:   palette,
		Color:     opts.color,
	}
	if err := asciiOpts.Validate(); err != nil {
		return err
	}

	filter, err := ffmpeg.ResolveFilter(opts.preprocess, opts.preprocessPreset)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %v", err)
	}
	if err := a.clearExistingFrames(outputPath, interactive); err != nil {
		return err
	}

	var frameCount int
	switch kind {
	case validation.KindImage:
		fmt.Println(promptStyle.Render("Converting image..."))
		frameCount = 1
		stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		if err := a.convertImage(inputPath, outputPath, stem, asciiOpts, filter); err != nil {
			return err
		}

	case validation.KindVideo:
		if !a.toolkit.Available() {
			return ffmpeg.ErrToolNotFound
		}
		if info, err := a.toolkit.Probe(inputPath); err == nil && info != nil {
			ui.DisplayVideoInfo(info)
		}
		fmt.Println(promptStyle.Render("Extracting video frames..."))
		if err := a.toolkit.ExtractFrames(ffmpeg.ExtractRequest{
			Input:   inputPath,
			OutDir:  outputPath,
			Columns: columns,
			FPS:     fps,
			Start:   start,
			End:     end,
			Filter:  filter,
		}); err != nil {
			return err
		}
		sources, err := findSourceImages(outputPath)
		if err != nil {
			return err
		}
		if frameCount, err = a.convertBatch(sources, outputPath, asciiOpts, opts); err != nil {
			return err
		}

	case validation.KindDirectory:
		fmt.Println(promptStyle.Render("Converting directory of images..."))
		sources, err := findSourceImages(inputPath)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return fmt.Errorf("no images found in %s", inputPath)
		}
		if frameCount, err = a.convertBatch(sources, outputPath, asciiOpts, opts); err != nil {
			return err
		}
	}

	ui.Success(fmt.Sprintf("ASCII generation complete in %s", outputPath))

	details := buildDetails(version, frameCount, luminance, fontRatio, columns, fps, kind == validation.KindVideo)
	if err := os.WriteFile(filepath.Join(outputPath, "details.md"), []byte(details), 0o644); err != nil {
		return fmt.Errorf("writing details file: %v", err)
	}
	if opts.logDetails {
		fmt.Println("\n--- Generation Details ---")
		fmt.Println(details)
	}
	return nil
}

// convertImage converts one still image to a single frame file named after
// the input stem.
func (a *app) convertImage(inputPath, outputPath, stem string, opts *ascii.Options, filter string) error {
	src := inputPath
	if filter != "" {
		cli, ok := a.toolkit.(*ffmpeg.CLI)
		if !ok {
			return fmt.Errorf("preprocessing still images requires the ffmpeg toolkit")
		}
		tmp, err := cli.PreprocessImage(inputPath, filter)
		if err != nil {
			return err
		}
		defer os.Remove(tmp)
		src = tmp
	}

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %v", inputPath, err)
	}
	bounds := img.Bounds()
	cols, rows, err := ascii.TargetSize(bounds.Dx(), bounds.Dy(), opts)
	if err != nil {
		return err
	}
	f, err := ascii.ConvertImage(img, cols, rows, opts)
	if err != nil {
		return err
	}

	data, ext, err := frame.Encode(f)
	if err != nil {
		return err
	}
	out := filepath.Join(outputPath, stem+ext)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %v", out, err)
	}
	return nil
}

// convertBatch runs the parallel pipeline over the source images with a
// progress bar, returning the number of converted frames.
func (a *app) convertBatch(sources []string, outDir string, asciiOpts *ascii.Options, opts *convertOptions) (int, error) {
	conv := &pipeline.Converter{
		Workers:    opts.workers,
		Strict:     opts.strict,
		KeepImages: opts.keepImages,
	}

	bar := newProgressBar(len(sources), "Converting frames")
	result, err := conv.Convert(context.Background(), sources, outDir, asciiOpts,
		func(done, total int) {
			bar.Set(done)
		})
	bar.Finish()
	fmt.Println()
	if err != nil {
		return 0, err
	}
	for _, fe := range result.Failed {
		ui.Error(fe.Error())
	}
	return result.Converted, nil
}

// clearExistingFrames asks before wiping frame files left over from an
// earlier run in the output directory.
func (a *app) clearExistingFrames(dir string, interactive bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading output directory: %v", err)
	}
	var stale []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, "frame_") {
			switch filepath.Ext(name) {
			case ".png", frame.PlainExt, frame.ColorExt:
				stale = append(stale, filepath.Join(dir, name))
			}
		}
	}
	if len(stale) == 0 {
		return nil
	}

	if interactive {
		ok, err := a.prompter.Confirm(
			fmt.Sprintf("Output directory %s already contains frames. Overwrite?", dir))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("operation cancelled")
		}
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("removing %s: %v", p, err)
		}
	}
	return nil
}

// buildDetails formats the details.md summary for a finished conversion.
func buildDetails(version string, frames, luminance int, fontRatio float64, columns, fps int, isVideo bool) string {
	details := fmt.Sprintf(
		"Version: %s\nFrames: %d\nLuminance: %d\nFont Ratio: %g\nColumns: %d",
		version, frames, luminance, fontRatio, columns)
	if isVideo {
		details += fmt.Sprintf("\nFPS: %d", fps)
	}
	return details
}

// findSourceImages lists convertible images in dir in name order.
func findSourceImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, supported := range validation.ImageFormats {
			if ext == supported {
				out = append(out, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// findMediaFiles lists media candidates in dir for the interactive picker.
func findMediaFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if !strings.HasPrefix(name, ".") {
				out = append(out, name+string(filepath.Separator))
			}
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		for _, supported := range append(append([]string{}, validation.VideoFormats...), validation.ImageFormats...) {
			if ext == supported {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
