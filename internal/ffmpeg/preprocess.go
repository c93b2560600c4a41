package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PreprocessPreset is a named ffmpeg filter chain applied before scaling.
type PreprocessPreset struct {
	Name        string
	Description string
	Filter      string
}

// PreprocessPresets lists the built-in looks, grouped monochrome-first.
var PreprocessPresets = []PreprocessPreset{
	{
		Name:        "contours",
		Description: "Grayscale edge-detection with strong contrast (good for outlines).",
		Filter:      "format=gray,edgedetect=mode=colormix:high=0.2:low=0.05,eq=contrast=2.5:brightness=-0.1",
	},
	{
		Name:        "contours-soft",
		Description: "Softer contour extraction with less aggressive edges.",
		Filter:      "format=gray,edgedetect=mode=colormix:high=0.12:low=0.03,eq=contrast=2.0:brightness=-0.05",
	},
	{
		Name:        "contours-strong",
		Description: "Very sharp contour extraction for bold linework.",
		Filter:      "format=gray,edgedetect=mode=colormix:high=0.35:low=0.08,eq=contrast=3.2:brightness=-0.12",
	},
	{
		Name:        "bw-contrast",
		Description: "Simple grayscale + contrast boost for clean monochrome output.",
		Filter:      "format=gray,eq=contrast=2.2:brightness=-0.08",
	},
	{
		Name:        "noir-detail",
		Description: "Grayscale sharpened look that emphasizes texture.",
		Filter:      "format=gray,unsharp=5:5:1.0:5:5:0.0,eq=contrast=1.8:brightness=-0.04",
	},
	{
		Name:        "vivid",
		Description: "Boost color saturation/contrast and sharpen for colorful output.",
		Filter:      "eq=saturation=1.8:contrast=1.2:brightness=0.02,unsharp=5:5:0.8:5:5:0.0",
	},
	{
		Name:        "warm-pop",
		Description: "Warmer color balance with moderate saturation boost.",
		Filter:      "colorbalance=rs=0.06:gs=0.02:bs=-0.04,eq=saturation=1.35:contrast=1.12",
	},
	{
		Name:        "cool-pop",
		Description: "Cooler color balance with moderate saturation boost.",
		Filter:      "colorbalance=rs=-0.04:gs=0.02:bs=0.07,eq=saturation=1.28:contrast=1.10",
	},
	{
		Name:        "soft-glow",
		Description: "Gentle blur and color lift for smoother gradients.",
		Filter:      "gblur=sigma=1.0,eq=saturation=1.15:contrast=1.08:brightness=0.02",
	},
}

// FindPreset looks a preset up by name, case-insensitively.
func FindPreset(name string) (PreprocessPreset, bool) {
	for _, p := range PreprocessPresets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return PreprocessPreset{}, false
}

// ResolveFilter picks the filter chain to use: a raw custom filter wins over
// a preset name; both empty means no preprocessing.
func ResolveFilter(custom, presetName string) (string, error) {
	if custom != "" {
		f := strings.TrimSpace(custom)
		if f == "" {
			return "", fmt.Errorf("preprocess filter cannot be blank")
		}
		return f, nil
	}
	if presetName != "" {
		p, ok := FindPreset(strings.TrimSpace(presetName))
		if !ok {
			names := make([]string, len(PreprocessPresets))
			for i, p := range PreprocessPresets {
				names[i] = p.Name
			}
			return "", fmt.Errorf("unknown preprocessing preset %q, available: %s",
				presetName, strings.Join(names, ", "))
		}
		return p.Filter, nil
	}
	return "", nil
}

// ExtractionFilter composes the full -vf value: the optional preprocessing
// chain followed by width scaling (height snapped even for the encoder) and
// the sampling rate.
func ExtractionFilter(columns, fps int, preprocess string) string {
	base := fmt.Sprintf("scale=%d:-2,fps=%d", columns, fps)
	preprocess = strings.TrimSpace(preprocess)
	preprocess = strings.TrimRight(preprocess, ",")
	if preprocess == "" {
		return base
	}
	return preprocess + "," + base
}

// PreprocessImage runs the filter over a still image, writing the result to
// a temp file. The caller removes the returned path when done.
func (c *CLI) PreprocessImage(input, filter string) (string, error) {
	out := filepath.Join(os.TempDir(),
		fmt.Sprintf("charcoal_pre_%d_%d.png", os.Getpid(), time.Now().UnixNano()))
	args := []string{
		"-loglevel", "error",
		"-y",
		"-i", input,
		"-vf", filter,
		"-frames:v", "1",
		out,
	}
	if err := c.run(c.FFmpeg, args); err != nil {
		return "", err
	}
	return out, nil
}
