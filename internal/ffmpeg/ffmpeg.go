// Package ffmpeg is the boundary to the external video toolkit: frame
// extraction, metadata probing, audio handling and final encoding all shell
// out to ffmpeg/ffprobe here, behind an interface the rest of the code can
// fake in tests.
package ffmpeg

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"charcoal/internal/video"
)

// ErrToolNotFound reports that the external binary is not installed or not
// in PATH. It is distinct from a failing invocation.
var ErrToolNotFound = errors.New("external tool not found in PATH")

// ToolError wraps a failed external invocation together with the tool's own
// reported output.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// TimeRangeError reports an invalid start/end request before any tool runs.
type TimeRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *TimeRangeError) Error() string {
	return fmt.Sprintf("invalid time range %q..%q: %s", e.Start, e.End, e.Reason)
}

// ExtractRequest describes one frame-extraction call.
type ExtractRequest struct {
	Input   string
	OutDir  string
	Columns int
	FPS     int
	// Start and End accept "HH:MM:SS.mmm" or plain seconds; empty means
	// the natural bound.
	Start string
	End   string
	// Filter is an optional preprocessing filter chain prepended to the
	// scaling filter.
	Filter string
}

// EncodeRequest describes one frames-to-video encoding call.
type EncodeRequest struct {
	// Pattern is the printf-style input pattern, e.g. dir/frame_%04d.png.
	Pattern string
	FPS     int
	// Quality is the x264 CRF in [0,51], lower meaning higher fidelity.
	Quality int
	// AudioPath optionally muxes an audio file into the output.
	AudioPath string
	Output    string
}

// Toolkit is the injected capability for every external media operation.
type Toolkit interface {
	Available() bool
	ExtractFrames(req ExtractRequest) error
	Probe(path string) (*video.Info, error)
	ExtractAudio(input, output string) error
	Encode(req EncodeRequest) error
}

// CLI runs the real ffmpeg/ffprobe binaries.
type CLI struct {
	FFmpeg  string
	FFprobe string
}

// NewCLI returns a toolkit using the standard binary names.
func NewCLI() *CLI {
	return &CLI{FFmpeg: "ffmpeg", FFprobe: "ffprobe"}
}

// Available reports whether both binaries resolve in PATH.
func (c *CLI) Available() bool {
	if _, err := exec.LookPath(c.FFmpeg); err != nil {
		return false
	}
	if _, err := exec.LookPath(c.FFprobe); err != nil {
		return false
	}
	return true
}

// ExtractFrames decodes the input into numbered PNG frames in req.OutDir,
// scaled to req.Columns width at req.FPS.
func (c *CLI) ExtractFrames(req ExtractRequest) error {
	args, err := buildExtractArgs(req)
	if err != nil {
		return err
	}
	return c.run(c.FFmpeg, args)
}

// Probe reports media metadata.
func (c *CLI) Probe(path string) (*video.Info, error) {
	if _, err := exec.LookPath(c.FFprobe); err != nil {
		return nil, fmt.Errorf("%s: %w", c.FFprobe, ErrToolNotFound)
	}
	return video.Probe(path)
}

// ExtractAudio copies the input's audio track to a side file. A missing
// audio track is reported as a ToolError by ffmpeg itself.
func (c *CLI) ExtractAudio(input, output string) error {
	args := []string{
		"-loglevel", "error",
		"-i", input,
		"-vn", "-acodec", "copy",
		"-y", output,
	}
	return c.run(c.FFmpeg, args)
}

// Encode assembles a numbered image sequence into an H.264 video.
func (c *CLI) Encode(req EncodeRequest) error {
	args, err := buildEncodeArgs(req)
	if err != nil {
		return err
	}
	return c.run(c.FFmpeg, args)
}

func (c *CLI) run(tool string, args []string) error {
	if _, err := exec.LookPath(tool); err != nil {
		return fmt.Errorf("%s: %w", tool, ErrToolNotFound)
	}
	cmd := exec.Command(tool, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &ToolError{Tool: tool, Output: string(output), Err: err}
	}
	return nil
}

// buildExtractArgs validates the request and assembles the ffmpeg argument
// list. Kept separate from execution so tests cover it without a binary.
func buildExtractArgs(req ExtractRequest) ([]string, error) {
	if req.Columns <= 0 {
		return nil, fmt.Errorf("columns must be positive, got %d", req.Columns)
	}
	if req.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", req.FPS)
	}

	start, end, err := resolveTimeRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	args := []string{"-loglevel", "error"}
	if req.Start != "" && start > 0 {
		args = append(args, "-ss", req.Start)
	}
	args = append(args, "-i", req.Input)
	if req.End != "" {
		duration := end - start
		args = append(args, "-t", strconv.FormatFloat(duration, 'f', -1, 64))
	}
	args = append(args,
		"-vf", ExtractionFilter(req.Columns, req.FPS, req.Filter),
		filepath.Join(req.OutDir, "frame_%04d.png"),
	)
	return args, nil
}

// resolveTimeRange parses the optional bounds and rejects inverted or
// unparsable ranges before ffmpeg ever runs.
func resolveTimeRange(startStr, endStr string) (float64, float64, error) {
	var start, end float64
	if startStr != "" {
		v, err := ParseTimestamp(startStr)
		if err != nil {
			return 0, 0, &TimeRangeError{Start: startStr, End: endStr, Reason: err.Error()}
		}
		if v < 0 {
			return 0, 0, &TimeRangeError{Start: startStr, End: endStr, Reason: "start is negative"}
		}
		start = v
	}
	if endStr != "" {
		v, err := ParseTimestamp(endStr)
		if err != nil {
			return 0, 0, &TimeRangeError{Start: startStr, End: endStr, Reason: err.Error()}
		}
		if v <= start {
			return 0, 0, &TimeRangeError{Start: startStr, End: endStr, Reason: "end does not come after start"}
		}
		end = v
	}
	return start, end, nil
}

// ParseTimestamp accepts "HH:MM:SS.mmm", "MM:SS" or plain seconds.
func ParseTimestamp(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("timestamp %q has too many fields", s)
	}
	var total float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp %q: bad field %q", s, part)
		}
		if v < 0 {
			return 0, fmt.Errorf("timestamp %q: negative field %q", s, part)
		}
		exp := len(parts) - 1 - i
		mul := 1.0
		for j := 0; j < exp; j++ {
			mul *= 60
		}
		total += v * mul
	}
	return total, nil
}

func buildEncodeArgs(req EncodeRequest) ([]string, error) {
	if req.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", req.FPS)
	}
	if req.Quality < 0 || req.Quality > 51 {
		return nil, fmt.Errorf("quality must be in [0,51], got %d", req.Quality)
	}
	if req.Output == "" {
		return nil, fmt.Errorf("output path required")
	}

	args := []string{
		"-loglevel", "error",
		"-framerate", strconv.Itoa(req.FPS),
		"-i", req.Pattern,
	}
	if req.AudioPath != "" {
		args = append(args, "-i", req.AudioPath)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", strconv.Itoa(req.Quality),
		"-pix_fmt", "yuv420p",
	)
	if req.AudioPath != "" {
		args = append(args, "-c:a", "aac", "-shortest")
	}
	args = append(args, "-movflags", "+faststart", "-y", req.Output)
	return args, nil
}
