// Package video probes media metadata through ffprobe.
package video

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Info describes a media file as reported by the probe.
type Info struct {
	Filepath string
	FileSize int64
	Width    int
	Height   int
	Duration float64
	Format   string
	HasAudio bool
}

type ffprobeOutput struct {
	Streams []struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Format   string `json:"format_name"`
	} `json:"format"`
}

// Probe runs ffprobe on the given file and extracts the dimensions, duration
// and audio presence the converter needs for scaling decisions.
func Probe(filepath string) (*Info, error) {
	fileInfo, err := os.Stat(filepath)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", filepath)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run ffprobe: %v", err)
	}
	return parseProbe(output, filepath, fileInfo.Size())
}

func parseProbe(output []byte, filepath string, size int64) (*Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %v", err)
	}

	info := &Info{
		Filepath: filepath,
		FileSize: size,
		Format:   probe.Format.Format,
	}
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("no video stream with dimensions in %s", filepath)
	}

	if probe.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = duration
		}
	}
	return info, nil
}
