// Package mocks provides mock implementations of the toolkit and prompter
// interfaces for testing command flows without external binaries or a TTY.
package mocks

import (
	"fmt"
	"sync"

	"charcoal/internal/ffmpeg"
	"charcoal/internal/video"
)

// MockToolkit records every toolkit call and replays configured responses.
type MockToolkit struct {
	mu sync.Mutex

	IsAvailable bool
	ProbeInfo   *video.Info
	ProbeErr    error
	ExtractErr  error
	AudioErr    error
	EncodeErr   error

	// ExtractHook optionally runs on ExtractFrames so tests can populate
	// the output directory the way the real tool would.
	ExtractHook func(req ffmpeg.ExtractRequest) error

	CallLog  []string
	Extracts []ffmpeg.ExtractRequest
	Encodes  []ffmpeg.EncodeRequest
}

// NewMockToolkit returns a toolkit that reports itself available.
func NewMockToolkit() *MockToolkit {
	return &MockToolkit{IsAvailable: true}
}

func (m *MockToolkit) log(format string, args ...interface{}) {
	m.CallLog = append(m.CallLog, fmt.Sprintf(format, args...))
}

func (m *MockToolkit) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("Available")
	return m.IsAvailable
}

func (m *MockToolkit) ExtractFrames(req ffmpeg.ExtractRequest) error {
	m.mu.Lock()
	m.log("ExtractFrames: %s -> %s", req.Input, req.OutDir)
	m.Extracts = append(m.Extracts, req)
	hook := m.ExtractHook
	err := m.ExtractErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		return hook(req)
	}
	return nil
}

func (m *MockToolkit) Probe(path string) (*video.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("Probe: %s", path)
	return m.ProbeInfo, m.ProbeErr
}

func (m *MockToolkit) ExtractAudio(input, output string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("ExtractAudio: %s -> %s", input, output)
	return m.AudioErr
}

func (m *MockToolkit) Encode(req ffmpeg.EncodeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("Encode: %s -> %s", req.Pattern, req.Output)
	m.Encodes = append(m.Encodes, req)
	return m.EncodeErr
}

// MockPrompter replays canned answers keyed by prompt label.
type MockPrompter struct {
	SelectResponses  map[string]string
	InputResponses   map[string]string
	IntResponses     map[string]int
	FloatResponses   map[string]float64
	ConfirmResponses map[string]bool

	CallLog []string
}

// NewMockPrompter returns an empty prompter; unanswered prompts fall back
// to the supplied default value.
func NewMockPrompter() *MockPrompter {
	return &MockPrompter{
		SelectResponses:  make(map[string]string),
		InputResponses:   make(map[string]string),
		IntResponses:     make(map[string]int),
		FloatResponses:   make(map[string]float64),
		ConfirmResponses: make(map[string]bool),
	}
}

func (m *MockPrompter) Select(label string, items []string) (string, error) {
	m.CallLog = append(m.CallLog, "Select: "+label)
	if resp, ok := m.SelectResponses[label]; ok {
		return resp, nil
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no items for select %q", label)
	}
	return items[0], nil
}

func (m *MockPrompter) Input(label, defaultValue string) (string, error) {
	m.CallLog = append(m.CallLog, "Input: "+label)
	if resp, ok := m.InputResponses[label]; ok {
		return resp, nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) InputInt(label string, defaultValue int) (int, error) {
	m.CallLog = append(m.CallLog, "InputInt: "+label)
	if resp, ok := m.IntResponses[label]; ok {
		return resp, nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) InputFloat(label string, defaultValue float64) (float64, error) {
	m.CallLog = append(m.CallLog, "InputFloat: "+label)
	if resp, ok := m.FloatResponses[label]; ok {
		return resp, nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) Confirm(label string) (bool, error) {
	m.CallLog = append(m.CallLog, "Confirm: "+label)
	if resp, ok := m.ConfirmResponses[label]; ok {
		return resp, nil
	}
	return true, nil
}
