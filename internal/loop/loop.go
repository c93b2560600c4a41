// Package loop detects repeating sub-sequences in a series of character
// frames so animations can be cut down to a single cycle.
package loop

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"charcoal/internal/frame"
)

// ErrNoLoopFound is the negative, non-exceptional outcome: the sequence has
// no qualifying period. Callers branch on it rather than treating it as a
// failure.
var ErrNoLoopFound = errors.New("no loop found")

// MinFrames is the shortest sequence the detector accepts.
const MinFrames = 4

// Result describes a detected loop: frames[i] == frames[i+Period] for every
// i in [Start, End-Period), with at least two full repeats inside
// [Start, End). End never extends past the last frame that actually repeats.
type Result struct {
	// Start is the offset of the first frame inside the loop, 0-based.
	Start int
	// Period is the length of the repeating unit in frames.
	Period int
	// End is the exclusive offset where periodicity stops.
	End int
}

// Repeats returns how many complete cycles fit in the detected region.
func (r Result) Repeats() int {
	if r.Period == 0 {
		return 0
	}
	return (r.End - r.Start) / r.Period
}

// Detect finds the shortest period and, among equal periods, the smallest
// starting offset. Per-frame blake3 fingerprints screen candidate windows
// cheaply; a window is only declared a loop after cell-exact comparison
// confirms every hash match.
func Detect(frames []*frame.Frame) (Result, error) {
	n := len(frames)
	if n < MinFrames {
		return Result{}, fmt.Errorf("need at least %d frames, got %d", MinFrames, n)
	}
	for i := 1; i < n; i++ {
		if frames[i].Width != frames[0].Width || frames[i].Height != frames[0].Height {
			return Result{}, &frame.DimensionError{
				Reason: fmt.Sprintf("frame %d is %dx%d, sequence is %dx%d",
					i, frames[i].Width, frames[i].Height, frames[0].Width, frames[0].Height),
			}
		}
	}

	digests := make([][32]byte, n)
	for i, f := range frames {
		digests[i] = fingerprint(f)
	}

	for period := 1; period <= n/2; period++ {
		for start := 0; n-start >= 2*period; start++ {
			end, ok := periodicRun(frames, digests, start, period)
			if ok {
				return Result{Start: start, Period: period, End: end}, nil
			}
		}
	}
	return Result{}, ErrNoLoopFound
}

// periodicRun extends the window [start, end) for as long as
// frames[i] == frames[i+period] holds, using digests as a screen and exact
// comparison as confirmation, and reports whether the run holds at least two
// full repeats.
func periodicRun(frames []*frame.Frame, digests [][32]byte, start, period int) (int, bool) {
	n := len(frames)
	i := start
	for i+period < n && digests[i] == digests[i+period] && frames[i].Equal(frames[i+period]) {
		i++
	}
	// Frames [start, i+period) are periodic; two repeats need the matched
	// prefix to cover at least one full period. Regions shorter than
	// MinFrames are ignored so a single duplicated frame pair, common in
	// extracted video, cannot masquerade as a loop.
	end := i + period
	if i-start < period || end-start < MinFrames {
		return 0, false
	}
	return end, true
}

// fingerprint hashes a frame's dimensions and every cell. Cells feed the
// hasher row by row; the colored flag is included so a blank and a colored
// space never collide.
func fingerprint(f *frame.Frame) [32]byte {
	h := blake3.New()

	var header [8]byte
	binary.LittleEndian.PutUint32(header[:4], uint32(f.Width))
	binary.LittleEndian.PutUint32(header[4:], uint32(f.Height))
	h.Write(header[:])

	row := make([]byte, 0, f.Width*5)
	for y := 0; y < f.Height; y++ {
		row = row[:0]
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			colored := byte(0)
			if c.Colored {
				colored = 1
			}
			row = append(row, c.Char, colored, c.Color.R, c.Color.G, c.Color.B)
		}
		h.Write(row)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
