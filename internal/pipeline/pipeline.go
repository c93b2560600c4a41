// Package pipeline fans a batch of source images out over a bounded worker
// pool, converting each to an encoded character frame while preserving the
// input frame order.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	// Frame sources are PNGs from the extractor, but directory input may
	// carry whatever images users drop in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"charcoal/internal/ascii"
	"charcoal/internal/frame"
)

// Converter runs the parallel frame conversion. The zero value converts with
// one worker per CPU, collects per-frame errors, and deletes source images
// on full success.
type Converter struct {
	// Workers bounds the pool size; 0 means runtime.NumCPU().
	Workers int
	// Strict aborts the batch on the first per-frame error instead of
	// collecting it.
	Strict bool
	// KeepImages leaves the source images in place after conversion.
	KeepImages bool
}

// FrameError ties a conversion failure to the frame it belongs to.
type FrameError struct {
	Index int
	Path  string
	Err   error
}

func (e FrameError) Error() string {
	return fmt.Sprintf("frame %d (%s): %v", e.Index, e.Path, e.Err)
}

// Result summarizes a conversion batch.
type Result struct {
	OutputDir string
	Width     int
	Height    int
	Converted int
	Failed    []FrameError
}

// Progress is called after each completed frame with the running totals. It
// may be called from multiple goroutines, one frame at a time.
type Progress func(done, total int)

// Convert maps every source image to an encoded frame file in outDir,
// numbered frame_0001 onward in input order. Workers only ever write their
// own index slot, so completion order never reorders output.
//
// In strict mode the first failure cancels dispatch of remaining work and is
// returned with its frame index; frames already written stay on disk for
// inspection. Otherwise failures are collected per index in Result.Failed.
func (c *Converter) Convert(ctx context.Context, paths []string, outDir string, opts *ascii.Options, progress Progress) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no source images to convert")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %v", err)
	}

	res := &Result{OutputDir: outDir}

	// The grid size is fixed for the whole sequence, derived from the
	// first decodable source.
	first := -1
	for i, p := range paths {
		w, h, err := imageSize(p)
		if err != nil {
			fe := FrameError{Index: i + 1, Path: p, Err: err}
			if c.Strict {
				return res, fe
			}
			res.Failed = append(res.Failed, fe)
			continue
		}
		cols, rows, err := ascii.TargetSize(w, h, opts)
		if err != nil {
			return res, FrameError{Index: i + 1, Path: p, Err: err}
		}
		res.Width, res.Height = cols, rows
		first = i
		break
	}
	if first < 0 {
		return res, fmt.Errorf("no source image in the batch could be decoded")
	}

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		done    atomic.Int64
		total   = len(paths) - first
		errSlot = make([]error, len(paths)) // per-index, no locking needed
		jobs    = make(chan int)
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				err := c.convertOne(paths[i], outDir, i+1, res.Width, res.Height, opts)
				errSlot[i] = err
				if err != nil && c.Strict {
					cancel()
				}
				if progress != nil {
					progress(int(done.Add(1)), total)
				}
			}
		}()
	}

dispatch:
	for i := first; i < len(paths); i++ {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for i, err := range errSlot {
		if err == nil {
			continue
		}
		res.Failed = append(res.Failed, FrameError{Index: i + 1, Path: paths[i], Err: err})
	}
	sort.Slice(res.Failed, func(a, b int) bool { return res.Failed[a].Index < res.Failed[b].Index })
	res.Converted = len(paths) - first - countFrom(errSlot, first)

	if c.Strict {
		for _, fe := range res.Failed {
			return res, fe
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
	}

	if !c.KeepImages && len(res.Failed) == 0 {
		for _, p := range paths {
			if err := os.Remove(p); err != nil {
				return res, fmt.Errorf("removing source image %s: %v", p, err)
			}
		}
	}
	return res, nil
}

func countFrom(errs []error, from int) int {
	n := 0
	for i := from; i < len(errs); i++ {
		if errs[i] != nil {
			n++
		}
	}
	return n
}

func (c *Converter) convertOne(path, outDir string, index, cols, rows int, opts *ascii.Options) error {
	img, err := loadImage(path)
	if err != nil {
		return err
	}
	f, err := ascii.ConvertImage(img, cols, rows, opts)
	if err != nil {
		return err
	}
	if _, err := frame.WriteFile(outDir, index, f); err != nil {
		return err
	}
	return nil
}

func loadImage(path string) (image.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, &frame.DecodeError{Path: path, Reason: fmt.Sprintf("decoding source image: %v", err)}
	}
	return img, nil
}

func imageSize(path string) (int, int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer fh.Close()
	cfg, _, err := image.DecodeConfig(fh)
	if err != nil {
		return 0, 0, &frame.DecodeError{Path: path, Reason: fmt.Sprintf("reading image header: %v", err)}
	}
	return cfg.Width, cfg.Height, nil
}
