// Command stitchtest runs the stitching pipeline over a set of captured
// strips and prints the merge trace.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"scroll-stitcher/internal/frame"
	"scroll-stitcher/internal/stitch"
)

func main() {
	in := flag.String("in", "", "Glob of input images in capture order (e.g. 'shots/*.png')")
	out := flag.String("out", "stitched.png", "Output image path")
	scrolls := flag.String("scroll", "", "Comma-separated scroll distances in px, one per frame after the first")
	sequential := flag.Bool("seq", false, "Use the sequential scheduler instead of pairwise")
	noFilter := flag.Bool("nofilter", false, "Disable duplicate frame filtering")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	if *in == "" {
		fmt.Println("Usage: stitchtest -in '<glob>' [-out <path>] [-scroll d1,d2,...] [-seq]")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	paths, err := filepath.Glob(*in)
	if err != nil || len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no inputs match %q\n", *in)
		os.Exit(1)
	}
	sort.Strings(paths)

	distances, err := parseScrolls(*scrolls, len(paths))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad -scroll: %v\n", err)
		os.Exit(1)
	}

	frames := make([]frame.Frame, 0, len(paths))
	defer func() {
		for _, f := range frames {
			f.Mat.Close()
		}
	}()
	for i, path := range paths {
		mat := gocv.IMRead(path, gocv.IMReadColor)
		if mat.Empty() {
			fmt.Fprintf(os.Stderr, "failed to read %s\n", path)
			os.Exit(1)
		}
		f := frame.New(mat, i)
		if i > 0 && i-1 < len(distances) {
			f = f.WithScroll(distances[i-1])
		}
		frames = append(frames, f)
		fmt.Printf("frame %d: %s (%dx%d)\n", i, filepath.Base(path), mat.Cols(), mat.Rows())
	}

	normalized, err := frame.NormalizeWidths(frames, frame.NormalizeCrop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "normalize: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		for _, f := range normalized {
			f.Mat.Close()
		}
	}()

	opts := stitch.DefaultOptions()
	opts.Logger = logger
	opts.FilterDuplicates = !*noFilter
	if *sequential {
		opts.Strategy = stitch.StrategySequential
	}

	result, err := stitch.Stitch(context.Background(), normalized, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stitch failed: %v\n", err)
		os.Exit(1)
	}
	defer result.Close()

	fmt.Printf("\n=== Merge trace ===\n")
	for _, rec := range result.Trace {
		kind := "append"
		if rec.Blended {
			kind = "blend"
		}
		fmt.Printf("level %d pair %d: %-6s offset=%d confidence=%.3f method=%s\n",
			rec.Level, rec.Pair, kind,
			rec.Estimate.OffsetY, rec.Estimate.Confidence, rec.Estimate.Method)
	}
	if len(result.Dropped) > 0 {
		fmt.Printf("dropped duplicate frames: %v\n", result.Dropped)
	}

	if ok := gocv.IMWrite(*out, result.Image); !ok {
		fmt.Fprintf(os.Stderr, "failed to write %s\n", *out)
		os.Exit(1)
	}
	fmt.Printf("\nwrote %s (%dx%d)\n", *out, result.Image.Cols(), result.Image.Rows())
}

func parseScrolls(s string, frames int) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > frames-1 {
		return nil, fmt.Errorf("%d distances for %d frames", len(parts), frames)
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
