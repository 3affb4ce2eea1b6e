// Command simulate runs the Tomasulo RV32I core over a memory image and
// prints the low byte of a0 at halt.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rogerflowey/tomasulo-rv32/harness"
	"github.com/rogerflowey/tomasulo-rv32/loader"
	"github.com/xyproto/env/v2"
)

var verbose = flag.Bool("v", false, "print cycle/commit stats to stderr after halt")

func main() {
	flag.Parse()

	var src *os.File
	switch flag.NArg() {
	case 0:
		src = os.Stdin
	case 1:
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "simulate: opening image: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		src = f
	default:
		fmt.Fprintf(os.Stderr, "usage: simulate [-v] [image-file]\n")
		os.Exit(1)
	}

	image, err := loader.Load(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: loading image: %v\n", err)
		os.Exit(1)
	}

	maxCycles := env.Int("TOMASULO_MAX_CYCLES", 0)
	trace := env.Bool("TOMASULO_TRACE")

	var opts []harness.Option
	opts = append(opts, harness.WithMaxCycles(uint64(maxCycles)))
	if trace {
		opts = append(opts, harness.WithTraceWriter(os.Stderr))
	}

	h := harness.New(image, opts...)
	stats := h.Run()

	if !h.Halted() {
		fmt.Fprintf(os.Stderr, "simulate: did not halt within %d cycles\n", maxCycles)
		os.Exit(1)
	}

	fmt.Println(h.ExitCode())

	if *verbose {
		fmt.Fprintf(os.Stderr, "cycles=%d committed=%d flushes=%d stalls=%d cpi=%.3f\n",
			stats.Cycles, stats.Committed, stats.Flushes, stats.StallCycles, stats.CPI())
	}
}
