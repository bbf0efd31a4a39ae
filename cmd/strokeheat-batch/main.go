package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/okian/strokeheat/internal/batch"
	"github.com/okian/strokeheat/internal/config"
)

// Default configuration constants.
const (
	defaultWidth  = 400
	defaultHeight = 150
)

func main() {
	var (
		input   = flag.String("in", "", "A .funscript file or a directory of them")
		output  = flag.String("out", ".", "Output directory")
		width   = flag.Int("width", defaultWidth, "Strip or card width in pixels")
		height  = flag.Int("height", defaultHeight, "Strip height in pixels")
		theme   = flag.String("theme", "dark", "Color theme: dark or light")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		card    = flag.Bool("card", false, "Render the strip together with its summary panel")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *input == "" {
		batch.ShowHelp(os.Stdout)
		return
	}

	_ = config.LoadDotEnv()
	if err := batch.SetupLogging(os.Stderr, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := batch.Run(ctx, &batch.Config{
		Input:   *input,
		Output:  *output,
		Width:   *width,
		Height:  *height,
		Theme:   *theme,
		Workers: *workers,
		Card:    *card,
		Verbose: *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("Batch failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Println(report)
	if report.Failed > 0 {
		os.Exit(1)
	}
}
