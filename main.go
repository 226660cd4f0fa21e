package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vision-kit/go-compare/compare"
	"github.com/vision-kit/go-compare/compositor"
	"github.com/vision-kit/go-compare/config"
	"github.com/vision-kit/go-compare/images"
	"github.com/vision-kit/go-compare/server"
	"github.com/vision-kit/go-compare/util"
)

const (
	// DefaultPosition places the boundary in the middle.
	DefaultPosition = 0.5
	// DefaultLineThickness matches the divider of the interactive shell.
	DefaultLineThickness = 3
	// DefaultLineColor is the divider color name.
	DefaultLineColor = "white"
	// DefaultOutputPath is where the one-shot composite lands.
	DefaultOutputPath = "comparison.png"
)

func main() {
	var (
		beforePath    string
		afterPath     string
		outputPath    string
		position      float64
		lineThickness int
		lineColor     string
		resizeToMatch bool
		serve         bool
		port          int
		demo          bool
	)
	flag.StringVar(&beforePath, "before", "", "Path to the 'before' image (.png, .jpg, .jpeg, .webp)")
	flag.StringVar(&afterPath, "after", "", "Path to the 'after' image (.png, .jpg, .jpeg, .webp)")
	flag.StringVar(&outputPath, "out", DefaultOutputPath, "Output path for the composite PNG")
	flag.Float64Var(&position, "position", DefaultPosition, "Boundary position in [0,1]: 0 shows only 'after', 1 only 'before'")
	flag.IntVar(&lineThickness, "line-thickness", DefaultLineThickness, "Divider line width in pixels (0 disables)")
	flag.StringVar(&lineColor, "line-color", DefaultLineColor, "Divider color (named or #rrggbb)")
	flag.BoolVar(&resizeToMatch, "resize", true, "Resize mismatched images to common dimensions")
	flag.BoolVar(&serve, "serve", false, "Start the interactive comparison shell instead of one-shot mode")
	flag.IntVar(&port, "port", 8080, "Port for the interactive shell")
	flag.BoolVar(&demo, "demo", false, "Pre-seed the shell with generated sample images")
	flag.Parse()

	if serve {
		runServer(config.AppConfig{
			Port:          port,
			LineThickness: lineThickness,
			LineColor:     lineColor,
			ResizeToMatch: resizeToMatch,
			Demo:          demo,
		})
		return
	}

	if beforePath == "" || afterPath == "" {
		log.Fatalf("one-shot mode needs both -before and -after (or use -serve)")
	}

	color, err := images.ParseColor(lineColor)
	if err != nil {
		log.Fatalf("invalid -line-color: %v", err)
	}

	beforeData, err := util.LoadImageFile(beforePath)
	if err != nil {
		log.Fatalf("load before image: %v", err)
	}
	afterData, err := util.LoadImageFile(afterPath)
	if err != nil {
		log.Fatalf("load after image: %v", err)
	}

	result, err := compare.Run(compare.Request{
		Before:        beforeData,
		After:         afterData,
		Fraction:      position,
		ResizeToMatch: resizeToMatch,
		Line: compositor.Options{
			LineThickness: lineThickness,
			LineColor:     color,
		},
	})
	if err != nil {
		log.Fatalf("compose: %v", err)
	}

	if err := os.WriteFile(outputPath, result.PNG, 0o644); err != nil {
		log.Fatalf("write %s: %v", outputPath, err)
	}
	log.Printf("wrote %s (%dx%d, %s)", outputPath, result.Width, result.Height, result.Label())
}

// runServer blocks until the process is signalled to stop.
func runServer(cfg config.AppConfig) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("serving before/after comparison shell on :%d", cfg.Port)
	if err := server.Run(ctx, cfg); err != nil && ctx.Err() == nil {
		log.Fatalf("server: %v", err)
	}
}
