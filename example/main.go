package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/fearboard"
)

func main() {
	// start the board with a callback that reacts to the peak
	fb, err := fearboard.New(
		fearboard.WithTitle("Haunted House"),
		fearboard.WithPort(8080),
		fearboard.WithChangeCallback(func(v int) {
			if v == fearboard.DefaultMax {
				slog.Warn("maximum fear reached")
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create fearboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   FearBoard Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Admin:   http://localhost:8080/admin                ║")
	fmt.Println("  ║   Display: http://localhost:8080/display              ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A scare driver nudges the value every few seconds   ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// see scare_driver.go
	go RunScareDriver(ctx, fb)

	if err := fb.Start(ctx); err != nil {
		slog.Error("fearboard error", "error", err)
		os.Exit(1)
	}
}
