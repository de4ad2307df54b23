package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jpalmerr/fearboard"
)

// RunScareDriver nudges the fear value up or down every 3-8 seconds until ctx
// is cancelled, standing in for an operator at the admin page.
// Upward nudges are twice as likely as downward ones.
func RunScareDriver(ctx context.Context, fb *fearboard.FearBoard) {
	for {
		wait := time.Duration(3+rand.Intn(6)) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		before := fb.Value()
		var after int
		switch {
		case before == fb.Max():
			// peak reached, let the audience breathe
			after = fb.Set(float64(rand.Intn(fb.Max()/2 + 1)))
		case rand.Intn(3) == 0:
			after = fb.Decrement(1)
		default:
			after = fb.Increment(1 + rand.Intn(2))
		}
		slog.Info("scare driver", "from", before, "to", after)
	}
}
