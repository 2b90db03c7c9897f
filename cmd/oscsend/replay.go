package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/showcontroller/osctools/osc"
)

// replay sends every datagram of a capture file. With timing set it sleeps
// between datagrams for the gap observed when they were recorded.
func replay(ctx context.Context, client *osc.Client, path string, timing bool, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	r := osc.NewCaptureReader(f)
	var (
		last  time.Time
		count int
	)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if timing && !last.IsZero() {
			if err := sleep(ctx, rec.Time.Sub(last)); err != nil {
				return nil
			}
		}
		last = rec.Time

		if err := client.Send(ctx, rec.Data); err != nil {
			return err
		}
		count++
	}

	logger.Info("replayed capture", slog.String("file", path), slog.Int("datagrams", count))
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
