// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree := NewTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})

		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree := NewTree(testLogger(), TreeConfig{})

		if tree.config.FailureThreshold != 5.0 {
			t.Errorf("expected default FailureThreshold 5.0, got %f", tree.config.FailureThreshold)
		}
		if tree.config.FailureDecay != 30.0 {
			t.Errorf("expected default FailureDecay 30.0, got %f", tree.config.FailureDecay)
		}
		if tree.config.FailureBackoff != 15*time.Second {
			t.Errorf("expected default FailureBackoff 15s, got %v", tree.config.FailureBackoff)
		}
		if tree.config.ShutdownTimeout != 10*time.Second {
			t.Errorf("expected default ShutdownTimeout 10s, got %v", tree.config.ShutdownTimeout)
		}
	})
}

func TestTreeLifecycle(t *testing.T) {
	t.Run("tree starts and stops gracefully", func(t *testing.T) {
		tree := NewTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   100 * time.Millisecond,
			ShutdownTimeout:  time.Second,
		})

		ingest := NewMockService("mock-ingest")
		messaging := NewMockService("mock-messaging")
		apiSvc := NewMockService("mock-api")
		tree.AddIngestService(ingest)
		tree.AddMessagingService(messaging)
		tree.AddAPIService(apiSvc)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- tree.Serve(ctx)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down in time")
		}

		if ingest.Starts() == 0 || messaging.Starts() == 0 || apiSvc.Starts() == 0 {
			t.Error("expected every layer's service to have been started")
		}
	})

	t.Run("ServeBackground returns error channel", func(t *testing.T) {
		tree := NewTree(testLogger(), DefaultTreeConfig())

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)
		cancel()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("background tree did not stop in time")
		}
	})

	t.Run("restarts a crashing service", func(t *testing.T) {
		tree := NewTree(testLogger(), TreeConfig{
			FailureThreshold: 100,
			FailureBackoff:   10 * time.Millisecond,
			ShutdownTimeout:  time.Second,
		})

		crasher := &crashingService{failures: 2}
		tree.AddIngestService(crasher)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := tree.ServeBackground(ctx)

		deadline := time.Now().Add(3 * time.Second)
		for crasher.Starts() < 3 {
			if time.Now().After(deadline) {
				t.Fatalf("service restarted %d times, want at least 3", crasher.Starts())
			}
			time.Sleep(5 * time.Millisecond)
		}

		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("tree did not stop after cancel")
		}
	})
}

// crashingService fails its first N serves, then blocks until canceled.
type crashingService struct {
	MockService
	failures int64
}

func (c *crashingService) Serve(ctx context.Context) error {
	n := c.starts.Add(1)
	if n <= c.failures {
		return errors.New("simulated crash")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *crashingService) String() string { return "crashing-service" }
