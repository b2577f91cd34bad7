package texcache

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestNopHandlerEnabled(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
}

func TestNopHandlerHandle(t *testing.T) {
	h := nopHandler{}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
}

func TestDefaultLoggerDiscards(t *testing.T) {
	SetLogger(nil)
	lg := Logger()
	if lg == nil {
		t.Fatal("Logger() = nil")
	}
	if lg.Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger reports enabled")
	}
	lg.Debug("dropped") // must not panic
}

func TestSetLoggerCapturesOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	Logger().Debug("texcache test message", "key", "a@256")
	if !strings.Contains(buf.String(), "texcache test message") {
		t.Errorf("log output missing message: %q", buf.String())
	}
}

func TestSetLoggerConcurrent(t *testing.T) {
	defer SetLogger(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetLogger(newNopLogger())
				Logger().Debug("spin")
			}
		}()
	}
	wg.Wait()
}
