package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/warren-mq/warren-go/pkg/log"
	"github.com/warren-mq/warren-go/pkg/wire"
)

func TestRunReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.wlog")

	fl, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger error = %v", err)
	}
	fl.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: "0f83a1c2-1111-2222-3333-444455556666",
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryFrame,
		Frame: &log.FrameEvent{
			Type:    wire.FrameMethod,
			Channel: 1,
			Size:    4,
			Data:    []byte{0x00, 0x0a, 0x00, 0x1f},
		},
	})
	fl.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerTransport,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: "CONNECTING",
			NewState: "CONNECTED",
		},
	})
	if err := fl.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}

	var buf bytes.Buffer
	if err := runReplay(&buf, path); err != nil {
		t.Fatalf("runReplay error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[conn:0f83a1c2]",
		"Type: METHOD  Channel: 1  Size: 4 bytes",
		"Data: 000a001f",
		"CONNECTION: CONNECTING -> CONNECTED",
		"2 events",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("replay output missing %q\noutput:\n%s", want, out)
		}
	}
}

func TestRunReplayMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := runReplay(&buf, filepath.Join(t.TempDir(), "nope.wlog")); err == nil {
		t.Fatal("expected error for missing capture file")
	}
}

func TestBuildFrame(t *testing.T) {
	frame, err := buildFrame([]string{"1", "5", "000a001f"})
	if err != nil {
		t.Fatalf("buildFrame error = %v", err)
	}

	f := wire.Frame(frame)
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	if f.Type() != wire.FrameMethod {
		t.Errorf("Type() = %v, want METHOD", f.Type())
	}
	if f.Channel() != 5 {
		t.Errorf("Channel() = %d, want 5", f.Channel())
	}
	if !bytes.Equal(f.Payload(), []byte{0x00, 0x0a, 0x00, 0x1f}) {
		t.Errorf("Payload() = % x", f.Payload())
	}
}

func TestBuildFrameEmptyPayload(t *testing.T) {
	frame, err := buildFrame([]string{"8", "0"})
	if err != nil {
		t.Fatalf("buildFrame error = %v", err)
	}
	if !bytes.Equal(frame, wire.HeartbeatFrame()) {
		t.Errorf("frame = % x, want heartbeat", frame)
	}
}

func TestBuildFrameBadHex(t *testing.T) {
	if _, err := buildFrame([]string{"1", "0", "zz"}); err == nil {
		t.Fatal("expected error for bad hex payload")
	}
}
