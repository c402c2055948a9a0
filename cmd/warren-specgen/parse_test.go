package main

import (
	"path/filepath"
	"runtime"
	"testing"
)

// specPath returns the absolute path to spec/amqp0-9-1.yaml relative to
// this test file.
func specPath(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "spec", "amqp0-9-1.yaml")
}

func TestParseSpec_Minimal(t *testing.T) {
	yaml := `
protocol:
  name: AMQP
  major: 0
  minor: 9
  revision: 1
  port: 5672
frame_types:
  - name: frame-method
    value: 1
    label: METHOD
    description: method call or synchronous reply
constants:
  - name: frame-end
    value: 206
    format: hex
    description: the sentinel octet terminating every frame
reply_codes:
  - name: content-too-large
    value: 311
    class: soft-error
    description: the message exceeds a server or consumer limit
`
	spec, err := ParseSpec([]byte(yaml))
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}

	if spec.Protocol.Name != "AMQP" {
		t.Errorf("protocol.name = %q, want AMQP", spec.Protocol.Name)
	}
	if spec.Protocol.Minor != 9 {
		t.Errorf("protocol.minor = %d, want 9", spec.Protocol.Minor)
	}
	if spec.Protocol.Port != 5672 {
		t.Errorf("protocol.port = %d, want 5672", spec.Protocol.Port)
	}
	if len(spec.FrameTypes) != 1 || spec.FrameTypes[0].Value != 1 {
		t.Fatalf("frame_types = %+v, want one entry with value 1", spec.FrameTypes)
	}
	if spec.Constants[0].Format != "hex" {
		t.Errorf("frame-end format = %q, want hex", spec.Constants[0].Format)
	}
	if spec.ReplyCodes[0].Class != "soft-error" {
		t.Errorf("content-too-large class = %q, want soft-error", spec.ReplyCodes[0].Class)
	}
}

func TestParseSpec_MissingProtocolName(t *testing.T) {
	yaml := `
frame_types:
  - name: frame-method
    value: 1
`
	if _, err := ParseSpec([]byte(yaml)); err == nil {
		t.Fatal("expected error for missing protocol name")
	}
}

func TestParseSpec_NoFrameTypes(t *testing.T) {
	yaml := `
protocol:
  name: AMQP
`
	if _, err := ParseSpec([]byte(yaml)); err == nil {
		t.Fatal("expected error for spec without frame types")
	}
}

func TestParseSpec_UnknownReplyCodeClass(t *testing.T) {
	yaml := `
protocol:
  name: AMQP
frame_types:
  - name: frame-method
    value: 1
reply_codes:
  - name: not-found
    value: 404
    class: medium-error
`
	if _, err := ParseSpec([]byte(yaml)); err == nil {
		t.Fatal("expected error for unknown reply code class")
	}
}

func TestLoadSpec_RealSpec(t *testing.T) {
	spec, err := LoadSpec(specPath(t))
	if err != nil {
		t.Fatalf("LoadSpec failed: %v", err)
	}

	if len(spec.FrameTypes) != 4 {
		t.Errorf("len(frame_types) = %d, want 4", len(spec.FrameTypes))
	}
	if len(spec.ReplyCodes) != 18 {
		t.Errorf("len(reply_codes) = %d, want 18", len(spec.ReplyCodes))
	}

	var heartbeat *RawConstant
	for i := range spec.FrameTypes {
		if spec.FrameTypes[i].Name == "frame-heartbeat" {
			heartbeat = &spec.FrameTypes[i]
		}
	}
	if heartbeat == nil {
		t.Fatal("frame-heartbeat not found in spec")
	}
	if heartbeat.Value != 8 {
		t.Errorf("frame-heartbeat value = %d, want 8", heartbeat.Value)
	}
}

func TestGoName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"frame-method", "FrameMethod"},
		{"content-too-large", "ContentTooLarge"},
		{"reply-success", "ReplySuccess"},
		{"frame-min-size", "FrameMinSize"},
	}
	for _, tt := range tests {
		if got := goName(tt.in); got != tt.want {
			t.Errorf("goName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayLabel(t *testing.T) {
	if got := displayLabel("content-too-large", ""); got != "CONTENT_TOO_LARGE" {
		t.Errorf("displayLabel default = %q, want CONTENT_TOO_LARGE", got)
	}
	if got := displayLabel("reply-success", "SUCCESS"); got != "SUCCESS" {
		t.Errorf("displayLabel explicit = %q, want SUCCESS", got)
	}
}
