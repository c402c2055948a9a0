package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/warren-mq/warren-go/pkg/log"
)

// runReplay prints every event in a .wlog capture in human-readable form.
func runReplay(w io.Writer, path string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	n := 0
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading event %d: %w", n+1, err)
		}
		formatEvent(w, event)
		n++
	}

	fmt.Fprintf(w, "%d events\n", n)
	return nil
}

// formatEvent writes a human-readable representation of one event.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		ts, connID, event.Direction, event.Layer, event.Category)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Heartbeat != nil:
		formatHeartbeatDetails(w, event.Heartbeat)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Type: %s  Channel: %d  Size: %d bytes\n",
		frame.Type, frame.Channel, frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  %s: %s -> %s", sc.Entity, sc.OldState, sc.NewState)
	if sc.Reason != "" {
		fmt.Fprintf(w, " (%s)", sc.Reason)
	}
	fmt.Fprintln(w)
}

func formatHeartbeatDetails(w io.Writer, hb *log.HeartbeatEvent) {
	fmt.Fprintf(w, "  Heartbeat: %s", hb.Kind)
	if hb.Interval > 0 {
		fmt.Fprintf(w, "  Interval: %s", hb.Interval)
	}
	fmt.Fprintln(w)
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Error: %s (%s)", e.Message, e.Layer)
	if e.Code != nil {
		fmt.Fprintf(w, "  ReplyCode: %s (%d)", e.Code, *e.Code)
	}
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s", e.Context)
	}
	fmt.Fprintln(w)
}
