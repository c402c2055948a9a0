package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/warren-mq/warren-go/pkg/wire"
)

// repl is the interactive prompt for hand-sending raw frames.
type repl struct {
	tap *Tap
	out *slog.Logger
	rl  *readline.Instance
}

func newRepl(tap *Tap, out *slog.Logger) (*repl, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tap> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &repl{tap: tap, out: out, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with input.
func (r *repl) Stdout() io.Writer {
	return r.rl.Stdout()
}

// Run starts the interactive command loop.
func (r *repl) Run(ctx context.Context, cancel context.CancelFunc) {
	defer r.rl.Close()

	r.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(r.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			r.printHelp()

		case "status", "s":
			r.cmdStatus()

		case "send":
			r.cmdSend(args)

		case "heartbeat", "hb":
			r.cmdHeartbeat()

		case "maxframe":
			r.cmdMaxFrame(args)

		case "close":
			r.tap.CloseSocket()
			fmt.Fprintln(r.rl.Stdout(), "Write side closed; waiting for the broker to hang up.")

		case "quit", "exit", "q":
			fmt.Fprintln(r.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(r.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.rl.Stdout(), `
warren-tap commands:
  status                       - Show connection state
  send <type> <channel> <hex>  - Send a raw frame (payload as hex, may be empty)
  heartbeat                    - Send a single heartbeat frame
  maxframe <bytes>             - Adjust the acceptable frame size
  close                        - Half-close the connection (FIN)
  quit                         - Exit

Frame types: 1=method 2=header 3=body 8=heartbeat

Examples:
  send 8 0                     - Heartbeat, spelled by hand
  send 1 0 000a001f            - Method frame on channel 0`)
}

func (r *repl) cmdStatus() {
	ep := r.tap.Endpoint()
	fmt.Fprintf(r.rl.Stdout(), "State:    %s\n", r.tap.State())
	fmt.Fprintf(r.rl.Stdout(), "Endpoint: %s\n", ep.String())
}

func (r *repl) cmdSend(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(r.rl.Stdout(), "Usage: send <type> <channel> [hex-payload]")
		return
	}

	frame, err := buildFrame(args)
	if err != nil {
		fmt.Fprintf(r.rl.Stdout(), "Bad frame: %v\n", err)
		return
	}

	if err := r.tap.Send(frame); err != nil {
		fmt.Fprintf(r.rl.Stdout(), "Send failed: %v\n", err)
		return
	}
	fmt.Fprintf(r.rl.Stdout(), "Sent %d bytes.\n", len(frame))
}

func (r *repl) cmdHeartbeat() {
	if err := r.tap.Send(wire.HeartbeatFrame()); err != nil {
		fmt.Fprintf(r.rl.Stdout(), "Send failed: %v\n", err)
		return
	}
	fmt.Fprintln(r.rl.Stdout(), "Heartbeat sent.")
}

func (r *repl) cmdMaxFrame(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.rl.Stdout(), "Usage: maxframe <bytes>")
		return
	}
	max, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Fprintf(r.rl.Stdout(), "Bad size %q\n", args[0])
		return
	}

	conn := r.tap.current()
	if conn == nil {
		fmt.Fprintln(r.rl.Stdout(), "Not connected.")
		return
	}
	if err := conn.SetMaxFrameSize(uint32(max)); err != nil {
		fmt.Fprintf(r.rl.Stdout(), "Failed: %v\n", err)
		return
	}
	fmt.Fprintf(r.rl.Stdout(), "Max frame size set to %d.\n", max)
}

// buildFrame assembles a raw frame from "send" arguments: frame type,
// channel number, and an optional hex payload.
func buildFrame(args []string) ([]byte, error) {
	ft, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("frame type %q: %w", args[0], err)
	}
	channel, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", args[1], err)
	}

	var payload []byte
	if len(args) > 2 {
		payload, err = hex.DecodeString(strings.Join(args[2:], ""))
		if err != nil {
			return nil, fmt.Errorf("payload: %w", err)
		}
	}

	return wire.AppendFrame(nil, wire.FrameType(ft), uint16(channel), payload), nil
}
