package log

import (
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events when replaying a capture. A zero Filter matches
// everything; each set field narrows the selection.
type Filter struct {
	// ConnectionID selects events for one connection.
	ConnectionID string

	// Direction selects inbound or outbound events.
	Direction *Direction

	// Layer selects events from one capture layer.
	Layer *Layer

	// Category selects one event category.
	Category *Category

	// Channel selects frame events on one channel. Events without a
	// frame payload never match.
	Channel *uint16

	// TimeStart drops events before this time.
	TimeStart *time.Time

	// TimeEnd drops events at or after this time.
	TimeEnd *time.Time

	// VHost selects events for one virtual host.
	VHost string
}

func (f *Filter) matches(event Event) bool {
	if f.ConnectionID != "" && event.ConnectionID != f.ConnectionID {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Layer != nil && event.Layer != *f.Layer {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Channel != nil {
		if event.Frame == nil || event.Frame.Channel != *f.Channel {
			return false
		}
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	if f.VHost != "" && event.VHost != f.VHost {
		return false
	}
	return true
}

// Reader iterates over a .wlog capture file. Events stream one at a
// time, so a large capture replays in constant memory.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader opens a capture file for replay, yielding every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a capture file for replay, yielding only
// events the filter matches.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF once the capture is
// exhausted.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if err == io.EOF {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying capture file.
func (r *Reader) Close() error {
	return r.file.Close()
}
