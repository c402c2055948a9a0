package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// CBOR codec modes for .wlog capture files. Events use integer map keys,
// canonical ordering, and RFC3339Nano timestamps, so captures are
// compact, deterministic, and preserve frame timing at full precision.
var (
	wlogEncMode cbor.EncMode
	wlogDecMode cbor.DecMode
)

func init() {
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	var err error
	wlogEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wlog CBOR encoder mode: %v", err))
	}

	// The decoder is deliberately permissive: a replay must be able to
	// read captures written by other tools or newer versions.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	wlogDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wlog CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes.
func EncodeEvent(event Event) ([]byte, error) {
	return wlogEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := wlogDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder creates a CBOR encoder for capture files that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return wlogEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for capture files that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return wlogDecMode.NewDecoder(r)
}
