// Package codec implements the newline-delimited JSON framing of events.
//
// A frame is one JSON object followed by exactly one '\n'. encoding/json
// escapes control characters inside strings, so the delimiter never occurs
// inside an encoded object.
package codec

import (
	"bytes"
	"encoding/json"

	"github.com/and161185/metrsd/internal/errs"
	"github.com/and161185/metrsd/model"
)

// Delimiter terminates every frame.
const Delimiter byte = '\n'

// Encode serializes ev into a delimited frame.
func Encode(ev model.Event) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, errs.Wrapf(err, errs.KindSerialization, "encode %s event", ev.Type)
	}
	return append(raw, Delimiter), nil
}

// Decode parses one frame. The delimiter may be stripped already; a single
// trailing delimiter is tolerated.
func Decode(frame []byte) (model.Event, error) {
	frame = bytes.TrimSuffix(frame, []byte{Delimiter})

	var ev model.Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		return model.Event{}, errs.Wrap(err, errs.KindStreamParse, "decode frame")
	}
	return ev, nil
}
