package client

import (
	"bytes"

	"github.com/and161185/metrsd/internal/codec"
	"github.com/and161185/metrsd/model"
)

// Parser reassembles delimited frames from arbitrarily split chunks.
// After every Feed the buffer holds at most one undelimited frame.
type Parser struct {
	buf []byte
	err error
}

// Feed appends chunk and decodes every frame it completes, in order. The
// first malformed frame is fatal: its error is returned together with the
// events decoded before it, and every later Feed returns the same error.
func (p *Parser) Feed(chunk []byte) ([]model.Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.buf = append(p.buf, chunk...)

	var events []model.Event
	start := 0
	for {
		i := bytes.IndexByte(p.buf[start:], codec.Delimiter)
		if i < 0 {
			break
		}
		frame := p.buf[start : start+i]
		start += i + 1

		if len(bytes.TrimSpace(frame)) == 0 {
			continue
		}
		ev, err := codec.Decode(frame)
		if err != nil {
			p.err = err
			p.buf = nil
			return events, err
		}
		events = append(events, ev)
	}

	n := copy(p.buf, p.buf[start:])
	p.buf = p.buf[:n]
	return events, nil
}

// Pending returns the number of buffered bytes not yet terminated by a
// delimiter.
func (p *Parser) Pending() int {
	return len(p.buf)
}
