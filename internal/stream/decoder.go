package stream

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"
)

const (
	dataPrefix = "data: "
	doneToken  = "[DONE]"
)

// ErrMalformedDelta is reported for data lines whose payload is not valid JSON.
var ErrMalformedDelta = errors.New("malformed delta payload")

// DiagnosticFunc receives payloads the decoder dropped.
type DiagnosticFunc func(payload string, err error)

// Decoder turns the raw byte chunks of one completion response into delta
// records. Bytes after the last line terminator are kept until the next Feed.
// A Decoder belongs to a single completion call.
type Decoder struct {
	pending  []byte
	diagnose DiagnosticFunc

	lines     int
	records   int
	malformed int
	done      bool
}

func NewDecoder(diagnose DiagnosticFunc) *Decoder {
	return &Decoder{diagnose: diagnose}
}

// Feed appends chunk to the pending buffer and returns the records of every
// line the chunk completed, in stream order.
func (d *Decoder) Feed(chunk []byte) []DeltaRecord {
	d.pending = append(d.pending, chunk...)

	var records []DeltaRecord
	offset := 0
	for {
		line, next, ok := nextLine(d.pending, offset)
		if !ok {
			break
		}
		offset = next
		if rec, ok := d.decodeLine(line); ok {
			records = append(records, rec)
		}
	}

	if offset > 0 {
		n := copy(d.pending, d.pending[offset:])
		d.pending = d.pending[:n]
	}
	return records
}

// Finish ends the stream. An unterminated trailing line carries no complete
// record and is dropped; its length is returned.
func (d *Decoder) Finish() int {
	dropped := len(d.pending)
	d.pending = nil
	return dropped
}

// SawDone reports whether the terminator token was observed
func (d *Decoder) SawDone() bool {
	return d.done
}

// Stats returns the number of lines seen, records produced and payloads dropped as malformed
func (d *Decoder) Stats() (lines, records, malformed int) {
	return d.lines, d.records, d.malformed
}

// nextLine pulls the next complete line starting at offset.
func nextLine(buf []byte, offset int) (line []byte, next int, ok bool) {
	i := bytes.IndexByte(buf[offset:], '\n')
	if i < 0 {
		return nil, offset, false
	}
	line = buf[offset : offset+i]
	return bytes.TrimSuffix(line, []byte{'\r'}), offset + i + 1, true
}

func (d *Decoder) decodeLine(line []byte) (DeltaRecord, bool) {
	d.lines++
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return DeltaRecord{}, false
	}

	payload := string(bytes.TrimSpace(line[len(dataPrefix):]))
	if payload == "" {
		return DeltaRecord{}, false
	}

	// [DONE] marks the end of a section; scanning continues with the next line.
	if payload == doneToken {
		d.done = true
		d.records++
		return DeltaRecord{IsTerminal: true}, true
	}

	if !gjson.Valid(payload) {
		d.malformed++
		if d.diagnose != nil {
			d.diagnose(payload, ErrMalformedDelta)
		}
		return DeltaRecord{}, false
	}

	d.records++
	return Classify(payload), true
}
