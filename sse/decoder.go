package sse

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"strings"
)

// Decoder reads events from an SSE stream. It is the client-side
// counterpart of Event.Encode.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Decoder{scanner: s}
}

// Next returns the next event. Data holds the raw JSON payload as a
// json.RawMessage, or the plain string when the payload is not JSON.
// It returns io.EOF when the stream ends.
func (d *Decoder) Next() (*Event, error) {
	var (
		event   Event
		data    strings.Builder
		hasData bool
		hasAny  bool
	)

	for d.scanner.Scan() {
		line := d.scanner.Text()

		if line == "" {
			if hasData {
				event.Data = decodeData(data.String())
				return &event, nil
			}
			event, hasAny = Event{}, false
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		hasAny = true
		switch field {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			event.Type = value
		case "id":
			event.ID = value
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				event.Retry = ms
			}
		}
	}

	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	if hasData && hasAny {
		event.Data = decodeData(data.String())
		return &event, nil
	}
	return nil, io.EOF
}

func decodeData(s string) any {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return s
}

func parseLine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	if value != "" && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}
