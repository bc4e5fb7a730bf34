package sse

import (
	"fmt"
	"io"
	"strings"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// Event names written by Handler.
const (
	// EventElement carries one element as JSON.
	EventElement = "element"

	// EventEnd closes a completed stream. Its data is {"elements": n}.
	EventEnd = "end"

	// EventError closes a faulted stream. Its data is an errors.ErrorResponse.
	EventError = "error"
)

// Event is one dispatched event of a stream.
type Event struct {
	ID   string
	Name string
	Data []byte
}

type endData struct {
	Elements int `json:"elements"`
}

// writeEvent writes ev in wire format. Multi-line data is split over several
// data fields.
func writeEvent(w io.Writer, ev Event) error {
	var b strings.Builder
	if ev.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", ev.ID)
	}
	if ev.Name != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Name)
	}
	for line := range strings.SplitSeq(string(ev.Data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func writeComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}
