package index

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/shaderidx/internal/capture"
)

// ReportName is the file name of the text call table.
const ReportName = "call_table.txt"

// JSONReportName is the file name of the canonical JSON call table.
const JSONReportName = "call_table.json"

var separator = strings.Repeat("-", 40)

// WriteReport writes the text call table for records.
// Records must already be in report order (as returned by Finalize).
//
// Format:
//
//	CALL TABLE FOR <source>
//	Shader ID: <id> (<Stage>)
//	Used by Events: 5, 9
//	----------------------------------------
func WriteReport(w io.Writer, source string, records []Record) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "CALL TABLE FOR %s\n", source)
	for _, r := range records {
		fmt.Fprintf(&buf, "Shader ID: %s (%s)\n", r.ID, r.Stage)
		fmt.Fprintf(&buf, "Used by Events: %s\n", joinEvents(r.Events))
		buf.WriteString(separator)
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func joinEvents(events []capture.EventID) string {
	parts := make([]string, len(events))
	for i, ev := range events {
		parts[i] = strconv.FormatUint(uint64(ev), 10)
	}
	return strings.Join(parts, ", ")
}

// MarshalReportJSON renders the call table as canonical JSON.
func MarshalReportJSON(source string, records []Record) ([]byte, error) {
	shaders := make([]any, len(records))
	for i, r := range records {
		events := make([]any, len(r.Events))
		for j, ev := range r.Events {
			events[j] = int64(ev)
		}
		shaders[i] = map[string]any{
			"id":     string(r.ID),
			"stage":  r.Stage.String(),
			"file":   r.File,
			"events": events,
		}
	}
	return MarshalCanonical(map[string]any{
		"source":  source,
		"shaders": shaders,
	})
}
