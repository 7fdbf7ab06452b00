package events

import (
	"fmt"
	"io"
	"os"
	"time"
)

// LogConfig configures the logging handler.
type LogConfig struct {
	// Writer receives the log lines (default: os.Stderr)
	Writer io.Writer

	// Timestamps prefixes each line with the event time
	Timestamps bool

	// TimeFormat is the timestamp format (default: time.Kitchen)
	TimeFormat string

	// IncludePayload appends the event payload to the line
	IncludePayload bool
}

// LogHandler returns a handler that writes one line per event:
//
//	15:04PM [review.rejected] architecture review=ab12cd34 error="..."
func LogHandler(cfg LogConfig) Handler {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	format := cfg.TimeFormat
	if format == "" {
		format = time.Kitchen
	}

	return func(e Event) {
		line := "[" + string(e.Type) + "]"
		if cfg.Timestamps {
			line = e.Time.Format(format) + " " + line
		}
		if e.Stage != "" {
			line += " " + e.Stage
		}
		if e.Review != "" {
			line += " review=" + shortReviewID(e.Review)
		}
		if cfg.IncludePayload && e.Payload != nil {
			line += fmt.Sprintf(" payload=%v", e.Payload)
		}
		if e.Error != "" {
			line += fmt.Sprintf(" error=%q", e.Error)
		}
		fmt.Fprintln(w, line)
	}
}

// shortReviewID trims a UUID to its first group for log readability.
func shortReviewID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
