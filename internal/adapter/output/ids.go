package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/dunstd/internal/control"
)

// IDsFormatter outputs just the notification IDs, one per line.
// Useful for piping to other commands (e.g., dunstctl set --stdin --dismiss).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes notification IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, notifications []control.RecordView) error {
	for _, n := range notifications {
		if _, err := fmt.Fprintln(w, n.ID); err != nil {
			return err
		}
	}
	return nil
}
