package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/gitrec/internal/platform/apierr"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeError appends per-field messages to validation failures.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	fields := apierr.FieldsOf(err)
	if len(fields) == 0 {
		if e, ok := apierr.As(err); ok && e.Code != "" {
			return fmt.Sprintf("%s (%s)", err.Error(), e.Code)
		}
		return err.Error()
	}
	var b strings.Builder
	b.WriteString("invalid input")
	for _, k := range fields.Keys() {
		fmt.Fprintf(&b, "\n  %s: %s", k, fields[k])
	}
	return b.String()
}
