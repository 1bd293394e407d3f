// Package render writes administrative results to a terminal, either as
// human-readable text or as JSON.
package render

import (
	"fmt"
	"strings"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat normalizes and validates an output format string. An empty
// string means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid output format %q (expected json or text)", s)
	}
}
