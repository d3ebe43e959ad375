package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/customobjects/internal/ir"
)

// timeLayout keeps sub-second precision and sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// marshalOptions converts job options to JSON TEXT for storage.
func marshalOptions(opts ir.Options) (string, error) {
	return marshalJSON(opts)
}

func unmarshalOptions(data string) (ir.Options, error) {
	var opts ir.Options
	if err := json.Unmarshal([]byte(data), &opts); err != nil {
		return ir.Options{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return opts, nil
}

// marshalAssets stores a problem asset list. nil is stored as [].
func marshalAssets(paths []string) (string, error) {
	if paths == nil {
		paths = []string{}
	}
	return marshalJSON(paths)
}

func unmarshalAssets(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var paths []string
	if err := json.Unmarshal([]byte(data), &paths); err != nil {
		return nil, fmt.Errorf("unmarshal problem assets: %w", err)
	}
	return paths, nil
}

func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // asset paths contain quotes and angle brackets
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal %T: %w", v, err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}
