// Package output renders command results as json, jsonl, table or csv.
package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/adsight/fbads-mcp/internal/ads"
	"github.com/adsight/fbads-mcp/internal/flatten"
	"github.com/adsight/fbads-mcp/internal/graph"
)

type Envelope struct {
	Command   string     `json:"command"`
	Timestamp string     `json:"timestamp"`
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Usage     any        `json:"usage,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Kind      string `json:"kind"`
	Code      int    `json:"code,omitempty"`
	Param     string `json:"param,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func NewEnvelope(command string, data any, usage any) Envelope {
	return Envelope{
		Command:   command,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Success:   true,
		Data:      data,
		Usage:     usage,
	}
}

func NewErrorEnvelope(command string, err error) Envelope {
	return Envelope{
		Command:   command,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Success:   false,
		Error:     ClassifyError(err),
	}
}

// ClassifyError maps the typed error taxonomy onto a stable wire shape.
func ClassifyError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	var authErr *graph.AuthError
	if errors.As(err, &authErr) {
		return &ErrorInfo{Kind: "auth", Code: authErr.Code, Message: authErr.Message}
	}
	var rateErr *graph.RateLimitError
	if errors.As(err, &rateErr) {
		return &ErrorInfo{Kind: "rate_limit", Code: rateErr.Code, Message: rateErr.Message, Retryable: true}
	}
	var validationErr *ads.ValidationError
	if errors.As(err, &validationErr) {
		return &ErrorInfo{Kind: "validation", Param: validationErr.Param, Message: validationErr.Message}
	}
	var protoErr *graph.ProtocolError
	if errors.As(err, &protoErr) {
		return &ErrorInfo{Kind: "protocol", Param: protoErr.Field, Message: protoErr.Message}
	}
	var flattenErr *flatten.FlattenError
	if errors.As(err, &flattenErr) {
		return &ErrorInfo{Kind: "flatten", Param: flattenErr.Field, Message: flattenErr.Error()}
	}
	var fetchErr *graph.FetchError
	if errors.As(err, &fetchErr) {
		return &ErrorInfo{Kind: "fetch", Code: fetchErr.StatusCode, Message: fetchErr.Error()}
	}
	return &ErrorInfo{Kind: "unknown", Message: err.Error()}
}

func Write(w io.Writer, format string, envelope Envelope) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return writeJSON(w, envelope)
	case "jsonl":
		return writeJSONL(w, envelope)
	case "table":
		return writeTable(w, envelope.Data)
	case "csv":
		return writeCSV(w, envelope.Data)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeJSON(w io.Writer, envelope Envelope) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(envelope)
}

func writeJSONL(w io.Writer, envelope Envelope) error {
	rows, ok := envelope.Data.([]map[string]any)
	if !ok {
		encoded, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err
	}
	for _, item := range rows {
		encoded, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(encoded)); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, data any) error {
	rows, headers, err := normalizeRows(data)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		values := make([]string, 0, len(headers))
		for _, header := range headers {
			values = append(values, fmt.Sprint(row[header]))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(values, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, data any) error {
	rows, headers, err := normalizeRows(data)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, 0, len(headers))
		for _, header := range headers {
			record = append(record, fmt.Sprint(row[header]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func normalizeRows(data any) ([]map[string]any, []string, error) {
	switch typed := data.(type) {
	case []map[string]any:
		return typed, orderedHeaders(typed), nil
	case map[string]any:
		return []map[string]any{typed}, orderedHeaders([]map[string]any{typed}), nil
	default:
		return nil, nil, errors.New("table/csv output requires map or []map data")
	}
}

func orderedHeaders(rows []map[string]any) []string {
	set := map[string]struct{}{}
	for _, row := range rows {
		for key := range row {
			set[key] = struct{}{}
		}
	}
	headers := make([]string, 0, len(set))
	for key := range set {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}
