// Package render prints API exchanges for humans.
// JSON bodies are normalized (sorted keys, two-space indent) and optionally
// highlighted; everything else is written as received.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/lulugyf/sshserv/internal/adminapi"
	"github.com/lulugyf/sshserv/internal/logging"
)

const (
	indent = "  "
	style  = "native"
)

// FormatJSON re-serializes b with sorted object keys and fixed indentation.
// Numbers keep their original textual form. Empty input yields empty output.
func FormatJSON(b []byte) ([]byte, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, formatError(b, err)
	}
	if dec.More() {
		return nil, errors.New("unexpected data after top-level JSON value")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Highlight colors JSON text with ANSI escapes for a terminal.
func Highlight(s string) (string, error) {
	var b strings.Builder
	if err := quick.Highlight(&b, s, "json", "terminal", style); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Printer writes exchanges to Out.
type Printer struct {
	Out    io.Writer
	Debug  bool
	Color  bool
	Logger *slog.Logger
}

// Print writes the response of ex. In debug mode the request line and body
// and the response status come first. Otherwise the status line precedes
// failed responses and bodies that are not printed as JSON.
func (p *Printer) Print(ex *adminapi.Exchange) error {
	if ex == nil {
		return errors.New("nil exchange")
	}
	if p.Debug {
		fmt.Fprintln(p.Out)
		fmt.Fprintf(p.Out, "Executed request: %s %s - request body: %s\n", ex.Method, ex.URL, p.formatBody(ex.RequestBody))
		fmt.Fprintln(p.Out)
		fmt.Fprintf(p.Out, "Got response, status code: %d body:\n", ex.StatusCode)
	}

	var (
		out    []byte
		pretty bool
	)
	if ex.IsJSON() {
		var err error
		out, err = FormatJSON(ex.Body)
		if err == nil {
			pretty = true
		} else {
			p.logger().Warn("response declared JSON but did not parse", "err", err, "request_id", ex.RequestID)
		}
	}

	// The debug header already carries the status code.
	if !p.Debug && (!pretty || !ex.OK()) {
		fmt.Fprintln(p.Out, ex.Status)
	}
	if pretty {
		_, err := fmt.Fprintln(p.Out, p.colorize(string(out)))
		return err
	}
	_, err := fmt.Fprintln(p.Out, string(ex.Body))
	return err
}

// formatBody renders a request payload the same way responses are rendered.
func (p *Printer) formatBody(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := FormatJSON(b)
	if err != nil {
		return string(b)
	}
	return p.colorize(string(out))
}

func (p *Printer) colorize(s string) string {
	if !p.Color || s == "" {
		return s
	}
	h, err := Highlight(s)
	if err != nil {
		p.logger().Debug("highlight failed", "err", err)
		return s
	}
	return strings.TrimRight(h, "\n")
}

func (p *Printer) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logging.Discard()
}

// formatError adds line and column to JSON syntax and type errors.
func formatError(input []byte, err error) error {
	var offset int64
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	switch {
	case errors.As(err, &se):
		offset = se.Offset
	case errors.As(err, &te):
		offset = te.Offset
	default:
		return err
	}
	line, col, ok := lineAndColumn(input, int(offset))
	if !ok {
		return err
	}
	return fmt.Errorf("json error at line %d, character %d: %w", line, col, err)
}

func lineAndColumn(input []byte, offset int) (int, int, bool) {
	if offset < 0 || offset > len(input) {
		return 0, 0, false
	}
	line, col := 1, 0
	for i, b := range input {
		if i >= offset {
			break
		}
		if b == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return line, col, true
}
