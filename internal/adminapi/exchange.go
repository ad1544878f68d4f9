package adminapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"
)

// Exchange is one request/response pair as it went over the wire.
type Exchange struct {
	Method      string
	URL         string
	RequestID   string
	RequestBody []byte

	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// OK reports a 2xx status.
func (e *Exchange) OK() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// IsJSON reports whether the response declares a JSON content type.
func (e *Exchange) IsJSON() bool {
	return IsJSONContentType(e.Header.Get("Content-Type"))
}

// Err returns a *StatusError for non-2xx responses and nil otherwise.
func (e *Exchange) Err() error {
	if e.OK() {
		return nil
	}
	se := &StatusError{StatusCode: e.StatusCode, Status: e.Status, Body: e.Body}
	if e.IsJSON() {
		var er struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(e.Body, &er) == nil {
			se.Message = strings.TrimSpace(er.Error)
			if se.Message == "" {
				se.Message = strings.TrimSpace(er.Message)
			}
		}
	}
	return se
}

// StatusError is a non-2xx response seen by a typed caller.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Message != "" {
		return status + ": " + e.Message
	}
	return status
}

// Decode unmarshals a successful exchange into T.
// It is meant to wrap a client call directly: Decode[[]User](c.GetUsers(ctx, p)).
func Decode[T any](ex *Exchange, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := ex.Err(); err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(ex.Body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(ex.Body, &out); err != nil {
		return out, fmt.Errorf("decode %s %s: %w", ex.Method, ex.URL, err)
	}
	return out, nil
}

// Check returns the transport or status error of a call whose body is not needed.
func Check(ex *Exchange, err error) error {
	if err != nil {
		return err
	}
	return ex.Err()
}

// IsJSONContentType matches application/json and +json media types.
func IsJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])
	}
	mt = strings.ToLower(mt)
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
