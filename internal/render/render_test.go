package render

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lulugyf/sshserv/internal/adminapi"
)

func TestFormatJSON_SortsAndIndents(t *testing.T) {
	out, err := FormatJSON([]byte(`{"username":"alice","id":1,"permissions":["list","*"],"quota_size":1.50}`))
	require.NoError(t, err)
	want := "{\n  \"id\": 1,\n  \"permissions\": [\n    \"list\",\n    \"*\"\n  ],\n  \"quota_size\": 1.50,\n  \"username\": \"alice\"\n}"
	require.Equal(t, want, string(out))
}

func TestFormatJSON_Idempotent(t *testing.T) {
	inputs := []string{
		`{"b":{"z":1,"a":[1,2,{"y":null,"x":true}]},"a":"<tag> & é"}`,
		`[]`,
		`[{"id":12345678901234567890}]`,
		`"plain"`,
	}
	for _, in := range inputs {
		once, err := FormatJSON([]byte(in))
		require.NoError(t, err, in)
		twice, err := FormatJSON(once)
		require.NoError(t, err, in)
		require.Equal(t, string(once), string(twice), in)
	}
}

func TestFormatJSON_Empty(t *testing.T) {
	out, err := FormatJSON([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestFormatJSON_SyntaxErrorPosition(t *testing.T) {
	_, err := FormatJSON([]byte("{\n  \"a\": ,\n}"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestHighlight_AddsEscapes(t *testing.T) {
	h, err := Highlight(`{"a": 1}`)
	require.NoError(t, err)
	require.Contains(t, h, "\x1b[")
}

func jsonExchange(status int, body string) *adminapi.Exchange {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return &adminapi.Exchange{
		Method:     http.MethodGet,
		URL:        "http://127.0.0.1:8080/api/v1/version",
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     h,
		Body:       []byte(body),
	}
}

func TestPrinter_JSON(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out}
	require.NoError(t, p.Print(jsonExchange(200, `{"version":"1.0","commit_hash":"abc"}`)))
	require.Equal(t, "{\n  \"commit_hash\": \"abc\",\n  \"version\": \"1.0\"\n}\n", out.String())
}

func TestPrinter_JSONErrorPrintsStatus(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out}
	ex := jsonExchange(404, `{"error":"not found"}`)
	ex.Status = "404 Not Found"
	require.NoError(t, p.Print(ex))
	require.Equal(t, "404 Not Found\n{\n  \"error\": \"not found\"\n}\n", out.String())

	out.Reset()
	p.Debug = true
	require.NoError(t, p.Print(ex))
	require.NotContains(t, out.String(), "404 Not Found")
	require.Contains(t, out.String(), "status code: 404 body:\n{")
}

func TestPrinter_NonJSONPrintsStatusAndBody(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out}
	ex := &adminapi.Exchange{
		Method:     http.MethodDelete,
		URL:        "http://127.0.0.1:8080/api/v1/user/user/7",
		StatusCode: 404,
		Status:     "404 Not Found",
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       []byte("404 page not found\n"),
	}
	require.NoError(t, p.Print(ex))
	require.Equal(t, "404 Not Found\n404 page not found\n\n", out.String())
}

func TestPrinter_Debug(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out, Debug: true}
	ex := jsonExchange(201, `{"message":"Scan started"}`)
	ex.Method = http.MethodPost
	ex.URL = "http://127.0.0.1:8080/api/v1/quota_scan"
	ex.RequestBody = []byte(`{"username":"alice"}`)
	require.NoError(t, p.Print(ex))

	s := out.String()
	require.True(t, strings.HasPrefix(s, "\nExecuted request: POST http://127.0.0.1:8080/api/v1/quota_scan - request body: {\n  \"username\": \"alice\"\n}\n"))
	require.Contains(t, s, "Got response, status code: 201 body:\n")
	require.True(t, strings.HasSuffix(s, "{\n  \"message\": \"Scan started\"\n}\n"))
}

func TestPrinter_InvalidJSONFallsBackToRaw(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out}
	ex := jsonExchange(500, `oops`)
	ex.Status = "500 Internal Server Error"
	require.NoError(t, p.Print(ex))
	require.Equal(t, "500 Internal Server Error\noops\n", out.String())
}

func TestPrinter_Color(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out, Color: true}
	require.NoError(t, p.Print(jsonExchange(200, `{"a":1}`)))
	require.Contains(t, out.String(), "\x1b[")
}
