package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request describes one HTTP call against a Gin engine.
type Request struct {
	Method  string
	Path    string
	Body    interface{}
	Headers map[string]string
}

// Do serves req through engine and returns the recorder.
func Do(t *testing.T, engine *gin.Engine, req Request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		switch b := req.Body.(type) {
		case string:
			body = bytes.NewBufferString(b)
		case []byte:
			body = bytes.NewReader(b)
		default:
			jsonBody, err := json.Marshal(b)
			require.NoError(t, err, "Failed to marshal request body")
			body = bytes.NewReader(jsonBody)
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	r := httptest.NewRequest(method, req.Path, body)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, r)
	return w
}

// JSONBody parses the recorder body as a JSON object.
func JSONBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "Failed to parse JSON response: %s", w.Body.String())
	return result
}

// JSONBodyAs parses the recorder body into T.
func JSONBodyAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var result T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "Failed to parse JSON response")
	return result
}

// AssertOK asserts a 2xx status and an {"ok": true} envelope.
func AssertOK(t *testing.T, w *httptest.ResponseRecorder, status int) map[string]interface{} {
	t.Helper()

	require.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	body := JSONBody(t, w)
	assert.Equal(t, true, body["ok"])
	return body
}

// AssertError asserts status, an {"ok": false} envelope and the error code.
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) map[string]interface{} {
	t.Helper()

	require.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	body := JSONBody(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, code, body["code"])
	assert.NotEmpty(t, body["message"])
	return body
}
