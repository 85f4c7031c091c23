// ABOUTME: Backend response wrapper with gjson path access
// ABOUTME: Mirrors the {success, message, data} envelope the API returns

package backend

import (
	"net/http"

	"github.com/tidwall/gjson"
)

// UnknownError stands in for a failure message the backend did not provide.
const UnknownError = "unknown error"

// Response is a raw backend reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Successful reports a 2xx status.
func (r *Response) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get queries the JSON body with a gjson path such as "data.restaurants".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Message returns the body's message field, or "unknown error" when the body
// has none (including non-JSON bodies).
func (r *Response) Message() string {
	if msg := r.Get("message").String(); msg != "" {
		return msg
	}
	return UnknownError
}
