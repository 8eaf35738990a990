package http

import (
	"net/http"
	"net/url"
	"strings"
)

// maxFormBytes bounds form bodies.
const maxFormBytes = 64 << 10

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *ResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// ParseFormOrFail parses a size-limited request form and returns an error
// response on failure. Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *ResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid form submission")
	}
	return nil
}

// FormValue returns a sanitized, trimmed form field.
func FormValue(form url.Values, key string) string {
	return sanitizeInput(form.Get(key))
}
