package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is returned for every response outside the 2xx range.
// It carries the status code and the raw response body.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// asHTTPError digs an *HTTPError out of the wrappers added by net/http and the GitHub clients.
func asHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func httpErrorFromResponse(resp *http.Response, body string) *HTTPError {
	httpErr := &HTTPError{StatusCode: http.StatusForbidden, Body: body}
	if resp == nil {
		return httpErr
	}
	httpErr.StatusCode = resp.StatusCode
	if req := resp.Request; req != nil {
		httpErr.Method = req.Method
		httpErr.URL = req.URL.Redacted()
	}
	return httpErr
}
