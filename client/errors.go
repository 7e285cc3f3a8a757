package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/totegamma/enovia-go"
)

// HTTPError is returned for every non-2xx answer. Body holds the raw response.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := e.Message()
	if msg == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, msg)
}

// Is lets a 404 match enovia.ErrNotFound.
func (e *HTTPError) Is(target error) bool {
	if e.StatusCode != http.StatusNotFound {
		return false
	}
	_, ok := target.(enovia.NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*enovia.NotFoundError)
	return ok
}

// Message extracts the human readable message the server put in the body.
// Web services report errors under a handful of different keys; when none
// matches, the trimmed body itself is returned.
func (e *HTTPError) Message() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return ""
	}

	var envelope struct {
		Message      string `json:"message"`
		Error        any    `json:"error"`
		ErrorMessage string `json:"errorMessage"`
		Errors       []struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(e.Body, &envelope); err != nil {
		return body
	}

	switch {
	case envelope.Message != "":
		return envelope.Message
	case envelope.ErrorMessage != "":
		return envelope.ErrorMessage
	}

	switch v := envelope.Error.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if m, ok := v["message"].(string); ok && m != "" {
			return m
		}
	}

	msgs := make([]string, 0, len(envelope.Errors))
	for _, item := range envelope.Errors {
		switch {
		case item.Message != "":
			msgs = append(msgs, item.Message)
		case item.Detail != "":
			msgs = append(msgs, item.Detail)
		}
	}
	if len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	return body
}

// StatusCode reports the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
