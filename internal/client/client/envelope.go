package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/shopdash/internal/client/models"
)

const (
	envelopeStatusError = "error"

	maxBodyBytes = 4 << 20
)

// Envelope is the wrapper shared by every API response.
type Envelope[T any] struct {
	Data    T                   `json:"data"`
	Message string              `json:"message,omitempty"`
	Status  string              `json:"status,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// AuthPayload is the data of login and register responses. The client runs
// in bearer-token mode, so Token is required.
type AuthPayload struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

var errMissingCredentials = errors.New("missing token in response")

// decodeEnvelope turns resp into its payload or a normalized *Error.
func decodeEnvelope[T any](resp *http.Response) (T, *Error) {
	var zero T

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return zero, &Error{Kind: KindNetworkError, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	var env Envelope[T]
	decodeErr := json.Unmarshal(body, &env)
	if len(body) == 0 {
		decodeErr = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &Error{
			Kind:    KindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: env.Message,
			Fields:  env.Errors,
			Err:     fmt.Errorf("http status %s", resp.Status),

			serverMessage: decodeErr == nil,
		}
	}

	if decodeErr != nil {
		return zero, &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "malformed response", Err: decodeErr}
	}
	if env.Status == envelopeStatusError {
		return zero, &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: env.Message, Fields: env.Errors, serverMessage: true}
	}
	return env.Data, nil
}
