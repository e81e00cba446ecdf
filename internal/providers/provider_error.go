package providers

import (
	"errors"
	"fmt"

	"autobazar/listing-editor/internal/constants"
)

// ProviderError is returned by every marketplace call.
type ProviderError struct {
	Code          string
	Message       string
	Details       string
	StatusCode    int
	ServerMessage string // message the marketplace sent, if any
	Err           error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user: the server's own message when
// it sent one, the generic message for the code otherwise.
func (e *ProviderError) UserMessage() string {
	if e.ServerMessage != "" {
		return e.ServerMessage
	}
	return constants.GetErrorMessage(e.Code)
}

// UserMessage extracts a user-facing message from any error, falling back
// to fallback for errors that did not come from the marketplace.
func UserMessage(err error, fallback string) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.UserMessage()
	}
	return fallback
}

// IsCode reports whether err is a ProviderError with the given code.
func IsCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}
