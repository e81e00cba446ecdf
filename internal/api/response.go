package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/editor"
	"autobazar/listing-editor/internal/providers"

	"github.com/go-chi/chi/v5"
)

// statusFor maps domain and provider errors to an HTTP status. fallback is
// used for errors nothing more specific is known about.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, editor.ErrEditorNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrSubmitInProgress), errors.Is(err, editor.ErrEditorClosed):
		return http.StatusConflict
	case editor.IsValidationError(err),
		errors.Is(err, editor.ErrNotReady),
		errors.Is(err, editor.ErrOptionsNotLoaded),
		errors.Is(err, editor.ErrUnknownOption),
		errors.Is(err, editor.ErrNotEditMode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrRefreshMissing):
		return http.StatusUnauthorized
	}

	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		switch pe.Code {
		case constants.ErrCodeResourceNotFound:
			return http.StatusNotFound
		case constants.ErrCodeAuthenticationFailed, constants.ErrCodeSessionMissing, constants.ErrCodeTokenRefreshFailed:
			return http.StatusUnauthorized
		case constants.ErrCodeAccessDenied:
			return http.StatusForbidden
		case constants.ErrCodeRateLimited:
			return http.StatusTooManyRequests
		case constants.ErrCodeRejected, constants.ErrCodeMediaInvalid:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadGateway
		}
	}
	return fallback
}

// userMessage is what the client shows for err.
func userMessage(err error, fallback string) string {
	if editor.IsValidationError(err) {
		return constants.MsgValidationFailed
	}
	return providers.UserMessage(err, fallback)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func listingIDParam(r *http.Request) (int64, error) {
	return common.ParseID(chi.URLParam(r, "listingID"))
}

func fieldParam(r *http.Request) (cascade.Field, error) {
	return cascade.ParseField(chi.URLParam(r, "field"))
}
