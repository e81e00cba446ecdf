package constants

// Marketplace Error Codes
// These constants define specific error scenarios for the remote marketplace API

// Transport and credential errors
const (
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeSessionMissing       = "SESSION_MISSING"
	ErrCodeTokenRefreshFailed   = "TOKEN_REFRESH_FAILED"
)

// Resource errors
const (
	ErrCodeResourceNotFound = "RESOURCE_NOT_FOUND"
	ErrCodeAccessDenied     = "ACCESS_DENIED"
	ErrCodeServerError      = "SERVER_ERROR"
)

// Data errors
const (
	ErrCodeInvalidDataFormat = "INVALID_DATA_FORMAT"
	ErrCodeRejected          = "REJECTED"
	ErrCodeMediaInvalid      = "MEDIA_INVALID"
)

// MarketplaceErrorMessages are the human-readable messages corresponding to error codes
var MarketplaceErrorMessages = map[string]string{
	ErrCodeNetworkError:         "Unable to reach the marketplace. Please check your internet connection",
	ErrCodeRateLimited:          "Too many requests. Please try again later",
	ErrCodeAuthenticationFailed: "Your session has expired. Please sign in again",
	ErrCodeSessionMissing:       "You are not signed in",
	ErrCodeTokenRefreshFailed:   "Could not refresh your session. Please sign in again",

	ErrCodeResourceNotFound: "The requested item was not found",
	ErrCodeAccessDenied:     "You don't have permission to change this item",
	ErrCodeServerError:      "The marketplace is temporarily unavailable",

	ErrCodeInvalidDataFormat: "The data format is invalid",
	ErrCodeRejected:          "The marketplace rejected the request",
	ErrCodeMediaInvalid:      "The file is not a supported image or video",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := MarketplaceErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}

// Profile Requirements
// Defines which listing fields each editor surface requires

type ProfileRequirement struct {
	ProfileName    string
	RequiredFields []string // payload field names (json)
}

const (
	ProfilePrivate = "private"
	ProfileDealer  = "dealer"
)

var ProfileRequirements = map[string]ProfileRequirement{
	ProfilePrivate: {
		ProfileName:    ProfilePrivate,
		RequiredFields: []string{"cityId", "colorId", "price", "odometer", "phoneNumbers", "owners"},
	},
	ProfileDealer: {
		ProfileName:    ProfileDealer,
		RequiredFields: []string{"cityId", "colorId", "price", "odometer", "phoneNumbers", "vinCode"},
	},
}
