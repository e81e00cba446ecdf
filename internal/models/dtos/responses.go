package dtos

// APIResponse is the envelope of every agent HTTP response.
type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

// Notification is a transient user-visible message (toast).
type Notification struct {
	Level   string `json:"level"` // "info" | "warning" | "error"
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// MediaFailure describes one media item that failed in a non-fatal stage.
type MediaFailure struct {
	Stage string `json:"stage"` // "upload" | "delete"
	Item  string `json:"item"`
	Error string `json:"error"`
}

// SubmitResult is the outcome of one submission pipeline run. Success means
// the core record was persisted; media failures do not change it.
type SubmitResult struct {
	ListingID     int64          `json:"listingId"`
	Created       bool           `json:"created"`
	Success       bool           `json:"success"`
	MediaFailures []MediaFailure `json:"mediaFailures,omitempty"`
	NavigateTo    string         `json:"navigateTo,omitempty"`
}
