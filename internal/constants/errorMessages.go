package constants

// User-facing notification texts
const (
	MsgListingCreated       = "Listing published"
	MsgListingUpdated       = "Listing updated"
	MsgListingSaveFailed    = "Could not save the listing. Please try again"
	MsgMediaUploadFailed    = "Photo could not be uploaded"
	MsgMediaDeleteFailed    = "Photo could not be removed"
	MsgListingDeleted       = "Listing deleted"
	MsgListingDeleteFailed  = "Could not delete the listing"
	MsgValidationFailed     = "Please fill in the highlighted fields"
	MsgGenerationUnresolved = "The selected modification does not belong to a known generation"
)
