package dtos

import (
	"encoding/json"
	"strings"
)

// ListingPayload is the flattened body accepted by createListing/updateListing.
type ListingPayload struct {
	BrandID        int64    `json:"brandId" validate:"required"`
	ModelID        int64    `json:"modelId" validate:"required"`
	BodyTypeID     int64    `json:"bodyTypeId" validate:"required"`
	GenerationID   int64    `json:"generationId" validate:"required"`
	ModificationID int64    `json:"modificationId" validate:"required"`
	CityID         int64    `json:"cityId"`
	ColorID        int64    `json:"colorId"`
	Year           int64    `json:"year" validate:"required,gte=1900,lte=2100"`
	Price          int64    `json:"price" validate:"gte=0"`
	Odometer       int64    `json:"odometer" validate:"gte=0"`
	PhoneNumbers   []string `json:"phoneNumbers" validate:"dive,min=5,max=20"`
	TradeIn        bool     `json:"tradeIn"`
	VinCode        string   `json:"vinCode" validate:"omitempty,len=17,alphanum"`
	SteeringSide   bool     `json:"steeringSide"`
	AccidentFlag   bool     `json:"accidentFlag"`
	IsNew          bool     `json:"isNew"`
	Owners         int      `json:"owners" validate:"gte=0,lte=99"`
	Description    string   `json:"description" validate:"max=5000"`
}

// CreateListingResponse is returned by createListing.
type CreateListingResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message,omitempty"`
}

// AckResponse is returned by updateListing and deletions.
type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ServerError is the error body the marketplace sends on rejections.
type ServerError struct {
	Message string              `json:"message"`
	Detail  string              `json:"detail"`
	Errors  map[string][]string `json:"errors"`
}

// Text returns the most specific message available.
func (e ServerError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Detail != "" {
		return e.Detail
	}
	for field, msgs := range e.Errors {
		if len(msgs) > 0 {
			return field + ": " + msgs[0]
		}
	}
	return ""
}

// PersistedListing is the record returned by the API for editing. Reference
// fields are kept raw because historical records use different shapes.
type PersistedListing struct {
	ID           int64           `json:"id"`
	Brand        json.RawMessage `json:"brand"`
	Model        json.RawMessage `json:"model"`
	Year         json.RawMessage `json:"year"`
	SteeringSide json.RawMessage `json:"steeringSide"`
	BodyType     json.RawMessage `json:"bodyType"`
	Generation   json.RawMessage `json:"generation"`
	Modification json.RawMessage `json:"modification"`
	City         json.RawMessage `json:"city"`
	Color        json.RawMessage `json:"color"`
	Price        int64           `json:"price"`
	Odometer     int64           `json:"odometer"`
	VinCode      string          `json:"vinCode"`
	PhoneNumbers []string        `json:"phoneNumbers"`
	TradeIn      bool            `json:"tradeIn"`
	AccidentFlag bool            `json:"accidentFlag"`
	IsNew        bool            `json:"isNew"`
	Owners       int             `json:"owners"`
	Description  string          `json:"description"`
	Images       []string        `json:"images"`
	Video        string          `json:"video,omitempty"`
}

// ListingRefs are the normalized reference fields of a persisted listing.
type ListingRefs struct {
	Brand        Ref
	Model        Ref
	Year         Ref
	SteeringSide Ref
	BodyType     Ref
	Generation   Ref
	Modification Ref
	City         Ref
	Color        Ref
}

// Refs normalizes every reference field once, at the API boundary.
func (p *PersistedListing) Refs() ListingRefs {
	return ListingRefs{
		Brand:        NormalizeRef(p.Brand),
		Model:        NormalizeRef(p.Model),
		Year:         NormalizeRef(p.Year),
		SteeringSide: NormalizeRef(p.SteeringSide),
		BodyType:     NormalizeRef(p.BodyType),
		Generation:   NormalizeRef(p.Generation),
		Modification: NormalizeRef(p.Modification),
		City:         NormalizeRef(p.City),
		Color:        NormalizeRef(p.Color),
	}
}

// MediaURLs lists every existing media URL of the record.
func (p *PersistedListing) MediaURLs() []string {
	urls := make([]string, 0, len(p.Images)+1)
	urls = append(urls, p.Images...)
	if p.Video != "" {
		urls = append(urls, p.Video)
	}
	return urls
}

// ListingSummary is one row of the catalog, "my listings" and "liked" lists.
type ListingSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Year      int64  `json:"year"`
	Thumbnail string `json:"thumbnail,omitempty"`
	OnSale    bool   `json:"onSale"`
}

// MediaFile is a file waiting to be uploaded.
type MediaFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// IsVideo reports whether the file is a video (uploaded on its own).
func (f MediaFile) IsVideo() bool {
	return strings.HasPrefix(f.ContentType, "video/")
}

// MediaUploadResponse lists the stored paths of uploaded files.
type MediaUploadResponse struct {
	Paths []string `json:"paths"`
}
