package editor

import (
	"time"

	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/models/dtos"
)

// Details are the non-cascade listing fields.
type Details struct {
	CityID       int64    `json:"cityId"`
	ColorID      int64    `json:"colorId"`
	Price        int64    `json:"price"`
	Odometer     int64    `json:"odometer"`
	PhoneNumbers []string `json:"phoneNumbers"`
	TradeIn      bool     `json:"tradeIn"`
	VinCode      string   `json:"vinCode"`
	AccidentFlag bool     `json:"accidentFlag"`
	IsNew        bool     `json:"isNew"`
	Owners       int      `json:"owners"`
	Description  string   `json:"description"`
}

// DetailsPatch is a partial update of Details; nil fields are left alone.
type DetailsPatch struct {
	CityID       *int64    `json:"cityId,omitempty"`
	ColorID      *int64    `json:"colorId,omitempty"`
	Price        *int64    `json:"price,omitempty"`
	Odometer     *int64    `json:"odometer,omitempty"`
	PhoneNumbers *[]string `json:"phoneNumbers,omitempty"`
	TradeIn      *bool     `json:"tradeIn,omitempty"`
	VinCode      *string   `json:"vinCode,omitempty"`
	AccidentFlag *bool     `json:"accidentFlag,omitempty"`
	IsNew        *bool     `json:"isNew,omitempty"`
	Owners       *int      `json:"owners,omitempty"`
	Description  *string   `json:"description,omitempty"`
}

func (d *Details) apply(p DetailsPatch) {
	if p.CityID != nil {
		d.CityID = *p.CityID
	}
	if p.ColorID != nil {
		d.ColorID = *p.ColorID
	}
	if p.Price != nil {
		d.Price = *p.Price
	}
	if p.Odometer != nil {
		d.Odometer = *p.Odometer
	}
	if p.PhoneNumbers != nil {
		d.PhoneNumbers = append([]string(nil), (*p.PhoneNumbers)...)
	}
	if p.TradeIn != nil {
		d.TradeIn = *p.TradeIn
	}
	if p.VinCode != nil {
		d.VinCode = *p.VinCode
	}
	if p.AccidentFlag != nil {
		d.AccidentFlag = *p.AccidentFlag
	}
	if p.IsNew != nil {
		d.IsNew = *p.IsNew
	}
	if p.Owners != nil {
		d.Owners = *p.Owners
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
}

func detailsFromPersisted(p *dtos.PersistedListing) Details {
	return Details{
		Price:        p.Price,
		Odometer:     p.Odometer,
		PhoneNumbers: append([]string(nil), p.PhoneNumbers...),
		TradeIn:      p.TradeIn,
		VinCode:      p.VinCode,
		AccidentFlag: p.AccidentFlag,
		IsNew:        p.IsNew,
		Owners:       p.Owners,
		Description:  p.Description,
	}
}

// Draft is the persisted form of an editor, used for autosave and restore.
type Draft struct {
	EditorID       string                  `json:"editorId"`
	Mode           constants.EditorMode    `json:"mode"`
	Profile        string                  `json:"profile"`
	ListingID      int64                   `json:"listingId,omitempty"`
	Values         map[cascade.Field]int64 `json:"values"`
	Dirty          map[cascade.Field]bool  `json:"dirty"`
	Details        Details                 `json:"details"`
	CityDirty      bool                    `json:"cityDirty"`
	ColorDirty     bool                    `json:"colorDirty"`
	NewMedia       []dtos.MediaFile        `json:"newMedia"`
	ExistingMedia  []string                `json:"existingMedia"`
	PendingRemoval []string                `json:"pendingRemoval"`
	Persisted      *dtos.PersistedListing  `json:"persisted,omitempty"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// Submission is everything the submission pipeline needs from an editor,
// taken after local validation passed.
type Submission struct {
	EditorID       string
	Mode           constants.EditorMode
	ListingID      int64
	Payload        dtos.ListingPayload
	NewMedia       []dtos.MediaFile
	PendingRemoval []string
}
