package dtos

// ReferenceEntity is the minimal shape every reference list item carries.
type ReferenceEntity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Modification is a concrete engine/transmission variant of a generation.
type Modification struct {
	ID           int64  `json:"id"`
	Name         string `json:"name,omitempty"`
	Engine       string `json:"engine"`
	FuelType     string `json:"fuelType"`
	Transmission string `json:"transmission"`
	Drivetrain   string `json:"drivetrain"`
	GenerationID int64  `json:"generationId,omitempty"` // back-reference, not always sent
}

// Shape is the attribute tuple used for structural matching.
func (m Modification) Shape() ModificationShape {
	return ModificationShape{
		Engine:       m.Engine,
		FuelType:     m.FuelType,
		Transmission: m.Transmission,
		Drivetrain:   m.Drivetrain,
	}
}

// ModificationShape identifies an anonymous modification by its attributes.
type ModificationShape struct {
	Engine       string `json:"engine"`
	FuelType     string `json:"fuelType"`
	Transmission string `json:"transmission"`
	Drivetrain   string `json:"drivetrain"`
}

// Empty reports whether no attribute is set.
func (s ModificationShape) Empty() bool {
	return s.Engine == "" && s.FuelType == "" && s.Transmission == "" && s.Drivetrain == ""
}

// Generation is one backend generation record. The same Name may appear
// under several ids (hidden attribute variants).
type Generation struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	YearFrom      int            `json:"yearFrom,omitempty"`
	YearTo        int            `json:"yearTo,omitempty"`
	Modifications []Modification `json:"modifications"`
}

// ListEnvelope covers the paginated response shape of the catalog API.
// Flat array responses are decoded directly into a slice instead.
type ListEnvelope[T any] struct {
	Items      []T `json:"items"`
	Results    []T `json:"results"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// Entries returns whichever item field the server populated.
func (e ListEnvelope[T]) Entries() []T {
	if len(e.Items) > 0 {
		return e.Items
	}
	return e.Results
}

// YearsQuery scopes the year list.
type YearsQuery struct {
	BrandID      int64
	ModelID      int64
	SteeringSide *bool
}

// BodyTypesQuery scopes the body type list.
type BodyTypesQuery struct {
	BrandID      int64
	ModelID      int64
	Year         int64
	SteeringSide *bool
}

// GenerationsQuery scopes the generation list.
type GenerationsQuery struct {
	BrandID      int64
	ModelID      int64
	Year         int64
	BodyTypeID   int64
	SteeringSide *bool
}

// PriceQuery asks for a price recommendation.
type PriceQuery struct {
	BrandID      int64
	ModelID      int64
	Year         int64
	Odometer     int64
	GenerationID int64 // optional, 0 when unknown
}

// PriceRecommendation is the server's suggested price range.
type PriceRecommendation struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Average  int64  `json:"average"`
	Currency string `json:"currency"`
}
