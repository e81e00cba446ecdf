package dtos

import (
	"bytes"
	"encoding/json"
	"strings"

	"autobazar/listing-editor/internal/constants"
)

// RefKind tags how a persisted listing refers to a reference entity.
type RefKind int

const (
	RefKindNone RefKind = iota
	RefKindID
	RefKindName
	RefKindObject
)

func (k RefKind) String() string {
	switch k {
	case RefKindID:
		return "id"
	case RefKindName:
		return "name"
	case RefKindObject:
		return "object"
	default:
		return "none"
	}
}

// RefObject is the partial entity shape some historical records embed.
type RefObject struct {
	ID           *int64 `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Engine       string `json:"engine,omitempty"`
	FuelType     string `json:"fuelType,omitempty"`
	Transmission string `json:"transmission,omitempty"`
	Drivetrain   string `json:"drivetrain,omitempty"`
	GenerationID *int64 `json:"generationId,omitempty"`
}

// Ref is the normalized reference: exactly one of ID, Name or Object is
// meaningful, selected by Kind.
type Ref struct {
	Kind   RefKind
	ID     int64
	Name   string
	Object RefObject
}

// RefID builds an id reference.
func RefID(id int64) Ref { return Ref{Kind: RefKindID, ID: id} }

// RefName builds a name reference.
func RefName(name string) Ref { return Ref{Kind: RefKindName, Name: name} }

// RefOf builds an object reference.
func RefOf(obj RefObject) Ref { return Ref{Kind: RefKindObject, Object: obj} }

// IDValue returns the id carried by an id or object reference.
func (r Ref) IDValue() (int64, bool) {
	switch r.Kind {
	case RefKindID:
		return r.ID, true
	case RefKindObject:
		if r.Object.ID != nil {
			return *r.Object.ID, true
		}
	}
	return 0, false
}

// NameValue returns the name carried by a name or object reference.
func (r Ref) NameValue() (string, bool) {
	switch r.Kind {
	case RefKindName:
		return r.Name, r.Name != ""
	case RefKindObject:
		return r.Object.Name, r.Object.Name != ""
	}
	return "", false
}

// ShapeValue returns the modification attributes of an object reference.
func (r Ref) ShapeValue() (ModificationShape, bool) {
	if r.Kind != RefKindObject {
		return ModificationShape{}, false
	}
	s := ModificationShape{
		Engine:       r.Object.Engine,
		FuelType:     r.Object.FuelType,
		Transmission: r.Object.Transmission,
		Drivetrain:   r.Object.Drivetrain,
	}
	return s, !s.Empty()
}

// NormalizeRef turns whatever the server sent for a reference field into a
// Ref. Accepted shapes: null, integer, name string, object, and booleans
// (steering side: true is right-hand drive). Anything else is RefKindNone.
func NormalizeRef(raw json.RawMessage) Ref {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Ref{}
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Ref{}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return Ref{}
		}
		return RefName(s)
	case '{':
		var obj RefObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Ref{}
		}
		return RefOf(obj)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Ref{}
		}
		if b {
			return RefID(constants.SteeringRightID)
		}
		return RefID(constants.SteeringLeftID)
	default:
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return Ref{}
		}
		if id, err := n.Int64(); err == nil {
			return RefID(id)
		}
		if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
			return RefID(int64(f))
		}
		return Ref{}
	}
}
