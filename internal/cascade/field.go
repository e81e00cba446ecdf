package cascade

import "fmt"

// Field is one of the ordered vehicle-configuration selections.
type Field string

const (
	FieldBrand        Field = "brand"
	FieldModel        Field = "model"
	FieldYear         Field = "year"
	FieldSteeringSide Field = "steeringSide"
	FieldBodyType     Field = "bodyType"
	FieldGeneration   Field = "generation"
	FieldModification Field = "modification"
)

// Fields lists every cascade field in dependency order.
var Fields = []Field{
	FieldBrand,
	FieldModel,
	FieldYear,
	FieldSteeringSide,
	FieldBodyType,
	FieldGeneration,
	FieldModification,
}

// year and steeringSide share a rank: they are siblings and both gate bodyType.
var ranks = map[Field]int{
	FieldBrand:        0,
	FieldModel:        1,
	FieldYear:         2,
	FieldSteeringSide: 2,
	FieldBodyType:     3,
	FieldGeneration:   4,
	FieldModification: 5,
}

// ParseField validates a field name coming from the outside.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := ranks[f]; !ok {
		return "", fmt.Errorf("unknown cascade field %q", s)
	}
	return f, nil
}

// Rank is the position of the field in the cascade order.
func (f Field) Rank() int {
	r, ok := ranks[f]
	if !ok {
		return -1
	}
	return r
}

// Before reports whether f strictly precedes other.
func (f Field) Before(other Field) bool {
	return f.Rank() < other.Rank()
}

// Descendants returns every field strictly after f, transitively.
func Descendants(f Field) []Field {
	var out []Field
	for _, d := range Fields {
		if f.Before(d) {
			out = append(out, d)
		}
	}
	return out
}

// Ancestors returns every field strictly before f.
func Ancestors(f Field) []Field {
	var out []Field
	for _, a := range Fields {
		if a.Before(f) {
			out = append(out, a)
		}
	}
	return out
}

// OnFieldChanged decides which descendants to clear after field changed.
// Only a user-initiated change to a different value invalidates anything;
// programmatic population (edit-mode load, reconciliation) never does, or it
// would erase the very values it is restoring.
func OnFieldChanged(field Field, userInitiated, changed bool) []Field {
	if !userInitiated || !changed {
		return nil
	}
	return Descendants(field)
}
