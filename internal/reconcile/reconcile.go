package reconcile

import (
	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/generation"
	"autobazar/listing-editor/internal/models/dtos"
)

// Method records how a persisted reference was matched.
type Method string

const (
	MatchID        Method = "id"
	MatchName      Method = "name"
	MatchStructure Method = "structure"
)

// Non-cascade reference fields reconciled alongside the cascade.
const (
	FieldCity  = "city"
	FieldColor = "color"
)

// Patch moves one unset, non-dirty field to Value.
type Patch struct {
	Field  string `json:"field"`
	Value  int64  `json:"value"`
	Method Method `json:"method"`
}

// Lists are the option lists loaded for the current ancestor scope. A nil
// list means "not loaded yet"; the field is simply not reconciled this pass.
type Lists struct {
	Brands        []dtos.ReferenceEntity
	Models        []dtos.ReferenceEntity
	Years         []dtos.ReferenceEntity
	SteeringSides []dtos.ReferenceEntity
	BodyTypes     []dtos.ReferenceEntity
	Generations   *generation.Groups
	Cities        []dtos.ReferenceEntity
	Colors        []dtos.ReferenceEntity
}

// Slot is the current value of a non-cascade reference field.
type Slot struct {
	Value int64
	Dirty bool
}

// Extras carries the non-cascade reference fields of the draft.
type Extras struct {
	City  Slot
	Color Slot
}

// Reconcile maps the persisted references onto the loaded lists. It works on
// a copy of state, so a field resolved earlier in the pass unlocks its
// descendants within the same pass, and returns the patches to apply. It only
// ever sets fields that are unset and not dirty, so running it again with the
// same inputs after applying the result yields no patches.
func Reconcile(refs dtos.ListingRefs, lists Lists, state *cascade.State, extra Extras) []Patch {
	work := state.Clone()
	var patches []Patch

	apply := func(f cascade.Field, value int64, m Method) {
		if work.SetProgrammatic(f, value) {
			patches = append(patches, Patch{Field: string(f), Value: value, Method: m})
		}
	}

	for _, f := range cascade.Fields {
		if !open(work, f) {
			continue
		}
		ref := refFor(refs, f)
		if ref.Kind == dtos.RefKindNone {
			continue
		}

		switch f {
		case cascade.FieldGeneration:
			if id, m, ok := matchGeneration(ref, lists.Generations); ok {
				apply(f, id, m)
			}
		case cascade.FieldModification:
			groupID, _ := work.Value(cascade.FieldGeneration)
			if id, m, ok := matchModification(ref, lists.Generations, groupID); ok {
				apply(f, id, m)
			}
		default:
			if id, m, ok := matchEntity(ref, listFor(lists, f)); ok {
				apply(f, id, m)
			}
		}
	}

	if extra.City.Value == 0 && !extra.City.Dirty {
		if id, m, ok := matchEntity(refs.City, lists.Cities); ok {
			patches = append(patches, Patch{Field: FieldCity, Value: id, Method: m})
		}
	}
	if extra.Color.Value == 0 && !extra.Color.Dirty {
		if id, m, ok := matchEntity(refs.Color, lists.Colors); ok {
			patches = append(patches, Patch{Field: FieldColor, Value: id, Method: m})
		}
	}

	return patches
}

// Done reports whether every cascade field is either set or dirty.
func Done(state *cascade.State) bool {
	for _, f := range cascade.Fields {
		if _, set := state.Value(f); !set && !state.Dirty(f) {
			return false
		}
	}
	return true
}

func open(s *cascade.State, f cascade.Field) bool {
	if s.Dirty(f) {
		return false
	}
	if _, set := s.Value(f); set {
		return false
	}
	return s.Ready(f)
}

func refFor(refs dtos.ListingRefs, f cascade.Field) dtos.Ref {
	switch f {
	case cascade.FieldBrand:
		return refs.Brand
	case cascade.FieldModel:
		return refs.Model
	case cascade.FieldYear:
		return refs.Year
	case cascade.FieldSteeringSide:
		return refs.SteeringSide
	case cascade.FieldBodyType:
		return refs.BodyType
	case cascade.FieldGeneration:
		return refs.Generation
	case cascade.FieldModification:
		return refs.Modification
	}
	return dtos.Ref{}
}

func listFor(lists Lists, f cascade.Field) []dtos.ReferenceEntity {
	switch f {
	case cascade.FieldBrand:
		return lists.Brands
	case cascade.FieldModel:
		return lists.Models
	case cascade.FieldYear:
		return lists.Years
	case cascade.FieldSteeringSide:
		return lists.SteeringSides
	case cascade.FieldBodyType:
		return lists.BodyTypes
	}
	return nil
}

// matchEntity tries the id first, then an exact name. A name is only
// consulted when the id is absent from the list (renamed or migrated
// references keep their name but not their id).
func matchEntity(ref dtos.Ref, list []dtos.ReferenceEntity) (int64, Method, bool) {
	if len(list) == 0 {
		return 0, "", false
	}
	if id, ok := ref.IDValue(); ok {
		for _, e := range list {
			if e.ID == id {
				return id, MatchID, true
			}
		}
	}
	if name, ok := ref.NameValue(); ok {
		if id, found := uniqueByName(list, name); found {
			return id, MatchName, true
		}
	}
	return 0, "", false
}

func uniqueByName(list []dtos.ReferenceEntity, name string) (int64, bool) {
	var (
		id    int64
		count int
	)
	for _, e := range list {
		if e.Name == name {
			id = e.ID
			count++
		}
	}
	return id, count == 1
}

// matchGeneration resolves to the id of the group the user sees: any member
// id matches the group, and names match the group display name.
func matchGeneration(ref dtos.Ref, groups *generation.Groups) (int64, Method, bool) {
	if groups.Len() == 0 {
		return 0, "", false
	}
	if id, ok := ref.IDValue(); ok {
		if grp, found := groups.GroupOf(id); found && grp.ID != 0 {
			return grp.ID, MatchID, true
		}
	}
	if name, ok := ref.NameValue(); ok {
		if grp, found := groups.ByName(name); found && grp.ID != 0 {
			return grp.ID, MatchName, true
		}
	}
	return 0, "", false
}

// matchModification searches only the modifications of the selected
// generation group: id, then name, then the unique structural match.
func matchModification(ref dtos.Ref, groups *generation.Groups, groupID int64) (int64, Method, bool) {
	candidates := groups.Modifications(groupID)
	if len(candidates) == 0 {
		return 0, "", false
	}

	if id, ok := ref.IDValue(); ok {
		for _, m := range candidates {
			if m.ID == id {
				return id, MatchID, true
			}
		}
	}

	if name, ok := ref.NameValue(); ok {
		var (
			id    int64
			count int
		)
		for _, m := range candidates {
			if m.Name != "" && m.Name == name {
				id = m.ID
				count++
			}
		}
		if count == 1 {
			return id, MatchName, true
		}
	}

	if shape, ok := ref.ShapeValue(); ok {
		var (
			id    int64
			count int
		)
		for _, m := range candidates {
			if m.Shape() == shape {
				id = m.ID
				count++
			}
		}
		if count == 1 {
			return id, MatchStructure, true
		}
	}

	return 0, "", false
}
