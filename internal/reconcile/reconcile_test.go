package reconcile

import (
	"encoding/json"
	"testing"

	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/generation"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func camryLists() Lists {
	return Lists{
		Brands:        []dtos.ReferenceEntity{{ID: 7, Name: "Toyota"}, {ID: 8, Name: "Lexus"}},
		Models:        []dtos.ReferenceEntity{{ID: 42, Name: "Camry"}},
		Years:         []dtos.ReferenceEntity{{ID: 2019, Name: "2019"}, {ID: 2020, Name: "2020"}},
		SteeringSides: []dtos.ReferenceEntity{{ID: constants.SteeringLeftID, Name: "left"}, {ID: constants.SteeringRightID, Name: "right"}},
		BodyTypes:     []dtos.ReferenceEntity{{ID: 3, Name: "Sedan"}},
		Generations: generation.Build([]dtos.Generation{
			{ID: 101, Name: "XV70", Modifications: []dtos.Modification{
				{ID: 9, Engine: "2.5L", FuelType: "Petrol", Transmission: "Automatic", Drivetrain: "FWD"},
			}},
			{ID: 102, Name: "XV70", Modifications: []dtos.Modification{
				{ID: 10, Engine: "2.0L", FuelType: "Petrol", Transmission: "Automatic", Drivetrain: "FWD"},
			}},
		}),
		Cities: []dtos.ReferenceEntity{{ID: 1, Name: "Almaty"}},
		Colors: []dtos.ReferenceEntity{{ID: 5, Name: "White"}},
	}
}

func persisted(t *testing.T, body string) dtos.ListingRefs {
	t.Helper()
	var p dtos.PersistedListing
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p.Refs()
}

func applyAll(s *cascade.State, patches []Patch) {
	for _, p := range patches {
		if f, err := cascade.ParseField(p.Field); err == nil {
			s.SetProgrammatic(f, p.Value)
		}
	}
}

func TestReconcile_NameThenStructuralMatch(t *testing.T) {
	refs := persisted(t, `{
		"brand": 7,
		"model": {"id": 42, "name": "Camry"},
		"year": 2019,
		"steeringSide": false,
		"bodyType": "Sedan",
		"generation": "XV70",
		"modification": {"engine": "2.0L", "fuelType": "Petrol", "transmission": "Automatic", "drivetrain": "FWD"},
		"city": "Almaty",
		"color": {"id": 5}
	}`)
	lists := camryLists()
	state := cascade.NewState()

	patches := Reconcile(refs, lists, state, Extras{})
	applyAll(state, patches)

	values := state.Values()
	assert.Equal(t, int64(7), values[cascade.FieldBrand])
	assert.Equal(t, int64(42), values[cascade.FieldModel])
	assert.Equal(t, int64(2019), values[cascade.FieldYear])
	assert.Equal(t, int64(constants.SteeringLeftID), values[cascade.FieldSteeringSide])
	assert.Equal(t, int64(3), values[cascade.FieldBodyType])
	assert.Equal(t, int64(101), values[cascade.FieldGeneration], "group id is the smallest member")
	assert.Equal(t, int64(10), values[cascade.FieldModification])

	sel, ok := lists.Generations.SelectModification(values[cascade.FieldModification])
	require.True(t, ok)
	assert.Equal(t, int64(102), sel.GenerationID)

	byField := map[string]Patch{}
	for _, p := range patches {
		byField[p.Field] = p
	}
	assert.Equal(t, MatchName, byField["generation"].Method)
	assert.Equal(t, MatchStructure, byField["modification"].Method)
	assert.Equal(t, Patch{Field: FieldCity, Value: 1, Method: MatchName}, byField[FieldCity])
	assert.Equal(t, Patch{Field: FieldColor, Value: 5, Method: MatchID}, byField[FieldColor])
}

func TestReconcile_GenerationMemberIDMapsToGroup(t *testing.T) {
	refs := persisted(t, `{"brand":7,"model":42,"year":2019,"steeringSide":true,"bodyType":3,"generation":102,"modification":10}`)
	lists := camryLists()
	state := cascade.NewState()

	applyAll(state, Reconcile(refs, lists, state, Extras{}))

	v, _ := state.Value(cascade.FieldGeneration)
	assert.Equal(t, int64(101), v)
	v, _ = state.Value(cascade.FieldModification)
	assert.Equal(t, int64(10), v)
	v, _ = state.Value(cascade.FieldSteeringSide)
	assert.Equal(t, int64(constants.SteeringRightID), v)
}

func TestReconcile_Idempotent(t *testing.T) {
	refs := persisted(t, `{"brand":7,"model":42,"year":2019,"steeringSide":false,"bodyType":3,"generation":"XV70","modification":10,"city":1,"color":5}`)
	lists := camryLists()
	state := cascade.NewState()

	first := Reconcile(refs, lists, state, Extras{})
	require.NotEmpty(t, first)
	applyAll(state, first)

	second := Reconcile(refs, lists, state, Extras{City: Slot{Value: 1}, Color: Slot{Value: 5}})
	assert.Empty(t, second)
}

func TestReconcile_NonClobber(t *testing.T) {
	refs := persisted(t, `{"brand":7,"model":42,"year":2019,"steeringSide":false,"bodyType":3,"generation":101,"modification":9}`)
	state := cascade.NewState()
	state.SetByUser(cascade.FieldBrand, 8)

	// Lists arrive one level at a time; none of them may move the dirty brand
	// or resurrect the descendants its edit cleared.
	arrivals := []Lists{
		{Brands: camryLists().Brands},
		{Brands: camryLists().Brands, Models: camryLists().Models},
		camryLists(),
	}
	for _, lists := range arrivals {
		applyAll(state, Reconcile(refs, lists, state, Extras{}))
	}

	v, _ := state.Value(cascade.FieldBrand)
	assert.Equal(t, int64(8), v)
	for _, d := range cascade.Descendants(cascade.FieldBrand) {
		_, set := state.Value(d)
		assert.False(t, set, "%s must stay unset", d)
	}
}

func TestReconcile_WaitsForAncestors(t *testing.T) {
	refs := persisted(t, `{"brand":7,"model":42}`)
	lists := Lists{Models: camryLists().Models}

	patches := Reconcile(refs, lists, cascade.NewState(), Extras{})

	assert.Empty(t, patches, "model cannot resolve while brand is unresolved")
}

func TestReconcile_StaleIDFallsBackToName(t *testing.T) {
	refs := persisted(t, `{"brand":{"id":999,"name":"Toyota"}}`)

	patches := Reconcile(refs, camryLists(), cascade.NewState(), Extras{})

	require.Len(t, patches, 1)
	assert.Equal(t, Patch{Field: "brand", Value: 7, Method: MatchName}, patches[0])
}

func TestReconcile_NumericStringIsAName(t *testing.T) {
	state := cascade.NewState()
	state.SetProgrammatic(cascade.FieldBrand, 7)
	state.SetProgrammatic(cascade.FieldModel, 42)

	patches := Reconcile(persisted(t, `{"year":"2020"}`), camryLists(), state, Extras{})

	require.Len(t, patches, 1)
	assert.Equal(t, Patch{Field: "year", Value: 2020, Method: MatchName}, patches[0])
}

func TestReconcile_AmbiguousStructureLeftUnset(t *testing.T) {
	lists := camryLists()
	lists.Generations = generation.Build([]dtos.Generation{
		{ID: 101, Name: "XV70", Modifications: []dtos.Modification{
			{ID: 9, Engine: "2.0L", FuelType: "Petrol", Transmission: "Automatic", Drivetrain: "FWD"},
		}},
		{ID: 102, Name: "XV70", Modifications: []dtos.Modification{
			{ID: 10, Engine: "2.0L", FuelType: "Petrol", Transmission: "Automatic", Drivetrain: "FWD"},
		}},
	})
	refs := persisted(t, `{"brand":7,"model":42,"year":2019,"steeringSide":false,"bodyType":3,"generation":"XV70",
		"modification":{"engine":"2.0L","fuelType":"Petrol","transmission":"Automatic","drivetrain":"FWD"}}`)
	state := cascade.NewState()

	applyAll(state, Reconcile(refs, lists, state, Extras{}))

	_, set := state.Value(cascade.FieldModification)
	assert.False(t, set)
	assert.False(t, Done(state))
	assert.NotEmpty(t, lists.Generations.Collisions())
}

func TestReconcile_DirtyExtrasUntouched(t *testing.T) {
	refs := persisted(t, `{"city":1,"color":5}`)

	patches := Reconcile(refs, camryLists(), cascade.NewState(), Extras{City: Slot{Dirty: true}, Color: Slot{Value: 6}})

	assert.Empty(t, patches)
}

func TestDone(t *testing.T) {
	s := cascade.NewState()
	assert.False(t, Done(s))

	s.SetByUser(cascade.FieldBrand, 7) // clears and dirties the rest
	assert.True(t, Done(s))
}
