package editor

import (
	"context"

	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/generation"
	"autobazar/listing-editor/internal/models/dtos"
	"autobazar/listing-editor/internal/reconcile"
)

// Option list names. Cascade lists use the field name; city and color are
// the two non-cascade reference lists.
const (
	listCity  = "city"
	listColor = "color"
)

// fetched lists in load order. modification has no list of its own: its
// options come from the loaded generation groups.
var fetchedLists = []string{
	listCity,
	listColor,
	string(cascade.FieldBrand),
	string(cascade.FieldModel),
	string(cascade.FieldYear),
	string(cascade.FieldBodyType),
	string(cascade.FieldGeneration),
}

// steeringOptions is the fixed two-option steering list.
var steeringOptions = []dtos.ReferenceEntity{
	{ID: constants.SteeringLeftID, Name: "Left"},
	{ID: constants.SteeringRightID, Name: "Right"},
}

// loadedList is one fetched option list together with the ancestor scope it
// was fetched for. The scope is the query cache key of the request.
type loadedList struct {
	key      string
	entities []dtos.ReferenceEntity
	groups   *generation.Groups
}

type listRequest struct {
	name string
	key  string
	rank int
}

// Option is one selectable entry of a field.
type Option struct {
	ID    int64                   `json:"id"`
	Name  string                  `json:"name"`
	Shape *dtos.ModificationShape `json:"shape,omitempty"`
}

func listRank(name string) int {
	switch name {
	case listCity, listColor:
		return 0
	}
	return cascade.Field(name).Rank()
}

func (e *Editor) steering() *bool {
	v, ok := e.state.Value(cascade.FieldSteeringSide)
	if !ok {
		return nil
	}
	right := v == constants.SteeringRightID
	return &right
}

// keyFor returns the scope key of list name for the current selection, or ""
// while an ancestor is missing.
func (e *Editor) keyFor(name string) string {
	switch name {
	case listCity:
		return common.CitiesKey()
	case listColor:
		return common.ColorsKey()
	}

	f := cascade.Field(name)
	if !e.state.Ready(f) {
		return ""
	}
	brand, _ := e.state.Value(cascade.FieldBrand)
	model, _ := e.state.Value(cascade.FieldModel)
	year, _ := e.state.Value(cascade.FieldYear)
	body, _ := e.state.Value(cascade.FieldBodyType)

	switch f {
	case cascade.FieldBrand:
		return common.BrandsKey()
	case cascade.FieldModel:
		return common.ModelsKey(brand)
	case cascade.FieldYear:
		return common.YearsKey(dtos.YearsQuery{BrandID: brand, ModelID: model})
	case cascade.FieldBodyType:
		return common.BodyTypesKey(dtos.BodyTypesQuery{BrandID: brand, ModelID: model, Year: year, SteeringSide: e.steering()})
	case cascade.FieldGeneration:
		return common.GenerationsKey(dtos.GenerationsQuery{BrandID: brand, ModelID: model, Year: year, BodyTypeID: body, SteeringSide: e.steering()})
	}
	return ""
}

// pendingLoads returns the lowest-rank lists that are ready but not loaded
// for their current scope. Lists of one rank load together.
func (e *Editor) pendingLoads() []listRequest {
	var out []listRequest
	best := -1
	for _, name := range fetchedLists {
		key := e.keyFor(name)
		if key == "" {
			continue
		}
		if l, ok := e.lists[name]; ok && l.key == key {
			continue
		}
		if e.failed[name] == key {
			continue
		}
		r := listRank(name)
		switch {
		case best == -1 || r < best:
			best = r
			out = []listRequest{{name: name, key: key, rank: r}}
		case r == best:
			out = append(out, listRequest{name: name, key: key, rank: r})
		}
	}
	return out
}

// fetch runs one list request. It holds no lock; the query is rebuilt from
// the request key's scope captured in q.
func (e *Editor) fetch(ctx context.Context, req listRequest, q scopeQuery) (loadedList, error) {
	out := loadedList{key: req.key}
	var err error

	switch req.name {
	case listCity:
		out.entities, err = e.catalog.Cities(ctx)
	case listColor:
		out.entities, err = e.catalog.Colors(ctx)
	case string(cascade.FieldBrand):
		out.entities, err = e.catalog.Brands(ctx)
	case string(cascade.FieldModel):
		out.entities, err = e.catalog.Models(ctx, q.brand)
	case string(cascade.FieldYear):
		out.entities, err = e.catalog.Years(ctx, dtos.YearsQuery{BrandID: q.brand, ModelID: q.model})
	case string(cascade.FieldBodyType):
		out.entities, err = e.catalog.BodyTypes(ctx, dtos.BodyTypesQuery{
			BrandID: q.brand, ModelID: q.model, Year: q.year, SteeringSide: q.steering,
		})
	case string(cascade.FieldGeneration):
		var gens []dtos.Generation
		gens, err = e.catalog.Generations(ctx, dtos.GenerationsQuery{
			BrandID: q.brand, ModelID: q.model, Year: q.year, BodyTypeID: q.bodyType, SteeringSide: q.steering,
		})
		if err == nil {
			out.groups = generation.Build(gens)
		}
	}
	return out, err
}

// scopeQuery is the selection a fetch was issued for.
type scopeQuery struct {
	brand    int64
	model    int64
	year     int64
	bodyType int64
	steering *bool
}

func (e *Editor) currentScope() scopeQuery {
	q := scopeQuery{steering: e.steering()}
	q.brand, _ = e.state.Value(cascade.FieldBrand)
	q.model, _ = e.state.Value(cascade.FieldModel)
	q.year, _ = e.state.Value(cascade.FieldYear)
	q.bodyType, _ = e.state.Value(cascade.FieldBodyType)
	return q
}

// current returns list name if it was loaded for the current scope.
func (e *Editor) current(name string) (loadedList, bool) {
	l, ok := e.lists[name]
	if !ok {
		return loadedList{}, false
	}
	if key := e.keyFor(name); key == "" || key != l.key {
		return loadedList{}, false
	}
	return l, true
}

// currentGroups returns the generation groups of the current scope.
func (e *Editor) currentGroups() *generation.Groups {
	l, ok := e.current(string(cascade.FieldGeneration))
	if !ok {
		return nil
	}
	return l.groups
}

// reconcileLists exposes only lists matching the current scope, so a list
// fetched for a previous selection can never feed a match.
func (e *Editor) reconcileLists() reconcile.Lists {
	var lists reconcile.Lists
	entities := func(name string) []dtos.ReferenceEntity {
		if l, ok := e.current(name); ok {
			if l.entities == nil {
				return []dtos.ReferenceEntity{}
			}
			return l.entities
		}
		return nil
	}
	lists.Cities = entities(listCity)
	lists.Colors = entities(listColor)
	lists.Brands = entities(string(cascade.FieldBrand))
	lists.Models = entities(string(cascade.FieldModel))
	lists.Years = entities(string(cascade.FieldYear))
	lists.BodyTypes = entities(string(cascade.FieldBodyType))
	if e.state.Ready(cascade.FieldSteeringSide) {
		lists.SteeringSides = steeringOptions
	}
	lists.Generations = e.currentGroups()
	return lists
}
