package generation

import (
	"sort"

	"autobazar/listing-editor/internal/models/dtos"
)

// TaggedModification is a modification carrying the id of the generation
// record it was listed under.
type TaggedModification struct {
	dtos.Modification
	SourceGenerationID int64 `json:"sourceGenerationId"`
}

// Group merges every generation record sharing a display name. ID is the
// smallest member id and is what the editor stores as the generation choice.
type Group struct {
	ID            int64                `json:"id"`
	DisplayName   string               `json:"name"`
	MemberIDs     []int64              `json:"memberIds"`
	Modifications []TaggedModification `json:"modifications"`
}

// HasMember reports whether id is one of the merged generation records.
func (g Group) HasMember(id int64) bool {
	for _, m := range g.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Collision flags modifications that look identical but come from different
// generation records of the same group, or a modification id listed twice.
type Collision struct {
	GroupName       string                 `json:"groupName"`
	Shape           dtos.ModificationShape `json:"shape"`
	GenerationIDs   []int64                `json:"generationIds"`
	ModificationIDs []int64                `json:"modificationIds"`
}

// Selection is what choosing a modification writes into the draft.
type Selection struct {
	ModificationID int64 `json:"modificationId"`
	GenerationID   int64 `json:"generationId"` // 0 when the source generation is unresolvable
}

// Groups is the grouped, indexed view of one fetched generation list.
type Groups struct {
	groups     []Group
	byName     map[string]int
	byMember   map[int64]int
	mods       map[int64]TaggedModification
	modGroup   map[int64]int
	collisions []Collision
}

// Build partitions generation records by name, keeping first-seen order.
func Build(generations []dtos.Generation) *Groups {
	g := &Groups{
		byName:   make(map[string]int),
		byMember: make(map[int64]int),
		mods:     make(map[int64]TaggedModification),
		modGroup: make(map[int64]int),
	}

	known := make(map[int64]bool, len(generations))
	for _, gen := range generations {
		if gen.ID != 0 {
			known[gen.ID] = true
		}
	}

	for _, gen := range generations {
		idx, ok := g.byName[gen.Name]
		if !ok {
			idx = len(g.groups)
			g.byName[gen.Name] = idx
			g.groups = append(g.groups, Group{DisplayName: gen.Name})
		}
		grp := &g.groups[idx]

		if gen.ID != 0 && !grp.HasMember(gen.ID) {
			grp.MemberIDs = append(grp.MemberIDs, gen.ID)
			g.byMember[gen.ID] = idx
		}

		for _, m := range gen.Modifications {
			source := gen.ID
			if source == 0 {
				source = m.GenerationID
			}
			if !known[source] {
				source = 0
			}

			tagged := TaggedModification{Modification: m, SourceGenerationID: source}
			if prev, dup := g.mods[m.ID]; dup {
				g.collisions = append(g.collisions, Collision{
					GroupName:       gen.Name,
					Shape:           m.Shape(),
					GenerationIDs:   []int64{prev.SourceGenerationID, source},
					ModificationIDs: []int64{m.ID},
				})
				continue
			}
			g.mods[m.ID] = tagged
			g.modGroup[m.ID] = idx
			grp.Modifications = append(grp.Modifications, tagged)
		}
	}

	for i := range g.groups {
		grp := &g.groups[i]
		sort.Slice(grp.MemberIDs, func(a, b int) bool { return grp.MemberIDs[a] < grp.MemberIDs[b] })
		if len(grp.MemberIDs) > 0 {
			grp.ID = grp.MemberIDs[0]
		}
		g.collisions = append(g.collisions, shapeCollisions(*grp)...)
	}

	return g
}

func shapeCollisions(grp Group) []Collision {
	type bucket struct {
		gens map[int64]bool
		mods []int64
	}
	buckets := make(map[dtos.ModificationShape]*bucket)
	var order []dtos.ModificationShape

	for _, m := range grp.Modifications {
		shape := m.Shape()
		if shape.Empty() {
			continue
		}
		b, ok := buckets[shape]
		if !ok {
			b = &bucket{gens: make(map[int64]bool)}
			buckets[shape] = b
			order = append(order, shape)
		}
		b.gens[m.SourceGenerationID] = true
		b.mods = append(b.mods, m.ID)
	}

	var out []Collision
	for _, shape := range order {
		b := buckets[shape]
		if len(b.gens) < 2 {
			continue
		}
		gens := make([]int64, 0, len(b.gens))
		for id := range b.gens {
			gens = append(gens, id)
		}
		sort.Slice(gens, func(i, j int) bool { return gens[i] < gens[j] })
		out = append(out, Collision{
			GroupName:       grp.DisplayName,
			Shape:           shape,
			GenerationIDs:   gens,
			ModificationIDs: b.mods,
		})
	}
	return out
}

// List returns the groups in first-seen order.
func (g *Groups) List() []Group {
	if g == nil {
		return nil
	}
	return g.groups
}

// Len is the number of distinct display names.
func (g *Groups) Len() int {
	if g == nil {
		return 0
	}
	return len(g.groups)
}

// Collisions returns the data-integrity conditions found while grouping.
func (g *Groups) Collisions() []Collision {
	if g == nil {
		return nil
	}
	return g.collisions
}

// GroupOf re-derives the group a generation record id belongs to.
func (g *Groups) GroupOf(generationID int64) (Group, bool) {
	if g == nil {
		return Group{}, false
	}
	idx, ok := g.byMember[generationID]
	if !ok {
		return Group{}, false
	}
	return g.groups[idx], true
}

// ByName finds the group with the exact display name.
func (g *Groups) ByName(name string) (Group, bool) {
	if g == nil {
		return Group{}, false
	}
	idx, ok := g.byName[name]
	if !ok {
		return Group{}, false
	}
	return g.groups[idx], true
}

// Modifications returns the flattened modifications of the group that
// contains generationID.
func (g *Groups) Modifications(generationID int64) []TaggedModification {
	grp, ok := g.GroupOf(generationID)
	if !ok {
		return nil
	}
	return grp.Modifications
}

// SelectModification resolves the concrete generation id through the chosen
// modification. ok is false while nothing is loaded or the id is unknown;
// a found modification with no resolvable source yields GenerationID 0.
func (g *Groups) SelectModification(modID int64) (Selection, bool) {
	if g == nil || len(g.mods) == 0 {
		return Selection{}, false
	}
	m, ok := g.mods[modID]
	if !ok {
		return Selection{}, false
	}
	return Selection{ModificationID: modID, GenerationID: m.SourceGenerationID}, true
}

// GroupOfModification returns the group a modification is listed in.
func (g *Groups) GroupOfModification(modID int64) (Group, bool) {
	if g == nil {
		return Group{}, false
	}
	idx, ok := g.modGroup[modID]
	if !ok {
		return Group{}, false
	}
	return g.groups[idx], true
}
