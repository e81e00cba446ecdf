package editor

import (
	"context"
	"errors"
	"sync"

	"autobazar/listing-editor/internal/models/dtos"
)

// fakeCatalog serves the Camry XV70 fixture. generationGate, when set, blocks
// the first Generations call until it is closed; generationStarted is
// signalled first.
type fakeCatalog struct {
	mu    sync.Mutex
	calls map[string]int

	generations       []dtos.Generation
	generationGate    chan struct{}
	generationStarted chan struct{}
	failBrands        error
	yearsQueries      []dtos.YearsQuery
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		calls: make(map[string]int),
		generations: []dtos.Generation{
			{ID: 101, Name: "XV70", Modifications: []dtos.Modification{
				{ID: 9, Engine: "2.5L", FuelType: "Petrol", Transmission: "Automatic", Drivetrain: "FWD"},
			}},
			{ID: 102, Name: "XV70", Modifications: []dtos.Modification{
				{ID: 10, Engine: "2.0L", FuelType: "Petrol", Transmission: "Automatic", Drivetrain: "FWD"},
			}},
			{ID: 95, Name: "XV50", Modifications: []dtos.Modification{
				{ID: 4, Name: "2.5 AT"},
			}},
		},
	}
}

func (f *fakeCatalog) record(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.calls[op]
}

func (f *fakeCatalog) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCatalog) Brands(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	f.record("brands")
	if f.failBrands != nil {
		return nil, f.failBrands
	}
	return []dtos.ReferenceEntity{{ID: 7, Name: "Toyota"}, {ID: 8, Name: "Lexus"}}, nil
}

func (f *fakeCatalog) Models(ctx context.Context, brandID int64) ([]dtos.ReferenceEntity, error) {
	f.record("models")
	if brandID != 7 {
		return []dtos.ReferenceEntity{{ID: 80, Name: "RX"}}, nil
	}
	return []dtos.ReferenceEntity{{ID: 42, Name: "Camry"}, {ID: 43, Name: "Corolla"}}, nil
}

func (f *fakeCatalog) Years(ctx context.Context, q dtos.YearsQuery) ([]dtos.ReferenceEntity, error) {
	f.record("years")
	f.mu.Lock()
	f.yearsQueries = append(f.yearsQueries, q)
	f.mu.Unlock()
	return []dtos.ReferenceEntity{{ID: 2018, Name: "2018"}, {ID: 2019, Name: "2019"}}, nil
}

func (f *fakeCatalog) BodyTypes(ctx context.Context, q dtos.BodyTypesQuery) ([]dtos.ReferenceEntity, error) {
	f.record("body_types")
	if q.SteeringSide == nil {
		return nil, errors.New("steering side missing from query")
	}
	return []dtos.ReferenceEntity{{ID: 3, Name: "Sedan"}, {ID: 4, Name: "Wagon"}}, nil
}

func (f *fakeCatalog) Generations(ctx context.Context, q dtos.GenerationsQuery) ([]dtos.Generation, error) {
	n := f.record("generations")
	if n > 1 {
		return f.generations, nil
	}
	if f.generationStarted != nil {
		select {
		case f.generationStarted <- struct{}{}:
		default:
		}
	}
	if f.generationGate != nil {
		select {
		case <-f.generationGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.generations, nil
}

func (f *fakeCatalog) Colors(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	f.record("colors")
	return []dtos.ReferenceEntity{{ID: 5, Name: "White"}, {ID: 6, Name: "Black"}}, nil
}

func (f *fakeCatalog) Cities(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	f.record("cities")
	return []dtos.ReferenceEntity{{ID: 1, Name: "Almaty"}, {ID: 2, Name: "Astana"}}, nil
}

func (f *fakeCatalog) PriceRecommendation(ctx context.Context, q dtos.PriceQuery) (*dtos.PriceRecommendation, error) {
	f.record("price")
	return &dtos.PriceRecommendation{Min: 18000, Max: 23000, Average: 20500, Currency: "USD"}, nil
}

// mockListings only implements Get; the editor never calls anything else.
type mockListings struct {
	getFunc func(ctx context.Context, id int64) (*dtos.PersistedListing, error)
}

func (m *mockListings) Get(ctx context.Context, id int64) (*dtos.PersistedListing, error) {
	return m.getFunc(ctx, id)
}

func (m *mockListings) Create(ctx context.Context, payload dtos.ListingPayload) (*dtos.CreateListingResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *mockListings) Update(ctx context.Context, id int64, payload dtos.ListingPayload) (*dtos.AckResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *mockListings) Delete(ctx context.Context, id int64) error {
	return errors.New("not implemented")
}

func (m *mockListings) Catalog(ctx context.Context, page int) ([]dtos.ListingSummary, error) {
	return nil, errors.New("not implemented")
}

func (m *mockListings) Detail(ctx context.Context, id int64) (*dtos.PersistedListing, error) {
	return nil, errors.New("not implemented")
}

func (m *mockListings) MyListings(ctx context.Context) ([]dtos.ListingSummary, error) {
	return nil, errors.New("not implemented")
}

func (m *mockListings) MyListingsOnSale(ctx context.Context) ([]dtos.ListingSummary, error) {
	return nil, errors.New("not implemented")
}

func (m *mockListings) LikedListings(ctx context.Context) ([]dtos.ListingSummary, error) {
	return nil, errors.New("not implemented")
}

// memoryDrafts is an in-memory DraftStore.
type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{drafts: make(map[string]Draft)}
}

func (m *memoryDrafts) Save(ctx context.Context, d Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.EditorID] = d
	return nil
}

func (m *memoryDrafts) Load(ctx context.Context, id string) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, errors.New("draft not found")
	}
	return &d, nil
}

func (m *memoryDrafts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

func (m *memoryDrafts) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.drafts[id]
	return ok
}

// submitterFunc adapts a function to Submitter.
type submitterFunc func(ctx context.Context, ed *Editor) (*dtos.SubmitResult, error)

func (f submitterFunc) Submit(ctx context.Context, ed *Editor) (*dtos.SubmitResult, error) {
	return f(ctx, ed)
}
