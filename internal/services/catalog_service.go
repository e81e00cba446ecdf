package services

import (
	"context"
	"time"

	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/metrics"
	"autobazar/listing-editor/internal/models/dtos"
	"autobazar/listing-editor/internal/providers"

	"golang.org/x/sync/errgroup"
)

// CatalogService serves the reference catalog through the query cache.
// Reference lists change rarely and are kept for the reference TTL; price
// advice follows the shorter listing TTL.
type CatalogService struct {
	catalog   providers.Catalog
	cache     *common.QueryCache
	refTTL    time.Duration
	adviceTTL time.Duration
	metrics   *metrics.MetricsRegistry
}

var _ providers.Catalog = (*CatalogService)(nil)

func NewCatalogService(catalog providers.Catalog, cache *common.QueryCache, refTTL, adviceTTL time.Duration, m *metrics.MetricsRegistry) *CatalogService {
	return &CatalogService{
		catalog:   catalog,
		cache:     cache,
		refTTL:    refTTL,
		adviceTTL: adviceTTL,
		metrics:   m,
	}
}

func (s *CatalogService) Brands(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	return common.Fetch(ctx, s.cache, common.BrandsKey(), s.refTTL, s.catalog.Brands)
}

func (s *CatalogService) Models(ctx context.Context, brandID int64) ([]dtos.ReferenceEntity, error) {
	return common.Fetch(ctx, s.cache, common.ModelsKey(brandID), s.refTTL, func(ctx context.Context) ([]dtos.ReferenceEntity, error) {
		return s.catalog.Models(ctx, brandID)
	})
}

func (s *CatalogService) Years(ctx context.Context, q dtos.YearsQuery) ([]dtos.ReferenceEntity, error) {
	return common.Fetch(ctx, s.cache, common.YearsKey(q), s.refTTL, func(ctx context.Context) ([]dtos.ReferenceEntity, error) {
		return s.catalog.Years(ctx, q)
	})
}

func (s *CatalogService) BodyTypes(ctx context.Context, q dtos.BodyTypesQuery) ([]dtos.ReferenceEntity, error) {
	return common.Fetch(ctx, s.cache, common.BodyTypesKey(q), s.refTTL, func(ctx context.Context) ([]dtos.ReferenceEntity, error) {
		return s.catalog.BodyTypes(ctx, q)
	})
}

func (s *CatalogService) Generations(ctx context.Context, q dtos.GenerationsQuery) ([]dtos.Generation, error) {
	return common.Fetch(ctx, s.cache, common.GenerationsKey(q), s.refTTL, func(ctx context.Context) ([]dtos.Generation, error) {
		return s.catalog.Generations(ctx, q)
	})
}

func (s *CatalogService) Colors(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	return common.Fetch(ctx, s.cache, common.ColorsKey(), s.refTTL, s.catalog.Colors)
}

func (s *CatalogService) Cities(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	return common.Fetch(ctx, s.cache, common.CitiesKey(), s.refTTL, s.catalog.Cities)
}

func (s *CatalogService) PriceRecommendation(ctx context.Context, q dtos.PriceQuery) (*dtos.PriceRecommendation, error) {
	return common.Fetch(ctx, s.cache, common.PriceAdviceKey(q), s.adviceTTL, func(ctx context.Context) (*dtos.PriceRecommendation, error) {
		return s.catalog.PriceRecommendation(ctx, q)
	})
}

// Warm loads the scope-free reference lists (brands, colors, cities) in
// parallel so the first editor opens without waiting on them.
func (s *CatalogService) Warm(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.Brands(gctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Colors(gctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Cities(gctx)
		return err
	})
	err := g.Wait()

	s.metrics.ObserveWarmup(time.Since(start))
	if err != nil {
		logging.Warn("Reference warm-up failed", "error", err, "took", time.Since(start))
		return err
	}
	logging.Debug("Reference lists warmed", "took", time.Since(start))
	return nil
}

// RefreshReferences drops the cached scope-free lists and loads them again.
func (s *CatalogService) RefreshReferences(ctx context.Context) error {
	s.cache.Invalidate(common.BrandsKey(), common.ColorsKey(), common.CitiesKey())
	return s.Warm(ctx)
}
