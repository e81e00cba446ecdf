package services

import (
	"context"
	"fmt"
	"time"

	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/models/dtos"
	"autobazar/listing-editor/internal/mutation"
	"autobazar/listing-editor/internal/providers"
)

// ListingService serves the listing lists through the query cache and owns
// the optimistic listing mutations.
type ListingService struct {
	listings  providers.Listings
	cache     *common.QueryCache
	mutations *mutation.Controller
	notifier  common.Notifier
	ttl       time.Duration
}

func NewListingService(listings providers.Listings, cache *common.QueryCache, mutations *mutation.Controller, notifier common.Notifier, ttl time.Duration) *ListingService {
	return &ListingService{
		listings:  listings,
		cache:     cache,
		mutations: mutations,
		notifier:  notifier,
		ttl:       ttl,
	}
}

func (s *ListingService) MyListings(ctx context.Context) ([]dtos.ListingSummary, error) {
	return common.Fetch(ctx, s.cache, common.MyListingsKey(), s.ttl, s.listings.MyListings)
}

func (s *ListingService) MyListingsOnSale(ctx context.Context) ([]dtos.ListingSummary, error) {
	return common.Fetch(ctx, s.cache, common.MyOnSaleKey(), s.ttl, s.listings.MyListingsOnSale)
}

func (s *ListingService) LikedListings(ctx context.Context) ([]dtos.ListingSummary, error) {
	return common.Fetch(ctx, s.cache, common.LikedListingsKey(), s.ttl, s.listings.LikedListings)
}

func (s *ListingService) CatalogPage(ctx context.Context, page int) ([]dtos.ListingSummary, error) {
	if page < 1 {
		page = 1
	}
	return common.Fetch(ctx, s.cache, common.CatalogKey(page), s.ttl, func(ctx context.Context) ([]dtos.ListingSummary, error) {
		return s.listings.Catalog(ctx, page)
	})
}

func (s *ListingService) Detail(ctx context.Context, id int64) (*dtos.PersistedListing, error) {
	return common.Fetch(ctx, s.cache, common.DetailKey(id), s.ttl, func(ctx context.Context) (*dtos.PersistedListing, error) {
		return s.listings.Detail(ctx, id)
	})
}

// DeleteListing removes the listing from every cached list it appears in
// before the server confirms, and puts the lists back if it refuses.
func (s *ListingService) DeleteListing(ctx context.Context, id int64) error {
	without := func(in []dtos.ListingSummary) []dtos.ListingSummary {
		out := make([]dtos.ListingSummary, 0, len(in))
		for _, l := range in {
			if l.ID != id {
				out = append(out, l)
			}
		}
		return out
	}
	keys := []string{common.MyListingsKey(), common.MyOnSaleKey(), common.LikedListingsKey()}

	err := s.mutations.Mutate(ctx, mutation.Mutation{
		Name: "delete_listing",
		Keys: keys,
		Patch: func(q *common.QueryCache) error {
			for _, k := range keys {
				if err := common.Update(q, k, without); err != nil {
					return err
				}
			}
			return nil
		},
		Remote: func(ctx context.Context) error {
			return s.listings.Delete(ctx, id)
		},
		ErrorMessage: constants.MsgListingDeleteFailed,
	})
	if err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}

	s.cache.Invalidate(common.DetailKey(id), string(constants.CachePrefixCatalog))
	if s.notifier != nil {
		s.notifier.Notify(dtos.Notification{Level: common.LevelInfo, Message: constants.MsgListingDeleted})
	}
	logging.Info("Listing deleted", "listing_id", id)
	return nil
}
