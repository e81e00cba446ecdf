package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"autobazar/listing-editor/internal/models/dtos"

	"github.com/go-resty/resty/v2"
)

// Listings is the listing record API.
type Listings interface {
	Get(ctx context.Context, id int64) (*dtos.PersistedListing, error)
	Create(ctx context.Context, payload dtos.ListingPayload) (*dtos.CreateListingResponse, error)
	Update(ctx context.Context, id int64, payload dtos.ListingPayload) (*dtos.AckResponse, error)
	Delete(ctx context.Context, id int64) error
	Catalog(ctx context.Context, page int) ([]dtos.ListingSummary, error)
	Detail(ctx context.Context, id int64) (*dtos.PersistedListing, error)
	MyListings(ctx context.Context) ([]dtos.ListingSummary, error)
	MyListingsOnSale(ctx context.Context) ([]dtos.ListingSummary, error)
	LikedListings(ctx context.Context) ([]dtos.ListingSummary, error)
}

// ListingProvider implements Listings over the marketplace REST API.
type ListingProvider struct {
	client *MarketplaceClient
}

var _ Listings = (*ListingProvider)(nil)

func NewListingProvider(client *MarketplaceClient) *ListingProvider {
	return &ListingProvider{client: client}
}

// Get fetches the record in the shape used for editing.
func (p *ListingProvider) Get(ctx context.Context, id int64) (*dtos.PersistedListing, error) {
	if id == 0 {
		return nil, invalidInput("listing id is required")
	}
	var out dtos.PersistedListing
	if err := p.client.getJSON(ctx, "listing_get", fmt.Sprintf("/listings/%d/edit", id), nil, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = id
	}
	return &out, nil
}

func (p *ListingProvider) Create(ctx context.Context, payload dtos.ListingPayload) (*dtos.CreateListingResponse, error) {
	body, status, err := p.client.send(ctx, "listing_create", http.MethodPost, "/listings", func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(payload)
	})
	if err != nil {
		return nil, err
	}

	var out dtos.CreateListingResponse
	if err := decodeBody(body, status, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, invalidInput("create listing response carried no id")
	}
	return &out, nil
}

func (p *ListingProvider) Update(ctx context.Context, id int64, payload dtos.ListingPayload) (*dtos.AckResponse, error) {
	if id == 0 {
		return nil, invalidInput("listing id is required")
	}
	body, status, err := p.client.send(ctx, "listing_update", http.MethodPut, fmt.Sprintf("/listings/%d", id), func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(payload)
	})
	if err != nil {
		return nil, err
	}

	// Some deployments answer 204 with no body.
	out := dtos.AckResponse{Success: true}
	if err := decodeBody(body, status, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ListingProvider) Delete(ctx context.Context, id int64) error {
	if id == 0 {
		return invalidInput("listing id is required")
	}
	_, _, err := p.client.send(ctx, "listing_delete", http.MethodDelete, fmt.Sprintf("/listings/%d", id), nil)
	return err
}

func (p *ListingProvider) Catalog(ctx context.Context, page int) ([]dtos.ListingSummary, error) {
	if page < 1 {
		page = 1
	}
	body, status, err := p.client.send(ctx, "listing_catalog", http.MethodGet, "/listings", func(r *resty.Request) {
		r.SetQueryParam("page", strconv.Itoa(page))
	})
	if err != nil {
		return nil, err
	}
	items, _, err := decodeList[dtos.ListingSummary](body, status)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []dtos.ListingSummary{}
	}
	return items, nil
}

func (p *ListingProvider) Detail(ctx context.Context, id int64) (*dtos.PersistedListing, error) {
	if id == 0 {
		return nil, invalidInput("listing id is required")
	}
	var out dtos.PersistedListing
	if err := p.client.getJSON(ctx, "listing_detail", fmt.Sprintf("/listings/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ListingProvider) MyListings(ctx context.Context) ([]dtos.ListingSummary, error) {
	return p.summaries(ctx, "my_listings", "/me/listings", nil)
}

func (p *ListingProvider) MyListingsOnSale(ctx context.Context) ([]dtos.ListingSummary, error) {
	return p.summaries(ctx, "my_listings_on_sale", "/me/listings", map[string]string{"onSale": "true"})
}

func (p *ListingProvider) LikedListings(ctx context.Context) ([]dtos.ListingSummary, error) {
	return p.summaries(ctx, "liked_listings", "/me/liked", nil)
}

func (p *ListingProvider) summaries(ctx context.Context, operation, path string, query map[string]string) ([]dtos.ListingSummary, error) {
	out, err := fetchList[dtos.ListingSummary](ctx, p.client, operation, path, query)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []dtos.ListingSummary{}
	}
	return out, nil
}
