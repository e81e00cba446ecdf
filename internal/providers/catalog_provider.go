package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/go-resty/resty/v2"
)

// maxPages bounds pagination so a misbehaving server cannot loop us forever.
const maxPages = 50

// Catalog is the read-only reference catalog.
type Catalog interface {
	Brands(ctx context.Context) ([]dtos.ReferenceEntity, error)
	Models(ctx context.Context, brandID int64) ([]dtos.ReferenceEntity, error)
	Years(ctx context.Context, q dtos.YearsQuery) ([]dtos.ReferenceEntity, error)
	BodyTypes(ctx context.Context, q dtos.BodyTypesQuery) ([]dtos.ReferenceEntity, error)
	Generations(ctx context.Context, q dtos.GenerationsQuery) ([]dtos.Generation, error)
	Colors(ctx context.Context) ([]dtos.ReferenceEntity, error)
	Cities(ctx context.Context) ([]dtos.ReferenceEntity, error)
	PriceRecommendation(ctx context.Context, q dtos.PriceQuery) (*dtos.PriceRecommendation, error)
}

// CatalogProvider implements Catalog over the marketplace REST API.
type CatalogProvider struct {
	client *MarketplaceClient
}

var _ Catalog = (*CatalogProvider)(nil)

func NewCatalogProvider(client *MarketplaceClient) *CatalogProvider {
	return &CatalogProvider{client: client}
}

func (p *CatalogProvider) Brands(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	return fetchList[dtos.ReferenceEntity](ctx, p.client, "brands", "/catalog/brands", nil)
}

func (p *CatalogProvider) Models(ctx context.Context, brandID int64) ([]dtos.ReferenceEntity, error) {
	if brandID == 0 {
		return nil, invalidInput("brand id is required")
	}
	path := fmt.Sprintf("/catalog/brands/%d/models", brandID)
	return fetchList[dtos.ReferenceEntity](ctx, p.client, "models", path, nil)
}

// Years accepts both bare integers and {id,name} objects from the server.
func (p *CatalogProvider) Years(ctx context.Context, q dtos.YearsQuery) ([]dtos.ReferenceEntity, error) {
	if q.BrandID == 0 || q.ModelID == 0 {
		return nil, invalidInput("brand and model are required")
	}
	params := map[string]string{
		"brandId": idParam(q.BrandID),
		"modelId": idParam(q.ModelID),
	}
	steeringParam(params, q.SteeringSide)

	raw, err := fetchList[json.RawMessage](ctx, p.client, "years", "/catalog/years", params)
	if err != nil {
		return nil, err
	}

	out := make([]dtos.ReferenceEntity, 0, len(raw))
	for _, item := range raw {
		if y, ok := yearEntity(item); ok {
			out = append(out, y)
		}
	}
	return out, nil
}

func (p *CatalogProvider) BodyTypes(ctx context.Context, q dtos.BodyTypesQuery) ([]dtos.ReferenceEntity, error) {
	if q.BrandID == 0 || q.ModelID == 0 || q.Year == 0 {
		return nil, invalidInput("brand, model and year are required")
	}
	params := map[string]string{
		"brandId": idParam(q.BrandID),
		"modelId": idParam(q.ModelID),
		"year":    idParam(q.Year),
	}
	steeringParam(params, q.SteeringSide)
	return fetchList[dtos.ReferenceEntity](ctx, p.client, "body_types", "/catalog/body-types", params)
}

func (p *CatalogProvider) Generations(ctx context.Context, q dtos.GenerationsQuery) ([]dtos.Generation, error) {
	if q.BrandID == 0 || q.ModelID == 0 || q.Year == 0 || q.BodyTypeID == 0 {
		return nil, invalidInput("brand, model, year and body type are required")
	}
	params := map[string]string{
		"brandId":    idParam(q.BrandID),
		"modelId":    idParam(q.ModelID),
		"year":       idParam(q.Year),
		"bodyTypeId": idParam(q.BodyTypeID),
	}
	steeringParam(params, q.SteeringSide)
	return fetchList[dtos.Generation](ctx, p.client, "generations", "/catalog/generations", params)
}

func (p *CatalogProvider) Colors(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	return fetchList[dtos.ReferenceEntity](ctx, p.client, "colors", "/catalog/colors", nil)
}

func (p *CatalogProvider) Cities(ctx context.Context) ([]dtos.ReferenceEntity, error) {
	return fetchList[dtos.ReferenceEntity](ctx, p.client, "cities", "/catalog/cities", nil)
}

func (p *CatalogProvider) PriceRecommendation(ctx context.Context, q dtos.PriceQuery) (*dtos.PriceRecommendation, error) {
	if q.BrandID == 0 || q.ModelID == 0 || q.Year == 0 {
		return nil, invalidInput("brand, model and year are required")
	}
	params := map[string]string{
		"brandId":  idParam(q.BrandID),
		"modelId":  idParam(q.ModelID),
		"year":     idParam(q.Year),
		"odometer": idParam(q.Odometer),
	}
	if q.GenerationID != 0 {
		params["generationId"] = idParam(q.GenerationID)
	}

	var out dtos.PriceRecommendation
	if err := p.client.getJSON(ctx, "price_recommendation", "/catalog/price-recommendation", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// fetchList decodes a flat JSON array, or walks every page of a paginated
// envelope ({items|results, page, totalPages}).
func fetchList[T any](ctx context.Context, c *MarketplaceClient, operation, path string, params map[string]string) ([]T, error) {
	var all []T
	page := 1

	for {
		query := make(map[string]string, len(params)+1)
		for k, v := range params {
			query[k] = v
		}
		if page > 1 {
			query["page"] = strconv.Itoa(page)
		}

		body, status, err := c.send(ctx, operation, http.MethodGet, path, func(r *resty.Request) {
			r.SetQueryParams(query)
		})
		if err != nil {
			return nil, err
		}

		items, env, err := decodeList[T](body, status)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if env == nil {
			return all, nil
		}

		current := env.Page
		if current == 0 {
			current = page
		}
		if env.TotalPages <= current || page >= maxPages {
			return all, nil
		}
		page = current + 1
	}
}

// decodeList accepts a flat array or a paginated envelope. env is nil for
// flat arrays and empty bodies.
func decodeList[T any](body []byte, status int) ([]T, *dtos.ListEnvelope[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil, nil
	}
	if trimmed[0] == '[' {
		var flat []T
		if err := decodeBody(trimmed, status, &flat); err != nil {
			return nil, nil, err
		}
		return flat, nil, nil
	}

	var env dtos.ListEnvelope[T]
	if err := decodeBody(trimmed, status, &env); err != nil {
		return nil, nil, err
	}
	return env.Entries(), &env, nil
}

func yearEntity(raw json.RawMessage) (dtos.ReferenceEntity, bool) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return dtos.ReferenceEntity{ID: n, Name: strconv.FormatInt(n, 10)}, true
	}

	var obj struct {
		ID   int64  `json:"id"`
		Year int64  `json:"year"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return dtos.ReferenceEntity{}, false
	}
	y := obj.Year
	if y == 0 {
		y = obj.ID
	}
	if y == 0 {
		return dtos.ReferenceEntity{}, false
	}
	return dtos.ReferenceEntity{ID: y, Name: strconv.FormatInt(y, 10)}, true
}

func idParam(id int64) string {
	return strconv.FormatInt(id, 10)
}

func steeringParam(params map[string]string, right *bool) {
	if right != nil {
		params["steeringSide"] = strconv.FormatBool(*right)
	}
}

func invalidInput(msg string) error {
	return &ProviderError{
		Code:    constants.ErrCodeInvalidDataFormat,
		Message: msg,
	}
}
