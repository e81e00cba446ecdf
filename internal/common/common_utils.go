package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/models/dtos"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// ParseID parses a positive numeric path or query id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// Query cache keys. Scoped keys append their ancestor ids to the prefix so a
// whole family can be dropped with one prefix invalidation.

func BrandsKey() string { return string(constants.CachePrefixBrands) }
func ColorsKey() string { return string(constants.CachePrefixColors) }
func CitiesKey() string { return string(constants.CachePrefixCities) }

func ModelsKey(brandID int64) string {
	return scopedKey(constants.CachePrefixModels, brandID)
}

func YearsKey(q dtos.YearsQuery) string {
	return scopedKey(constants.CachePrefixYears, q.BrandID, q.ModelID) + ":" + steeringScope(q.SteeringSide)
}

func BodyTypesKey(q dtos.BodyTypesQuery) string {
	return scopedKey(constants.CachePrefixBodyTypes, q.BrandID, q.ModelID, q.Year) + ":" + steeringScope(q.SteeringSide)
}

func GenerationsKey(q dtos.GenerationsQuery) string {
	return scopedKey(constants.CachePrefixGenerations, q.BrandID, q.ModelID, q.Year, q.BodyTypeID) + ":" + steeringScope(q.SteeringSide)
}

func PriceAdviceKey(q dtos.PriceQuery) string {
	return scopedKey(constants.CachePrefixPriceAdvice, q.BrandID, q.ModelID, q.Year, q.Odometer, q.GenerationID)
}

func CatalogKey(page int) string {
	return scopedKey(constants.CachePrefixCatalog, int64(page))
}

func DetailKey(listingID int64) string {
	return scopedKey(constants.CachePrefixDetail, listingID)
}

func MyListingsKey() string    { return string(constants.CachePrefixMyListings) }
func MyOnSaleKey() string      { return string(constants.CachePrefixMyOnSale) }
func LikedListingsKey() string { return string(constants.CachePrefixLiked) }

func scopedKey(prefix constants.CachePrefix, ids ...int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return string(prefix) + strings.Join(parts, ":")
}

func steeringScope(right *bool) string {
	switch {
	case right == nil:
		return "any"
	case *right:
		return "R"
	default:
		return "L"
	}
}
