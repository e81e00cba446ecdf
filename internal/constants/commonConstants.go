package constants

type (
	APIStatus   string
	CachePrefix string
	EditorMode  string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	EditorModeCreate EditorMode = "create"
	EditorModeEdit   EditorMode = "edit"
)

// Query cache key prefixes. Reference lists are shared and long-lived; listing
// prefixes are invalidated after submissions and deletions.
const (
	CachePrefixBrands      CachePrefix = "REF_BRANDS"
	CachePrefixModels      CachePrefix = "REF_MODELS_"
	CachePrefixYears       CachePrefix = "REF_YEARS_"
	CachePrefixBodyTypes   CachePrefix = "REF_BODY_TYPES_"
	CachePrefixGenerations CachePrefix = "REF_GENERATIONS_"
	CachePrefixColors      CachePrefix = "REF_COLORS"
	CachePrefixCities      CachePrefix = "REF_CITIES"
	CachePrefixPriceAdvice CachePrefix = "PRICE_ADVICE_"
	CachePrefixCatalog     CachePrefix = "LISTINGS_CATALOG"
	CachePrefixDetail      CachePrefix = "LISTING_DETAIL_"
	CachePrefixMyListings  CachePrefix = "LISTINGS_MINE"
	CachePrefixMyOnSale    CachePrefix = "LISTINGS_MINE_ON_SALE"
	CachePrefixLiked       CachePrefix = "LISTINGS_LIKED"
)

// CachePrefixes lists every prefix, used to label cache metrics.
var CachePrefixes = []CachePrefix{
	CachePrefixBrands, CachePrefixModels, CachePrefixYears, CachePrefixBodyTypes,
	CachePrefixGenerations, CachePrefixColors, CachePrefixCities, CachePrefixPriceAdvice,
	CachePrefixCatalog, CachePrefixDetail, CachePrefixMyListings, CachePrefixMyOnSale,
	CachePrefixLiked,
}

// Steering side option ids. The remote API models steering as a boolean
// (true = right-hand drive); the editor exposes it as a two-option field.
const (
	SteeringLeftID  int64 = 1
	SteeringRightID int64 = 2
)
