package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/models/dtos"
)

// MyListings handles GET /api/v1/listings/mine
func (h *Handlers) MyListings() http.HandlerFunc {
	return h.summaries("My listings fetched", h.deps.Services.Listings.MyListings)
}

// MyListingsOnSale handles GET /api/v1/listings/mine/on-sale
func (h *Handlers) MyListingsOnSale() http.HandlerFunc {
	return h.summaries("On-sale listings fetched", h.deps.Services.Listings.MyListingsOnSale)
}

// LikedListings handles GET /api/v1/listings/liked
func (h *Handlers) LikedListings() http.HandlerFunc {
	return h.summaries("Liked listings fetched", h.deps.Services.Listings.LikedListings)
}

// CatalogPage handles GET /api/v1/listings?page=
func (h *Handlers) CatalogPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		list, err := h.deps.Services.Listings.CatalogPage(r.Context(), page)
		if err != nil {
			common.RespondError(w, initTime, err, userMessage(err, "Failed to load listings"), statusFor(err, http.StatusBadGateway))
			return
		}
		common.RespondSuccess(w, initTime, "Listings fetched", list)
	}
}

// ListingDetail handles GET /api/v1/listings/{listingID}
func (h *Handlers) ListingDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id, err := listingIDParam(r)
		if err != nil {
			common.RespondError(w, initTime, err, err.Error(), http.StatusBadRequest)
			return
		}
		listing, err := h.deps.Services.Listings.Detail(r.Context(), id)
		if err != nil {
			common.RespondError(w, initTime, err, userMessage(err, "Failed to load listing"), statusFor(err, http.StatusBadGateway))
			return
		}
		common.RespondSuccess(w, initTime, "Listing fetched", listing)
	}
}

// DeleteListing handles DELETE /api/v1/listings/{listingID}
func (h *Handlers) DeleteListing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id, err := listingIDParam(r)
		if err != nil {
			common.RespondError(w, initTime, err, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.deps.Services.Listings.DeleteListing(r.Context(), id); err != nil {
			common.RespondError(w, initTime, err, userMessage(err, "Could not delete the listing"), statusFor(err, http.StatusBadGateway))
			return
		}
		common.RespondSuccess(w, initTime, "Listing deleted", nil)
	}
}

// Notifications handles GET /api/v1/notifications and drains the queue.
func (h *Handlers) Notifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		common.RespondSuccess(w, initTime, "Notifications fetched", h.deps.Services.Notifier.Drain())
	}
}

func (h *Handlers) summaries(message string, load func(ctx context.Context) ([]dtos.ListingSummary, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		list, err := load(r.Context())
		if err != nil {
			common.RespondError(w, initTime, err, userMessage(err, "Failed to load listings"), statusFor(err, http.StatusBadGateway))
			return
		}
		common.RespondSuccess(w, initTime, message, list)
	}
}
