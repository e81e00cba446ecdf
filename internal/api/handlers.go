package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/editor"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

func (h *Handlers) editorFor(w http.ResponseWriter, r *http.Request, initTime time.Time) (*editor.Editor, bool) {
	ed, err := h.deps.Services.Editors.Get(chi.URLParam(r, "editorID"))
	if err != nil {
		common.RespondError(w, initTime, err, "Editor not found", statusFor(err, http.StatusNotFound))
		return nil, false
	}
	return ed, true
}

// OpenEditor handles POST /api/v1/editors
func (h *Handlers) OpenEditor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		var opts editor.OpenOptions
		if err := decodeBody(r, &opts); err != nil {
			common.RespondError(w, initTime, err, "Invalid request body", http.StatusBadRequest)
			return
		}

		ed, err := h.deps.Services.Editors.Open(r.Context(), opts)
		if err != nil {
			common.RespondError(w, initTime, err, userMessage(err, err.Error()), statusFor(err, http.StatusBadRequest))
			return
		}
		common.RespondSuccess(w, initTime, "Editor opened", ed.View(), http.StatusCreated)
	}
}

// ResumeEditor handles POST /api/v1/editors/{editorID}/resume
func (h *Handlers) ResumeEditor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, err := h.deps.Services.Editors.Resume(r.Context(), chi.URLParam(r, "editorID"))
		if err != nil {
			common.RespondError(w, initTime, err, "No saved draft for this editor", statusFor(err, http.StatusInternalServerError))
			return
		}
		common.RespondSuccess(w, initTime, "Draft restored", ed.View())
	}
}

// GetEditor handles GET /api/v1/editors/{editorID}
func (h *Handlers) GetEditor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		common.RespondSuccess(w, initTime, "Editor fetched", ed.View())
	}
}

// CloseEditor handles DELETE /api/v1/editors/{editorID}?discard=true
func (h *Handlers) CloseEditor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		discard, _ := strconv.ParseBool(r.URL.Query().Get("discard"))
		if err := h.deps.Services.Editors.Close(r.Context(), chi.URLParam(r, "editorID"), discard); err != nil {
			common.RespondError(w, initTime, err, "Failed to close editor", statusFor(err, http.StatusInternalServerError))
			return
		}
		common.RespondSuccess(w, initTime, "Editor closed", nil)
	}
}

// RefreshEditor handles POST /api/v1/editors/{editorID}/refresh
func (h *Handlers) RefreshEditor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		// List failures are part of the view; only a closed editor is an error.
		if err := ed.Refresh(r.Context()); errors.Is(err, editor.ErrEditorClosed) {
			common.RespondError(w, initTime, err, "Editor is closed", http.StatusConflict)
			return
		}
		common.RespondSuccess(w, initTime, "Options refreshed", ed.View())
	}
}

type setFieldReq struct {
	Value int64 `json:"value"`
}

type setFieldResp struct {
	Cleared []cascade.Field `json:"cleared"`
	Editor  editor.View     `json:"editor"`
}

// SetField handles PUT /api/v1/editors/{editorID}/fields/{field}
func (h *Handlers) SetField() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		field, err := fieldParam(r)
		if err != nil {
			common.RespondError(w, initTime, err, "Unknown field", http.StatusBadRequest)
			return
		}
		var req setFieldReq
		if err := decodeBody(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid request body", http.StatusBadRequest)
			return
		}

		cleared, err := ed.SetField(r.Context(), field, req.Value)
		if err != nil {
			common.RespondError(w, initTime, err, err.Error(), statusFor(err, http.StatusBadRequest))
			return
		}
		if cleared == nil {
			cleared = []cascade.Field{}
		}
		common.RespondSuccess(w, initTime, "Field updated", setFieldResp{Cleared: cleared, Editor: ed.View()})
	}
}

// UpdateDetails handles PATCH /api/v1/editors/{editorID}/details
func (h *Handlers) UpdateDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		var patch editor.DetailsPatch
		if err := decodeBody(r, &patch); err != nil {
			common.RespondError(w, initTime, err, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := ed.SetDetails(patch); err != nil {
			common.RespondError(w, initTime, err, err.Error(), statusFor(err, http.StatusBadRequest))
			return
		}
		common.RespondSuccess(w, initTime, "Details updated", ed.View())
	}
}

// AddMedia handles POST /api/v1/editors/{editorID}/media
func (h *Handlers) AddMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		var files []dtos.MediaFile
		if err := decodeBody(r, &files); err != nil {
			common.RespondError(w, initTime, err, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := ed.AddMedia(files...); err != nil {
			common.RespondError(w, initTime, err, err.Error(), statusFor(err, http.StatusUnprocessableEntity))
			return
		}
		common.RespondSuccess(w, initTime, "Media queued", ed.View())
	}
}

// RemoveNewMedia handles DELETE /api/v1/editors/{editorID}/media/{name}
func (h *Handlers) RemoveNewMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		if !ed.RemoveNewMedia(chi.URLParam(r, "name")) {
			common.RespondError(w, initTime, nil, "No queued media with that name", http.StatusNotFound)
			return
		}
		common.RespondSuccess(w, initTime, "Media removed", ed.View())
	}
}

type removeExistingReq struct {
	URL string `json:"url"`
}

// RemoveExistingMedia handles POST /api/v1/editors/{editorID}/media/existing/remove
func (h *Handlers) RemoveExistingMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		var req removeExistingReq
		if err := decodeBody(r, &req); err != nil || req.URL == "" {
			common.RespondError(w, initTime, err, "A media url is required", http.StatusBadRequest)
			return
		}
		if err := ed.RemoveExistingMedia(req.URL); err != nil {
			common.RespondError(w, initTime, err, err.Error(), statusFor(err, http.StatusBadRequest))
			return
		}
		common.RespondSuccess(w, initTime, "Media marked for removal", ed.View())
	}
}

// Options handles GET /api/v1/editors/{editorID}/options/{list}
func (h *Handlers) Options() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		opts, err := ed.Options(chi.URLParam(r, "list"))
		if err != nil {
			common.RespondError(w, initTime, err, err.Error(), statusFor(err, http.StatusBadRequest))
			return
		}
		if opts == nil {
			opts = []editor.Option{}
		}
		common.RespondSuccess(w, initTime, "Options fetched", opts)
	}
}

// Validate handles GET /api/v1/editors/{editorID}/validate
func (h *Handlers) Validate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		payload, err := ed.Payload()
		if err != nil {
			common.RespondError(w, initTime, err, userMessage(err, err.Error()), statusFor(err, http.StatusUnprocessableEntity))
			return
		}
		common.RespondSuccess(w, initTime, "Draft is valid", payload)
	}
}

// PriceAdvice handles GET /api/v1/editors/{editorID}/price-advice
func (h *Handlers) PriceAdvice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ed, ok := h.editorFor(w, r, initTime)
		if !ok {
			return
		}
		advice, err := ed.PriceAdvice(r.Context())
		if err != nil {
			common.RespondError(w, initTime, err, userMessage(err, "Price advice is unavailable"), statusFor(err, http.StatusBadGateway))
			return
		}
		common.RespondSuccess(w, initTime, "Price advice fetched", advice)
	}
}

// Submit handles POST /api/v1/editors/{editorID}/submit
func (h *Handlers) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		res, err := h.deps.Services.Editors.Submit(r.Context(), chi.URLParam(r, "editorID"))
		if err != nil {
			common.RespondError(w, initTime, err, userMessage(err, err.Error()), statusFor(err, http.StatusInternalServerError))
			return
		}
		msg := "Listing saved"
		if len(res.MediaFailures) > 0 {
			msg = "Listing saved, some media failed"
		}
		common.RespondSuccess(w, initTime, msg, res)
	}
}

// Autosave handles POST /api/v1/editors/{editorID}/autosave
func (h *Handlers) Autosave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		if err := h.deps.Services.Editors.Autosave(r.Context(), chi.URLParam(r, "editorID")); err != nil {
			common.RespondError(w, initTime, err, "Failed to save draft", statusFor(err, http.StatusInternalServerError))
			return
		}
		common.RespondSuccess(w, initTime, "Draft saved", nil)
	}
}

// ListDrafts handles GET /api/v1/drafts
func (h *Handlers) ListDrafts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		drafts, err := h.deps.Repo.Drafts.List(r.Context())
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list drafts", http.StatusInternalServerError)
			return
		}
		common.RespondSuccess(w, initTime, "Drafts fetched", drafts)
	}
}

// EditorSubmissions handles GET /api/v1/editors/{editorID}/submissions
func (h *Handlers) EditorSubmissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		logs, err := h.deps.Repo.Submissions.ByEditor(r.Context(), chi.URLParam(r, "editorID"))
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to read submission history", http.StatusInternalServerError)
			return
		}
		common.RespondSuccess(w, initTime, "Submission history fetched", logs)
	}
}

// RecentSubmissions handles GET /api/v1/submissions?limit=
func (h *Handlers) RecentSubmissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		logs, err := h.deps.Repo.Submissions.Recent(r.Context(), limit)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to read submission history", http.StatusInternalServerError)
			return
		}
		common.RespondSuccess(w, initTime, "Submission history fetched", logs)
	}
}
