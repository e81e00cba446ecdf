package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"autobazar/listing-editor/internal/cascade"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/generation"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/metrics"
	"autobazar/listing-editor/internal/models/dtos"
	"autobazar/listing-editor/internal/providers"
	"autobazar/listing-editor/internal/reconcile"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEditorClosed     = errors.New("editor is closed")
	ErrNotReady         = errors.New("field is not selectable until its ancestors are set")
	ErrOptionsNotLoaded = errors.New("options for this field are not loaded")
	ErrUnknownOption    = errors.New("value is not one of the field's options")
	ErrSubmitInProgress = errors.New("a submission is already running")
	ErrNotEditMode      = errors.New("operation is only available when editing a listing")
)

// Deps are the collaborators an editor loads data through.
type Deps struct {
	Catalog  providers.Catalog
	Listings providers.Listings
	Metrics  *metrics.MetricsRegistry
}

// Submitter runs the submission pipeline for an editor.
type Submitter interface {
	Submit(ctx context.Context, ed *Editor) (*dtos.SubmitResult, error)
}

// Editor is one create or edit session of a listing. All state changes are
// serialised by mu; network calls run without it and their results are
// applied only while the editor is still the same instance (epoch) and the
// selection still matches the scope they were fetched for.
type Editor struct {
	mu sync.Mutex

	id        string
	mode      constants.EditorMode
	profile   Profile
	listingID int64

	state      *cascade.State
	details    Details
	cityDirty  bool
	colorDirty bool

	newMedia       []dtos.MediaFile
	existingMedia  []string
	pendingRemoval []string

	persisted *dtos.PersistedListing
	refs      dtos.ListingRefs

	lists    map[string]loadedList
	failed   map[string]string
	loadErrs map[string]string

	epoch      uint64
	closed     bool
	submitting bool

	catalog  providers.Catalog
	listings providers.Listings
	metrics  *metrics.MetricsRegistry
	log      *zap.SugaredLogger
}

func newEditor(id string, mode constants.EditorMode, profile Profile, deps Deps) *Editor {
	return &Editor{
		id:       id,
		mode:     mode,
		profile:  profile,
		state:    cascade.NewState(),
		lists:    make(map[string]loadedList),
		failed:   make(map[string]string),
		loadErrs: make(map[string]string),
		catalog:  deps.Catalog,
		listings: deps.Listings,
		metrics:  deps.Metrics,
		log:      logging.WithEditor(id, string(mode)),
	}
}

// OpenCreate starts an empty editor and loads the root lists.
func OpenCreate(ctx context.Context, id string, profile Profile, deps Deps) (*Editor, error) {
	e := newEditor(id, constants.EditorModeCreate, profile, deps)
	e.metrics.EditorOpened()
	if err := e.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.log.Warnw("Initial list load incomplete", "error", err)
	}
	return e, nil
}

// OpenEdit loads the persisted listing and reconciles it level by level as
// the option lists arrive.
func OpenEdit(ctx context.Context, id string, listingID int64, profile Profile, deps Deps) (*Editor, error) {
	if deps.Listings == nil {
		return nil, errors.New("listings client is required in edit mode")
	}
	rec, err := deps.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing %d: %w", listingID, err)
	}

	e := newEditor(id, constants.EditorModeEdit, profile, deps)
	e.listingID = listingID
	e.loadPersisted(rec)
	e.metrics.EditorOpened()

	if err := e.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.log.Warnw("Initial list load incomplete", "error", err)
	}
	return e, nil
}

// Restore rebuilds an editor from an autosaved draft. Lists are loaded on
// the next Refresh.
func Restore(d Draft, deps Deps) (*Editor, error) {
	profile, err := ProfileFor(d.Profile)
	if err != nil {
		return nil, err
	}
	e := newEditor(d.EditorID, d.Mode, profile, deps)
	e.listingID = d.ListingID
	e.state = cascade.Restore(d.Values, d.Dirty)
	e.details = d.Details
	e.cityDirty = d.CityDirty
	e.colorDirty = d.ColorDirty
	e.newMedia = append([]dtos.MediaFile(nil), d.NewMedia...)
	e.existingMedia = append([]string(nil), d.ExistingMedia...)
	e.pendingRemoval = append([]string(nil), d.PendingRemoval...)
	if d.Persisted != nil {
		e.persisted = d.Persisted
		e.refs = d.Persisted.Refs()
	}
	e.metrics.EditorOpened()
	return e, nil
}

func (e *Editor) loadPersisted(rec *dtos.PersistedListing) {
	e.state.Reset()
	e.persisted = rec
	e.refs = rec.Refs()
	e.details = detailsFromPersisted(rec)
	e.cityDirty, e.colorDirty = false, false
	e.existingMedia = rec.MediaURLs()
	e.pendingRemoval = nil
	e.log.Infow("Loaded listing for editing", "listing_id", rec.ID)
}

func (e *Editor) ID() string { return e.id }

func (e *Editor) Mode() constants.EditorMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Refresh loads every list that became available, one cascade level at a
// time. Lists of the same level are fetched concurrently and each result is
// applied as soon as it arrives. In edit mode every arrival re-runs
// reconciliation, which may unlock the next level.
func (e *Editor) Refresh(ctx context.Context) error {
	e.mu.Lock()
	e.failed = make(map[string]string)
	e.mu.Unlock()

	var lastErr error
	for {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return ErrEditorClosed
		}
		epoch := e.epoch
		pending := e.pendingLoads()
		scope := e.currentScope()
		e.mu.Unlock()

		if len(pending) == 0 {
			return lastErr
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, req := range pending {
			req := req
			g.Go(func() error {
				list, err := e.fetch(gctx, req, scope)
				e.applyList(epoch, req, list, err)
				if err != nil {
					mu.Lock()
					lastErr = err
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// applyList stores a fetched list if the editor and its selection are still
// what the fetch was issued for.
func (e *Editor) applyList(epoch uint64, req listRequest, list loadedList, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.epoch != epoch {
		e.log.Debugw("Dropping list for discarded editor", "list", req.name)
		return
	}
	if e.keyFor(req.name) != req.key {
		e.log.Debugw("Dropping list fetched for a previous selection", "list", req.name, "key", req.key)
		return
	}
	if err != nil {
		e.failed[req.name] = req.key
		e.loadErrs[req.name] = providers.UserMessage(err, err.Error())
		e.log.Warnw("Option list failed to load", "list", req.name, "error", err)
		return
	}

	delete(e.loadErrs, req.name)
	e.lists[req.name] = list
	if list.groups != nil {
		for _, c := range list.groups.Collisions() {
			e.log.Warnw("Generation data collision",
				"group", c.GroupName, "generation_ids", c.GenerationIDs, "modification_ids", c.ModificationIDs)
		}
	}

	if e.mode == constants.EditorModeEdit && e.persisted != nil {
		e.reconcileLocked()
	}
}

// reconcileLocked applies every patch the current lists allow. Patches only
// move unset, non-dirty fields to set, so user edits always win.
func (e *Editor) reconcileLocked() {
	extras := reconcile.Extras{
		City:  reconcile.Slot{Value: e.details.CityID, Dirty: e.cityDirty},
		Color: reconcile.Slot{Value: e.details.ColorID, Dirty: e.colorDirty},
	}
	for _, p := range reconcile.Reconcile(e.refs, e.reconcileLists(), e.state, extras) {
		switch p.Field {
		case reconcile.FieldCity:
			e.details.CityID = p.Value
		case reconcile.FieldColor:
			e.details.ColorID = p.Value
		default:
			if !e.state.SetProgrammatic(cascade.Field(p.Field), p.Value) {
				continue
			}
		}
		e.metrics.ReconcilePatch(p.Field, string(p.Method))
		e.log.Debugw("Reconciled field", "field", p.Field, "value", p.Value, "method", p.Method)
	}
}

// SetField applies a user selection. A value of 0 clears the field. When the
// value changed, every descendant is cleared and newly available lists are
// loaded. It returns the cleared descendants.
func (e *Editor) SetField(ctx context.Context, field cascade.Field, value int64) ([]cascade.Field, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEditorClosed
	}
	if !e.state.Ready(field) {
		e.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", field, ErrNotReady)
	}
	if value != 0 {
		opts, err := e.optionsLocked(string(field))
		if err != nil {
			e.mu.Unlock()
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		if !containsOption(opts, value) {
			e.mu.Unlock()
			return nil, fmt.Errorf("%s=%d: %w", field, value, ErrUnknownOption)
		}
	}

	cleared := e.state.SetByUser(field, value)
	e.log.Debugw("Field set by user", "field", field, "value", value, "cleared", cleared)
	e.mu.Unlock()

	if err := e.Refresh(ctx); err != nil && !errors.Is(err, ErrEditorClosed) {
		e.log.Warnw("List load after selection incomplete", "field", field, "error", err)
	}
	return cleared, nil
}

// SetDetails applies a partial update of the non-cascade fields. Setting
// city or color marks it as a user choice.
func (e *Editor) SetDetails(p DetailsPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEditorClosed
	}
	if p.CityID != nil {
		e.cityDirty = true
	}
	if p.ColorID != nil {
		e.colorDirty = true
	}
	if p.VinCode != nil {
		v := strings.ToUpper(strings.TrimSpace(*p.VinCode))
		p.VinCode = &v
	}
	e.details.apply(p)
	return nil
}

// AddMedia queues new files for upload. A video is always uploaded on its
// own, and only one may be queued.
func (e *Editor) AddMedia(files ...dtos.MediaFile) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEditorClosed
	}

	videos := 0
	for _, f := range e.newMedia {
		if f.IsVideo() {
			videos++
		}
	}
	for _, f := range files {
		if len(f.Data) == 0 {
			return fmt.Errorf("%s: empty file", f.Name)
		}
		if !f.IsVideo() && !strings.HasPrefix(f.ContentType, "image/") {
			return fmt.Errorf("%s: unsupported content type %q", f.Name, f.ContentType)
		}
		if f.IsVideo() {
			videos++
		}
	}
	if videos > 1 {
		return errors.New("only one video can be attached")
	}
	e.newMedia = append(e.newMedia, files...)
	return nil
}

// RemoveNewMedia drops a queued file by name.
func (e *Editor) RemoveNewMedia(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, f := range e.newMedia {
		if f.Name == name {
			e.newMedia = append(e.newMedia[:i], e.newMedia[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveExistingMedia marks a stored media URL for deletion on submit.
func (e *Editor) RemoveExistingMedia(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEditorClosed
	}
	if e.mode != constants.EditorModeEdit {
		return ErrNotEditMode
	}
	for i, u := range e.existingMedia {
		if u == url {
			e.existingMedia = append(e.existingMedia[:i], e.existingMedia[i+1:]...)
			e.pendingRemoval = append(e.pendingRemoval, url)
			return nil
		}
	}
	return fmt.Errorf("media %q is not attached to the listing", url)
}

// Options returns the selectable entries of a cascade field, city or color
// for the current selection.
func (e *Editor) Options(name string) ([]Option, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.optionsLocked(name)
}

func (e *Editor) optionsLocked(name string) ([]Option, error) {
	switch name {
	case listCity, listColor:
	default:
		f, err := cascade.ParseField(name)
		if err != nil {
			return nil, err
		}
		if !e.state.Ready(f) {
			return nil, ErrNotReady
		}
	}

	switch cascade.Field(name) {
	case cascade.FieldSteeringSide:
		return entityOptions(steeringOptions), nil
	case cascade.FieldGeneration:
		groups := e.currentGroups()
		if groups == nil {
			return nil, ErrOptionsNotLoaded
		}
		out := make([]Option, 0, groups.Len())
		for _, g := range groups.List() {
			if g.ID == 0 {
				continue
			}
			out = append(out, Option{ID: g.ID, Name: g.DisplayName})
		}
		return out, nil
	case cascade.FieldModification:
		groups := e.currentGroups()
		if groups == nil {
			return nil, ErrOptionsNotLoaded
		}
		gid, _ := e.state.Value(cascade.FieldGeneration)
		mods := groups.Modifications(gid)
		out := make([]Option, 0, len(mods))
		for _, m := range mods {
			shape := m.Shape()
			out = append(out, Option{ID: m.ID, Name: modificationLabel(m.Modification), Shape: &shape})
		}
		return out, nil
	}

	l, ok := e.current(name)
	if !ok {
		return nil, ErrOptionsNotLoaded
	}
	return entityOptions(l.entities), nil
}

func entityOptions(list []dtos.ReferenceEntity) []Option {
	out := make([]Option, 0, len(list))
	for _, r := range list {
		out = append(out, Option{ID: r.ID, Name: r.Name})
	}
	return out
}

func containsOption(opts []Option, id int64) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}

func modificationLabel(m dtos.Modification) string {
	if m.Name != "" {
		return m.Name
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{m.Engine, m.FuelType, m.Transmission, m.Drivetrain} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// View is the read model of an editor.
type View struct {
	EditorID       string                 `json:"editorId"`
	Mode           constants.EditorMode   `json:"mode"`
	Profile        string                 `json:"profile"`
	ListingID      int64                  `json:"listingId,omitempty"`
	Fields         []cascade.FieldState   `json:"fields"`
	Details        Details                `json:"details"`
	NewMedia       []string               `json:"newMedia"`
	ExistingMedia  []string               `json:"existingMedia"`
	PendingRemoval []string               `json:"pendingRemoval"`
	Reconciled     bool                   `json:"reconciled"`
	Collisions     []generation.Collision `json:"collisions,omitempty"`
	ListErrors     map[string]string      `json:"listErrors,omitempty"`
	Submitting     bool                   `json:"submitting"`
}

func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.newMedia))
	for _, f := range e.newMedia {
		names = append(names, f.Name)
	}
	var errs map[string]string
	if len(e.loadErrs) > 0 {
		errs = make(map[string]string, len(e.loadErrs))
		for k, v := range e.loadErrs {
			errs[k] = v
		}
	}

	return View{
		EditorID:       e.id,
		Mode:           e.mode,
		Profile:        e.profile.Name,
		ListingID:      e.listingID,
		Fields:         e.state.View(),
		Details:        e.details,
		NewMedia:       names,
		ExistingMedia:  append([]string{}, e.existingMedia...),
		PendingRemoval: append([]string{}, e.pendingRemoval...),
		Reconciled:     e.mode == constants.EditorModeCreate || reconcile.Done(e.state),
		Collisions:     e.currentGroups().Collisions(),
		ListErrors:     errs,
		Submitting:     e.submitting,
	}
}

// Draft snapshots the editor for autosave.
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Draft{
		EditorID:       e.id,
		Mode:           e.mode,
		Profile:        e.profile.Name,
		ListingID:      e.listingID,
		Values:         e.state.Values(),
		Dirty:          e.state.DirtyFields(),
		Details:        e.details,
		CityDirty:      e.cityDirty,
		ColorDirty:     e.colorDirty,
		NewMedia:       append([]dtos.MediaFile(nil), e.newMedia...),
		ExistingMedia:  append([]string(nil), e.existingMedia...),
		PendingRemoval: append([]string(nil), e.pendingRemoval...),
		Persisted:      e.persisted,
		UpdatedAt:      time.Now().UTC(),
	}
}

// PriceAdvice asks the marketplace for a price range for the current
// selection.
func (e *Editor) PriceAdvice(ctx context.Context) (*dtos.PriceRecommendation, error) {
	e.mu.Lock()
	q := dtos.PriceQuery{Odometer: e.details.Odometer}
	q.BrandID, _ = e.state.Value(cascade.FieldBrand)
	q.ModelID, _ = e.state.Value(cascade.FieldModel)
	q.Year, _ = e.state.Value(cascade.FieldYear)
	q.GenerationID, _ = e.resolvedGenerationLocked()
	e.mu.Unlock()

	return e.catalog.PriceRecommendation(ctx, q)
}

// Submit hands the editor to the submission pipeline. Only one submission
// runs at a time.
func (e *Editor) Submit(ctx context.Context, s Submitter) (*dtos.SubmitResult, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEditorClosed
	}
	if e.submitting {
		e.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	e.submitting = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.mu.Unlock()
	}()
	return s.Submit(ctx, e)
}

// Submission validates the draft and returns what the pipeline sends. It
// makes no network call.
func (e *Editor) Submission() (*Submission, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEditorClosed
	}

	payload, err := e.validateLocked()
	if err != nil {
		return nil, err
	}
	return &Submission{
		EditorID:       e.id,
		Mode:           e.mode,
		ListingID:      e.listingID,
		Payload:        payload,
		NewMedia:       append([]dtos.MediaFile(nil), e.newMedia...),
		PendingRemoval: append([]string(nil), e.pendingRemoval...),
	}, nil
}

// Persisted records that the core listing exists under listingID. A created
// listing switches the editor to edit mode so a retry updates instead of
// creating a duplicate.
func (e *Editor) Persisted(listingID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listingID = listingID
	if e.mode == constants.EditorModeCreate {
		e.mode = constants.EditorModeEdit
		e.log = logging.WithEditor(e.id, string(e.mode))
	}
}

// MediaDone drops media that reached the server from the retry queues.
// Failed items stay so the user can retry them.
func (e *Editor) MediaDone(uploaded []string, removed []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	up := make(map[string]bool, len(uploaded))
	for _, n := range uploaded {
		up[n] = true
	}
	kept := e.newMedia[:0]
	for _, f := range e.newMedia {
		if !up[f.Name] {
			kept = append(kept, f)
		}
	}
	e.newMedia = kept

	rm := make(map[string]bool, len(removed))
	for _, u := range removed {
		rm[u] = true
	}
	pending := e.pendingRemoval[:0]
	for _, u := range e.pendingRemoval {
		if !rm[u] {
			pending = append(pending, u)
		}
	}
	e.pendingRemoval = pending
}

// Close discards the editor. Results of requests still in flight are
// dropped when they arrive.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.epoch++
	e.metrics.EditorClosed()
	e.log.Infow("Editor closed")
}

// Closed reports whether the editor was discarded.
func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// resolvedGenerationLocked maps the selected modification to the concrete
// generation record it came from. The modification must be listed under the
// selected generation group.
func (e *Editor) resolvedGenerationLocked() (int64, bool) {
	mod, ok := e.state.Value(cascade.FieldModification)
	if !ok {
		return 0, false
	}
	groups := e.currentGroups()
	grp, listed := groups.GroupOfModification(mod)
	if gen, _ := e.state.Value(cascade.FieldGeneration); !listed || grp.ID != gen {
		return 0, false
	}
	sel, found := groups.SelectModification(mod)
	if !found || sel.GenerationID == 0 {
		return 0, false
	}
	return sel.GenerationID, true
}
