package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/google/uuid"
)

var ErrEditorNotFound = errors.New("editor not found")

// DraftStore persists drafts between agent restarts and failed submissions.
type DraftStore interface {
	Save(ctx context.Context, d Draft) error
	Load(ctx context.Context, editorID string) (*Draft, error)
	Delete(ctx context.Context, editorID string) error
}

// OpenOptions selects what an editor is opened for. An ID that is already
// mounted replaces (remounts) that editor.
type OpenOptions struct {
	ID        string               `json:"id,omitempty"`
	Mode      constants.EditorMode `json:"mode"`
	ListingID int64                `json:"listingId,omitempty"`
	Profile   string               `json:"profile,omitempty"`
}

// Manager keeps the mounted editors.
type Manager struct {
	mu      sync.Mutex
	editors map[string]*Editor

	deps      Deps
	drafts    DraftStore
	submitter Submitter
}

func NewManager(deps Deps, drafts DraftStore, submitter Submitter) *Manager {
	return &Manager{
		editors:   make(map[string]*Editor),
		deps:      deps,
		drafts:    drafts,
		submitter: submitter,
	}
}

// SetSubmitter wires the submission pipeline after construction.
func (m *Manager) SetSubmitter(s Submitter) {
	m.mu.Lock()
	m.submitter = s
	m.mu.Unlock()
}

// Open mounts a new editor. Remounting an id discards the previous instance
// first, so its in-flight loads can no longer write into the new one.
func (m *Manager) Open(ctx context.Context, opts OpenOptions) (*Editor, error) {
	profile, err := ProfileFor(opts.Profile)
	if err != nil {
		return nil, err
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	m.discard(id)

	var ed *Editor
	switch opts.Mode {
	case constants.EditorModeCreate, "":
		ed, err = OpenCreate(ctx, id, profile, m.deps)
	case constants.EditorModeEdit:
		if opts.ListingID == 0 {
			return nil, errors.New("listing id is required in edit mode")
		}
		ed, err = OpenEdit(ctx, id, opts.ListingID, profile, m.deps)
	default:
		return nil, fmt.Errorf("unknown editor mode %q", opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	m.mount(ed)
	logging.Info("Editor opened", "editor_id", id, "mode", opts.Mode, "listing_id", opts.ListingID, "profile", profile.Name)
	return ed, nil
}

// Resume mounts an editor from its autosaved draft and reloads its lists.
func (m *Manager) Resume(ctx context.Context, id string) (*Editor, error) {
	if m.drafts == nil {
		return nil, ErrEditorNotFound
	}
	d, err := m.drafts.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading draft %s: %w", id, err)
	}
	ed, err := Restore(*d, m.deps)
	if err != nil {
		return nil, err
	}

	m.discard(id)
	m.mount(ed)
	if err := ed.Refresh(ctx); err != nil {
		logging.Warn("Resumed editor lists incomplete", "editor_id", id, "error", err)
	}
	return ed, nil
}

// Get returns a mounted editor.
func (m *Manager) Get(id string) (*Editor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ed, ok := m.editors[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrEditorNotFound)
	}
	return ed, nil
}

// Autosave persists the current draft of an editor.
func (m *Manager) Autosave(ctx context.Context, id string) error {
	if m.drafts == nil {
		return nil
	}
	ed, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := m.drafts.Save(ctx, ed.Draft()); err != nil {
		return fmt.Errorf("autosave %s: %w", id, err)
	}
	return nil
}

// Submit runs the pipeline for a mounted editor. The draft is saved before
// the run and dropped only after a fully successful one, so any failure
// leaves it available for a retry.
func (m *Manager) Submit(ctx context.Context, id string) (*dtos.SubmitResult, error) {
	ed, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	s := m.submitter
	m.mu.Unlock()
	if s == nil {
		return nil, errors.New("no submission pipeline configured")
	}

	if err := m.Autosave(ctx, id); err != nil {
		logging.Warn("Draft autosave before submit failed", "editor_id", id, "error", err)
	}

	res, err := ed.Submit(ctx, s)
	if err != nil {
		if saveErr := m.Autosave(ctx, id); saveErr != nil {
			logging.Warn("Draft autosave after failed submit failed", "editor_id", id, "error", saveErr)
		}
		return res, err
	}

	if !m.mounted(id, ed) {
		logging.Info("Editor remounted during submit, keeping its draft", "editor_id", id)
		return res, nil
	}
	if len(res.MediaFailures) == 0 && m.drafts != nil {
		if err := m.drafts.Delete(ctx, id); err != nil {
			logging.Warn("Failed to drop submitted draft", "editor_id", id, "error", err)
		}
	} else if err := m.Autosave(ctx, id); err != nil {
		logging.Warn("Draft autosave after partial submit failed", "editor_id", id, "error", err)
	}
	return res, nil
}

// mounted reports whether id still refers to ed.
func (m *Manager) mounted(id string, ed *Editor) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editors[id] == ed
}

// Close discards an editor. With discardDraft the autosaved draft goes too.
func (m *Manager) Close(ctx context.Context, id string, discardDraft bool) error {
	if !m.discard(id) {
		return fmt.Errorf("%s: %w", id, ErrEditorNotFound)
	}
	if discardDraft && m.drafts != nil {
		if err := m.drafts.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting draft %s: %w", id, err)
		}
	}
	return nil
}

// Count is the number of mounted editors.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.editors)
}

// AutosaveAll saves every mounted editor and returns how many were saved.
func (m *Manager) AutosaveAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.editors))
	for id := range m.editors {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	saved := 0
	var errs []error
	for _, id := range ids {
		if err := m.Autosave(ctx, id); err != nil {
			if errors.Is(err, ErrEditorNotFound) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// CloseAll discards every editor (shutdown).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	eds := make([]*Editor, 0, len(m.editors))
	for id, ed := range m.editors {
		eds = append(eds, ed)
		delete(m.editors, id)
	}
	m.mu.Unlock()
	for _, ed := range eds {
		ed.Close()
	}
}

func (m *Manager) mount(ed *Editor) {
	m.mu.Lock()
	prev := m.editors[ed.ID()]
	m.editors[ed.ID()] = ed
	m.mu.Unlock()
	if prev != nil && prev != ed {
		prev.Close()
	}
}

func (m *Manager) discard(id string) bool {
	m.mu.Lock()
	ed, ok := m.editors[id]
	delete(m.editors, id)
	m.mu.Unlock()
	if ok {
		ed.Close()
	}
	return ok
}
