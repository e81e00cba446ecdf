package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/editor"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/metrics"
	"autobazar/listing-editor/internal/models/dtos"
	"autobazar/listing-editor/internal/models/entities"
	"autobazar/listing-editor/internal/providers"
)

// Pipeline stages, in execution order.
const (
	StageValidate   = "validate"
	StagePersist    = "persist"
	StageUpload     = "upload"
	StageDelete     = "delete"
	StageInvalidate = "invalidate"
)

// Audit log outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// StageError tells which pipeline stage stopped a submission. Fatal stages
// abort the run; non-fatal failures are reported in SubmitResult instead.
type StageError struct {
	Stage string
	Fatal bool
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Details passes field-level validation messages through to the client.
func (e *StageError) Details() any {
	var ve *editor.ValidationError
	if errors.As(e.Err, &ve) {
		return ve.Fields
	}
	return nil
}

// ImageCompressor prepares a media file for upload.
type ImageCompressor interface {
	Compress(f dtos.MediaFile) (dtos.MediaFile, error)
}

// SubmissionAudit records one row per pipeline run.
type SubmissionAudit interface {
	Record(ctx context.Context, entry entities.SubmissionLog) error
}

// SubmissionService runs the submission pipeline:
// validate, persist, upload new media, delete removed media, invalidate.
type SubmissionService struct {
	listings   providers.Listings
	media      providers.Media
	compressor ImageCompressor
	cache      *common.QueryCache
	notifier   common.Notifier
	audit      SubmissionAudit
	metrics    *metrics.MetricsRegistry
}

var _ editor.Submitter = (*SubmissionService)(nil)

func NewSubmissionService(
	listings providers.Listings,
	media providers.Media,
	compressor ImageCompressor,
	cache *common.QueryCache,
	notifier common.Notifier,
	audit SubmissionAudit,
	m *metrics.MetricsRegistry,
) *SubmissionService {
	return &SubmissionService{
		listings:   listings,
		media:      media,
		compressor: compressor,
		cache:      cache,
		notifier:   notifier,
		audit:      audit,
		metrics:    m,
	}
}

// Submit runs every stage in order. Validation and persistence failures are
// fatal and leave the draft untouched for a retry. Media failures are
// collected per item, each one notified once, and do not undo the listing.
func (s *SubmissionService) Submit(ctx context.Context, ed *editor.Editor) (*dtos.SubmitResult, error) {
	start := time.Now()
	entry := entities.SubmissionLog{EditorID: ed.ID(), CreatedAt: start.UTC()}

	// STEP 1: Validate locally
	sub, err := ed.Submission()
	if err != nil {
		s.metrics.PipelineStage(StageValidate, OutcomeFailed)
		entry.Mode = string(ed.Mode())
		if editor.IsValidationError(err) {
			s.notify(common.LevelWarning, constants.MsgValidationFailed, "")
		}
		return nil, s.fail(ctx, entry, StageValidate, err)
	}
	s.metrics.PipelineStage(StageValidate, OutcomeSuccess)
	entry.Mode = string(sub.Mode)
	entry.ListingID = sub.ListingID

	log := logging.WithEditor(sub.EditorID, string(sub.Mode))

	// STEP 2: Persist the core record
	listingID, created, err := s.persist(ctx, sub)
	if err != nil {
		s.metrics.PipelineStage(StagePersist, OutcomeFailed)
		s.notify(common.LevelError, providers.UserMessage(err, constants.MsgListingSaveFailed), "")
		log.Errorw("Listing persistence failed", "listing_id", sub.ListingID, "error", err)
		return nil, s.fail(ctx, entry, StagePersist, err)
	}
	s.metrics.PipelineStage(StagePersist, OutcomeSuccess)
	entry.ListingID = listingID
	ed.Persisted(listingID)
	log.Infow("Listing persisted", "listing_id", listingID, "created", created)

	result := &dtos.SubmitResult{ListingID: listingID, Created: created, Success: true}

	// STEP 3: Upload new media, one item at a time
	uploaded := s.upload(ctx, listingID, sub.NewMedia, result)

	// STEP 4: Delete media the user removed (edit mode only)
	var removed []string
	if sub.Mode == constants.EditorModeEdit {
		removed = s.deleteRemoved(ctx, listingID, sub.PendingRemoval, result)
	}
	ed.MediaDone(uploaded, removed)

	// STEP 5: Invalidate every list the listing can appear in, then navigate
	s.cache.Invalidate(
		string(constants.CachePrefixCatalog),
		common.DetailKey(listingID),
		common.MyListingsKey(),
		common.MyOnSaleKey(),
		common.LikedListingsKey(),
	)
	s.metrics.PipelineStage(StageInvalidate, OutcomeSuccess)
	result.NavigateTo = fmt.Sprintf("/listings/%d", listingID)

	msg := constants.MsgListingUpdated
	if created {
		msg = constants.MsgListingCreated
	}
	s.notify(common.LevelInfo, msg, "")

	entry.Outcome = OutcomeSuccess
	if len(result.MediaFailures) > 0 {
		entry.Outcome = OutcomePartial
		entry.MediaFailures = len(result.MediaFailures)
		entry.FailedStage = result.MediaFailures[0].Stage
	}
	s.record(ctx, entry)

	log.Infow("Submission finished",
		"listing_id", listingID, "media_failures", len(result.MediaFailures), "took", time.Since(start))
	return result, nil
}

func (s *SubmissionService) persist(ctx context.Context, sub *editor.Submission) (int64, bool, error) {
	if sub.Mode == constants.EditorModeCreate || sub.ListingID == 0 {
		resp, err := s.listings.Create(ctx, sub.Payload)
		if err != nil {
			return 0, false, err
		}
		if resp.ID == 0 {
			return 0, false, &providers.ProviderError{
				Code:    constants.ErrCodeInvalidDataFormat,
				Message: "create response carried no listing id",
			}
		}
		return resp.ID, true, nil
	}

	ack, err := s.listings.Update(ctx, sub.ListingID, sub.Payload)
	if err != nil {
		return 0, false, err
	}
	if ack != nil && !ack.Success && ack.Message != "" {
		return 0, false, &providers.ProviderError{
			Code:          constants.ErrCodeRejected,
			Message:       constants.GetErrorMessage(constants.ErrCodeRejected),
			ServerMessage: ack.Message,
		}
	}
	return sub.ListingID, false, nil
}

func (s *SubmissionService) upload(ctx context.Context, listingID int64, files []dtos.MediaFile, result *dtos.SubmitResult) []string {
	uploaded := make([]string, 0, len(files))
	for _, f := range files {
		prepared := f
		if s.compressor != nil {
			var err error
			prepared, err = s.compressor.Compress(f)
			if err != nil {
				s.mediaFailure(result, StageUpload, f.Name, err, constants.MsgMediaUploadFailed)
				continue
			}
		}
		if _, err := s.media.Upload(ctx, listingID, []dtos.MediaFile{prepared}); err != nil {
			s.mediaFailure(result, StageUpload, f.Name, err, constants.MsgMediaUploadFailed)
			continue
		}
		s.metrics.PipelineStage(StageUpload, OutcomeSuccess)
		uploaded = append(uploaded, f.Name)
	}
	return uploaded
}

func (s *SubmissionService) deleteRemoved(ctx context.Context, listingID int64, urls []string, result *dtos.SubmitResult) []string {
	removed := make([]string, 0, len(urls))
	for _, u := range urls {
		if err := s.media.Delete(ctx, listingID, providers.NormalizeMediaPath(u)); err != nil {
			s.mediaFailure(result, StageDelete, u, err, constants.MsgMediaDeleteFailed)
			continue
		}
		s.metrics.PipelineStage(StageDelete, OutcomeSuccess)
		removed = append(removed, u)
	}
	return removed
}

func (s *SubmissionService) mediaFailure(result *dtos.SubmitResult, stage, item string, err error, msg string) {
	s.metrics.PipelineStage(stage, OutcomeFailed)
	detail := providers.UserMessage(err, err.Error())
	result.MediaFailures = append(result.MediaFailures, dtos.MediaFailure{Stage: stage, Item: item, Error: detail})
	s.notify(common.LevelError, msg, fmt.Sprintf("%s: %s", item, detail))
	logging.Warn("Media item failed", "listing_id", result.ListingID, "stage", stage, "item", item, "error", err)
}

func (s *SubmissionService) fail(ctx context.Context, entry entities.SubmissionLog, stage string, err error) error {
	entry.Outcome = OutcomeFailed
	entry.FailedStage = stage
	entry.Detail = providers.UserMessage(err, err.Error())
	s.record(ctx, entry)
	return &StageError{Stage: stage, Fatal: true, Err: err}
}

func (s *SubmissionService) notify(level, message, detail string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(dtos.Notification{Level: level, Message: message, Detail: detail})
}

func (s *SubmissionService) record(ctx context.Context, entry entities.SubmissionLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		logging.Warn("Failed to write submission audit entry", "editor_id", entry.EditorID, "error", err)
	}
}
