package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

// stubJobRepo is an in-memory JobRepository for worker and handler tests.
type stubJobRepo struct {
	mu   sync.Mutex
	seq  int
	jobs map[string]*model.IntegrationJob

	// claimDenied simulates another worker winning the claim for a job id.
	claimDenied map[string]bool

	enqueueErr error
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{
		jobs:        make(map[string]*model.IntegrationJob),
		claimDenied: make(map[string]bool),
	}
}

func (s *stubJobRepo) Enqueue(_ context.Context, req *model.EnqueueRequest) (*model.EnqueueResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enqueueErr != nil {
		return nil, s.enqueueErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		for _, job := range s.jobs {
			if job.IdempotencyKey != nil && *job.IdempotencyKey == req.IdempotencyKey {
				return &model.EnqueueResult{ID: job.ID, Deduped: true}, nil
			}
		}
	}

	s.seq++
	job := &model.IntegrationJob{
		ID:      fmt.Sprintf("job-%d", s.seq),
		Type:    req.Type,
		Status:  model.JobStatusPending,
		Payload: append([]byte(nil), req.Payload...),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		job.IdempotencyKey = &key
	}
	s.jobs[job.ID] = job
	return &model.EnqueueResult{ID: job.ID}, nil
}

func (s *stubJobRepo) DueJobs(_ context.Context, limit int) ([]*model.IntegrationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*model.IntegrationJob
	for i := 1; i <= s.seq && len(due) < limit; i++ {
		job, ok := s.jobs[fmt.Sprintf("job-%d", i)]
		if ok && job.Status == model.JobStatusPending {
			copied := *job
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (s *stubJobRepo) Claim(_ context.Context, jobID string) (*model.IntegrationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.claimDenied[jobID] {
		return nil, nil
	}
	job, ok := s.jobs[jobID]
	if !ok || job.Status != model.JobStatusPending {
		return nil, nil
	}
	job.Status = model.JobStatusRunning
	copied := *job
	return &copied, nil
}

func (s *stubJobRepo) MarkSucceeded(_ context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status != model.JobStatusRunning {
		return false, nil
	}
	job.Status = model.JobStatusSucceeded
	return true, nil
}

func (s *stubJobRepo) MarkFailure(_ context.Context, params core.MarkFailureParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[params.JobID]
	if !ok || job.Status != model.JobStatusRunning {
		return false, nil
	}
	job.Attempts++
	errMsg := params.ErrMsg
	job.LastError = &errMsg
	if params.FinalFailure {
		job.Status = model.JobStatusFailed
	} else {
		job.Status = model.JobStatusPending
		job.NextAttemptAt = job.NextAttemptAt.Add(params.RetryDelay)
	}
	return true, nil
}

func (s *stubJobRepo) RequeueStale(_ context.Context, _ time.Duration, _ int) (int64, error) {
	return 0, nil
}

func (s *stubJobRepo) GetByID(_ context.Context, id string) (*model.IntegrationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	copied := *job
	return &copied, nil
}

func (s *stubJobRepo) Stats(_ context.Context) (*model.JobStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &model.JobStats{}
	for _, job := range s.jobs {
		switch job.Status {
		case model.JobStatusPending:
			stats.Pending++
		case model.JobStatusRunning:
			stats.Running++
		case model.JobStatusSucceeded:
			stats.Succeeded++
		case model.JobStatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (s *stubJobRepo) jobByKey(key string) *model.IntegrationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.IdempotencyKey != nil && *job.IdempotencyKey == key {
			copied := *job
			return &copied
		}
	}
	return nil
}

type stubBookingRepo struct {
	details    *model.BookingDetails
	detailsErr error
}

func (s *stubBookingRepo) GetDetails(_ context.Context, _ string) (*model.BookingDetails, error) {
	if s.detailsErr != nil {
		return nil, s.detailsErr
	}
	return s.details, nil
}

func (s *stubBookingRepo) ReserveSlot(_ context.Context, _ core.ReserveSlotRequest) (*model.ReservedSlot, error) {
	return nil, apperrors.Internal("not implemented")
}

type stubMeetingRepo struct {
	byBooking   map[string]*model.BookingMeeting
	upsertCalls int
	upsertErr   error
}

func newStubMeetingRepo() *stubMeetingRepo {
	return &stubMeetingRepo{byBooking: make(map[string]*model.BookingMeeting)}
}

func (s *stubMeetingRepo) FindByBooking(_ context.Context, bookingID string) (*model.BookingMeeting, error) {
	meeting, ok := s.byBooking[bookingID]
	if !ok {
		return nil, apperrors.NotFoundf("meeting for booking %s not found", bookingID)
	}
	return meeting, nil
}

func (s *stubMeetingRepo) Upsert(_ context.Context, meeting *model.BookingMeeting) error {
	s.upsertCalls++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.byBooking[meeting.BookingID] = meeting
	return nil
}

type stubFolderRepo struct {
	byClient map[string]*model.ExternalFolder
	byPhone  map[string]*model.ExternalFolder

	insertCalls int
	// insertConflict makes the next Insert lose the unique race.
	insertConflict bool
}

func newStubFolderRepo() *stubFolderRepo {
	return &stubFolderRepo{
		byClient: make(map[string]*model.ExternalFolder),
		byPhone:  make(map[string]*model.ExternalFolder),
	}
}

func (s *stubFolderRepo) FindActiveByClient(_ context.Context, clientID string) (*model.ExternalFolder, error) {
	folder, ok := s.byClient[clientID]
	if !ok {
		return nil, apperrors.NotFound("client folder mapping not found")
	}
	return folder, nil
}

func (s *stubFolderRepo) FindActiveByPhoneKey(_ context.Context, phoneKey string) (*model.ExternalFolder, error) {
	folder, ok := s.byPhone[phoneKey]
	if !ok {
		return nil, apperrors.NotFound("prospect folder mapping not found")
	}
	return folder, nil
}

func (s *stubFolderRepo) Insert(_ context.Context, folder *model.ExternalFolder) (*model.ExternalFolder, error) {
	s.insertCalls++
	if s.insertConflict {
		s.insertConflict = false
		// Model losing the unique race: the winner's row is committed by
		// the time the caller re-reads.
		winner := &model.ExternalFolder{ID: "mapping-winner", IsActive: true}
		winner.EntityType = folder.EntityType
		if folder.EntityID != nil {
			winner.EntityID = folder.EntityID
			s.byClient[*folder.EntityID] = winner
		}
		if folder.PhoneKey != nil {
			winner.PhoneKey = folder.PhoneKey
			s.byPhone[*folder.PhoneKey] = winner
		}
		return nil, apperrors.Conflict("folder mapping already exists")
	}

	stored := *folder
	stored.ID = fmt.Sprintf("mapping-%d", s.insertCalls)
	stored.IsActive = true
	if folder.EntityID != nil {
		s.byClient[*folder.EntityID] = &stored
	}
	if folder.PhoneKey != nil {
		s.byPhone[*folder.PhoneKey] = &stored
	}
	return &stored, nil
}

type stubDocumentRepo struct {
	existing  map[string]bool
	inserted  []*model.IngestedDocument
	insertErr error
}

func newStubDocumentRepo() *stubDocumentRepo {
	return &stubDocumentRepo{existing: make(map[string]bool)}
}

func (s *stubDocumentRepo) ExistsByMessageID(_ context.Context, messageID string) (bool, error) {
	return s.existing[messageID], nil
}

func (s *stubDocumentRepo) Insert(_ context.Context, doc *model.IngestedDocument) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.existing[doc.MessageID] = true
	s.inserted = append(s.inserted, doc)
	return nil
}

type stubClientRepo struct {
	byID    map[string]*model.Client
	byPhone map[string]*model.Client
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{
		byID:    make(map[string]*model.Client),
		byPhone: make(map[string]*model.Client),
	}
}

func (s *stubClientRepo) GetByID(_ context.Context, id string) (*model.Client, error) {
	client, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NotFoundf("client %s not found", id)
	}
	return client, nil
}

func (s *stubClientRepo) FindActiveByPhoneKey(_ context.Context, phoneKey string) (*model.Client, error) {
	client, ok := s.byPhone[phoneKey]
	if !ok {
		return nil, apperrors.NotFound("client by phone key not found")
	}
	return client, nil
}

type stubLeadEventRepo struct {
	events []*model.LeadEvent
}

func (s *stubLeadEventRepo) Append(_ context.Context, event *model.LeadEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubMeetingProvider struct {
	result *core.MeetingResult
	err    error
	calls  []core.MeetingRequest
}

func (s *stubMeetingProvider) Configured() bool { return true }

func (s *stubMeetingProvider) CreateMeeting(_ context.Context, req core.MeetingRequest) (*core.MeetingResult, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubStorageProvider struct {
	ensureCalls []string
	uploads     []core.UploadRequest
	ensureErr   error
	uploadErr   error
}

func (s *stubStorageProvider) Configured() bool { return true }

func (s *stubStorageProvider) EnsureFolder(_ context.Context, name, _ string) (*core.FolderResult, error) {
	s.ensureCalls = append(s.ensureCalls, name)
	if s.ensureErr != nil {
		return nil, s.ensureErr
	}
	id := "drive-" + strings.ReplaceAll(strings.ToLower(name), " ", "")
	return &core.FolderResult{ID: id, Name: name}, nil
}

func (s *stubStorageProvider) UploadFile(_ context.Context, req core.UploadRequest) (*core.FileResult, error) {
	s.uploads = append(s.uploads, req)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &core.FileResult{ID: "file-1", Name: req.FileName}, nil
}

type stubMessagingProvider struct {
	outbound bool
	meta     *core.MediaMetadata
	download *core.MediaDownload
	sent     []core.TemplateMessage

	metaErr     error
	downloadErr error
	sendErr     error
}

func (s *stubMessagingProvider) ConfiguredForOutbound() bool { return s.outbound }

func (s *stubMessagingProvider) GetMediaMetadata(_ context.Context, _ string) (*core.MediaMetadata, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	return s.meta, nil
}

func (s *stubMessagingProvider) DownloadMedia(_ context.Context, _ string) (*core.MediaDownload, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return s.download, nil
}

func (s *stubMessagingProvider) SendTemplateMessage(_ context.Context, msg core.TemplateMessage) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubEmailProvider struct {
	sent []core.EmailMessage
	err  error
}

func (s *stubEmailProvider) Send(_ context.Context, msg core.EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}
