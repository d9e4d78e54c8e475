// Package analysis holds the client's working state for analysing resumes
// against a job description.
package analysis

import (
	"context"
	"slices"
	"strings"
	"sync"

	"resumetracker/internal/api"
	"resumetracker/internal/errors"
	"resumetracker/internal/types"
)

// DefaultMinJobDescription is the shortest trimmed job description that
// enables analysis
const DefaultMinJobDescription = 50

// API is the subset of the domain client the store drives
type API interface {
	ListResumes(ctx context.Context) api.Result[[]types.ResumeRecord]
	GetResume(ctx context.Context, id string) api.Result[types.ResumeRecord]
	UploadResume(ctx context.Context, file api.FileUpload) api.Result[types.ResumeRecord]
	AnalyzeResume(ctx context.Context, resumeID, jobDescription string) api.Result[types.AnalysisResult]
	DeleteResume(ctx context.Context, id string) api.Result[struct{}]
}

// State is a snapshot of the session
type State struct {
	Resumes        []types.ResumeRecord
	Selected       *types.ResumeRecord
	JobDescription string
	Result         *types.AnalysisResult
	IsUploading    bool
	IsAnalyzing    bool
	IsLoading      bool
	Err            error
}

// Options configures a Store
type Options struct {
	MinJobDescription int
	// RejectConcurrent refuses a second analysis of the same resume while
	// one is in flight. The default is last write wins.
	RejectConcurrent bool
	Logger           *errors.Logger
}

// Store is the analysis session. All methods are safe for concurrent use.
type Store struct {
	api    API
	logger *errors.Logger

	minJobDescription int
	rejectConcurrent  bool

	mu        sync.Mutex
	state     State
	selection uint64
	uploads   int
	loads     int
	analyses  map[string]int
}

// NewStore creates an empty session
func NewStore(client API, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	minJD := opts.MinJobDescription
	if minJD <= 0 {
		minJD = DefaultMinJobDescription
	}
	return &Store{
		api:               client,
		logger:            logger,
		minJobDescription: minJD,
		rejectConcurrent:  opts.RejectConcurrent,
		analyses:          make(map[string]int),
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state
	snapshot.Resumes = slices.Clone(s.state.Resumes)
	if s.state.Selected != nil {
		selected := *s.state.Selected
		snapshot.Selected = &selected
	}
	if s.state.Result != nil {
		result := *s.state.Result
		snapshot.Result = &result
	}
	return snapshot
}

// LoadResumes hydrates the resume list from the backend
func (s *Store) LoadResumes(ctx context.Context) error {
	s.mu.Lock()
	s.loads++
	s.state.IsLoading = true
	s.state.Err = nil
	s.mu.Unlock()

	result := s.api.ListResumes(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads--
	s.state.IsLoading = s.loads > 0

	if !result.OK {
		s.state.Err = result.Err
		return result.Err
	}
	s.state.Resumes = result.Value
	return nil
}

// UploadResume uploads a document, appends it and selects it. A response
// without a resume id counts as a failed upload.
func (s *Store) UploadResume(ctx context.Context, file api.FileUpload) (types.ResumeRecord, error) {
	s.mu.Lock()
	s.uploads++
	s.state.IsUploading = true
	s.state.Err = nil
	s.mu.Unlock()

	result := s.api.UploadResume(ctx, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads--
	s.state.IsUploading = s.uploads > 0

	if !result.OK {
		err := withFallback(result.Err, errors.MsgUploadFailed)
		s.state.Err = err
		s.logger.LogError(err, "Resume upload failed", "file", file.Name)
		return types.ResumeRecord{}, err
	}

	record := result.Value
	if record.ID == "" {
		err := errors.NewRemoteError(errors.ErrCodeNoResponseData, errors.MsgUploadFailed, nil).
			WithContext("file", file.Name)
		s.state.Err = err
		s.logger.LogError(err, "Upload response has no resume id", "file", file.Name)
		return types.ResumeRecord{}, err
	}
	s.state.Resumes = append(s.state.Resumes, record)
	s.selectLocked(record)
	return record, nil
}

// SelectResume makes r the current selection. Selecting the resume that is
// already selected does nothing. Records without full content are fetched.
func (s *Store) SelectResume(ctx context.Context, r types.ResumeRecord) error {
	if r.ID == "" {
		return errors.NewValidationError(errors.ErrCodeMissingSelection, "Resume has no identifier", nil)
	}

	s.mu.Lock()
	if s.state.Selected != nil && s.state.Selected.ID == r.ID {
		s.mu.Unlock()
		return nil
	}
	s.selectLocked(r)
	generation := s.selection
	s.state.Err = nil
	s.mu.Unlock()

	if r.HasFullContent() {
		return nil
	}

	result := s.api.GetResume(ctx, r.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !result.OK {
		s.state.Err = result.Err
		s.logger.LogError(result.Err, "Failed to fetch resume content", "resume_id", r.ID)
		return result.Err
	}

	full := result.Value
	if i := s.indexLocked(full.ID); i >= 0 {
		s.state.Resumes[i] = full
	}
	if s.selection == generation {
		s.state.Selected = &full
	}
	return nil
}

// SetJobDescription replaces the job description text
func (s *Store) SetJobDescription(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.JobDescription = text
}

// CanAnalyze reports whether a resume is selected and the trimmed job
// description is long enough
func (s *Store) CanAnalyze() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Selected != nil &&
		len([]rune(strings.TrimSpace(s.state.JobDescription))) >= s.minJobDescription
}

// AnalyzeResume analyses the selected resume against the job description.
// The response is discarded if the selection changed while it was in flight.
func (s *Store) AnalyzeResume(ctx context.Context) (types.AnalysisResult, error) {
	s.mu.Lock()
	if s.state.Selected == nil || strings.TrimSpace(s.state.JobDescription) == "" {
		s.mu.Unlock()
		return types.AnalysisResult{}, errors.NewValidationError(errors.ErrCodeMissingSelection, errors.MsgMissingSelection, nil)
	}

	resumeID := s.state.Selected.ID
	if s.rejectConcurrent && s.analyses[resumeID] > 0 {
		s.mu.Unlock()
		return types.AnalysisResult{}, errors.NewValidationError(errors.ErrCodeAnalysisBusy,
			"An analysis is already running for this resume", nil).WithContext("resume_id", resumeID)
	}

	jobDescription := s.state.JobDescription
	generation := s.selection
	s.analyses[resumeID]++
	s.state.IsAnalyzing = true
	s.state.Result = nil
	s.state.Err = nil
	s.mu.Unlock()

	result := s.api.AnalyzeResume(ctx, resumeID, jobDescription)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[resumeID]--
	if s.analyses[resumeID] <= 0 {
		delete(s.analyses, resumeID)
	}
	s.state.IsAnalyzing = len(s.analyses) > 0

	if !result.OK {
		err := withFallback(result.Err, errors.MsgAnalysisFailed)
		if s.selection == generation {
			s.state.Err = err
		}
		s.logger.LogError(err, "Analysis failed", "resume_id", resumeID)
		return types.AnalysisResult{}, err
	}

	if s.selection != generation {
		s.logger.Debug("Discarding analysis for deselected resume", "resume_id", resumeID)
		return types.AnalysisResult{}, errors.NewInternalError(errors.ErrCodeStaleResult,
			"Analysis discarded because the selected resume changed", nil).WithContext("resume_id", resumeID)
	}

	analysis := result.Value
	s.state.Result = &analysis
	return analysis, nil
}

// ClearAnalysis resets selection, job description and result together
func (s *Store) ClearAnalysis() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection++
	s.state.Selected = nil
	s.state.JobDescription = ""
	s.state.Result = nil
	s.state.Err = nil
}

// DeleteResume deletes a resume and drops it from the list. Deleting the
// selected resume clears the selection and result. The web client has no
// equivalent; the backend endpoint is used directly.
func (s *Store) DeleteResume(ctx context.Context, id string) error {
	result := s.api.DeleteResume(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !result.OK {
		s.state.Err = result.Err
		return result.Err
	}

	if i := s.indexLocked(id); i >= 0 {
		s.state.Resumes = slices.Delete(s.state.Resumes, i, i+1)
	}
	if s.state.Selected != nil && s.state.Selected.ID == id {
		s.selection++
		s.state.Selected = nil
		s.state.Result = nil
	}
	return nil
}

func (s *Store) selectLocked(r types.ResumeRecord) {
	s.selection++
	s.state.Selected = &r
	s.state.Result = nil
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.state.Resumes, func(r types.ResumeRecord) bool { return r.ID == id })
}

// withFallback guarantees a normalized error with a message
func withFallback(err error, fallback string) error {
	if errors.Message(err) != "" {
		return err
	}
	return errors.NewInternalError(errors.ErrCodeRequestFailed, fallback, err)
}
