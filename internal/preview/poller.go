// Package preview waits for the backend to render a resume artifact and
// keeps the latest rendering as a local blob.
//
// The poller is a state machine:
//
//	Idle -> Requesting -> Pending -> Requesting -> ... -> Ready | Failed
//
// 202 and 404 mean "not yet" and schedule another attempt, 409 is a terminal
// generation failure and 200 carries the artifact.
package preview

import (
	"context"
	"net/http"
	"sync"
	"time"

	"resumetracker/internal/api"
	"resumetracker/internal/errors"
	"resumetracker/internal/observability"
)

// State of the preview state machine
type State int

const (
	Idle State = iota
	Requesting
	Pending
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempts follow
func (s State) Terminal() bool {
	return s == Ready || s == Failed
}

// Defaults
const (
	DefaultRetryDelay  = 3 * time.Second
	DefaultSettleDelay = 4 * time.Second
)

// Downloader fetches the artifact of a resume
type Downloader interface {
	DownloadResume(ctx context.Context, id string) api.Result[api.Download]
}

// Transition is reported to observers on every state change
type Transition struct {
	ResumeID string
	From     State
	To       State
	Attempt  int
	// Delay is the wait before the next attempt when To is Pending
	Delay   time.Duration
	Message string
}

// Snapshot is the observable state of a poller
type Snapshot struct {
	ResumeID string
	State    State
	Attempts int
	BlobRef  string
	Message  string
	Editing  bool
	// Elapsed is the clock time since the run started, frozen once the run
	// reaches Ready or Failed
	Elapsed time.Duration
}

// Options configures a Poller
type Options struct {
	DefaultRetry time.Duration
	SettleDelay  time.Duration
	// MaxWait bounds the accumulated retry delay; zero waits indefinitely
	MaxWait      time.Duration
	Scheduler    Scheduler
	// Now reads the clock used for wait metrics; defaults to time.Now
	Now          func() time.Time
	Blobs        *BlobStore
	OnTransition func(Transition)
	Metrics      *observability.Metrics
	Logger       *errors.Logger
}

// Poller tracks readiness of the selected resume's artifact
type Poller struct {
	client       Downloader
	scheduler    Scheduler
	now          func() time.Time
	blobs        *BlobStore
	defaultRetry time.Duration
	settleDelay  time.Duration
	maxWait      time.Duration
	onTransition func(Transition)
	metrics      *observability.Metrics
	logger       *errors.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu         sync.Mutex
	resumeID   string
	state      State
	generation uint64
	cancel     Cancel
	attempts   int
	waited     time.Duration
	started    time.Time
	elapsed    time.Duration
	blobRef    string
	message    string
	editing    bool
	closed     bool
	done       chan struct{}
}

// NewPoller creates an idle poller. In-flight downloads are bound to ctx.
func NewPoller(ctx context.Context, client Downloader, opts Options) *Poller {
	logger := opts.Logger
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	blobs := opts.Blobs
	if blobs == nil {
		blobs, _ = NewBlobStore("")
	}
	defaultRetry := opts.DefaultRetry
	if defaultRetry <= 0 {
		defaultRetry = DefaultRetryDelay
	}
	settle := opts.SettleDelay
	if settle < 0 {
		settle = 0
	} else if settle == 0 {
		settle = DefaultSettleDelay
	}

	pctx, stop := context.WithCancel(ctx)
	return &Poller{
		client:       client,
		scheduler:    scheduler,
		now:          now,
		blobs:        blobs,
		defaultRetry: defaultRetry,
		settleDelay:  settle,
		maxWait:      opts.MaxWait,
		onTransition: opts.OnTransition,
		metrics:      opts.Metrics,
		logger:       logger,
		ctx:          pctx,
		stop:         stop,
		done:         make(chan struct{}),
	}
}

// Snapshot returns the current state
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		ResumeID: p.resumeID,
		State:    p.state,
		Attempts: p.attempts,
		BlobRef:  p.blobRef,
		Message:  p.message,
		Editing:  p.editing,
		Elapsed:  p.elapsedLocked(),
	}
}

// Blob returns the artifact of the Ready state
func (p *Poller) Blob() (Blob, bool) {
	p.mu.Lock()
	ref := p.blobRef
	p.mu.Unlock()
	if ref == "" {
		return Blob{}, false
	}
	return p.blobs.Get(ref)
}

// Select makes resumeID the tracked resume and issues the first attempt
// immediately. Selecting the tracked resume again does nothing.
func (p *Poller) Select(resumeID string) {
	p.mu.Lock()
	if p.closed || (resumeID == p.resumeID && p.state != Idle) {
		p.mu.Unlock()
		return
	}

	var transitions []Transition
	p.resetLocked(resumeID, &transitions)
	p.releaseBlobLocked()
	generation := p.generation
	editing := p.editing
	p.mu.Unlock()
	p.notify(transitions)

	if resumeID != "" && !editing {
		p.attempt(generation)
	}
}

// EnterEditMode suspends polling until LeaveEditMode
func (p *Poller) EnterEditMode() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.editing = true
	p.generation++
	p.cancelTimerLocked()
}

// LeaveEditMode restarts the machine from Idle. After a save without a job
// id the restart waits for the settle delay; a job id or a cancelled edit
// restarts immediately.
func (p *Poller) LeaveEditMode(saved bool, jobID string) {
	p.mu.Lock()
	if p.closed || !p.editing {
		p.mu.Unlock()
		return
	}
	p.editing = false

	var transitions []Transition
	p.resetLocked(p.resumeID, &transitions)
	generation := p.generation

	if p.resumeID != "" && saved && jobID == "" && p.settleDelay > 0 {
		p.cancel = p.scheduler.AfterFunc(p.settleDelay, func() { p.attempt(generation) })
		p.mu.Unlock()
		p.notify(transitions)
		return
	}
	resumeID := p.resumeID
	p.mu.Unlock()
	p.notify(transitions)

	if resumeID != "" {
		p.attempt(generation)
	}
}

// Wait blocks until the current run reaches Ready or Failed, the poller is
// closed, or ctx is done
func (p *Poller) Wait(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
		return p.Snapshot(), nil
	case <-ctx.Done():
		return p.Snapshot(), ctx.Err()
	}
}

// Close cancels timers and in-flight downloads and releases the blob
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.generation++
	p.cancelTimerLocked()
	p.releaseBlobLocked()
	p.closeDoneLocked()
	p.mu.Unlock()

	p.stop()
}

// attempt performs one download for generation
func (p *Poller) attempt(generation uint64) {
	p.mu.Lock()
	if p.closed || generation != p.generation {
		p.mu.Unlock()
		return
	}
	p.cancel = nil
	p.attempts++
	resumeID := p.resumeID
	var transitions []Transition
	p.setStateLocked(Requesting, "", 0, &transitions)
	p.mu.Unlock()
	p.notify(transitions)

	result := p.client.DownloadResume(p.ctx, resumeID)

	p.mu.Lock()
	if p.closed || generation != p.generation {
		p.mu.Unlock()
		p.logger.Debug("Discarding stale preview response", "resume_id", resumeID)
		return
	}
	transitions = transitions[:0]
	p.handleLocked(result, generation, &transitions)
	p.mu.Unlock()
	p.notify(transitions)
}

func (p *Poller) handleLocked(result api.Result[api.Download], generation uint64, transitions *[]Transition) {
	download := result.Value

	switch {
	case result.OK && download.Ready():
		ref, err := p.blobs.Put(download.Data, download.ContentType, download.FileName)
		if err != nil {
			p.failLocked(errors.MsgLoadFailed, transitions)
			p.logger.Warn("Failed to store preview", "resume_id", p.resumeID, "error", err)
			return
		}
		p.releaseBlobLocked()
		p.blobRef = ref
		p.metrics.RecordPreviewPoll(p.ctx, "ready")
		p.metrics.RecordPreviewWait(p.ctx, "ready", p.finishLocked())
		p.setStateLocked(Ready, "", 0, transitions)
		p.closeDoneLocked()

	case download.Status == http.StatusAccepted || download.Status == http.StatusNotFound:
		delay := download.RetryAfter
		if delay <= 0 {
			delay = p.defaultRetry
		}
		if p.maxWait > 0 && p.waited+delay > p.maxWait {
			p.failLocked("Preview was not ready in time", transitions)
			return
		}
		p.waited += delay
		p.metrics.RecordPreviewPoll(p.ctx, "pending")
		p.setStateLocked(Pending, "", delay, transitions)
		p.cancel = p.scheduler.AfterFunc(delay, func() { p.attempt(generation) })

	case download.Status == http.StatusConflict:
		message := download.Message
		if message == "" {
			message = errors.MsgLoadFailed
		}
		p.failLocked(message, transitions)

	default:
		message := errors.Message(result.Err)
		if message == "" {
			message = errors.MsgLoadFailed
		}
		p.failLocked(message, transitions)
	}
}

func (p *Poller) failLocked(message string, transitions *[]Transition) {
	p.message = message
	p.metrics.RecordPreviewPoll(p.ctx, "failed")
	p.metrics.RecordPreviewWait(p.ctx, "failed", p.finishLocked())
	p.setStateLocked(Failed, message, 0, transitions)
	p.closeDoneLocked()
	p.logger.Warn("Preview generation failed", "resume_id", p.resumeID, "message", message)
}

// resetLocked cancels the current run and returns to Idle for resumeID
func (p *Poller) resetLocked(resumeID string, transitions *[]Transition) {
	p.generation++
	p.cancelTimerLocked()
	p.resumeID = resumeID
	p.attempts = 0
	p.waited = 0
	p.started = p.now()
	p.elapsed = 0
	p.message = ""
	p.setStateLocked(Idle, "", 0, transitions)

	select {
	case <-p.done:
		p.done = make(chan struct{})
	default:
	}
}

// finishLocked freezes the elapsed time of a run that reached a terminal state
func (p *Poller) finishLocked() time.Duration {
	p.elapsed = p.now().Sub(p.started)
	return p.elapsed
}

func (p *Poller) elapsedLocked() time.Duration {
	switch {
	case p.state.Terminal():
		return p.elapsed
	case p.started.IsZero():
		return 0
	default:
		return p.now().Sub(p.started)
	}
}

func (p *Poller) setStateLocked(to State, message string, delay time.Duration, transitions *[]Transition) {
	from := p.state
	p.state = to
	if from == to {
		return
	}
	*transitions = append(*transitions, Transition{
		ResumeID: p.resumeID,
		From:     from,
		To:       to,
		Attempt:  p.attempts,
		Delay:    delay,
		Message:  message,
	})
}

func (p *Poller) cancelTimerLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) releaseBlobLocked() {
	if p.blobRef != "" {
		p.blobs.Release(p.blobRef)
		p.blobRef = ""
	}
}

func (p *Poller) closeDoneLocked() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

func (p *Poller) notify(transitions []Transition) {
	if p.onTransition == nil {
		return
	}
	for _, t := range transitions {
		p.onTransition(t)
	}
}
