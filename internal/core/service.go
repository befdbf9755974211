package core

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/nem12sql/internal/config"
	"github.com/JonMunkholm/nem12sql/internal/logging"
)

// ConvertTimeout is the maximum duration of a single service conversion
// when the configuration sets no request timeout.
var ConvertTimeout = 10 * time.Minute

// DefaultRunRetention is how long finished run summaries stay queryable.
const DefaultRunRetention = 15 * time.Minute

// Service runs conversions for the HTTP layer: it bounds concurrency,
// tracks run summaries and expires them after the retention period.
type Service struct {
	defaults  ConvertOptions
	maxSize   int64
	limiter   *ConversionLimiter
	timeout   time.Duration
	retention time.Duration

	mu   sync.RWMutex
	runs map[string]*trackedRun
}

type trackedRun struct {
	result   Result
	finished time.Time // zero while running
}

// ConvertRequest is one conversion submitted to the service.
type ConvertRequest struct {
	RunID    string // generated when empty
	FileName string
	Size     int64 // 0 if unknown
	Input    io.Reader
	Output   io.Writer
	NoWait   bool // fail at once instead of queueing for a slot
}

// NewService creates a Service from the loaded configuration.
func NewService(cfg *config.Config) *Service {
	retention := cfg.Upload.RunRetention
	if retention <= 0 {
		retention = DefaultRunRetention
	}
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = ConvertTimeout
	}
	return &Service{
		defaults:  OptionsFromConfig(cfg.Convert),
		maxSize:   cfg.Convert.MaxFileSizeBytes(),
		limiter:   NewConversionLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		timeout:   timeout,
		retention: retention,
		runs:      make(map[string]*trackedRun),
	}
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// Limiter returns the service's conversion limiter.
func (s *Service) Limiter() *ConversionLimiter {
	return s.limiter
}

// Convert streams req.Input to req.Output as SQL. It waits for a limiter
// slot first, unless req.NoWait is set, and fails with
// ErrTooManyConversions when none frees up. The conversion is bounded by
// the server request timeout. The run summary stays available through Run
// until it expires.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*Result, error) {
	if err := s.acquire(ctx, req.NoWait); err != nil {
		return nil, fmt.Errorf("acquire conversion slot: %w", err)
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := s.defaults
	opts.RunID = req.RunID
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	opts.FileName = req.FileName
	opts.Size = req.Size
	opts.Logger = logging.FromContext(logging.ContextWithRunID(ctx, opts.RunID))

	if req.Size > 0 {
		CheckSize(opts.Logger, req.FileName, req.Size, s.maxSize)
	}

	s.track(Result{RunID: opts.RunID, FileName: req.FileName, Phase: PhaseConverting})

	result, err := Convert(ctx, req.Input, req.Output, opts)
	s.finish(*result)
	return result, err
}

func (s *Service) acquire(ctx context.Context, noWait bool) error {
	if !noWait {
		return s.limiter.Acquire(ctx)
	}
	if !s.limiter.TryAcquire() {
		return ErrTooManyConversions
	}
	return nil
}

// Run returns the summary of a tracked run.
func (s *Service) Run(runID string) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run.result, nil
}

// Runs returns every tracked run, newest first.
func (s *Service) Runs() []Result {
	s.mu.RLock()
	runs := make([]*trackedRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].finished.IsZero() != runs[j].finished.IsZero() {
			return runs[i].finished.IsZero()
		}
		return runs[i].finished.After(runs[j].finished)
	})

	out := make([]Result, len(runs))
	for i, run := range runs {
		out[i] = run.result
	}
	return out
}

// Prune forgets runs that finished more than the retention period before
// now and returns how many were removed.
func (s *Service) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, run := range s.runs {
		if !run.finished.IsZero() && now.Sub(run.finished) > s.retention {
			delete(s.runs, id)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes expired runs every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := s.Prune(now); n > 0 {
				logging.FromContext(ctx).Debug("pruned expired runs", "count", n)
			}
		}
	}
}

func (s *Service) track(result Result) {
	s.mu.Lock()
	s.runs[result.RunID] = &trackedRun{result: result}
	s.mu.Unlock()
}

func (s *Service) finish(result Result) {
	s.mu.Lock()
	s.runs[result.RunID] = &trackedRun{result: result, finished: time.Now()}
	s.mu.Unlock()
}
