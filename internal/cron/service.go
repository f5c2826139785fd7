// Package cron manages scheduled prompts: stored jobs that feed a prompt
// into the agent on an interval, a cron expression, or a one-shot time.
//
// Jobs persist as JSON:
//
//	{ "version": 1, "jobs": [ { "id":"…", "name":"…", "enabled":true,
//	    "schedule":{"kind":"every","everyMs":…},
//	    "payload":{"kind":"scheduled_prompt","prompt":"…"},
//	    "state":{"nextRunAtMs":…,"lastRunAtMs":…,"lastStatus":"ok"},
//	    "createdAtMs":…, "updatedAtMs":…, "deleteAfterRun":false } ] }
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

type Schedule struct {
	Kind    string  `json:"kind"`              // "every" | "cron" | "at"
	AtMs    *int64  `json:"atMs,omitempty"`    // one-time
	EveryMs *int64  `json:"everyMs,omitempty"` // interval
	Expr    *string `json:"expr,omitempty"`    // cron expression
	TZ      *string `json:"tz,omitempty"`      // IANA timezone
}

type Payload struct {
	Kind   string `json:"kind"` // "scheduled_prompt"
	Prompt string `json:"prompt"`
}

type JobState struct {
	NextRunAtMs *int64  `json:"nextRunAtMs,omitempty"`
	LastRunAtMs *int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  *string `json:"lastStatus,omitempty"`
	LastError   *string `json:"lastError,omitempty"`
}

type Job struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Enabled        bool     `json:"enabled"`
	Schedule       Schedule `json:"schedule"`
	Payload        Payload  `json:"payload"`
	State          JobState `json:"state"`
	CreatedAtMs    int64    `json:"createdAtMs"`
	UpdatedAtMs    int64    `json:"updatedAtMs"`
	DeleteAfterRun bool     `json:"deleteAfterRun"`
}

type jobStore struct {
	Version int   `json:"version"`
	Jobs    []Job `json:"jobs"`
}

// OnJobFunc runs when a job fires. It returns the agent's reply text.
type OnJobFunc func(ctx context.Context, job Job) (string, error)

// Service manages the scheduled-prompt store and its timers.
type Service struct {
	storePath string
	onJob     OnJobFunc

	mu     sync.Mutex
	store  jobStore
	loaded bool

	// Active timers / cron entries keyed by job ID.
	timers    map[string]*time.Timer
	robfig    *robfigcron.Cron
	robfigIDs map[string]robfigcron.EntryID
}

// NewService creates a Service backed by the jobs file at storePath.
func NewService(storePath string) *Service {
	return &Service{
		storePath: storePath,
		timers:    make(map[string]*time.Timer),
		robfig:    robfigcron.New(),
		robfigIDs: make(map[string]robfigcron.EntryID),
	}
}

// SetOnJob registers the callback executed when a job fires.
// Must be set before Start().
func (s *Service) SetOnJob(fn OnJobFunc) { s.onJob = fn }

// Start loads jobs from disk, recomputes next-run times, and arms all
// timers. Blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		slog.Warn("cron: load failed, starting empty", "err", err)
	}
	s.recomputeNextRunsLocked()
	s.saveLocked()
	s.armAllLocked(ctx)
	s.mu.Unlock()

	s.robfig.Start()
	slog.Info("cron: started", "jobs", len(s.store.Jobs))

	<-ctx.Done()

	<-s.robfig.Stop().Done()
	s.mu.Lock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.mu.Unlock()
	return ctx.Err()
}

// AddJob stores a new job and returns its ID.
func (s *Service) AddJob(name, prompt string, sched Schedule, deleteAfterRun bool) (string, error) {
	switch sched.Kind {
	case "every":
		if sched.EveryMs == nil || *sched.EveryMs <= 0 {
			return "", fmt.Errorf("schedule kind %q requires a positive interval", sched.Kind)
		}
	case "cron":
		if sched.Expr == nil || *sched.Expr == "" {
			return "", fmt.Errorf("schedule kind %q requires an expression", sched.Kind)
		}
	case "at":
		if sched.AtMs == nil {
			return "", fmt.Errorf("schedule kind %q requires a time", sched.Kind)
		}
	default:
		return "", fmt.Errorf("unknown schedule kind %q", sched.Kind)
	}

	now := nowMs()
	job := Job{
		ID:             shortID(),
		Name:           name,
		Enabled:        true,
		Schedule:       sched,
		Payload:        Payload{Kind: "scheduled_prompt", Prompt: prompt},
		State:          JobState{NextRunAtMs: computeNextRun(sched, now)},
		CreatedAtMs:    now,
		UpdatedAtMs:    now,
		DeleteAfterRun: deleteAfterRun,
	}

	s.mu.Lock()
	_ = s.loadLocked()
	s.store.Jobs = append(s.store.Jobs, job)
	s.saveLocked()
	s.mu.Unlock()

	slog.Info("cron: added job", "name", name, "id", job.ID, "kind", sched.Kind)
	return job.ID, nil
}

// RemoveJob removes a job by ID and returns true if found.
func (s *Service) RemoveJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	before := len(s.store.Jobs)
	filtered := s.store.Jobs[:0]
	for _, j := range s.store.Jobs {
		if j.ID != id {
			filtered = append(filtered, j)
		}
	}
	s.store.Jobs = filtered
	if len(filtered) < before {
		s.cancelTimerLocked(id)
		s.saveLocked()
		return true
	}
	return false
}

// ListJobs returns jobs sorted by next run time; includeDisabled controls
// whether disabled jobs appear.
func (s *Service) ListJobs(includeDisabled bool) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	var jobs []Job
	for _, j := range s.store.Jobs {
		if includeDisabled || j.Enabled {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(i, k int) bool {
		a := int64(^uint64(0) >> 1)
		b := int64(^uint64(0) >> 1)
		if jobs[i].State.NextRunAtMs != nil {
			a = *jobs[i].State.NextRunAtMs
		}
		if jobs[k].State.NextRunAtMs != nil {
			b = *jobs[k].State.NextRunAtMs
		}
		return a < b
	})
	return jobs
}

// EnableJob enables or disables a job.
func (s *Service) EnableJob(id string, enabled bool) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked()
	for i := range s.store.Jobs {
		if s.store.Jobs[i].ID == id {
			s.store.Jobs[i].Enabled = enabled
			s.store.Jobs[i].UpdatedAtMs = nowMs()
			if enabled {
				s.store.Jobs[i].State.NextRunAtMs = computeNextRun(s.store.Jobs[i].Schedule, nowMs())
			} else {
				s.store.Jobs[i].State.NextRunAtMs = nil
				s.cancelTimerLocked(id)
			}
			s.saveLocked()
			return s.store.Jobs[i], true
		}
	}
	return Job{}, false
}

// RunJob manually executes a job (force=true ignores the disabled flag).
func (s *Service) RunJob(ctx context.Context, id string, force bool) bool {
	s.mu.Lock()
	_ = s.loadLocked()
	var job *Job
	for i := range s.store.Jobs {
		if s.store.Jobs[i].ID == id {
			if !force && !s.store.Jobs[i].Enabled {
				s.mu.Unlock()
				return false
			}
			job = &s.store.Jobs[i]
			break
		}
	}
	if job == nil {
		s.mu.Unlock()
		return false
	}
	jobCopy := *job
	s.mu.Unlock()

	s.executeJob(ctx, jobCopy)
	return true
}

// --------------------------------------------------------------------------
// Internal scheduling logic
// --------------------------------------------------------------------------

func (s *Service) recomputeNextRunsLocked() {
	now := nowMs()
	for i := range s.store.Jobs {
		if s.store.Jobs[i].Enabled {
			s.store.Jobs[i].State.NextRunAtMs = computeNextRun(s.store.Jobs[i].Schedule, now)
		}
	}
}

func (s *Service) armAllLocked(ctx context.Context) {
	for _, j := range s.store.Jobs {
		if j.Enabled {
			s.armJobLocked(ctx, j)
		}
	}
}

func (s *Service) armJobLocked(ctx context.Context, job Job) {
	s.cancelTimerLocked(job.ID)

	switch job.Schedule.Kind {
	case "every":
		if job.Schedule.EveryMs == nil || *job.Schedule.EveryMs <= 0 {
			return
		}
		d := time.Duration(*job.Schedule.EveryMs) * time.Millisecond
		t := time.AfterFunc(d, func() {
			s.executeJob(ctx, job)
			// Re-arm for the next tick, refreshing from the store in case
			// the job changed meanwhile.
			s.mu.Lock()
			for _, j := range s.store.Jobs {
				if j.ID == job.ID && j.Enabled {
					s.armJobLocked(ctx, j)
					break
				}
			}
			s.mu.Unlock()
		})
		s.timers[job.ID] = t

	case "at":
		if job.Schedule.AtMs == nil {
			return
		}
		delay := time.Until(time.UnixMilli(*job.Schedule.AtMs))
		if delay < 0 {
			return
		}
		t := time.AfterFunc(delay, func() {
			s.executeJob(ctx, job)
		})
		s.timers[job.ID] = t

	case "cron":
		if job.Schedule.Expr == nil {
			return
		}
		sched, err := cronParser().Parse(*job.Schedule.Expr)
		if err != nil {
			slog.Warn("cron: invalid cron expression", "job", job.ID, "expr", *job.Schedule.Expr, "err", err)
			return
		}
		jobCopy := job
		entryID := s.robfig.Schedule(
			withLocation(sched, scheduleLocation(job.Schedule)),
			robfigcron.FuncJob(func() { s.executeJob(ctx, jobCopy) }),
		)
		s.robfigIDs[job.ID] = entryID
	}
}

func (s *Service) cancelTimerLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if eid, ok := s.robfigIDs[id]; ok {
		s.robfig.Remove(eid)
		delete(s.robfigIDs, id)
	}
}

func (s *Service) executeJob(ctx context.Context, job Job) {
	startMs := nowMs()
	slog.Info("cron: executing job", "name", job.Name, "id", job.ID)

	lastStatus := "ok"
	var lastErr *string

	if s.onJob != nil {
		if _, err := s.onJob(ctx, job); err != nil {
			lastStatus = "error"
			e := err.Error()
			lastErr = &e
			slog.Error("cron: job failed", "name", job.Name, "err", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.store.Jobs {
		if s.store.Jobs[i].ID != job.ID {
			continue
		}
		now := nowMs()
		s.store.Jobs[i].State.LastRunAtMs = &startMs
		s.store.Jobs[i].State.LastStatus = &lastStatus
		s.store.Jobs[i].State.LastError = lastErr
		s.store.Jobs[i].UpdatedAtMs = now

		if job.Schedule.Kind == "at" {
			if job.DeleteAfterRun {
				filtered := s.store.Jobs[:0]
				for _, j := range s.store.Jobs {
					if j.ID != job.ID {
						filtered = append(filtered, j)
					}
				}
				s.store.Jobs = filtered
			} else {
				s.store.Jobs[i].Enabled = false
				s.store.Jobs[i].State.NextRunAtMs = nil
			}
		} else {
			s.store.Jobs[i].State.NextRunAtMs = computeNextRun(job.Schedule, now)
		}
		break
	}
	s.saveLocked()
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

func (s *Service) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.loaded = true
	data, err := os.ReadFile(s.storePath)
	if os.IsNotExist(err) {
		s.store = jobStore{Version: 1}
		return nil
	}
	if err != nil {
		return err
	}
	var st jobStore
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	s.store = st
	return nil
}

func (s *Service) saveLocked() {
	if err := os.MkdirAll(filepath.Dir(s.storePath), 0o755); err != nil {
		slog.Warn("cron: mkdir failed", "err", err)
		return
	}
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		slog.Warn("cron: marshal failed", "err", err)
		return
	}
	if err := os.WriteFile(s.storePath, data, 0o644); err != nil {
		slog.Warn("cron: write failed", "err", err)
	}
}

// --------------------------------------------------------------------------
// Utility
// --------------------------------------------------------------------------

func nowMs() int64 { return time.Now().UnixMilli() }

func shortID() string {
	return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
}

func cronParser() robfigcron.Parser {
	return robfigcron.NewParser(
		robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
	)
}

func scheduleLocation(sched Schedule) *time.Location {
	if sched.TZ != nil && *sched.TZ != "" {
		if l, err := time.LoadLocation(*sched.TZ); err == nil {
			return l
		}
	}
	return time.Local
}

func computeNextRun(sched Schedule, nowMs int64) *int64 {
	switch sched.Kind {
	case "at":
		if sched.AtMs != nil && *sched.AtMs > nowMs {
			v := *sched.AtMs
			return &v
		}
	case "every":
		if sched.EveryMs != nil && *sched.EveryMs > 0 {
			v := nowMs + *sched.EveryMs
			return &v
		}
	case "cron":
		if sched.Expr != nil {
			parsed, err := cronParser().Parse(*sched.Expr)
			if err == nil {
				next := parsed.Next(time.UnixMilli(nowMs).In(scheduleLocation(sched)))
				v := next.UnixMilli()
				return &v
			}
		}
	}
	return nil
}

// withLocation wraps a Schedule to always use a specific location.
type locSchedule struct {
	inner robfigcron.Schedule
	loc   *time.Location
}

func (l locSchedule) Next(t time.Time) time.Time {
	return l.inner.Next(t.In(l.loc))
}

func withLocation(s robfigcron.Schedule, loc *time.Location) robfigcron.Schedule {
	return locSchedule{inner: s, loc: loc}
}
