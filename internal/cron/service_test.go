package cron

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	return NewService(path), path
}

// startService starts the service in the background and returns a cancel func.
func startService(t *testing.T, s *Service) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Start(ctx) }()
	// Give Start() a moment to arm timers.
	time.Sleep(20 * time.Millisecond)
	return cancel
}

func everySchedule(ms int64) Schedule {
	return Schedule{Kind: "every", EveryMs: &ms}
}

func TestAddJobEvery(t *testing.T) {
	s, _ := newTestService(t)
	id, err := s.AddJob("tick", "summarize today", everySchedule(5000), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}
	jobs := s.ListJobs(false)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Schedule.Kind != "every" {
		t.Errorf("expected kind=every, got %q", jobs[0].Schedule.Kind)
	}
	if jobs[0].Payload.Prompt != "summarize today" {
		t.Errorf("unexpected prompt: %q", jobs[0].Payload.Prompt)
	}
}

func TestAddJobAt(t *testing.T) {
	s, _ := newTestService(t)
	futureMs := time.Now().Add(time.Hour).UnixMilli()
	id, err := s.AddJob("once", "do it", Schedule{Kind: "at", AtMs: &futureMs}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	jobs := s.ListJobs(false)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].ID != id {
		t.Errorf("id mismatch: got %q", jobs[0].ID)
	}
	if !jobs[0].DeleteAfterRun {
		t.Error("expected deleteAfterRun=true")
	}
}

func TestAddJobUnknownKind(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.AddJob("bad", "msg", Schedule{Kind: "weekly"}, false); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestAddJobInvalidInterval(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.AddJob("bad", "msg", everySchedule(0), false); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestRemoveJob(t *testing.T) {
	s, _ := newTestService(t)
	id, _ := s.AddJob("job", "msg", everySchedule(1000), false)
	if !s.RemoveJob(id) {
		t.Fatal("expected RemoveJob to return true")
	}
	if len(s.ListJobs(false)) != 0 {
		t.Error("expected empty job list after remove")
	}
	if s.RemoveJob("nonexistent") {
		t.Error("expected RemoveJob to return false for unknown id")
	}
}

func TestEnableJobToggle(t *testing.T) {
	s, _ := newTestService(t)
	id, _ := s.AddJob("j", "msg", everySchedule(1000), false)

	job, ok := s.EnableJob(id, false)
	if !ok {
		t.Fatal("EnableJob returned false")
	}
	if job.Enabled {
		t.Error("expected job to be disabled")
	}
	if job.State.NextRunAtMs != nil {
		t.Error("expected nil NextRunAtMs when disabled")
	}

	job, ok = s.EnableJob(id, true)
	if !ok {
		t.Fatal("EnableJob returned false on re-enable")
	}
	if !job.Enabled {
		t.Error("expected job to be enabled")
	}
}

func TestListJobsIncludeDisabled(t *testing.T) {
	s, _ := newTestService(t)
	id, _ := s.AddJob("j", "msg", everySchedule(1000), false)
	s.EnableJob(id, false)

	if n := len(s.ListJobs(true)); n != 1 {
		t.Fatalf("expected 1 job with includeDisabled=true, got %d", n)
	}
	if n := len(s.ListJobs(false)); n != 0 {
		t.Fatalf("expected 0 jobs with includeDisabled=false, got %d", n)
	}
}

func TestListJobsSortedByNextRun(t *testing.T) {
	s, _ := newTestService(t)
	s.AddJob("slow", "msg", everySchedule(60000), false)
	s.AddJob("fast", "msg", everySchedule(1000), false)

	jobs := s.ListJobs(false)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if *jobs[0].State.NextRunAtMs > *jobs[1].State.NextRunAtMs {
		t.Error("jobs not sorted by NextRunAtMs ascending")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	s, path := newTestService(t)
	id, _ := s.AddJob("persist", "hello", everySchedule(5000), false)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read jobs.json: %v", err)
	}
	var store jobStore
	if err := json.Unmarshal(data, &store); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(store.Jobs) != 1 {
		t.Fatalf("expected 1 persisted job, got %d", len(store.Jobs))
	}
	if store.Jobs[0].ID != id {
		t.Error("id mismatch in persisted file")
	}
	if store.Jobs[0].Payload.Kind != "scheduled_prompt" {
		t.Errorf("unexpected payload kind: %q", store.Jobs[0].Payload.Kind)
	}
}

func TestPersistenceLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	existing := `{"version":1,"jobs":[{"id":"aabbccdd","name":"loaded","enabled":true,
		"schedule":{"kind":"every","everyMs":3000},"payload":{"kind":"scheduled_prompt","prompt":"hi"},
		"state":{},"createdAtMs":1000,"updatedAtMs":1000,"deleteAfterRun":false}]}`
	os.WriteFile(path, []byte(existing), 0o644)

	s := NewService(path)
	jobs := s.ListJobs(false)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 loaded job, got %d", len(jobs))
	}
	if jobs[0].Name != "loaded" {
		t.Errorf("unexpected job name: %q", jobs[0].Name)
	}
}

func TestPersistenceMissingFile(t *testing.T) {
	s, _ := newTestService(t)
	if n := len(s.ListJobs(false)); n != 0 {
		t.Fatalf("expected 0 jobs from missing file, got %d", n)
	}
}

func TestComputeNextRunEvery(t *testing.T) {
	now := int64(1_000_000)
	result := computeNextRun(everySchedule(5000), now)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if *result != now+5000 {
		t.Errorf("expected %d, got %d", now+5000, *result)
	}
}

func TestComputeNextRunAtPast(t *testing.T) {
	past := time.Now().Add(-time.Hour).UnixMilli()
	if result := computeNextRun(Schedule{Kind: "at", AtMs: &past}, time.Now().UnixMilli()); result != nil {
		t.Errorf("expected nil for past at-job, got %d", *result)
	}
}

func TestComputeNextRunCron(t *testing.T) {
	expr := "0 12 * * *"
	tz := "UTC"
	result := computeNextRun(Schedule{Kind: "cron", Expr: &expr, TZ: &tz}, time.Now().UnixMilli())
	if result == nil {
		t.Fatal("expected non-nil cron next run")
	}
	if *result <= time.Now().UnixMilli() {
		t.Error("next run should be in the future")
	}
}

func TestComputeNextRunCronInvalidExpr(t *testing.T) {
	expr := "not a cron"
	if result := computeNextRun(Schedule{Kind: "cron", Expr: &expr}, time.Now().UnixMilli()); result != nil {
		t.Error("expected nil for invalid cron expression")
	}
}

func TestRunJobCallsCallback(t *testing.T) {
	s, _ := newTestService(t)

	var called atomic.Int32
	var gotPrompt atomic.Value
	s.SetOnJob(func(_ context.Context, job Job) (string, error) {
		called.Add(1)
		gotPrompt.Store(job.Payload.Prompt)
		return "ok", nil
	})

	id, _ := s.AddJob("run", "weekly report", everySchedule(10000), false)
	cancel := startService(t, s)
	defer cancel()

	if !s.RunJob(context.Background(), id, true) {
		t.Fatal("RunJob returned false")
	}
	if called.Load() == 0 {
		t.Fatal("callback was not called")
	}
	if gotPrompt.Load() != "weekly report" {
		t.Errorf("unexpected prompt: %v", gotPrompt.Load())
	}

	jobs := s.ListJobs(false)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].State.LastRunAtMs == nil {
		t.Error("expected LastRunAtMs to be set after execution")
	}
	if jobs[0].State.LastStatus == nil || *jobs[0].State.LastStatus != "ok" {
		t.Errorf("unexpected status: %v", jobs[0].State.LastStatus)
	}
}

func TestRunJobAtDeleteAfterRun(t *testing.T) {
	s, _ := newTestService(t)
	s.SetOnJob(func(_ context.Context, _ Job) (string, error) { return "", nil })

	futureMs := time.Now().Add(time.Hour).UnixMilli()
	id, _ := s.AddJob("once", "msg", Schedule{Kind: "at", AtMs: &futureMs}, true)
	cancel := startService(t, s)
	defer cancel()

	s.RunJob(context.Background(), id, true)

	if n := len(s.ListJobs(true)); n != 0 {
		t.Errorf("expected job deleted after run, got %d jobs", n)
	}
}

func TestRunJobDisabledWithoutForce(t *testing.T) {
	s, _ := newTestService(t)
	id, _ := s.AddJob("j", "msg", everySchedule(10000), false)
	s.EnableJob(id, false)

	if s.RunJob(context.Background(), id, false) {
		t.Error("expected RunJob to return false for disabled job without force")
	}
	if s.RunJob(context.Background(), "ghost", false) {
		t.Error("expected RunJob to return false for unknown id")
	}
}

func TestEveryJobFiresAfterInterval(t *testing.T) {
	s, _ := newTestService(t)

	var count atomic.Int32
	s.SetOnJob(func(_ context.Context, _ Job) (string, error) {
		count.Add(1)
		return "", nil
	})

	s.AddJob("fast", "msg", everySchedule(50), false)
	cancel := startService(t, s)
	defer cancel()

	time.Sleep(180 * time.Millisecond)
	if n := count.Load(); n < 2 {
		t.Errorf("expected at least 2 executions, got %d", n)
	}
}

func TestAtJobFiresOnce(t *testing.T) {
	s, _ := newTestService(t)

	var count atomic.Int32
	s.SetOnJob(func(_ context.Context, _ Job) (string, error) {
		count.Add(1)
		return "", nil
	})

	atMs := time.Now().Add(50 * time.Millisecond).UnixMilli()
	s.AddJob("once", "msg", Schedule{Kind: "at", AtMs: &atMs}, false)
	cancel := startService(t, s)
	defer cancel()

	time.Sleep(200 * time.Millisecond)
	if n := count.Load(); n != 1 {
		t.Errorf("expected exactly 1 execution for at-job, got %d", n)
	}
}
