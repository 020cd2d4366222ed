package export

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clarahealth/qrda-export/internal/qrda"
	"github.com/clarahealth/qrda-export/pkg/workerpool"
)

// fakeGenerator returns canned per-patient results.
type fakeGenerator struct {
	results map[string]*qrda.Result
	errs    map[string]error
}

func (g *fakeGenerator) Generate(_ context.Context, patientID string, _ qrda.MeasurePeriod) (*qrda.Result, error) {
	if err := g.errs[patientID]; err != nil {
		return nil, err
	}
	return g.results[patientID], nil
}

// fakeStore records runner persistence calls.
type fakeStore struct {
	mu        sync.Mutex
	running   []string
	finished  *Job
	outcomes  []Outcome
	documents map[string][]byte
	markErr   error
	finishErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{documents: make(map[string][]byte)}
}

func (s *fakeStore) MarkRunning(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = append(s.running, id)
	return s.markErr
}

func (s *fakeStore) FinishJob(_ context.Context, job *Job, outcomes []Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = job
	s.outcomes = outcomes
	return s.finishErr
}

func (s *fakeStore) SaveDocument(_ context.Context, jobID, patientID string, xml []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[jobID+"/"+patientID] = xml
	return nil
}

func (s *fakeStore) outcomeFor(patientID string) *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outcomes {
		if s.outcomes[i].PatientID == patientID {
			return &s.outcomes[i]
		}
	}
	return nil
}

func testJob(patients ...string) *Job {
	return &Job{
		ID:          "job-1",
		MeasureCode: qrda.MeasureCode,
		Period:      qrda.MeasurePeriod{Start: "2026-01-01", End: "2026-12-31"},
		PatientIDs:  patients,
		Status:      StatusRunning,
	}
}

func TestRunMixedOutcomes(t *testing.T) {
	gen := &fakeGenerator{
		results: map[string]*qrda.Result{
			"generated": {PatientID: "generated", Document: []byte("<ClinicalDocument/>")},
			"empty":     nil,
		},
		errs: map[string]error{
			"failed": errors.New("fhir read failed"),
		},
	}
	store := newFakeStore()
	runner := NewRunner(gen, store, nil, 2, nil)

	if err := runner.Run(context.Background(), testJob("generated", "empty", "failed")); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if store.finished == nil {
		t.Fatal("job never finished")
	}
	if store.finished.Status != StatusCompleted {
		t.Errorf("a partial failure must not fail the job, got %s", store.finished.Status)
	}
	if len(store.outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(store.outcomes))
	}

	if o := store.outcomeFor("generated"); o == nil || o.Status != OutcomeGenerated {
		t.Errorf("generated outcome = %+v", o)
	}
	if o := store.outcomeFor("empty"); o == nil || o.Status != OutcomeEmpty {
		t.Errorf("empty outcome = %+v", o)
	}
	if o := store.outcomeFor("failed"); o == nil || o.Status != OutcomeFailed || o.Error == "" {
		t.Errorf("failed outcome = %+v", o)
	}

	if _, ok := store.documents["job-1/generated"]; !ok {
		t.Error("generated document not saved")
	}
	if len(store.documents) != 1 {
		t.Errorf("only the generated document should be saved, got %d", len(store.documents))
	}
}

func TestRunAllPatientsFailed(t *testing.T) {
	gen := &fakeGenerator{errs: map[string]error{
		"p1": errors.New("boom"),
		"p2": errors.New("boom"),
	}}
	store := newFakeStore()
	runner := NewRunner(gen, store, nil, 2, nil)

	if err := runner.Run(context.Background(), testJob("p1", "p2")); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if store.finished.Status != StatusFailed {
		t.Errorf("all patients failing must fail the job, got %s", store.finished.Status)
	}
	if store.finished.Error == "" {
		t.Error("failed job should carry an error")
	}
}

func TestRunMarkRunningErrorTolerated(t *testing.T) {
	gen := &fakeGenerator{results: map[string]*qrda.Result{
		"p1": {PatientID: "p1", Document: []byte("x")},
	}}
	store := newFakeStore()
	store.markErr = errors.New("already running")
	runner := NewRunner(gen, store, nil, 1, nil)

	// A replayed event hitting a non-pending job still runs to completion.
	if err := runner.Run(context.Background(), testJob("p1")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if store.finished == nil || store.finished.Status != StatusCompleted {
		t.Errorf("job should complete despite mark-running failure: %+v", store.finished)
	}
}

func TestSubmitRejectionRecordsFailedOutcome(t *testing.T) {
	runner := NewRunner(&fakeGenerator{}, newFakeStore(), nil, 1, nil)

	cfg := workerpool.DefaultConfig()
	cfg.Workers = 1
	pool, err := workerpool.New(cfg, func(context.Context, *workerpool.Task) *workerpool.Result {
		return &workerpool.Result{Success: true}
	}, nil)
	if err != nil {
		t.Fatalf("pool init failed: %v", err)
	}
	pool.Start()
	pool.Stop()

	// Submissions against the stopped pool are rejected; each must surface
	// as a failed outcome so no result is awaited for it.
	job := testJob("p1", "p2")
	outcomes, submitted := runner.submitAll(context.Background(), pool, job, time.Now().UTC())

	if submitted != 0 {
		t.Errorf("submitted = %d, want 0", submitted)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Status != OutcomeFailed || o.Error == "" {
			t.Errorf("rejected submission outcome = %+v", o)
		}
	}
}

func TestHandleRequested(t *testing.T) {
	gen := &fakeGenerator{results: map[string]*qrda.Result{
		"p1": {PatientID: "p1", Document: []byte("x")},
	}}
	store := newFakeStore()
	runner := NewRunner(gen, store, nil, 1, nil)

	payload, _ := json.Marshal(RequestedData{
		JobID:       "job-evt",
		MeasureCode: qrda.MeasureCode,
		PeriodStart: "2026-01-01",
		PeriodEnd:   "2026-12-31",
		PatientIDs:  []string{"p1"},
	})

	if err := runner.HandleRequested(context.Background(), payload); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if store.finished == nil || store.finished.ID != "job-evt" {
		t.Errorf("finished job = %+v", store.finished)
	}
}

func TestHandleRequestedBadPayload(t *testing.T) {
	runner := NewRunner(&fakeGenerator{}, newFakeStore(), nil, 1, nil)
	if err := runner.HandleRequested(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
