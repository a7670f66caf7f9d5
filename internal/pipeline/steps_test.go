package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nao1215/phishscan/internal/model"
)

// fakeScorer returns a canned result or error per URL.
type fakeScorer struct {
	errs map[string]error
}

func (f *fakeScorer) Score(_ context.Context, rawURL string) (*model.PredictionResult, error) {
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	r := model.NewPredictionResult(rawURL)
	r.Label = model.LabelBenign
	r.Probability = 0.1
	return r, nil
}

// memoryStore is an in-memory history store.
type memoryStore struct {
	mu      sync.Mutex
	latest  map[string]*model.PredictionResult
	saved   []*model.PredictionResult
	readErr error
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{latest: map[string]*model.PredictionResult{}}
}

func (m *memoryStore) Latest(_ context.Context, url string) (*model.PredictionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.latest[url], nil
}

func (m *memoryStore) SavePrediction(_ context.Context, r *model.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, r)
	m.latest[r.URL] = r
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func TestScoreStep(t *testing.T) {
	t.Parallel()

	t.Run("sets result", func(t *testing.T) {
		t.Parallel()

		job := NewJob("https://example.com", 0)
		step := NewScoreStep(&fakeScorer{})
		if step.Name() != "score" {
			t.Errorf("unexpected name %q", step.Name())
		}
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.Result == nil || job.Result.URL != "https://example.com" {
			t.Errorf("unexpected result: %+v", job.Result)
		}
	})

	t.Run("returns scorer error unchanged", func(t *testing.T) {
		t.Parallel()

		errBad := errors.New("bad url")
		job := NewJob("bad", 0)
		err := NewScoreStep(&fakeScorer{errs: map[string]error{"bad": errBad}}).Do(context.Background(), job)
		if !errors.Is(err, errBad) {
			t.Errorf("expected errBad, got %v", err)
		}
		if job.Result != nil {
			t.Error("expected no result")
		}
	})
}

func TestLookupStep(t *testing.T) {
	t.Parallel()

	t.Run("loads previous verdict", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		prev := model.NewPredictionResult("https://example.com")
		prev.Label = model.LabelMalicious
		store.latest[prev.URL] = prev

		job := NewJob(prev.URL, 0)
		if err := NewLookupStep(store, nil).Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.Previous != prev {
			t.Error("expected previous result")
		}

		job.Result = model.NewPredictionResult(prev.URL)
		job.Result.Label = model.LabelBenign
		if !job.VerdictChanged() {
			t.Error("expected verdict change")
		}
	})

	t.Run("read errors do not fail the job", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.readErr = errors.New("disk on fire")

		job := NewJob("https://example.com", 0)
		if err := NewLookupStep(store, nil).Do(context.Background(), job); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if job.Previous != nil || job.VerdictChanged() {
			t.Error("expected no previous verdict")
		}
	})
}

func TestPersistStep(t *testing.T) {
	t.Parallel()

	t.Run("saves result", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		job := NewJob("https://example.com", 0)
		job.Result = model.NewPredictionResult(job.URL)

		if err := NewPersistStep(store).Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.count() != 1 {
			t.Errorf("expected 1 saved result, got %d", store.count())
		}
	})

	t.Run("requires a result", func(t *testing.T) {
		t.Parallel()

		err := NewPersistStep(newMemoryStore()).Do(context.Background(), NewJob("x", 0))
		if !errors.Is(err, errNoResult) {
			t.Errorf("expected errNoResult, got %v", err)
		}
	})

	t.Run("propagates save errors", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.saveErr = errors.New("locked")
		job := NewJob("x", 0)
		job.Result = model.NewPredictionResult("x")

		if err := NewPersistStep(store).Do(context.Background(), job); err == nil {
			t.Error("expected error")
		}
	})
}
