package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Loader produces a classifier, typically by reading an artifact from disk.
type Loader func(ctx context.Context) (Classifier, error)

// Slot holds the active classifier for the lifetime of a process.
//
// A Slot starts empty. Load stores a classifier once it has been built and
// Close removes it again. Classifier returns ErrModelUnavailable whenever
// the slot is empty, so callers never see a partially loaded model.
type Slot struct {
	current atomic.Pointer[slotEntry]

	// mu serializes stores with Close; readers only touch current.
	mu     sync.Mutex
	closed bool
}

type slotEntry struct {
	clf Classifier
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Loaded returns a slot that already holds clf.
func Loaded(clf Classifier) *Slot {
	s := NewSlot()
	s.current.Store(&slotEntry{clf: clf})
	return s
}

// Load runs load and stores its result. A failed load leaves any previously
// stored classifier in place.
func (s *Slot) Load(ctx context.Context, load Loader) error {
	if s.isClosed() {
		return fmt.Errorf("%w: slot is closed", ErrModelUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	clf, err := load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	if clf == nil {
		return errors.New("failed to load model: loader returned nil")
	}
	if err := ctx.Err(); err != nil {
		_ = closeClassifier(clf)
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = closeClassifier(clf)
		return fmt.Errorf("%w: slot is closed", ErrModelUnavailable)
	}
	old := s.current.Swap(&slotEntry{clf: clf})
	s.mu.Unlock()

	if old != nil {
		_ = closeClassifier(old.clf)
	}
	return nil
}

func (s *Slot) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Classifier returns the stored classifier or ErrModelUnavailable.
func (s *Slot) Classifier() (Classifier, error) {
	e := s.current.Load()
	if e == nil {
		return nil, ErrModelUnavailable
	}
	return e.clf, nil
}

// Ready reports whether a classifier is stored.
func (s *Slot) Ready() bool {
	return s.current.Load() != nil
}

// Close empties the slot. Later calls to Classifier report
// ErrModelUnavailable and later loads fail.
func (s *Slot) Close() error {
	s.mu.Lock()
	s.closed = true
	old := s.current.Swap(nil)
	s.mu.Unlock()

	if old != nil {
		return closeClassifier(old.clf)
	}
	return nil
}

func closeClassifier(clf Classifier) error {
	if c, ok := clf.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// FileLoader returns a Loader that reads the artifact at path, or the
// compiled-in default model when path is empty.
func FileLoader(path string) Loader {
	return func(context.Context) (Classifier, error) {
		if path == "" {
			return Default()
		}
		return Load(path)
	}
}
