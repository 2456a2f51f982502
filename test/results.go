package test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TestResult is one recorded end-to-end run.
type TestResult struct {
	TestName  string             `json:"test_name"`
	Timestamp time.Time          `json:"timestamp"`
	Duration  time.Duration      `json:"duration"`
	Success   bool               `json:"success"`
	Error     string             `json:"error,omitempty"`
	Status    string             `json:"status,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// TestResultStore appends results as JSON lines, one file per test name.
type TestResultStore struct {
	dir string
	mu  sync.Mutex
}

// NewTestResultStore stores results under dir. An empty dir uses
// $TEST_RESULTS_DIR, falling back to the system temp directory.
func NewTestResultStore(dir string) *TestResultStore {
	if dir == "" {
		dir = os.Getenv("TEST_RESULTS_DIR")
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "go-lanes-test-results")
	}
	return &TestResultStore{dir: dir}
}

// Save appends a result.
func (s *TestResultStore) Save(r *TestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create results directory")
	}
	line, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to encode result")
	}

	f, err := os.OpenFile(s.path(r.TestName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open results file")
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// History returns every saved result of a test in save order.
func (s *TestResultStore) History(name string) ([]*TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to open results file")
	}
	defer f.Close()

	var out []*TestResult
	dec := json.NewDecoder(f)
	for dec.More() {
		r := &TestResult{}
		if err := dec.Decode(r); err != nil {
			return out, errors.Wrap(err, "failed to decode result")
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *TestResultStore) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name)+".jsonl")
}
