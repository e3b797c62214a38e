package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FailureKind classifies what went wrong, per the error taxonomy: stage
// failures never abort a batch, they are collected here and surfaced at the
// end of the run.
type FailureKind string

const (
	FailureTransient     FailureKind = "transient"
	FailureValidation    FailureKind = "validation"
	FailureIntegrity     FailureKind = "integrity"
	FailureConfiguration FailureKind = "configuration"
)

type Failure struct {
	Stage   string      `json:"stage"`
	Kind    FailureKind `json:"kind"`
	Subject string      `json:"subject"`
	Error   string      `json:"error"`
}

// Report records counts and identities per stage for one pipeline run. It
// is safe for concurrent use within a pass.
type Report struct {
	mu sync.Mutex

	RunID       string     `json:"run_id"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Discovered  []string   `json:"discovered"`
	Downloaded  []string   `json:"downloaded"`
	Processed   []string   `json:"processed"`
	Oversized   []string   `json:"oversized"`
	Categorized []string   `json:"categorized"`
	Scheduled   []string   `json:"scheduled"`
	Cleaned     []string   `json:"cleaned"`
	Failures    []Failure  `json:"failures"`
}

func NewReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

func (r *Report) Finish() {
	now := time.Now().UTC()
	r.FinishedAt = &now
}

// Add records a stage completion for one subject.
func (r *Report) Add(stage, subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch stage {
	case "discover":
		r.Discovered = append(r.Discovered, subject)
	case "download":
		r.Downloaded = append(r.Downloaded, subject)
	case "process":
		r.Processed = append(r.Processed, subject)
	case "oversized":
		r.Oversized = append(r.Oversized, subject)
	case "categorize":
		r.Categorized = append(r.Categorized, subject)
	case "schedule":
		r.Scheduled = append(r.Scheduled, subject)
	case "cleanup":
		r.Cleaned = append(r.Cleaned, subject)
	}
}

func (r *Report) Fail(stage string, kind FailureKind, subject string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, Failure{
		Stage:   stage,
		Kind:    kind,
		Subject: subject,
		Error:   err.Error(),
	})
}

// Rows renders the per-stage counts for tabular output.
func (r *Report) Rows() [][]string {
	return [][]string{
		{"discovered", fmt.Sprintf("%d", len(r.Discovered))},
		{"downloaded", fmt.Sprintf("%d", len(r.Downloaded))},
		{"processed", fmt.Sprintf("%d", len(r.Processed))},
		{"oversized", fmt.Sprintf("%d", len(r.Oversized))},
		{"categorized", fmt.Sprintf("%d", len(r.Categorized))},
		{"scheduled", fmt.Sprintf("%d", len(r.Scheduled))},
		{"cleaned", fmt.Sprintf("%d", len(r.Cleaned))},
		{"failures", fmt.Sprintf("%d", len(r.Failures))},
	}
}

func episodeSubject(id int, ytID string) string {
	return fmt.Sprintf("episode %d (%s)", id, ytID)
}
