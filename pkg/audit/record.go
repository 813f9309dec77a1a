package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one audit trail entry describing a successful policy mutation.
type Record struct {
	// ID is a unique identifier for this record.
	ID string `json:"id"`

	// Op is the mutation that was performed: "add", "update", or
	// "delete".
	Op string `json:"op"`

	// PolicyName is the name of the affected policy.
	PolicyName string `json:"policy_name"`

	// Detail is a short human-readable description of the change.
	Detail string `json:"detail,omitempty"`

	// Timestamp is when the mutation completed.
	Timestamp time.Time `json:"timestamp"`
}

// NewRecord creates a Record with a fresh UUID and the current time.
func NewRecord(op, policyName, detail string) *Record {
	return &Record{
		ID:         uuid.NewString(),
		Op:         op,
		PolicyName: policyName,
		Detail:     detail,
		Timestamp:  time.Now().UTC(),
	}
}

// Filter narrows a List query. Zero values match everything.
type Filter struct {
	// Op restricts results to one mutation type.
	Op string

	// PolicyName restricts results to one policy, matched
	// case-insensitively.
	PolicyName string

	// Limit caps the number of returned records. Zero means no cap.
	Limit int
}

// Sink persists audit records. Implementations must be safe for
// concurrent use.
type Sink interface {
	// Write persists one record.
	Write(ctx context.Context, rec *Record) error

	// List returns records matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]*Record, error)

	// Prune deletes records older than the cutoff and returns the number
	// deleted.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases resources held by the sink.
	Close() error
}
