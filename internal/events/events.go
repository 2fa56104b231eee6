// Package events describes the metadata-only record emitted after every
// analysis request. Events never carry record text or label counts.
package events

import (
	"context"
	"time"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type AnalysisEvent struct {
	RequestID  string    `json:"request_id"`
	ReportID   string    `json:"report_id,omitempty"`
	Source     string    `json:"source"`
	Entity     string    `json:"entity,omitempty"`
	Scheme     string    `json:"scheme"`
	Scorer     string    `json:"scorer"`
	Rows       int       `json:"rows"`
	Rejected   int       `json:"rejected"`
	Matched    int       `json:"matched"`
	Outcome    string    `json:"outcome"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event AnalysisEvent) error
	Close()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AnalysisEvent) error { return nil }

func (NopPublisher) Close() {}
