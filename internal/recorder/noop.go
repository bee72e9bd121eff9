package recorder

import "BreakoutScanner/internal/model"

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *model.ScanSummary) error { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
