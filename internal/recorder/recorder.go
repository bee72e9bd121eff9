package recorder

import "BreakoutScanner/internal/model"

// Recorder persists scan results for later analysis.
type Recorder interface {
	RecordScan(summary *model.ScanSummary) error
	Close() error
}
