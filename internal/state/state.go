package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"BreakoutScanner/internal/model"
)

// LoadSummary reads the last scan summary from a JSON file.
// Returns nil without error if the file doesn't exist.
func LoadSummary(filePath string) (*model.ScanSummary, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sum model.ScanSummary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	if sum.YearCounts == nil {
		sum.YearCounts = map[int]int{}
	}
	return &sum, nil
}

// SaveSummary writes the scan summary to a JSON file, replacing any previous one.
func SaveSummary(filePath string, sum *model.ScanSummary) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
