// Package report aggregates item results per source folder and persists
// them.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"call-qa-go/internal/types"
)

// Aggregate computes the per-folder counters over an ordered result
// list. SuccessfulFiles + FailedFiles always equals TotalFiles.
func Aggregate(folderName string, results []types.ItemResult) types.FolderReport {
	report := types.FolderReport{
		Folder:     folderName,
		TotalFiles: len(results),
		Results:    results,
	}
	for _, r := range results {
		if r.Success {
			report.SuccessfulFiles++
		} else {
			report.FailedFiles++
		}
	}
	return report
}

// WriteJSON persists the report as <dir>/<folder>.json. The document is
// written to a temp file in the same directory and renamed into place so
// a crash mid-write cannot corrupt a previously written report.
// Non-ASCII transcript content is emitted as-is, not escaped.
func WriteJSON(report types.FolderReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	dest := filepath.Join(dir, report.Folder+".json")
	tmp, err := os.CreateTemp(dir, report.Folder+"-*.json.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename report: %w", err)
	}
	return dest, nil
}
