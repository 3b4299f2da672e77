package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// TempName returns the sibling name a download is streamed into before the
// final rename: file.zip -> file.tmp.zip, README -> README.tmp.
func TempName(fileName string) string {
	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	if ext == "" || stem == "" {
		return fileName + TempMarker
	}
	return stem + TempMarker + ext
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func FormatSpeed(bytesPerSecond int64) string {
	if bytesPerSecond <= 0 {
		return "0 B/s"
	}
	return FormatBytes(uint64(bytesPerSecond)) + "/s"
}

var ledgerMu sync.Mutex

// RecordTemp notes a temp file left behind in dir by a failed download.
func RecordTemp(dir, tempName string) error {
	ledgerMu.Lock()
	defer ledgerMu.Unlock()
	f, err := os.OpenFile(filepath.Join(dir, TempLedger), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, tempName); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// CleanTemp removes the temp files recorded in dir's ledger and then the
// ledger itself. Files pulldown did not record are never touched, whatever
// their name.
func CleanTemp(dir string) ([]string, error) {
	ledgerMu.Lock()
	defer ledgerMu.Unlock()
	ledgerPath := filepath.Join(dir, TempLedger)
	data, err := os.ReadFile(ledgerPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading temp ledger: %w", err)
	}
	var removed []string
	seen := make(map[string]bool)
	for _, name := range strings.Split(string(data), "\n") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] || !isTempName(name) {
			continue
		}
		seen[name] = true
		path := filepath.Join(dir, name)
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	if err := os.Remove(ledgerPath); err != nil {
		return removed, err
	}
	return removed, nil
}

// isTempName rejects anything TempName could not have produced, including
// names that reach outside the directory.
func isTempName(name string) bool {
	if name != filepath.Base(name) || strings.ContainsAny(name, "/\\") {
		return false
	}
	if strings.HasSuffix(name, TempMarker) {
		return true
	}
	ext := filepath.Ext(name)
	return ext != "" && strings.HasSuffix(strings.TrimSuffix(name, ext), TempMarker)
}

func ReadBatchFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading batch file: %w", err)
	}
	var batch BatchFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("error parsing batch file: %w", err)
	}
	var links []string
	for _, entry := range batch.Downloads {
		if link := strings.TrimSpace(entry.Link); link != "" {
			links = append(links, link)
		}
	}
	if len(links) == 0 {
		return nil, ErrEmptyBatch
	}
	return links, nil
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
