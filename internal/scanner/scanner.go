// Package scanner discovers source folders containing call recordings.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"call-qa-go/internal/types"
)

// Folder is one source directory with its eligible recordings in name
// order.
type Folder struct {
	Name  string
	Path  string
	Items []types.AudioItem
}

// Scan walks root (root itself included) and returns every directory
// holding at least one .mp3 or .wav file, in deterministic walk order.
func Scan(root string) ([]Folder, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	var folders []Folder
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		items, err := listAudio(path)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		folders = append(folders, Folder{
			Name:  filepath.Base(path),
			Path:  path,
			Items: items,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return folders, nil
}

func listAudio(dir string) ([]types.AudioItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var items []types.AudioItem
	for _, e := range entries {
		if e.IsDir() || !IsAudioFile(e.Name()) {
			continue
		}
		items = append(items, types.AudioItem{
			Path:     filepath.Join(dir, e.Name()),
			Name:     e.Name(),
			Folder:   filepath.Base(dir),
			MimeType: MimeType(e.Name()),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// IsAudioFile reports whether name has an eligible extension.
func IsAudioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav":
		return true
	}
	return false
}

// MimeType maps the file extension to the MIME type sent upstream.
func MimeType(name string) string {
	if strings.ToLower(filepath.Ext(name)) == ".wav" {
		return "audio/wav"
	}
	return "audio/mpeg"
}
