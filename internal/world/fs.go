// Package world discovers and reads the files a kirby session refers to.
package world

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kirby/internal/config"
	"kirby/internal/logging"
)

// ExpandPath resolves ~ and makes p absolute and clean.
func ExpandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	return abs, nil
}

// DiscoverFiles expands root into the absolute paths of the regular files
// under it, sorted. A file root yields itself. A missing root yields an empty
// list and a warning log. Ignored directories are not descended into.
func DiscoverFiles(root string, cfg config.FilesConfig) ([]string, error) {
	timer := logging.StartTimer(logging.CategoryWorld, "DiscoverFiles")
	defer timer.Stop()

	abs, err := ExpandPath(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			logging.WorldWarn("Path does not exist: %s", abs)
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}

	files := []string{}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == abs {
			return nil
		}

		rel, relErr := filepath.Rel(abs, path)
		if relErr != nil {
			return relErr
		}
		if isIgnoredRel(rel, d.Name(), cfg.IgnorePatterns) {
			logging.WorldDebug("Skipping ignored: %s", rel)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", abs, err)
	}

	sort.Strings(files)
	logging.World("Discovered %d file(s) under %s", len(files), abs)
	return files, nil
}

// ReadFile returns the trimmed contents of path, or "" when the file is
// larger than maxBytes or unreadable (both are logged).
func ReadFile(path string, maxBytes int64) string {
	info, err := os.Stat(path)
	if err != nil {
		logging.WorldWarn("Error reading %s: %v", path, err)
		return ""
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		logging.WorldWarn("%s is %d bytes (limit %d); skipped", path, info.Size(), maxBytes)
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logging.WorldWarn("Error reading %s: %v", path, err)
		return ""
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(data), "�"))
}

// ReadFiles renders files as fenced blocks under a "📁 <label>:" header.
// Files that are empty, too large or unreadable are left out. No files gives
// an empty slice.
func ReadFiles(files []string, label string, maxBytes int64) []string {
	if len(files) == 0 {
		return []string{}
	}
	out := []string{fmt.Sprintf("📁 %s:", label)}
	for _, path := range files {
		text := ReadFile(path, maxBytes)
		if text == "" {
			continue
		}
		out = append(out, fmt.Sprintf("File: %s\n```\n%s\n```", path, text))
	}
	logging.World("Read %d file(s) for %s", len(out)-1, label)
	return out
}
