package dicom

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern is the glob used to select files when scanning a directory.
const DefaultPattern = "*.dcm"

// Group collects the files of one series found while scanning a directory.
type Group struct {
	UID   string
	Files []*File
	// Meta is the metadata of the last file added to the group.
	Meta Metadata
}

// FrameCount returns the number of frames across all files of the group.
func (g *Group) FrameCount() int {
	n := 0
	for _, f := range g.Files {
		n += len(f.Frames)
	}
	return n
}

// ScanDir walks root recursively and groups every readable DICOM image whose
// base name matches pattern by Series Instance UID.
//
// Unreadable files, presentation states and DICOMDIR files are skipped.
// A nil logger discards the warnings.
func ScanDir(root, pattern string, logger *slog.Logger) (map[string]*Group, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotDirectory, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(d.Name(), "DICOMDIR") {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(paths)

	groups := make(map[string]*Group)
	for _, path := range paths {
		f, err := ReadFile(path)
		if err != nil {
			logger.Warn("skipping file", "path", path, "error", err)
			continue
		}
		if f.Meta.IsPresentationState() {
			logger.Debug("skipping presentation state", "path", path)
			continue
		}

		uid := f.Meta.SeriesInstanceUID
		g, ok := groups[uid]
		if !ok {
			g = &Group{UID: uid}
			groups[uid] = g
		}
		g.Files = append(g.Files, f)
		g.Meta = f.Meta
	}

	return groups, nil
}

// ReadDir scans root and assembles one Series per Series Instance UID. Each
// series is keyed by the lexically smallest path among its files.
func ReadDir(root, pattern string, logger *slog.Logger) (map[string]*Series, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	groups, err := ScanDir(root, pattern, logger)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Series, len(groups))
	for uid, g := range groups {
		s, err := Assemble(g.Files)
		if err != nil {
			logger.Warn("skipping series", "uid", uid, "error", err)
			continue
		}
		key := g.Files[0].Path
		for _, f := range g.Files[1:] {
			if f.Path < key {
				key = f.Path
			}
		}
		out[key] = s
	}
	return out, nil
}
