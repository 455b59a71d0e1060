package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var localSourceExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".docx": true,
}

// EnumerateLocal implements spec §4.4's local branch: a directory is walked
// recursively for files with a recognized extension, truncated to maxURLs; a
// plain file yields itself.
func EnumerateLocal(root string, maxURLs int) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if localSourceExtensions[strings.ToLower(filepath.Ext(path))] {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	if maxURLs > 0 && len(found) > maxURLs {
		found = found[:maxURLs]
	}
	return found, nil
}
