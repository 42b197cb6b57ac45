package manager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dot5enko/halo2-color-plate-extractor/tag"
)

const DataExtension = ".tif"

// NormalizeTagPath accepts tag paths written with either separator.
func NormalizeTagPath(rel string) string {
	return strings.ReplaceAll(rel, `\`, string(filepath.Separator))
}

func (m *Manager) TagFilePath(rel string) string {
	return filepath.Join(m.config.TagsRoot, rel)
}

// DataFilePath maps a relative tag path to its image under the data root.
func (m *Manager) DataFilePath(rel string) string {
	return filepath.Join(m.config.DataRoot, strings.TrimSuffix(rel, filepath.Ext(rel))+DataExtension)
}

// DiscoverTags walks root and calls visit with the root-relative path of
// every regular file carrying the tag extension. Symlinks are followed,
// except a directory link back into one of its own ancestors. Unreadable
// directories below root are skipped.
func DiscoverTags(root string, visit func(rel string) error) error {

	info, statErr := os.Stat(root)
	if statErr != nil {
		return statErr
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	walker := tagWalker{root: root, visit: visit}

	return walker.walk(root, []fs.FileInfo{info})
}

type tagWalker struct {
	root  string
	visit func(rel string) error
}

// walk lists dir; ancestors holds every directory from root down to dir.
func (w *tagWalker) walk(dir string, ancestors []fs.FileInfo) error {

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		if errors.Is(readErr, fs.ErrPermission) && dir != w.root {
			return nil
		}
		return readErr
	}

	for _, entry := range entries {

		path := filepath.Join(dir, entry.Name())

		// follows symlinks; dangling ones and files gone since the listing
		// are skipped
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}

		if info.IsDir() {
			cycle := slices.ContainsFunc(ancestors, func(a fs.FileInfo) bool {
				return os.SameFile(a, info)
			})
			if cycle {
				continue
			}

			if walkErr := w.walk(path, append(ancestors, info)); walkErr != nil {
				return walkErr
			}
			continue
		}

		if !info.Mode().IsRegular() || filepath.Ext(path) != tag.Extension {
			continue
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return relErr
		}

		if visitErr := w.visit(rel); visitErr != nil {
			return visitErr
		}
	}

	return nil
}
