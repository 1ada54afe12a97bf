package scanner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Walker traverses the library directory and discovers game files.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new walker.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{logger: logger}
}

// WalkResult represents a file discovered during walking.
type WalkResult struct {
	Path    string // Absolute path
	RelPath string // Path relative to the library root
	Size    int64
	ModTime int64 // Unix millis
}

// Walk traverses the library root and streams discovered game files.
// The channel closes when the walk completes or the context is canceled.
// Hidden entries and files without a recognized archive or installer
// extension are skipped.
func (w *Walker) Walk(ctx context.Context, rootPath string) <-chan WalkResult {
	results := make(chan WalkResult, 100)

	go func() {
		defer close(results)

		err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				w.logger.Error("walk error", "path", path, "error", err)
				// Continue walking despite errors.
				return nil
			}

			// Skip hidden files/directories.
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			if !IsGameFile(d.Name()) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				w.logger.Error("failed to get file info", "path", path, "error", err)
				return nil
			}

			relPath, err := filepath.Rel(rootPath, path)
			if err != nil {
				w.logger.Error("failed to compute relative path", "path", path, "error", err)
				relPath = path
			}

			result := WalkResult{
				Path:    path,
				RelPath: relPath,
				Size:    info.Size(),
				ModTime: info.ModTime().UnixMilli(),
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("walk failed", "root", rootPath, "error", err)
		}
	}()

	return results
}

// gameFileExtensions are the archive, image, and installer formats treated
// as game files in the library.
var gameFileExtensions = map[string]bool{
	".7z":   true,
	".bz2":  true,
	".dmg":  true,
	".exe":  true,
	".gz":   true,
	".iso":  true,
	".msi":  true,
	".pkg":  true,
	".rar":  true,
	".sh":   true,
	".tar":  true,
	".vhd":  true,
	".wim":  true,
	".xz":   true,
	".zip":  true,
}

// IsGameFile reports whether a filename carries a recognized game file
// extension.
func IsGameFile(name string) bool {
	return gameFileExtensions[strings.ToLower(filepath.Ext(name))]
}
