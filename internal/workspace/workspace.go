package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Entry is a directory under the workspace root.
type Entry struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	IsRepository bool   `json:"is_repository"`
}

// Workspace maps repository names to directories under a single root.
type Workspace struct {
	root string

	logger *zap.Logger
}

// New creates the root directory if needed.
func New(config Config, logger *zap.Logger) (*Workspace, error) {
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", mkErr)
	}

	logger.Info("workspace ready", zap.String("root", root))

	return &Workspace{
		root:   root,
		logger: logger,
	}, nil
}

func (w *Workspace) Root() string {
	return w.root
}

// Resolve returns the directory of a repository. Names are single path
// elements; anything that could escape the root is rejected.
func (w *Workspace) Resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return filepath.Join(w.root, name), nil
}

// List returns the directories under the root sorted by name.
func (w *Workspace) List() ([]Entry, error) {
	items, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	entries := []Entry{}
	for _, item := range items {
		if !item.IsDir() || strings.HasPrefix(item.Name(), ".") {
			continue
		}

		path := filepath.Join(w.root, item.Name())
		entries = append(entries, Entry{
			Name:         item.Name(),
			Path:         path,
			IsRepository: isRepository(path),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

func isRepository(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}
