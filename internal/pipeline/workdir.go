package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workdir is the per-raster scratch area holding the tile images and the
// detector's label output. The root is uuid-suffixed so reruns and crashed
// runs never collide.
type Workdir struct {
	Root   string
	Tiles  string
	Labels string
}

// NewWorkdir creates the tiles and labels directories under base.
func NewWorkdir(base, stem string) (*Workdir, error) {
	root := filepath.Join(base, fmt.Sprintf("%s-%s", stem, uuid.NewString()))
	w := &Workdir{
		Root:   root,
		Tiles:  filepath.Join(root, "tiles"),
		Labels: filepath.Join(root, "labels"),
	}
	for _, dir := range []string{w.Tiles, w.Labels} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating workdir %s: %w", dir, err)
		}
	}
	return w, nil
}

// Remove deletes the whole scratch area.
func (w *Workdir) Remove() error {
	return os.RemoveAll(w.Root)
}
