package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shekified/life-tracker/internal/model"
)

// DefaultFileName is the snapshot file inside the data directory.
const DefaultFileName = "blocks.json"

// FileRepo stores the snapshot as a JSON file, replaced atomically on save.
type FileRepo struct {
	path string
	now  func() time.Time
}

func NewFileRepo(dataDir, fileName string) (*FileRepo, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FileRepo{
		path: filepath.Join(dataDir, fileName),
		now:  time.Now,
	}, nil
}

func (r *FileRepo) Path() string { return r.path }

// Load reads the snapshot. A corrupt file is renamed to
// <name>.corrupt-<timestamp> so the next save does not destroy it.
func (r *FileRepo) Load(ctx context.Context) ([]model.Block, error) {
	_ = ctx

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Block{}, nil
		}
		return nil, err
	}

	blocks, err := Decode(b)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			aside := fmt.Sprintf("%s.corrupt-%s", r.path, r.now().UTC().Format("20060102T150405Z"))
			if rerr := os.Rename(r.path, aside); rerr != nil {
				return nil, fmt.Errorf("%w (quarantine failed: %v)", err, rerr)
			}
		}
		return nil, err
	}
	return blocks, nil
}

func (r *FileRepo) Save(ctx context.Context, blocks []model.Block) error {
	_ = ctx

	b, err := Encode(blocks)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, r.path)
}
