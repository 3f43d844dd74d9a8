// Package snapshot persists the whole block collection as one textual document.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shekified/life-tracker/internal/model"
)

// FormatVersion is written into every snapshot document.
const FormatVersion = 1

// ErrCorrupt marks a snapshot that exists but cannot be decoded.
var ErrCorrupt = errors.New("snapshot corrupt")

// Repo loads and saves the full block collection. Load on a missing
// snapshot returns an empty slice and no error.
type Repo interface {
	Load(ctx context.Context) ([]model.Block, error)
	Save(ctx context.Context, blocks []model.Block) error
}

type document struct {
	Version int           `json:"version"`
	Blocks  []model.Block `json:"blocks"`
}

// Encode renders blocks as the snapshot text.
func Encode(blocks []model.Block) ([]byte, error) {
	if blocks == nil {
		blocks = []model.Block{}
	}
	return json.MarshalIndent(document{Version: FormatVersion, Blocks: blocks}, "", "  ")
}

// Decode parses snapshot text. A bare JSON array of blocks is accepted too.
func Decode(b []byte) ([]model.Block, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return []model.Block{}, nil
	}

	if b[0] == '[' {
		var blocks []model.Block
		if err := json.Unmarshal(b, &blocks); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nonNil(blocks), nil
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
	}
	return nonNil(doc.Blocks), nil
}

func nonNil(blocks []model.Block) []model.Block {
	if blocks == nil {
		return []model.Block{}
	}
	return blocks
}
