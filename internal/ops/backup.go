// Package ops archives and restores the tracker data directory.
package ops

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var ErrUnsafeEntry = errors.New("unsafe archive entry")

// Summary describes one archive or restore run.
type Summary struct {
	Archive string
	Dir     string
	Files   int
	Bytes   int64
}

// DefaultArchiveName is the file name used when no output path is given.
func DefaultArchiveName(now time.Time) string {
	return "lifetracker-" + now.UTC().Format("20060102T150405Z") + ".tar.gz"
}

// Backup writes every regular file under dataDir into a gzipped tar at
// archivePath. Symlinks are skipped. An archive inside dataDir is not
// included in itself.
func Backup(dataDir, archivePath string, log zerolog.Logger) (Summary, error) {
	dataDir = filepath.Clean(strings.TrimSpace(dataDir))
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	if dataDir == "." || archivePath == "." {
		return Summary{}, fmt.Errorf("data dir and archive path are required")
	}
	info, err := os.Stat(dataDir)
	if err != nil {
		return Summary{}, fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("data dir is not a directory: %s", dataDir)
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return Summary{}, fmt.Errorf("create archive dir: %w", err)
	}
	absArchive, _ := filepath.Abs(archivePath)

	f, err := os.Create(archivePath)
	if err != nil {
		return Summary{}, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	sum := Summary{Archive: archivePath, Dir: dataDir}
	walkErr := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dataDir || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absArchive {
			return nil
		}

		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		n, err := copyFileInto(tw, path)
		if err != nil {
			return err
		}
		sum.Files++
		sum.Bytes += n
		return nil
	})
	if walkErr != nil {
		return Summary{}, fmt.Errorf("archive %s: %w", dataDir, walkErr)
	}
	if err := tw.Close(); err != nil {
		return Summary{}, fmt.Errorf("close tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return Summary{}, fmt.Errorf("close gzip: %w", err)
	}

	log.Info().Str("archive", archivePath).Int("files", sum.Files).Int64("bytes", sum.Bytes).Msg("backup written")
	return sum, nil
}

func copyFileInto(w io.Writer, path string) (int64, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return io.Copy(w, src)
}

// Restore unpacks archivePath into targetDir. Entries that would land
// outside targetDir are rejected with ErrUnsafeEntry.
func Restore(archivePath, targetDir string, log zerolog.Logger) (Summary, error) {
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	targetDir = filepath.Clean(strings.TrimSpace(targetDir))
	if archivePath == "." || targetDir == "." {
		return Summary{}, fmt.Errorf("archive path and target dir are required")
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create target dir: %w", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return Summary{}, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Summary{}, fmt.Errorf("read gzip: %w", err)
	}
	defer gz.Close()

	sum := Summary{Archive: archivePath, Dir: targetDir}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("read tar: %w", err)
		}

		rel, err := safeRelPath(hdr.Name)
		if err != nil {
			return sum, err
		}
		out := filepath.Join(targetDir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(out, 0o755); err != nil {
				return sum, err
			}
		case tar.TypeReg:
			n, err := writeFileFrom(out, tr, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return sum, fmt.Errorf("restore %s: %w", rel, err)
			}
			sum.Files++
			sum.Bytes += n
		default:
			log.Debug().Str("entry", hdr.Name).Msg("skipping unsupported archive entry")
		}
	}

	log.Info().Str("archive", archivePath).Str("target", targetDir).Int("files", sum.Files).Msg("backup restored")
	return sum, nil
}

func writeFileFrom(path string, r io.Reader, mode os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	if mode == 0 {
		mode = 0o644
	}
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, r)
	if err != nil {
		_ = dst.Close()
		return n, err
	}
	return n, dst.Close()
}

func safeRelPath(name string) (string, error) {
	name = filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	if name == "." || name == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsafeEntry)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: absolute path %s", ErrUnsafeEntry, name)
	}
	if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path traversal %s", ErrUnsafeEntry, name)
	}
	return name, nil
}

// Digest hashes the relative paths and contents of every regular file
// under root. Two trees with the same files produce the same digest.
func Digest(root string) (string, error) {
	root = filepath.Clean(root)
	var rels []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(rels)

	h := sha256.New()
	for _, rel := range rels {
		_, _ = io.WriteString(h, rel+"\n")
		if _, err := copyFileInto(h, filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			return "", err
		}
		_, _ = io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
