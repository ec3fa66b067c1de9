// Package corpus finds archived games and captures on disk and exposes them
// as lazily loaded game sources.
package corpus

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/jason-s-yu/baloot/internal/archive"
	"github.com/jason-s-yu/baloot/internal/event"
	"github.com/jason-s-yu/baloot/internal/wire"
)

// Extensions recognised by Load.
const (
	ArchiveExt = ".json"
	CaptureExt = ".bcap"
)

// Game is a loadable game. It has the method set of report.Source.
type Game interface {
	Name() string
	Events() ([]event.Event, error)
}

// ArchiveGame is an archive file used as a game source. The file is read
// and parsed only when Events is called.
type ArchiveGame struct {
	Path string
	Log  logrus.FieldLogger
}

// Name is the file's base name without extension.
func (a *ArchiveGame) Name() string {
	return strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
}

// Events parses the archive and adapts it to canonical events.
func (a *ArchiveGame) Events() ([]event.Event, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	file, err := archive.Parse(f)
	if err != nil {
		return nil, err
	}
	log := a.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return archive.NewAdapter(log.WithField("game", a.Name())).Events(file), nil
}

// UnreadableGame stands in for a file Load could not read, so the failure
// is reported with the rest of the corpus.
type UnreadableGame struct {
	Path string
	Err  error
}

func (u *UnreadableGame) Name() string {
	return strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
}

func (u *UnreadableGame) Events() ([]event.Event, error) { return nil, u.Err }

// Options configures Load.
type Options struct {
	// Decoder limits apply to capture files.
	Decoder wire.Decoder
	// NoCaptures skips capture files.
	NoCaptures bool
	Log        logrus.FieldLogger
}

// Corpus is the result of scanning a directory.
type Corpus struct {
	Root  string
	Games []Game
	// Duplicates maps a skipped path to the path with identical content
	// that was kept.
	Duplicates map[string]string
}

// Load walks root for archives and captures. Files with identical bytes are
// kept once, by BLAKE2b-256 of their content; the first path in lexical
// order wins.
func Load(root string, opts Options) (*Corpus, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	if !info.IsDir() {
		paths = []string{root}
	} else {
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if p != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			switch strings.ToLower(filepath.Ext(p)) {
			case ArchiveExt:
				paths = append(paths, p)
			case CaptureExt:
				if !opts.NoCaptures {
					paths = append(paths, p)
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(paths)

	c := &Corpus{Root: root, Duplicates: map[string]string{}}
	seen := map[[blake2b.Size256]byte]string{}
	for _, p := range paths {
		sum, err := hashFile(p)
		if err != nil {
			log.WithError(err).WithField("path", p).Warn("unreadable file")
			c.Games = append(c.Games, &UnreadableGame{Path: p, Err: err})
			continue
		}
		if first, dup := seen[sum]; dup {
			c.Duplicates[p] = first
			log.WithFields(logrus.Fields{"path": p, "same_as": first}).Debug("duplicate file")
			continue
		}
		seen[sum] = p
		if strings.EqualFold(filepath.Ext(p), CaptureExt) {
			c.Games = append(c.Games, &CaptureGame{Path: p, Decoder: opts.Decoder, Log: log})
		} else {
			c.Games = append(c.Games, &ArchiveGame{Path: p, Log: log})
		}
	}
	log.WithFields(logrus.Fields{
		"root":       root,
		"games":      len(c.Games),
		"duplicates": len(c.Duplicates),
	}).Info("corpus loaded")
	return c, nil
}

func hashFile(path string) ([blake2b.Size256]byte, error) {
	var sum [blake2b.Size256]byte
	f, err := os.Open(path)
	if err != nil {
		return sum, err
	}
	defer f.Close()
	h, err := blake2b.New256(nil)
	if err != nil {
		return sum, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// Fingerprint returns the hex BLAKE2b-256 of b, the key Load de-duplicates
// on.
func Fingerprint(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// WriteSample writes the built-in sample game to dir as an archive and as a
// capture seen from seat 0, and returns both paths.
func WriteSample(dir, id string) (string, string, error) {
	b := archive.SampleArchive(id)
	js, err := b.JSON()
	if err != nil {
		return "", "", err
	}
	archivePath := filepath.Join(dir, id+ArchiveExt)
	if err := os.WriteFile(archivePath, js, 0o644); err != nil {
		return "", "", err
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	evs := archive.NewAdapter(log).Events(b.File())
	frames, err := EncodeCapture(&wire.Encoder{CompressAbove: 256}, evs, 0)
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	if err := WriteFrames(&buf, frames); err != nil {
		return "", "", err
	}
	capturePath := filepath.Join(dir, id+CaptureExt)
	if err := os.WriteFile(capturePath, buf.Bytes(), 0o644); err != nil {
		return "", "", err
	}
	return archivePath, capturePath, nil
}
