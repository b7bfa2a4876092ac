// Package archive stores final game snapshots as zstd-compressed JSON
// files, one per game.
package archive

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/zstd"

	"github.com/KirkDiggler/megapoly/internal/models"
)

const fileSuffix = ".json.zst"

// ErrArchiveNotFound is returned when no archive exists for a game
var ErrArchiveNotFound = errors.New("archive not found")

// ErrInvalidGameID is returned for ids that cannot name an archive file
var ErrInvalidGameID = errors.New("invalid game id")

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Config holds configuration for the file archive
type Config struct {
	// Dir receives one file per archived game
	Dir string
}

// Store writes and reads archived games
type Store struct {
	dir string
}

// New creates the archive directory if needed
func New(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Dir == "" {
		return nil, errors.New("archive dir cannot be empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	return &Store{dir: cfg.Dir}, nil
}

func (s *Store) path(gameID string) (string, error) {
	if !validID.MatchString(gameID) {
		return "", fmt.Errorf("%w %q", ErrInvalidGameID, gameID)
	}
	return filepath.Join(s.dir, gameID+fileSuffix), nil
}

// Write archives a snapshot, replacing any earlier archive of the game
func (s *Store) Write(game *models.Game) error {
	if game == nil {
		return errors.New("game cannot be nil")
	}
	path, err := s.path(game.ID)
	if err != nil {
		return err
	}

	// Write to a temp file and rename so readers never see a partial archive
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := encode(f, game); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(f *os.File, game *models.Game) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(game); err != nil {
		_ = enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// Read loads an archived snapshot
func (s *Store) Read(gameID string) (*models.Game, error) {
	path, err := s.path(gameID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArchiveNotFound
		}
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var game models.Game
	if err := json.NewDecoder(bufio.NewReaderSize(dec, 64*1024)).Decode(&game); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return &game, nil
}
