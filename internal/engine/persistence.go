package engine

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gcbaptista/tagdex/index"
	"github.com/gcbaptista/tagdex/internal/errors"
	"github.com/gcbaptista/tagdex/internal/persistence"
)

const (
	mappingFile  = "mapping.bin"
	forwardFile  = "forward.bin"
	invertedFile = "inverted.bin"
)

// Save checkpoints the dictionary, forward index and inverted index into
// three files in dir, in that order.
func (e *Engine) Save(dir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := persistence.SaveFile(filepath.Join(dir, mappingFile), e.dictionary.WriteTo); err != nil {
		return fmt.Errorf("failed to save dictionary: %w", err)
	}
	if err := persistence.SaveFile(filepath.Join(dir, forwardFile), e.forward.WriteTo); err != nil {
		return fmt.Errorf("failed to save forward index: %w", err)
	}
	if err := persistence.SaveFile(filepath.Join(dir, invertedFile), e.inverted.WriteTo); err != nil {
		return fmt.Errorf("failed to save inverted index: %w", err)
	}
	log.Printf("Index checkpoint saved to %s", dir)
	return nil
}

// Load restores a checkpoint from dir, replacing all in-memory state. Load
// order matches save order. On failure of any file the affected component is
// cleared and the engine is left in a consistent cleared state.
func (e *Engine) Load(dir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	type step struct {
		file string
		read func(io.Reader) error
	}
	steps := []step{
		{mappingFile, e.dictionary.ReadFrom},
		{forwardFile, e.forward.ReadFrom},
		{invertedFile, e.inverted.ReadFrom},
	}

	for _, s := range steps {
		if err := persistence.LoadFile(filepath.Join(dir, s.file), s.read); err != nil {
			e.clearAll()
			return errors.NewCheckpointError(s.file, err)
		}
	}
	log.Printf("Index checkpoint loaded from %s: %d documents, %d tags",
		dir, e.dictionary.DocCount(), e.dictionary.TagCount())
	return nil
}

func (e *Engine) clearAll() {
	e.dictionary.Clear()
	e.forward.Clear()
	e.inverted.Clear()
}

// readStatusOffset reads the last processed offset from the status file.
// Absent or malformed content means offset 0.
func readStatusOffset(path string) index.FileOffset {
	data, err := os.ReadFile(path) // #nosec G304 -- path is controlled by application configuration
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not read status file '%s', assuming offset 0: %v", path, err)
		}
		return 0
	}

	offset, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		log.Printf("Warning: status file '%s' holds no valid offset, resetting to 0: %v", path, err)
		return 0
	}
	return offset
}

// writeStatusOffset rewrites the status file with the new offset
// (truncating overwrite).
func writeStatusOffset(path string, offset index.FileOffset) error {
	return os.WriteFile(path, []byte(strconv.FormatUint(offset, 10)), 0600)
}
