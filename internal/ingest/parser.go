// Package ingest parses the delimited data file into (document, tags)
// records for the engine's ingestion path.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/gcbaptista/tagdex/index"
)

// asciiWhitespace is the cutset trimmed from lines and fields.
const asciiWhitespace = " \t\n\r\f\v"

// DefaultDelimiter separates fields within a record line.
const DefaultDelimiter = '|'

// RecordFunc receives one parsed record. Ownership of doc and tags transfers
// to the callback.
type RecordFunc func(doc string, tags []string)

// Result summarizes one parsing pass.
type Result struct {
	NewOffset index.FileOffset // byte position just past the last consumed line
	Records   int              // records delivered to the callback
	Malformed int              // non-empty lines skipped (empty document field)
}

// Parser splits a textual stream into records. A logical line holds the
// document string in its first field and a tag per subsequent non-empty
// field, separated by a single configurable delimiter byte.
type Parser struct {
	delimiter byte
}

// NewParser creates a parser for the given field delimiter.
func NewParser(delimiter byte) *Parser {
	return &Parser{delimiter: delimiter}
}

// ParseFile parses an entire file from offset 0.
func (p *Parser) ParseFile(path string, onRecord RecordFunc) (Result, error) {
	file, err := os.Open(path) // #nosec G304 -- path is controlled by application configuration
	if err != nil {
		return Result{}, fmt.Errorf("failed to open data file %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close data file %s: %v", path, closeErr)
		}
	}()
	return p.ParseStream(file, onRecord, 0)
}

// ParseStream seeks src to startOffset and parses logical lines up to
// end-of-stream, invoking onRecord for each well-formed record. Lines whose
// trimmed content is empty are skipped silently; lines whose first field
// trims to empty are counted as malformed, logged and skipped.
//
// If startOffset lands mid-line (possible after a torn status-file write),
// the bytes up to and including the next newline are discarded: on an
// append-only source the tail of a torn line can never be a whole record.
//
// An error return means the stream itself failed; per-line problems never
// abort the pass.
func (p *Parser) ParseStream(src io.ReadSeeker, onRecord RecordFunc, startOffset index.FileOffset) (Result, error) {
	res := Result{NewOffset: startOffset}

	seekTo := int64(startOffset)
	resync := false
	if startOffset > 0 {
		// Inspect the byte before the offset to detect a mid-line resume.
		seekTo--
		resync = true
	}
	if _, err := src.Seek(seekTo, io.SeekStart); err != nil {
		return res, fmt.Errorf("failed to seek to offset %d: %w", startOffset, err)
	}

	reader := bufio.NewReader(src)
	if resync {
		prev, err := reader.ReadByte()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("failed to read at offset %d: %w", startOffset-1, err)
		}
		if prev != '\n' {
			skipped, err := reader.ReadString('\n')
			res.NewOffset += index.FileOffset(len(skipped))
			if err == io.EOF {
				return res, nil
			}
			if err != nil {
				return res, fmt.Errorf("stream error while resynchronizing: %w", err)
			}
			log.Printf("Warning: ingestion offset %d was mid-line; discarded %d bytes up to the next newline", startOffset, len(skipped))
		}
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return res, fmt.Errorf("stream error during parsing: %w", err)
		}
		if len(line) > 0 {
			res.NewOffset += index.FileOffset(len(line))
			p.parseLine(line, onRecord, &res)
		}
		if err == io.EOF {
			return res, nil
		}
	}
}

// parseLine splits one logical line into a record and hands it to onRecord.
func (p *Parser) parseLine(line string, onRecord RecordFunc, res *Result) {
	trimmed := strings.Trim(line, asciiWhitespace)
	if trimmed == "" {
		return
	}

	fields := strings.Split(trimmed, string(p.delimiter))
	doc := strings.Trim(fields[0], asciiWhitespace)
	if doc == "" {
		res.Malformed++
		log.Printf("Warning: skipping malformed line (empty document field): %q", trimmed)
		return
	}

	tags := make([]string, 0, len(fields)-1)
	for _, field := range fields[1:] {
		if tag := strings.Trim(field, asciiWhitespace); tag != "" {
			tags = append(tags, tag)
		}
	}

	res.Records++
	onRecord(doc, tags)
}
