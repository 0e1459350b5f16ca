// Package engine orchestrates the dictionary, forward index, inverted index
// and parser behind a single readers-writer boundary. It owns the ingestion
// offset and the checkpoint protocol.
package engine

import (
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gcbaptista/tagdex/index"
	"github.com/gcbaptista/tagdex/internal/errors"
	"github.com/gcbaptista/tagdex/internal/ingest"
	"github.com/gcbaptista/tagdex/internal/metrics"
)

// Engine is the public façade over the tag index. Readers (Query, TagsFor,
// counts) take the shared lock; LoadIncremental, Save and Load take the
// exclusive lock. Subcomponents carry no locks of their own.
type Engine struct {
	mu          sync.RWMutex
	ingestGroup singleflight.Group

	dataFilePath   string
	statusFilePath string
	delimiter      byte

	lastProcessedOffset index.FileOffset

	dictionary *index.Dictionary
	forward    *index.ForwardIndex
	inverted   *index.InvertedIndex
	parser     *ingest.Parser
}

// New creates an engine over the given data and status files. The last
// processed offset is read from the status file (absent or malformed means
// offset 0).
func New(dataFilePath, statusFilePath string, delimiter byte) *Engine {
	e := &Engine{
		dataFilePath:   dataFilePath,
		statusFilePath: statusFilePath,
		delimiter:      delimiter,
		dictionary:     index.NewDictionary(),
		forward:        index.NewForwardIndex(),
		inverted:       index.NewInvertedIndex(),
		parser:         ingest.NewParser(delimiter),
	}
	e.lastProcessedOffset = readStatusOffset(statusFilePath)
	log.Printf("Engine initialized. Last processed offset: %d", e.lastProcessedOffset)
	return e
}

// LoadIncremental ingests the suffix of the data file past the last
// processed offset. Concurrent calls are collapsed: callers arriving while a
// pass is running share its outcome instead of queueing a redundant pass.
//
// A pass that only produced per-line warnings still advances the offset; only
// a fatal stream error aborts the pass and leaves the offset unchanged. A
// failed status-file write is a loud warning, not a failure: the next run
// reprocesses the same suffix, which is the safe direction.
func (e *Engine) LoadIncremental(optimizeAfter bool) error {
	_, err, _ := e.ingestGroup.Do("ingest", func() (interface{}, error) {
		return nil, e.loadIncremental(optimizeAfter)
	})
	return err
}

func (e *Engine) loadIncremental(optimizeAfter bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	info, err := os.Stat(e.dataFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Error: data file not found: %s", e.dataFilePath)
			return errors.NewDataFileMissingError(e.dataFilePath)
		}
		return err
	}

	fileSize := index.FileOffset(info.Size())
	if fileSize <= e.lastProcessedOffset {
		log.Printf("No new data in %s. Index is up-to-date.", e.dataFilePath)
		return nil
	}

	log.Printf("Loading new data from offset %d in %s...", e.lastProcessedOffset, e.dataFilePath)
	started := time.Now()

	file, err := os.Open(e.dataFilePath) // #nosec G304 -- path is controlled by application configuration
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close data file %s: %v", e.dataFilePath, closeErr)
		}
	}()

	result, err := e.parser.ParseStream(file, e.applyRecord, e.lastProcessedOffset)
	if err != nil {
		// Fatal stream error: abort without advancing the offset so the next
		// pass retries the same suffix.
		log.Printf("Error: ingestion aborted, offset stays at %d: %v", e.lastProcessedOffset, err)
		return err
	}

	newOffset := result.NewOffset
	if newOffset == 0 {
		log.Printf("Warning: could not determine stream position after parsing. Using file size as offset.")
		newOffset = fileSize
	}

	bytesConsumed := newOffset - e.lastProcessedOffset
	e.lastProcessedOffset = newOffset
	log.Printf("Finished loading data: %d records (%d malformed lines skipped). New offset: %d",
		result.Records, result.Malformed, newOffset)

	if optimizeAfter {
		if e.inverted.RunOptimize() {
			e.inverted.ShrinkToFit()
		} else {
			log.Printf("Warning: inverted index optimization encountered issues.")
		}
	}

	if err := writeStatusOffset(e.statusFilePath, e.lastProcessedOffset); err != nil {
		log.Printf("Critical Warning: failed to update status file with offset %d: %v. Future loads will reprocess data.",
			e.lastProcessedOffset, err)
	}

	metrics.ObserveIngest(result.Records, result.Malformed, bytesConsumed, time.Since(started))
	return nil
}

// applyRecord folds one parsed record into the indices. Called by the parser
// under the exclusive lock held by loadIncremental.
func (e *Engine) applyRecord(doc string, tags []string) {
	docID, err := e.dictionary.InternDoc(doc)
	if err != nil {
		log.Printf("Warning: skipping record %q: %v", doc, err)
		return
	}
	if docID == index.InvalidDocID {
		return
	}

	// allTags keeps every valid occurrence for the inverted index (adds are
	// idempotent); uniqueTags is the deduplicated set stored in the forward
	// index slot.
	allTags := make([]index.TagID, 0, len(tags))
	uniqueTags := make([]index.TagID, 0, len(tags))
	seen := make(map[index.TagID]struct{}, len(tags))
	for _, tag := range tags {
		tagID, err := e.dictionary.InternTag(tag)
		if err != nil {
			log.Printf("Warning: skipping tag %q for document %q: %v", tag, doc, err)
			continue
		}
		if tagID == index.InvalidTagID {
			continue
		}
		allTags = append(allTags, tagID)
		if _, dup := seen[tagID]; !dup {
			seen[tagID] = struct{}{}
			uniqueTags = append(uniqueTags, tagID)
		}
	}

	e.forward.Put(docID, uniqueTags)
	for _, tagID := range allTags {
		e.inverted.Add(docID, tagID)
	}
}

// Query resolves tag strings to ids, combines their bitmaps under op and
// translates matching document ids back to strings in ascending id order.
//
// Missing tags follow the operator contracts: a missing first tag empties
// the result under every operator; under AND any missing tag empties the
// result; under OR, XOR and ANDNOT missing non-first tags are dropped.
func (e *Engine) Query(tags []string, op index.Operation) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	started := time.Now()
	defer func() {
		metrics.ObserveQuery(string(op), time.Since(started))
	}()

	if len(tags) == 0 {
		return []string{}
	}

	queryIDs := make([]index.TagID, 0, len(tags))
	for i, tag := range tags {
		tagID, ok := e.dictionary.LookupTag(tag)
		if !ok {
			if i == 0 || op == index.OpAnd {
				return []string{}
			}
			continue
		}
		queryIDs = append(queryIDs, tagID)
	}

	bm := e.inverted.PerformOperation(queryIDs, op)

	results := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		docID := it.Next()
		doc, ok := e.dictionary.DocString(docID)
		if !ok {
			// Should be impossible: every id in a bitmap was interned.
			log.Printf("Warning: DocID %d present in result bitmap but absent from dictionary", docID)
			continue
		}
		results = append(results, doc)
	}
	return results
}

// TagsFor returns the tag strings of a document, empty when the document is
// unknown.
func (e *Engine) TagsFor(doc string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	docID, ok := e.dictionary.LookupDoc(doc)
	if !ok {
		return []string{}
	}

	tagIDs := e.forward.Get(docID)
	tags := make([]string, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		tag, ok := e.dictionary.TagString(tagID)
		if !ok {
			log.Printf("Warning: TagID %d present in forward index for DocID %d but absent from dictionary", tagID, docID)
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// DocumentCount returns the number of unique documents indexed.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dictionary.DocCount()
}

// TagCount returns the number of unique tags indexed.
func (e *Engine) TagCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dictionary.TagCount()
}

// LastProcessedOffset returns the byte position in the data file up to which
// records are reflected in the indices.
func (e *Engine) LastProcessedOffset() index.FileOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastProcessedOffset
}
