package index

import (
	"io"

	"github.com/gcbaptista/tagdex/internal/persistence"
)

// ForwardIndex maps each DocID to the sequence of TagIDs asserted by its
// ingestion record. Slots exist for every id below DocCount; a slot may be
// empty. The engine deduplicates tag ids per record before calling Put, so
// stored slots hold unique tag ids in record order.
type ForwardIndex struct {
	docToTags [][]TagID
}

// NewForwardIndex creates an empty forward index.
func NewForwardIndex() *ForwardIndex {
	return &ForwardIndex{}
}

func (f *ForwardIndex) ensureDocCapacity(docID DocID) {
	if uint64(docID) >= uint64(len(f.docToTags)) {
		grown := make([][]TagID, docID+1)
		copy(grown, f.docToTags)
		f.docToTags = grown
	}
}

// Put replaces the tag list of docID, growing the slot array with empty
// slots as needed. InvalidDocID is a no-op. The index takes ownership of
// tagIDs.
func (f *ForwardIndex) Put(docID DocID, tagIDs []TagID) {
	if docID == InvalidDocID {
		return
	}
	f.ensureDocCapacity(docID)
	f.docToTags[docID] = tagIDs
}

// Add appends a single tag to the slot of docID, creating the slot first if
// needed. Sentinel ids are no-ops. Duplicate tag ids are permitted here;
// callers that need set semantics deduplicate before Put.
func (f *ForwardIndex) Add(docID DocID, tagID TagID) {
	if docID == InvalidDocID || tagID == InvalidTagID {
		return
	}
	f.ensureDocCapacity(docID)
	f.docToTags[docID] = append(f.docToTags[docID], tagID)
}

// Get returns the tag list of docID. Out-of-range and sentinel ids yield an
// empty slice. The returned slice is a borrow; callers must not mutate it.
func (f *ForwardIndex) Get(docID DocID) []TagID {
	if docID == InvalidDocID || uint64(docID) >= uint64(len(f.docToTags)) {
		return nil
	}
	return f.docToTags[docID]
}

// DocCount returns the slot-array length.
func (f *ForwardIndex) DocCount() int {
	return len(f.docToTags)
}

// Clear removes all slots.
func (f *ForwardIndex) Clear() {
	f.docToTags = nil
}

// WriteTo serializes the forward index:
//
//	u64 doc_count, then per document: u64 tag_list_len + u32 tag ids
func (f *ForwardIndex) WriteTo(w io.Writer) error {
	if err := persistence.WriteUint64(w, uint64(len(f.docToTags))); err != nil {
		return err
	}
	for _, tags := range f.docToTags {
		if err := persistence.WriteUint64(w, uint64(len(tags))); err != nil {
			return err
		}
		for _, t := range tags {
			if err := persistence.WriteUint32(w, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFrom clears the index and deserializes it from r. A completely empty
// stream is a valid empty index.
func (f *ForwardIndex) ReadFrom(r io.Reader) error {
	f.Clear()

	docCount, err := persistence.ReadUint64(r)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	f.docToTags = make([][]TagID, docCount)
	for i := uint64(0); i < docCount; i++ {
		tagCount, err := persistence.ReadUint64(r)
		if err != nil {
			return err
		}
		if tagCount == 0 {
			continue
		}
		tags := make([]TagID, tagCount)
		for j := uint64(0); j < tagCount; j++ {
			if tags[j], err = persistence.ReadUint32(r); err != nil {
				return err
			}
		}
		f.docToTags[i] = tags
	}
	return nil
}
