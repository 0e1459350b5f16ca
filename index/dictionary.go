package index

import (
	"io"

	"github.com/gcbaptista/tagdex/internal/errors"
	"github.com/gcbaptista/tagdex/internal/persistence"
)

// Dictionary maintains the two bijections between external strings and
// internal ids: document-string ↔ DocID and tag-string ↔ TagID.
//
// Ids are assigned monotonically from 0 on first sight and never change once
// assigned. The append-only id→string slices and the string→id maps are
// mutual inverses. The empty string never maps to a valid id.
//
// Only ingestion interns new strings; the query path uses the pure-read
// LookupDoc/LookupTag forms so a misspelled query tag is never promoted to a
// first-class id.
type Dictionary struct {
	docStrings []string
	docIDs     map[string]DocID
	tagStrings []string
	tagIDs     map[string]TagID
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		docIDs: make(map[string]DocID),
		tagIDs: make(map[string]TagID),
	}
}

// InternDoc returns the id for a document string, assigning the next id if
// the string has not been seen before. The empty string maps to InvalidDocID
// without growing the dictionary. Returns ErrDictionaryFull when the next id
// would collide with the InvalidDocID sentinel.
func (d *Dictionary) InternDoc(s string) (DocID, error) {
	if s == "" {
		return InvalidDocID, nil
	}
	if id, ok := d.docIDs[s]; ok {
		return id, nil
	}
	newID := DocID(len(d.docStrings))
	if newID == InvalidDocID {
		return InvalidDocID, errors.NewDictionaryFullError("document")
	}
	d.docStrings = append(d.docStrings, s)
	d.docIDs[s] = newID
	return newID, nil
}

// InternTag is the tag analogue of InternDoc.
func (d *Dictionary) InternTag(s string) (TagID, error) {
	if s == "" {
		return InvalidTagID, nil
	}
	if id, ok := d.tagIDs[s]; ok {
		return id, nil
	}
	newID := TagID(len(d.tagStrings))
	if newID == InvalidTagID {
		return InvalidTagID, errors.NewDictionaryFullError("tag")
	}
	d.tagStrings = append(d.tagStrings, s)
	d.tagIDs[s] = newID
	return newID, nil
}

// LookupDoc returns the id for a document string without mutating the
// dictionary. The second return is false when the string is unknown.
func (d *Dictionary) LookupDoc(s string) (DocID, bool) {
	id, ok := d.docIDs[s]
	return id, ok
}

// LookupTag is the tag analogue of LookupDoc.
func (d *Dictionary) LookupTag(s string) (TagID, bool) {
	id, ok := d.tagIDs[s]
	return id, ok
}

// DocString returns the document string for an id; false when id was never
// assigned.
func (d *Dictionary) DocString(id DocID) (string, bool) {
	if uint64(id) >= uint64(len(d.docStrings)) {
		return "", false
	}
	return d.docStrings[id], true
}

// TagString returns the tag string for an id; false when id was never
// assigned.
func (d *Dictionary) TagString(id TagID) (string, bool) {
	if uint64(id) >= uint64(len(d.tagStrings)) {
		return "", false
	}
	return d.tagStrings[id], true
}

// DocCount returns the number of interned document strings.
func (d *Dictionary) DocCount() int {
	return len(d.docStrings)
}

// TagCount returns the number of interned tag strings.
func (d *Dictionary) TagCount() int {
	return len(d.tagStrings)
}

// Clear removes all mappings.
func (d *Dictionary) Clear() {
	d.docStrings = nil
	d.docIDs = make(map[string]DocID)
	d.tagStrings = nil
	d.tagIDs = make(map[string]TagID)
}

// WriteTo serializes the dictionary:
//
//	u64 doc_count, then per document: u64 len + bytes
//	u64 tag_count, then per tag:      u64 len + bytes
func (d *Dictionary) WriteTo(w io.Writer) error {
	if err := persistence.WriteUint64(w, uint64(len(d.docStrings))); err != nil {
		return err
	}
	for _, s := range d.docStrings {
		if err := persistence.WriteString(w, s); err != nil {
			return err
		}
	}
	if err := persistence.WriteUint64(w, uint64(len(d.tagStrings))); err != nil {
		return err
	}
	for _, s := range d.tagStrings {
		if err := persistence.WriteString(w, s); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrom clears the dictionary and deserializes it from r, rebuilding the
// reverse maps. A completely empty stream is a valid empty dictionary.
func (d *Dictionary) ReadFrom(r io.Reader) error {
	d.Clear()

	docCount, err := persistence.ReadUint64(r)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	d.docStrings = make([]string, 0, docCount)
	for i := uint64(0); i < docCount; i++ {
		s, err := persistence.ReadString(r)
		if err != nil {
			return err
		}
		d.docIDs[s] = DocID(len(d.docStrings))
		d.docStrings = append(d.docStrings, s)
	}

	tagCount, err := persistence.ReadUint64(r)
	if err != nil {
		return err
	}
	d.tagStrings = make([]string, 0, tagCount)
	for i := uint64(0); i < tagCount; i++ {
		s, err := persistence.ReadString(r)
		if err != nil {
			return err
		}
		d.tagIDs[s] = TagID(len(d.tagStrings))
		d.tagStrings = append(d.tagStrings, s)
	}
	return nil
}
