package index

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/gcbaptista/tagdex/internal/persistence"
)

// InvertedIndex maps each TagID to the compressed set of DocIDs carrying
// that tag. Each slot is a roaring bitmap, which stores the sparse
// tag-to-document membership compactly. This is the hot subsystem: every
// boolean query resolves to bitmap algebra here.
type InvertedIndex struct {
	tagToBitmap []*roaring.Bitmap
}

// NewInvertedIndex creates an empty inverted index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{}
}

func (ii *InvertedIndex) ensureTagCapacity(tagID TagID) bool {
	if tagID == InvalidTagID {
		return false
	}
	for uint64(len(ii.tagToBitmap)) <= uint64(tagID) {
		ii.tagToBitmap = append(ii.tagToBitmap, roaring.New())
	}
	return true
}

// Add records that docID carries tagID, growing the slot array as needed.
// Sentinel ids are no-ops. Repeated calls with the same pair are idempotent.
func (ii *InvertedIndex) Add(docID DocID, tagID TagID) {
	if docID == InvalidDocID {
		return
	}
	if !ii.ensureTagCapacity(tagID) {
		return
	}
	ii.tagToBitmap[tagID].Add(docID)
}

// Get returns the bitmap for tagID. The second return is false iff tagID is
// the sentinel or beyond the slot array; the returned bitmap may be empty.
// The bitmap is a read-only borrow valid while the caller holds the owning
// engine's read lock.
func (ii *InvertedIndex) Get(tagID TagID) (*roaring.Bitmap, bool) {
	if tagID == InvalidTagID || uint64(tagID) >= uint64(len(ii.tagToBitmap)) {
		return nil, false
	}
	return ii.tagToBitmap[tagID], true
}

// Cardinality returns the number of documents carrying tagID, 0 for unknown
// tags.
func (ii *InvertedIndex) Cardinality(tagID TagID) uint64 {
	bm, ok := ii.Get(tagID)
	if !ok {
		return 0
	}
	return bm.GetCardinality()
}

// TagCount returns the slot-array length (not the count of non-empty slots).
func (ii *InvertedIndex) TagCount() int {
	return len(ii.tagToBitmap)
}

// PerformOperation combines the bitmaps of tagIDs under op and returns the
// result as a fresh bitmap.
//
// Unknown tags (sentinel or out-of-range ids) behave as the empty set, with
// one deliberate exception: a missing FIRST operand yields an empty result
// under every operator, OR and XOR included. Under AND any missing operand
// empties the result; under OR/XOR missing operands are skipped; under
// ANDNOT the result is B(first) minus the union of the valid rest, missing
// subtrahends contributing nothing.
func (ii *InvertedIndex) PerformOperation(tagIDs []TagID, op Operation) *roaring.Bitmap {
	if len(tagIDs) == 0 {
		return roaring.New()
	}

	first, ok := ii.Get(tagIDs[0])
	if !ok {
		return roaring.New()
	}
	result := first.Clone()

	if op == OpAndNot {
		// B(first) \ (B(t1) ∨ B(t2) ∨ …): the subtrahend is the union of
		// the remaining operands, not a pairwise fold.
		subtrahend := roaring.New()
		for _, tagID := range tagIDs[1:] {
			if bm, ok := ii.Get(tagID); ok {
				subtrahend.Or(bm)
			}
		}
		result.AndNot(subtrahend)
		return result
	}

	for _, tagID := range tagIDs[1:] {
		bm, ok := ii.Get(tagID)
		if !ok {
			if op == OpAnd {
				return roaring.New()
			}
			continue
		}
		switch op {
		case OpAnd:
			result.And(bm)
			if result.IsEmpty() {
				return result
			}
		case OpOr:
			result.Or(bm)
		case OpXor:
			result.Xor(bm)
		}
	}
	return result
}

// RunOptimize converts each non-empty slot to its most compact container
// layout. Idempotent. Returns true iff every slot succeeded.
func (ii *InvertedIndex) RunOptimize() bool {
	for _, bm := range ii.tagToBitmap {
		if !bm.IsEmpty() {
			bm.RunOptimize()
		}
	}
	return true
}

// ShrinkToFit releases slot-array reserve capacity accumulated during
// ingestion growth.
func (ii *InvertedIndex) ShrinkToFit() {
	ii.tagToBitmap = slices.Clip(slices.Clone(ii.tagToBitmap))
}

// Clear removes all slots.
func (ii *InvertedIndex) Clear() {
	ii.tagToBitmap = nil
}

// WriteTo serializes the index:
//
//	u64 slot_count, then per slot: u32 byte length (0 for an empty slot)
//	followed by the bitmap's portable roaring serialization.
func (ii *InvertedIndex) WriteTo(w io.Writer) error {
	if err := persistence.WriteUint64(w, uint64(len(ii.tagToBitmap))); err != nil {
		return err
	}
	for i, bm := range ii.tagToBitmap {
		if bm.IsEmpty() {
			if err := persistence.WriteUint32(w, 0); err != nil {
				return err
			}
			continue
		}
		data, err := bm.ToBytes()
		if err != nil {
			return fmt.Errorf("failed to serialize bitmap for tag %d: %w", i, err)
		}
		if err := persistence.WriteUint32(w, uint32(len(data))); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrom clears the index and deserializes it from r. A completely empty
// stream is a valid empty index.
func (ii *InvertedIndex) ReadFrom(r io.Reader) error {
	ii.Clear()

	slotCount, err := persistence.ReadUint64(r)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	ii.tagToBitmap = make([]*roaring.Bitmap, 0, slotCount)
	for i := uint64(0); i < slotCount; i++ {
		size, err := persistence.ReadUint32(r)
		if err != nil {
			return fmt.Errorf("failed to read size of bitmap %d: %w", i, err)
		}
		bm := roaring.New()
		if size > 0 {
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return fmt.Errorf("failed to read data of bitmap %d: %w", i, err)
			}
			if _, err := bm.ReadFrom(bytes.NewReader(buf)); err != nil {
				return fmt.Errorf("failed to deserialize bitmap %d: %w", i, err)
			}
		}
		ii.tagToBitmap = append(ii.tagToBitmap, bm)
	}
	return nil
}
