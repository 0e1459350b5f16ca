package index

import (
	"bytes"
	"reflect"
	"testing"
)

func TestForwardIndexPutAndGet(t *testing.T) {
	f := NewForwardIndex()

	f.Put(2, []TagID{5, 7})

	if f.DocCount() != 3 {
		t.Errorf("DocCount() = %d, want 3 (slots 0..2)", f.DocCount())
	}
	if got := f.Get(2); !reflect.DeepEqual(got, []TagID{5, 7}) {
		t.Errorf("Get(2) = %v, want [5 7]", got)
	}
	if got := f.Get(0); len(got) != 0 {
		t.Errorf("Get(0) = %v, want empty intermediate slot", got)
	}
}

func TestForwardIndexPutReplaces(t *testing.T) {
	f := NewForwardIndex()
	f.Put(0, []TagID{1, 2, 3})
	f.Put(0, []TagID{9})
	if got := f.Get(0); !reflect.DeepEqual(got, []TagID{9}) {
		t.Errorf("Get(0) after second Put = %v, want [9]", got)
	}
}

func TestForwardIndexAddAllowsDuplicates(t *testing.T) {
	f := NewForwardIndex()
	f.Add(1, 4)
	f.Add(1, 4)
	f.Add(1, 6)
	if got := f.Get(1); !reflect.DeepEqual(got, []TagID{4, 4, 6}) {
		t.Errorf("Get(1) = %v, want [4 4 6]", got)
	}
}

func TestForwardIndexSentinelNoOps(t *testing.T) {
	f := NewForwardIndex()

	f.Put(InvalidDocID, []TagID{1})
	f.Add(InvalidDocID, 1)
	f.Add(0, InvalidTagID)

	if f.DocCount() != 0 {
		t.Errorf("DocCount() = %d, want 0 (sentinel operations are no-ops)", f.DocCount())
	}
	if got := f.Get(InvalidDocID); len(got) != 0 {
		t.Errorf("Get(InvalidDocID) = %v, want empty", got)
	}
}

func TestForwardIndexGetOutOfRange(t *testing.T) {
	f := NewForwardIndex()
	if got := f.Get(100); len(got) != 0 {
		t.Errorf("Get(100) on empty index = %v, want empty", got)
	}
}

func TestForwardIndexSerializationRoundTrip(t *testing.T) {
	f := NewForwardIndex()
	f.Put(0, []TagID{1, 2})
	f.Put(3, []TagID{0})

	var buf bytes.Buffer
	if err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	restored := NewForwardIndex()
	restored.Put(9, []TagID{9})
	if err := restored.ReadFrom(&buf); err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}

	if restored.DocCount() != 4 {
		t.Fatalf("restored DocCount() = %d, want 4", restored.DocCount())
	}
	if got := restored.Get(0); !reflect.DeepEqual(got, []TagID{1, 2}) {
		t.Errorf("restored Get(0) = %v, want [1 2]", got)
	}
	if got := restored.Get(1); len(got) != 0 {
		t.Errorf("restored Get(1) = %v, want empty", got)
	}
	if got := restored.Get(3); !reflect.DeepEqual(got, []TagID{0}) {
		t.Errorf("restored Get(3) = %v, want [0]", got)
	}
}

func TestForwardIndexReadFromEmptyStream(t *testing.T) {
	f := NewForwardIndex()
	f.Put(0, []TagID{1})
	if err := f.ReadFrom(bytes.NewReader(nil)); err != nil {
		t.Fatalf("ReadFrom(empty) error = %v", err)
	}
	if f.DocCount() != 0 {
		t.Errorf("empty stream should load an empty index, got DocCount() = %d", f.DocCount())
	}
}
