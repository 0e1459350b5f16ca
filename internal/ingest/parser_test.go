package ingest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/gcbaptista/tagdex/index"
)

type record struct {
	doc  string
	tags []string
}

func collect(records *[]record) RecordFunc {
	return func(doc string, tags []string) {
		*records = append(*records, record{doc: doc, tags: tags})
	}
}

func parseString(t *testing.T, input string, offset index.FileOffset) ([]record, Result) {
	t.Helper()
	var records []record
	p := NewParser(DefaultDelimiter)
	res, err := p.ParseStream(strings.NewReader(input), collect(&records), offset)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	return records, res
}

func TestParseStreamBasicRecords(t *testing.T) {
	records, res := parseString(t, "d1|a|b\nd2|b|c\n", 0)

	want := []record{
		{doc: "d1", tags: []string{"a", "b"}},
		{doc: "d2", tags: []string{"b", "c"}},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
	if res.Records != 2 || res.Malformed != 0 {
		t.Errorf("result = %+v, want 2 records, 0 malformed", res)
	}
	if res.NewOffset != 14 {
		t.Errorf("NewOffset = %d, want 14", res.NewOffset)
	}
}

func TestParseStreamTrimsWhitespace(t *testing.T) {
	records, _ := parseString(t, "  d1  | a \t| b\r\n", 0)

	want := []record{{doc: "d1", tags: []string{"a", "b"}}}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
}

func TestParseStreamSkipsBlankLines(t *testing.T) {
	records, res := parseString(t, "\n   \n\t\nd1|a\n\n", 0)

	if len(records) != 1 || records[0].doc != "d1" {
		t.Errorf("records = %v, want single d1", records)
	}
	if res.Malformed != 0 {
		t.Errorf("blank lines counted as malformed: %d", res.Malformed)
	}
}

func TestParseStreamReportsEmptyDocField(t *testing.T) {
	records, res := parseString(t, "|a|b\nd1|a\n  |x\n", 0)

	if len(records) != 1 || records[0].doc != "d1" {
		t.Errorf("records = %v, want single d1", records)
	}
	if res.Malformed != 2 {
		t.Errorf("Malformed = %d, want 2", res.Malformed)
	}
}

func TestParseStreamElidesEmptyTagFields(t *testing.T) {
	records, _ := parseString(t, "d1|a||  |b\n", 0)

	want := []record{{doc: "d1", tags: []string{"a", "b"}}}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
}

func TestParseStreamDocumentWithoutTags(t *testing.T) {
	records, _ := parseString(t, "d1\n", 0)
	if len(records) != 1 || records[0].doc != "d1" || len(records[0].tags) != 0 {
		t.Errorf("records = %v, want d1 with no tags", records)
	}
}

func TestParseStreamLastLineWithoutNewline(t *testing.T) {
	records, res := parseString(t, "d1|a\nd2|b", 0)

	if len(records) != 2 || records[1].doc != "d2" {
		t.Errorf("records = %v, want d1 and d2", records)
	}
	if res.NewOffset != 9 {
		t.Errorf("NewOffset = %d, want 9", res.NewOffset)
	}
}

func TestParseStreamFromOffset(t *testing.T) {
	input := "d1|a\nd2|b\n"
	records, res := parseString(t, input, 5)

	if len(records) != 1 || records[0].doc != "d2" {
		t.Errorf("records = %v, want single d2", records)
	}
	if res.NewOffset != index.FileOffset(len(input)) {
		t.Errorf("NewOffset = %d, want %d", res.NewOffset, len(input))
	}
}

func TestParseStreamMidLineOffsetDiscardsTail(t *testing.T) {
	// Offset 2 is inside "d1|a": the tail "|a\n" must be discarded, not
	// parsed as a record.
	input := "d1|a\nd2|b\n"
	records, res := parseString(t, input, 2)

	if len(records) != 1 || records[0].doc != "d2" {
		t.Errorf("records = %v, want single d2", records)
	}
	if res.NewOffset != index.FileOffset(len(input)) {
		t.Errorf("NewOffset = %d, want %d", res.NewOffset, len(input))
	}
}

func TestParseStreamOffsetAtEOF(t *testing.T) {
	input := "d1|a\n"
	records, res := parseString(t, input, index.FileOffset(len(input)))

	if len(records) != 0 {
		t.Errorf("records = %v, want none", records)
	}
	if res.NewOffset != index.FileOffset(len(input)) {
		t.Errorf("NewOffset = %d, want unchanged", res.NewOffset)
	}
}

func TestParseStreamCustomDelimiter(t *testing.T) {
	var records []record
	p := NewParser(';')
	if _, err := p.ParseStream(strings.NewReader("d1;a;b\n"), collect(&records), 0); err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	want := []record{{doc: "d1", tags: []string{"a", "b"}}}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
}
