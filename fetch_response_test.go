package sarama

import (
	"testing"
	"time"
)

func newTestFetchResponseBlock(t *testing.T) *FetchResponseBlock {
	batch := &RecordBatch{
		Version:        2,
		FirstTimestamp: time.Unix(1000, 0),
		MaxTimestamp:   time.Unix(1000, 0),
	}
	batch.addRecord(&Record{Key: []byte("key"), Value: []byte("value")})
	batch.addRecord(&Record{Key: []byte("key2"), Value: []byte("value2")})

	resp := &FetchResponse{Version: 4}
	resp.Blocks = map[string]map[int32]*FetchResponseBlock{
		"topic": {0: {HighWaterMarkOffset: 10}},
	}
	block := resp.Blocks["topic"][0]
	block.Records = &Records{recordsType: defaultRecords, RecordBatch: batch}

	encoded, err := encode(resp, nil)
	if err != nil {
		t.Fatal(err)
	}

	out := new(FetchResponse)
	if err := versionedDecode(encoded, out, 4, nil); err != nil {
		t.Fatal(err)
	}
	return out.Blocks["topic"][0]
}

func TestFetchResponseBlockNumRecords(t *testing.T) {
	block := newTestFetchResponseBlock(t)
	n, err := block.numRecords()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
}

func TestFetchResponseBlockIsPartial(t *testing.T) {
	block := newTestFetchResponseBlock(t)
	partial, err := block.isPartial()
	if err != nil {
		t.Fatal(err)
	}
	if partial {
		t.Error("expected a fully-decoded block to not be partial")
	}
}

func TestFetchResponseBlockNumRecordsNoRecords(t *testing.T) {
	block := &FetchResponseBlock{}
	n, err := block.numRecords()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 records when no Records is set, got %d", n)
	}
}

func TestFetchResponseBlockRecordsNextOffset(t *testing.T) {
	block := newTestFetchResponseBlock(t)
	next := block.recordsNextOffset()
	if next == nil {
		t.Fatal("expected a non-nil next offset")
	}
	if *next != 2 {
		t.Errorf("expected next offset 2, got %d", *next)
	}
}

func TestFetchResponseBlockRecordsNextOffsetNoRecords(t *testing.T) {
	block := &FetchResponseBlock{}
	if next := block.recordsNextOffset(); next != nil {
		t.Errorf("expected nil next offset when no Records is set, got %v", *next)
	}
}

func TestFetchResponseBlockDecodeSetsRecordsSet(t *testing.T) {
	block := newTestFetchResponseBlock(t)
	if len(block.RecordsSet) != 1 {
		t.Fatalf("expected exactly one flattened Records entry, got %d", len(block.RecordsSet))
	}
	if block.RecordsSet[0] != block.Records {
		t.Error("expected RecordsSet[0] to be the same Records decoded into block.Records")
	}
}

func TestFetchResponseThrottleTime(t *testing.T) {
	resp := &FetchResponse{Version: 1, ThrottleTimeMs: 250}
	resp.Blocks = map[string]map[int32]*FetchResponseBlock{}

	encoded, err := encode(resp, nil)
	if err != nil {
		t.Fatal(err)
	}

	out := new(FetchResponse)
	if err := versionedDecode(encoded, out, 1, nil); err != nil {
		t.Fatal(err)
	}
	if out.ThrottleTimeMs != 250 {
		t.Errorf("expected throttle time 250ms, got %d", out.ThrottleTimeMs)
	}
}
