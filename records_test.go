package sarama

import "testing"

func TestRecordsIsControlLegacy(t *testing.T) {
	r := newLegacyRecords(&MessageSet{})
	isControl, err := r.isControl()
	if err != nil {
		t.Fatal(err)
	}
	if isControl {
		t.Error("legacy records should never report as control batches")
	}
}

func TestRecordsIsControlDefault(t *testing.T) {
	batch := &RecordBatch{Control: true}
	r := newDefaultRecords(batch)
	isControl, err := r.isControl()
	if err != nil {
		t.Fatal(err)
	}
	if !isControl {
		t.Error("expected batch with Control=true to report as a control batch")
	}

	batch.Control = false
	isControl, err = r.isControl()
	if err != nil {
		t.Fatal(err)
	}
	if isControl {
		t.Error("expected batch with Control=false to not report as a control batch")
	}
}

func TestRecordsIsControlNilBatch(t *testing.T) {
	r := Records{recordsType: defaultRecords}
	isControl, err := r.isControl()
	if err != nil {
		t.Fatal(err)
	}
	if isControl {
		t.Error("a records value with no batch set should not report as control")
	}
}

func TestRecordsNextOffsetDefault(t *testing.T) {
	batch := &RecordBatch{FirstOffset: 100, LastOffsetDelta: 4}
	r := newDefaultRecords(batch)
	next := r.nextOffset()
	if next == nil {
		t.Fatal("expected a non-nil next offset for a default-format batch")
	}
	if *next != 105 {
		t.Errorf("expected next offset 105, got %d", *next)
	}
}

func TestRecordsNextOffsetLegacy(t *testing.T) {
	r := newLegacyRecords(&MessageSet{})
	if next := r.nextOffset(); next != nil {
		t.Errorf("legacy records should report no next offset, got %v", *next)
	}
}

func TestRecordsNextOffsetNilBatch(t *testing.T) {
	r := Records{recordsType: defaultRecords}
	if next := r.nextOffset(); next != nil {
		t.Errorf("expected nil next offset when no batch is set, got %v", *next)
	}
}
