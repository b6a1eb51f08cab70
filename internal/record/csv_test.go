package record

import (
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	csvData := `"frame.number","frame.time_epoch","s1ap.ENB_UE_S1AP_ID","s1ap.MME_UE_S1AP_ID","s1ap.procedureCode"` + "\n" +
		`"1","100.5","5","","12"` + "\n" +
		`"2","100.75","5","9","9"` + "\n" +
		`"3","oops","0x1A","garbage","1"` + "\n" +
		`"nope","101.0","1","2","3"` + "\n"

	records, times, err := read(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records (malformed frame skipped), got %d", len(records))
	}

	r1 := records[0]
	if r1.Number != 1 || r1.Enb == nil || *r1.Enb != 5 || r1.Mme != nil {
		t.Errorf("Record 1 = %+v", r1)
	}
	if r1.Time == nil || *r1.Time != 100.5 {
		t.Errorf("Record 1 time = %v", r1.Time)
	}

	r3 := records[2]
	if r3.Enb == nil || *r3.Enb != 26 {
		t.Errorf("Expected hex ENB ID 0x1A -> 26, got %v", r3.Enb)
	}
	if r3.Mme != nil {
		t.Error("Malformed MME cell must read as absent")
	}
	if r3.Time != nil {
		t.Error("Malformed time cell must read as absent")
	}

	if len(times) != 2 || times[1] != 100.5 || times[2] != 100.75 {
		t.Errorf("times = %v", times)
	}
}

func TestReadMissingColumns(t *testing.T) {
	csvData := `"frame.number"` + "\n" + `"7"` + "\n"
	records, times, err := read(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(records) != 1 || records[0].Number != 7 || records[0].Enb != nil {
		t.Errorf("records = %+v", records)
	}
	if len(times) != 0 {
		t.Errorf("times = %v", times)
	}
}

func TestReadEmpty(t *testing.T) {
	records, times, err := read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("read failed on empty input: %v", err)
	}
	if len(records) != 0 || len(times) != 0 {
		t.Errorf("Expected empty result, got %d records", len(records))
	}
}
