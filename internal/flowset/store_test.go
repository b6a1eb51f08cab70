package flowset

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"s1apflow/internal/core/model"
)

func flow(enb, mme int64, start, end *float64, frames ...int) *model.Flow {
	e, m := enb, mme
	return &model.Flow{EnbUeID: &e, MmeUeID: &m, StartTime: start, EndTime: end, Frames: frames}
}

func at(v float64) *float64 { return &v }

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows", "set.json")
	flows := []*model.Flow{
		flow(5, 9, at(100.5), at(110.25), 1, 2, 3),
		flow(3, 8, nil, nil, 7),
	}

	if err := Write(path, flows); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 flows, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0].Frames, []int{1, 2, 3}) {
		t.Errorf("Frames = %v", got[0].Frames)
	}
	if *got[0].EnbUeID != 5 || *got[0].MmeUeID != 9 {
		t.Errorf("IDs = %v/%v", got[0].EnbUeID, got[0].MmeUeID)
	}
	if *got[0].StartTime != 100.5 || *got[0].EndTime != 110.25 {
		t.Errorf("Times = %v/%v", got[0].StartTime, got[0].EndTime)
	}
	if got[1].StartTime != nil || got[1].EndTime != nil {
		t.Error("Null times must survive the round trip")
	}
}

func TestReadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"not":"an array"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Error("Expected error for non-array flow set")
	}
	if _, err := Read(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSort(t *testing.T) {
	a := flow(1, 1, at(200), at(210), 50)
	b := flow(2, 2, at(100), at(110), 40)
	c := flow(3, 3, at(100), at(105), 20) // same start as b, smaller first frame
	d := flow(4, 4, nil, nil, 5)          // timeless sorts last

	flows := []*model.Flow{a, d, b, c}
	Sort(flows)

	wantOrder := []*model.Flow{c, b, a, d}
	for i, want := range wantOrder {
		if flows[i] != want {
			t.Fatalf("Position %d: got flow enb=%d, want enb=%d", i, *flows[i].EnbUeID, *want.EnbUeID)
		}
	}
}

func TestFillTimes(t *testing.T) {
	f := flow(1, 2, nil, nil, 3, 5, 9)
	FillTimes([]*model.Flow{f}, map[int]float64{3: 30, 5: 10, 9: 20})
	if f.StartTime == nil || *f.StartTime != 10 {
		t.Errorf("StartTime = %v", f.StartTime)
	}
	if f.EndTime == nil || *f.EndTime != 30 {
		t.Errorf("EndTime = %v", f.EndTime)
	}

	// Already-timed flows are left alone.
	g := flow(1, 2, at(1), at(2), 3)
	FillTimes([]*model.Flow{g}, map[int]float64{3: 99})
	if *g.StartTime != 1 || *g.EndTime != 2 {
		t.Error("FillTimes must not overwrite existing times")
	}
}
