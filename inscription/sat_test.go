package inscription

import "testing"

func TestCalculateSatNoRanges(t *testing.T) {
	_, ok, err := CalculateSat(nil, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false when no ranges were supplied")
	}
}

func TestCalculateSatWithinFirstRange(t *testing.T) {
	ranges := []SatRange{{Start: 1000, End: 1500}}
	sat, ok, err := CalculateSat(ranges, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || sat != 1200 {
		t.Fatalf("got sat=%d ok=%v, want sat=1200 ok=true", sat, ok)
	}
}

func TestCalculateSatCrossesRangeBoundary(t *testing.T) {
	ranges := []SatRange{{Start: 0, End: 100}, {Start: 1000, End: 1100}}
	sat, ok, err := CalculateSat(ranges, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || sat != 1050 {
		t.Fatalf("got sat=%d ok=%v, want sat=1050 ok=true", sat, ok)
	}
}

func TestCalculateSatExhaustedRangesIsFatal(t *testing.T) {
	ranges := []SatRange{{Start: 0, End: 100}}
	_, _, err := CalculateSat(ranges, 500)
	if err == nil {
		t.Fatal("expected an error when offset exceeds total range size")
	}
}
