package envelope

import (
	"errors"
	"testing"
)

func noPrior() (PriorInscription, error) { return PriorInscription{}, nil }

func TestClassifyPriorityUnrecognizedEvenFieldDominates(t *testing.T) {
	env := Envelope{
		Input: 1,
		Payload: Payload{
			UnrecognizedEvenField: true,
			DuplicateField:        true,
			IncompleteField:       true,
		},
	}
	curse, err := Classify(env, InscribedOffset{}, 0, noPrior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if curse != CurseUnrecognizedEvenField {
		t.Fatalf("got %v, want CurseUnrecognizedEvenField", curse)
	}
}

func TestClassifyNotInFirstInputDominatesNotAtOffsetZero(t *testing.T) {
	env := Envelope{Input: 2, Offset: 5}
	curse, err := Classify(env, InscribedOffset{}, 0, noPrior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if curse != CurseNotInFirstInput {
		t.Fatalf("got %v, want CurseNotInFirstInput", curse)
	}
}

func TestClassifyNotAtOffsetZero(t *testing.T) {
	env := Envelope{Input: 0, Offset: 3}
	curse, err := Classify(env, InscribedOffset{}, 0, noPrior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if curse != CurseNotAtOffsetZero {
		t.Fatalf("got %v, want CurseNotAtOffsetZero", curse)
	}
}

func TestClassifyReinscriptionUnconditionalWhenCountAboveOne(t *testing.T) {
	env := Envelope{Input: 0, Offset: 0}
	curse, err := Classify(env, InscribedOffset{Count: 2}, 2, noPrior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if curse != CurseReinscription {
		t.Fatalf("got %v, want CurseReinscription", curse)
	}
}

func TestClassifyReinscriptionSkippedWhenPriorCursed(t *testing.T) {
	env := Envelope{Input: 0, Offset: 0}
	curse, err := Classify(env, InscribedOffset{Count: 1}, 1, func() (PriorInscription, error) {
		return PriorInscription{InscriptionNumber: -1}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if curse != CurseNone {
		t.Fatalf("got %v, want CurseNone", curse)
	}
}

func TestClassifyReinscriptionFiresWhenPriorBlessed(t *testing.T) {
	env := Envelope{Input: 0, Offset: 0}
	curse, err := Classify(env, InscribedOffset{Count: 1}, 1, func() (PriorInscription, error) {
		return PriorInscription{InscriptionNumber: 5}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if curse != CurseReinscription {
		t.Fatalf("got %v, want CurseReinscription", curse)
	}
}

func TestClassifyPropagatesLookupError(t *testing.T) {
	env := Envelope{Input: 0, Offset: 0}
	wantErr := errors.New("store unavailable")
	_, err := Classify(env, InscribedOffset{Count: 1}, 1, func() (PriorInscription, error) {
		return PriorInscription{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestJubileeClassify(t *testing.T) {
	if cursed, vindicated := JubileeClassify(CurseNone, true); cursed || vindicated {
		t.Fatalf("CurseNone should yield (false, false), got (%v, %v)", cursed, vindicated)
	}
	if cursed, vindicated := JubileeClassify(CursePointer, false); !cursed || vindicated {
		t.Fatalf("pre-jubilee curse should yield (true, false), got (%v, %v)", cursed, vindicated)
	}
	if cursed, vindicated := JubileeClassify(CursePointer, true); cursed || !vindicated {
		t.Fatalf("post-jubilee curse should yield (false, true), got (%v, %v)", cursed, vindicated)
	}
}

func TestIsUnbound(t *testing.T) {
	if !IsUnbound(CurseNone, Payload{}, 0) {
		t.Fatal("zero input value should be unbound")
	}
	if !IsUnbound(CurseUnrecognizedEvenField, Payload{}, 100) {
		t.Fatal("UnrecognizedEvenField curse should be unbound")
	}
	if !IsUnbound(CurseNone, Payload{UnrecognizedEvenField: true}, 100) {
		t.Fatal("payload unrecognized-even-field flag should be unbound")
	}
	if IsUnbound(CursePointer, Payload{}, 100) {
		t.Fatal("ordinary curse with nonzero input value should not be unbound")
	}
}
