package inscription

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func sampleHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestOutPointRoundTrip(t *testing.T) {
	p := OutPoint{Hash: sampleHash(0x11), Index: 7}
	got, err := DecodeOutPoint(EncodeOutPoint(p))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != p {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestSatPointRoundTrip(t *testing.T) {
	sp := SatPoint{Outpoint: OutPoint{Hash: sampleHash(0x22), Index: 3}, Offset: 123456}
	got, err := DecodeSatPoint(EncodeSatPoint(sp))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != sp {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, sp)
	}
}

func TestInscriptionIdRoundTrip(t *testing.T) {
	id := InscriptionId{Txid: sampleHash(0x33), Index: 9}
	got, err := DecodeInscriptionId(EncodeInscriptionId(id))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != id {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, id)
	}
}

func TestInscriptionEntryRoundTrip(t *testing.T) {
	parent := SequenceNumber(42)
	sat := uint64(9999)
	e := InscriptionEntry{
		Charms:            Charms(0b101),
		Fee:               1500,
		Height:             800000,
		Id:                InscriptionId{Txid: sampleHash(0x44), Index: 1},
		InscriptionNumber: -3,
		Parent:            &parent,
		Sat:               &sat,
		SequenceNumber:    77,
		Timestamp:         1_700_000_000,
	}
	got, err := DecodeInscriptionEntry(EncodeInscriptionEntry(e))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Charms != e.Charms || got.Fee != e.Fee || got.Height != e.Height || got.Id != e.Id ||
		got.InscriptionNumber != e.InscriptionNumber || got.SequenceNumber != e.SequenceNumber || got.Timestamp != e.Timestamp {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
	if got.Parent == nil || *got.Parent != *e.Parent {
		t.Fatalf("parent mismatch: got %v, want %v", got.Parent, e.Parent)
	}
	if got.Sat == nil || *got.Sat != *e.Sat {
		t.Fatalf("sat mismatch: got %v, want %v", got.Sat, e.Sat)
	}
}

func TestInscriptionEntryRoundTripNilOptionals(t *testing.T) {
	e := InscriptionEntry{Id: InscriptionId{Txid: sampleHash(0x55)}, InscriptionNumber: 4, SequenceNumber: 1}
	got, err := DecodeInscriptionEntry(EncodeInscriptionEntry(e))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Parent != nil || got.Sat != nil {
		t.Fatalf("expected nil optionals, got parent=%v sat=%v", got.Parent, got.Sat)
	}
}

func TestTxOutRoundTrip(t *testing.T) {
	out := TxOut{Value: 54321, PkScript: []byte{0x00, 0x14, 0x01, 0x02, 0x03}}
	got, err := DecodeTxOut(EncodeTxOut(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Value != out.Value || !bytes.Equal(got.PkScript, out.PkScript) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, out)
	}
}
