package inscription

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Fixed-width binary layouts. These must byte-match across any other
// implementation sharing the same on-disk tables (spec ยง6): little-endian
// throughout, Option<T> encoded as a presence byte followed by T's bytes
// when present.

const (
	outPointSize  = chainhash.HashSize + 4 // 36
	satPointSize  = outPointSize + 8       // 44
	inscriptionIdSize = chainhash.HashSize + 4
)

// EncodeOutPoint writes the 36-byte outpoint key: txid(32) || vout u32 LE.
func EncodeOutPoint(p OutPoint) []byte {
	out := make([]byte, outPointSize)
	copy(out[0:32], p.Hash[:])
	binary.LittleEndian.PutUint32(out[32:36], p.Index)
	return out
}

func DecodeOutPoint(b []byte) (OutPoint, error) {
	if len(b) != outPointSize {
		return OutPoint{}, fmt.Errorf("inscription: outpoint expected %d bytes, got %d", outPointSize, len(b))
	}
	var p OutPoint
	copy(p.Hash[:], b[0:32])
	p.Index = binary.LittleEndian.Uint32(b[32:36])
	return p, nil
}

// EncodeSatPoint writes outpoint(36) || offset u64 LE.
func EncodeSatPoint(s SatPoint) []byte {
	out := make([]byte, satPointSize)
	copy(out[0:outPointSize], EncodeOutPoint(s.Outpoint))
	binary.LittleEndian.PutUint64(out[outPointSize:satPointSize], s.Offset)
	return out
}

func DecodeSatPoint(b []byte) (SatPoint, error) {
	if len(b) != satPointSize {
		return SatPoint{}, fmt.Errorf("inscription: satpoint expected %d bytes, got %d", satPointSize, len(b))
	}
	op, err := DecodeOutPoint(b[0:outPointSize])
	if err != nil {
		return SatPoint{}, err
	}
	return SatPoint{
		Outpoint: op,
		Offset:   binary.LittleEndian.Uint64(b[outPointSize:satPointSize]),
	}, nil
}

// EncodeInscriptionId writes txid(32) || index u32 LE.
func EncodeInscriptionId(id InscriptionId) []byte {
	out := make([]byte, inscriptionIdSize)
	copy(out[0:32], id.Txid[:])
	binary.LittleEndian.PutUint32(out[32:36], id.Index)
	return out
}

func DecodeInscriptionId(b []byte) (InscriptionId, error) {
	if len(b) != inscriptionIdSize {
		return InscriptionId{}, fmt.Errorf("inscription: id expected %d bytes, got %d", inscriptionIdSize, len(b))
	}
	var id InscriptionId
	copy(id.Txid[:], b[0:32])
	id.Index = binary.LittleEndian.Uint32(b[32:36])
	return id, nil
}

// optionU32 / optionU64 encode Option<T> as a 1-byte presence flag followed
// by the value (zero-filled when absent), matching the teacher's
// presence-byte convention in node/store/utxo_encoding.go.

func putOptionU32(buf []byte, v *uint32) {
	if v == nil {
		buf[0] = 0
		return
	}
	buf[0] = 1
	binary.LittleEndian.PutUint32(buf[1:5], *v)
}

func getOptionU32(buf []byte) *uint32 {
	if buf[0] == 0 {
		return nil
	}
	v := binary.LittleEndian.Uint32(buf[1:5])
	return &v
}

func putOptionU64(buf []byte, v *uint64) {
	if v == nil {
		buf[0] = 0
		return
	}
	buf[0] = 1
	binary.LittleEndian.PutUint64(buf[1:9], *v)
}

func getOptionU64(buf []byte) *uint64 {
	if buf[0] == 0 {
		return nil
	}
	v := binary.LittleEndian.Uint64(buf[1:9])
	return &v
}

// entry layout:
// charms u16 | fee u64 | height u32 | id (36) | inscription_number i32 |
// parent_present u8 + parent u32 | sat_present u8 + sat u64 |
// sequence_number u32 | timestamp u32
const inscriptionEntrySize = 2 + 8 + 4 + inscriptionIdSize + 4 + 5 + 9 + 4 + 4

func EncodeInscriptionEntry(e InscriptionEntry) []byte {
	out := make([]byte, inscriptionEntrySize)
	off := 0
	binary.LittleEndian.PutUint16(out[off:off+2], uint16(e.Charms))
	off += 2
	binary.LittleEndian.PutUint64(out[off:off+8], e.Fee)
	off += 8
	binary.LittleEndian.PutUint32(out[off:off+4], e.Height)
	off += 4
	copy(out[off:off+inscriptionIdSize], EncodeInscriptionId(e.Id))
	off += inscriptionIdSize
	binary.LittleEndian.PutUint32(out[off:off+4], uint32(e.InscriptionNumber))
	off += 4
	putOptionU32(out[off:off+5], e.Parent)
	off += 5
	putOptionU64(out[off:off+9], e.Sat)
	off += 9
	binary.LittleEndian.PutUint32(out[off:off+4], e.SequenceNumber)
	off += 4
	binary.LittleEndian.PutUint32(out[off:off+4], e.Timestamp)
	return out
}

func DecodeInscriptionEntry(b []byte) (InscriptionEntry, error) {
	if len(b) != inscriptionEntrySize {
		return InscriptionEntry{}, fmt.Errorf("inscription: entry expected %d bytes, got %d", inscriptionEntrySize, len(b))
	}
	off := 0
	var e InscriptionEntry
	e.Charms = Charms(binary.LittleEndian.Uint16(b[off : off+2]))
	off += 2
	e.Fee = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	e.Height = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	id, err := DecodeInscriptionId(b[off : off+inscriptionIdSize])
	if err != nil {
		return InscriptionEntry{}, err
	}
	e.Id = id
	off += inscriptionIdSize
	e.InscriptionNumber = int32(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	e.Parent = getOptionU32(b[off : off+5])
	off += 5
	e.Sat = getOptionU64(b[off : off+9])
	off += 9
	e.SequenceNumber = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	e.Timestamp = binary.LittleEndian.Uint32(b[off : off+4])
	return e, nil
}

// EncodeTxOut is the table-ready encoding persisted in outpoint_to_entry:
// value i64 LE | script_len CompactSize-free u32 LE | script bytes.
func EncodeTxOut(t TxOut) []byte {
	out := make([]byte, 8+4+len(t.PkScript))
	binary.LittleEndian.PutUint64(out[0:8], uint64(t.Value))
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(t.PkScript)))
	copy(out[12:], t.PkScript)
	return out
}

func DecodeTxOut(b []byte) (TxOut, error) {
	if len(b) < 12 {
		return TxOut{}, fmt.Errorf("inscription: txout truncated")
	}
	value := int64(binary.LittleEndian.Uint64(b[0:8]))
	scriptLen := binary.LittleEndian.Uint32(b[8:12])
	if uint32(len(b)-12) != scriptLen {
		return TxOut{}, fmt.Errorf("inscription: txout bad script length")
	}
	script := append([]byte(nil), b[12:]...)
	return TxOut{Value: value, PkScript: script}, nil
}
