// Package inscription holds the data model the indexing core persists:
// inscription identities, satoshi locations, entries, and the fixed-layout
// binary codecs used to store them. Types lean on btcsuite/btcd's wire and
// chainhash packages so outpoints and txids stay byte-compatible with real
// Bitcoin transactions rather than a bespoke 32-byte array.
package inscription

import (
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// OutPoint and TxOut are aliased straight from the wire package: an
// inscription's location is always a location within a real Bitcoin
// transaction graph.
type OutPoint = wire.OutPoint
type TxOut = wire.TxOut

// NullOutPoint is the coinbase sentinel (all-zero txid, vout 0xFFFFFFFF)
// and also stands in for "lost to fees" satpoints.
func NullOutPoint() OutPoint {
	return OutPoint{Hash: chainhash.Hash{}, Index: math.MaxUint32}
}

// UnboundOutPoint is the reserved sentinel for inscriptions that cannot be
// tied to any sat. Distinct from NullOutPoint by vout.
func UnboundOutPoint() OutPoint {
	return OutPoint{Hash: chainhash.Hash{}, Index: 0}
}

func IsNullOutPoint(p OutPoint) bool {
	return p.Index == math.MaxUint32 && p.Hash == (chainhash.Hash{})
}

// InscriptionId identifies an inscription by the transaction that revealed
// it plus a 0-based index among envelopes in that transaction.
type InscriptionId struct {
	Txid  chainhash.Hash
	Index uint32
}

// SatPoint locates a single satoshi within a UTXO.
type SatPoint struct {
	Outpoint OutPoint
	Offset   uint64
}

// SequenceNumber is assigned in strict discovery order across all blocks,
// independent of blessed/cursed classification.
type SequenceNumber = uint32

// InscriptionEntry is the persisted record for one inscription.
type InscriptionEntry struct {
	Charms            Charms
	Fee               uint64
	Height            uint32
	Id                InscriptionId
	InscriptionNumber int32
	Parent            *SequenceNumber
	Sat               *uint64
	SequenceNumber    SequenceNumber
	Timestamp         uint32
}

// Action distinguishes a Transfer of an existing inscription from the
// reveal of a New one, for the per-transaction operation log.
type Action int

const (
	ActionTransfer Action = iota
	ActionNew
)

// InscriptionOp is one entry in the append-only per-transaction operation
// log the updater builds while indexing a block.
type InscriptionOp struct {
	Txid              chainhash.Hash
	SequenceNumber     SequenceNumber
	InscriptionNumber *int32
	InscriptionId     InscriptionId
	Action            Action
	Cursed            bool
	Unbound           bool
	Vindicated        bool
	Parent            *InscriptionId
	OldSatpoint       *SatPoint
	NewSatpoint       *SatPoint
}
