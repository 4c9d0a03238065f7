// Package store defines the transactional key-value contract the updater
// needs and provides a go.etcd.io/bbolt-backed implementation of it. All
// keys/values are the fixed-layout encodings from package inscription;
// store itself never branches on their meaning.
package store

import "ordforge.dev/indexcore/inscription"

// Store is the full set of map/multimap operations the updater consumes,
// per spec ยง6. Implementations must make every method available inside a
// single read-write Update transaction so a block's writes are atomic.
type Store interface {
	// home_inscriptions: seq -> id, bounded to 100 entries.
	HomeInscriptionsLen() (int, error)
	HomeInscriptionsInsert(seq inscription.SequenceNumber, id inscription.InscriptionId) error
	HomeInscriptionsPopFirst() error

	// id_to_sequence_number: id -> seq, point get/insert.
	IdToSequenceNumberGet(id inscription.InscriptionId) (inscription.SequenceNumber, bool, error)
	IdToSequenceNumberInsert(id inscription.InscriptionId, seq inscription.SequenceNumber) error

	// inscription_number_to_sequence_number: i32 -> seq, insert.
	InscriptionNumberToSequenceNumberInsert(number int32, seq inscription.SequenceNumber) error

	// outpoint_to_entry: outpoint -> encoded TxOut, insert.
	OutpointToEntryInsert(op inscription.OutPoint, encodedTxOut []byte) error

	// transaction_id_to_transaction: txid -> raw tx bytes, insert.
	TransactionIdToTransactionInsert(txid [32]byte, raw []byte) error

	// sat_to_sequence_number: sat -> seq, multimap insert.
	SatToSequenceNumberInsert(sat uint64, seq inscription.SequenceNumber) error

	// satpoint_to_sequence_number: satpoint -> seq, multimap insert/remove_all.
	SatpointToSequenceNumberInsert(sp inscription.SatPoint, seq inscription.SequenceNumber) error
	SatpointToSequenceNumberRemoveAll(sp inscription.SatPoint) error

	// SatpointToSequenceNumbersAtOutpoint enumerates every (offset, seq) pair
	// currently occupying any satpoint within op, for the flotsam pipeline's
	// existing-inscription scan on a spent output.
	SatpointToSequenceNumbersAtOutpoint(op inscription.OutPoint) ([]SatpointSeq, error)

	// sequence_number_to_children: seq -> seq, multimap insert.
	SequenceNumberToChildrenInsert(parent, child inscription.SequenceNumber) error

	// sequence_number_to_entry: seq -> entry bytes, get/insert.
	SequenceNumberToEntryGet(seq inscription.SequenceNumber) (inscription.InscriptionEntry, bool, error)
	SequenceNumberToEntryInsert(seq inscription.SequenceNumber, entry inscription.InscriptionEntry) error

	// sequence_number_to_satpoint: seq -> satpoint bytes, insert.
	SequenceNumberToSatpointInsert(seq inscription.SequenceNumber, sp inscription.SatPoint) error
}

// Update runs fn inside one atomic read-write transaction against the
// store; an error returned by fn aborts the whole transaction.
type Transactor interface {
	Update(fn func(Store) error) error
}

// SatpointSeq is one entry returned by SatpointToSequenceNumbersAtOutpoint:
// the sat offset within the outpoint and the sequence number sitting there.
type SatpointSeq struct {
	Offset uint64
	Seq    inscription.SequenceNumber
}
