package store

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"ordforge.dev/indexcore/inscription"
)

var (
	bucketHomeInscriptions       = []byte("home_inscriptions")
	bucketIdToSeq                = []byte("id_to_sequence_number")
	bucketInscriptionNumToSeq    = []byte("inscription_number_to_sequence_number")
	bucketOutpointToEntry        = []byte("outpoint_to_entry")
	bucketTxidToTx               = []byte("transaction_id_to_transaction")
	bucketSatToSeq               = []byte("sat_to_sequence_number")
	bucketSatpointToSeq          = []byte("satpoint_to_sequence_number")
	bucketSeqToChildren          = []byte("sequence_number_to_children")
	bucketSeqToEntry             = []byte("sequence_number_to_entry")
	bucketSeqToSatpoint          = []byte("sequence_number_to_satpoint")

	allBuckets = [][]byte{
		bucketHomeInscriptions, bucketIdToSeq, bucketInscriptionNumToSeq,
		bucketOutpointToEntry, bucketTxidToTx, bucketSatToSeq,
		bucketSatpointToSeq, bucketSeqToChildren, bucketSeqToEntry,
		bucketSeqToSatpoint,
	}
)

// BoltStore is the bbolt-backed Store: one top-level bucket per table, plain
// keys for point maps, a nested bucket-of-empty-values per key for
// multimaps, mirroring the teacher's one-bucket-per-table layout.
type BoltStore struct {
	db *bolt.DB
}

func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", b, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Update(fn func(Store) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTxStore{tx: tx})
	})
}

type boltTxStore struct {
	tx *bolt.Tx
}

func seqKey(seq inscription.SequenceNumber) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, seq)
	return b
}

func decodeSeqKey(b []byte) inscription.SequenceNumber {
	return binary.BigEndian.Uint32(b)
}

func satKey(sat uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, sat)
	return b
}

func i32Key(n int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n)+1<<31) // order-preserving for signed ints
	return b
}

func (b *boltTxStore) HomeInscriptionsLen() (int, error) {
	return b.tx.Bucket(bucketHomeInscriptions).Stats().KeyN, nil
}

func (b *boltTxStore) HomeInscriptionsInsert(seq inscription.SequenceNumber, id inscription.InscriptionId) error {
	return b.tx.Bucket(bucketHomeInscriptions).Put(seqKey(seq), inscription.EncodeInscriptionId(id))
}

func (b *boltTxStore) HomeInscriptionsPopFirst() error {
	bucket := b.tx.Bucket(bucketHomeInscriptions)
	c := bucket.Cursor()
	k, _ := c.First()
	if k == nil {
		return nil
	}
	return bucket.Delete(k)
}

func (b *boltTxStore) IdToSequenceNumberGet(id inscription.InscriptionId) (inscription.SequenceNumber, bool, error) {
	v := b.tx.Bucket(bucketIdToSeq).Get(inscription.EncodeInscriptionId(id))
	if v == nil {
		return 0, false, nil
	}
	return decodeSeqKey(v), true, nil
}

func (b *boltTxStore) IdToSequenceNumberInsert(id inscription.InscriptionId, seq inscription.SequenceNumber) error {
	return b.tx.Bucket(bucketIdToSeq).Put(inscription.EncodeInscriptionId(id), seqKey(seq))
}

func (b *boltTxStore) InscriptionNumberToSequenceNumberInsert(number int32, seq inscription.SequenceNumber) error {
	return b.tx.Bucket(bucketInscriptionNumToSeq).Put(i32Key(number), seqKey(seq))
}

func (b *boltTxStore) OutpointToEntryInsert(op inscription.OutPoint, encodedTxOut []byte) error {
	return b.tx.Bucket(bucketOutpointToEntry).Put(inscription.EncodeOutPoint(op), encodedTxOut)
}

func (b *boltTxStore) TransactionIdToTransactionInsert(txid [32]byte, raw []byte) error {
	return b.tx.Bucket(bucketTxidToTx).Put(txid[:], raw)
}

func (b *boltTxStore) SatToSequenceNumberInsert(sat uint64, seq inscription.SequenceNumber) error {
	return multimapInsert(b.tx.Bucket(bucketSatToSeq), satKey(sat), seq)
}

func (b *boltTxStore) SatpointToSequenceNumberInsert(sp inscription.SatPoint, seq inscription.SequenceNumber) error {
	return multimapInsert(b.tx.Bucket(bucketSatpointToSeq), inscription.EncodeSatPoint(sp), seq)
}

func (b *boltTxStore) SatpointToSequenceNumberRemoveAll(sp inscription.SatPoint) error {
	key := inscription.EncodeSatPoint(sp)
	parent := b.tx.Bucket(bucketSatpointToSeq)
	if parent.Bucket(key) == nil {
		return nil
	}
	return parent.DeleteBucket(key)
}

func (b *boltTxStore) SatpointToSequenceNumbersAtOutpoint(op inscription.OutPoint) ([]SatpointSeq, error) {
	prefix := inscription.EncodeOutPoint(op)
	parent := b.tx.Bucket(bucketSatpointToSeq)
	c := parent.Cursor()
	var out []SatpointSeq
	for k, _ := c.Seek(prefix); k != nil && bytesHasPrefix(k, prefix); k, _ = c.Next() {
		sp, err := inscription.DecodeSatPoint(k)
		if err != nil {
			return nil, err
		}
		sub := parent.Bucket(k)
		if sub == nil {
			continue
		}
		if err := sub.ForEach(func(memberKey, _ []byte) error {
			out = append(out, SatpointSeq{Offset: sp.Offset, Seq: decodeSeqKey(memberKey)})
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func bytesHasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (b *boltTxStore) SequenceNumberToChildrenInsert(parent, child inscription.SequenceNumber) error {
	return multimapInsert(b.tx.Bucket(bucketSeqToChildren), seqKey(parent), child)
}

func (b *boltTxStore) SequenceNumberToEntryGet(seq inscription.SequenceNumber) (inscription.InscriptionEntry, bool, error) {
	v := b.tx.Bucket(bucketSeqToEntry).Get(seqKey(seq))
	if v == nil {
		return inscription.InscriptionEntry{}, false, nil
	}
	entry, err := inscription.DecodeInscriptionEntry(v)
	if err != nil {
		return inscription.InscriptionEntry{}, false, err
	}
	return entry, true, nil
}

func (b *boltTxStore) SequenceNumberToEntryInsert(seq inscription.SequenceNumber, entry inscription.InscriptionEntry) error {
	return b.tx.Bucket(bucketSeqToEntry).Put(seqKey(seq), inscription.EncodeInscriptionEntry(entry))
}

func (b *boltTxStore) SequenceNumberToSatpointInsert(seq inscription.SequenceNumber, sp inscription.SatPoint) error {
	return b.tx.Bucket(bucketSeqToSatpoint).Put(seqKey(seq), inscription.EncodeSatPoint(sp))
}

// multimapInsert stores one (key -> member) pair as an empty value in a
// nested bucket keyed by key, so RemoveAll is a single DeleteBucket.
func multimapInsert(parent *bolt.Bucket, key []byte, member inscription.SequenceNumber) error {
	sub, err := parent.CreateBucketIfNotExists(key)
	if err != nil {
		return err
	}
	return sub.Put(seqKey(member), []byte{})
}
