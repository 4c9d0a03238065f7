package updater

import "ordforge.dev/indexcore/inscription"

// originKind distinguishes an inscription already on-chain being carried
// forward (Old) from one freshly revealed in the transaction under index
// (New).
type originKind int

const (
	originOld originKind = iota
	originNew
)

// newOrigin carries the fields the spec attaches to a New flotsam's origin
// variant.
type newOrigin struct {
	cursed        bool
	fee           uint64
	hidden        bool
	parent        *inscription.InscriptionId
	pointer       *uint64
	reinscription bool
	unbound       bool
	vindicated    bool
	contentType   []byte
	body          []byte
}

// flotsam is the per-transaction in-flight bookkeeping record for one
// inscription, old or new, before it is resolved to a final satpoint and
// handed to updateInscriptionLocation.
type flotsam struct {
	id          inscription.InscriptionId
	offset      uint64
	oldSatpoint inscription.SatPoint
	origin      originKind
	new         newOrigin
}
