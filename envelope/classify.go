package envelope

import "ordforge.dev/indexcore/inscription"

// Curse enumerates the reasons an envelope is classified as cursed (or, post
// jubilee, vindicated). Priority order is normative: Classify returns the
// first matching cause below.
type Curse int

const (
	CurseNone Curse = iota
	CurseUnrecognizedEvenField
	CurseDuplicateField
	CurseIncompleteField
	CurseNotInFirstInput
	CurseNotAtOffsetZero
	CursePointer
	CursePushnum
	CurseStutter
	CurseReinscription
)

// InscribedOffset tracks, for one sat offset within a transaction's input
// value space, the first inscription id seen there and how many have been
// seen so far.
type InscribedOffset struct {
	FirstId inscription.InscriptionId
	Count   int
}

// PriorInscription is what Classify needs to know about whatever
// inscription already occupies an offset, to decide whether a second
// envelope at that offset is a Reinscription curse.
type PriorInscription struct {
	InscriptionNumber int32
	Vindicated        bool
}

// Classify selects the first matching curse for env, given its position and
// whatever is already known to be inscribed at its sat offset. prior is
// only consulted when exactly one prior inscription occupies the offset;
// lookupPrior fetches that inscription's number/vindicated flag from the
// store and is called lazily (only when needed) since it may require a
// table read.
func Classify(env Envelope, offset InscribedOffset, inscribedCount int, lookupPrior func() (PriorInscription, error)) (Curse, error) {
	switch {
	case env.Payload.UnrecognizedEvenField:
		return CurseUnrecognizedEvenField, nil
	case env.Payload.DuplicateField:
		return CurseDuplicateField, nil
	case env.Payload.IncompleteField:
		return CurseIncompleteField, nil
	case env.Input != 0:
		return CurseNotInFirstInput, nil
	case env.Offset != 0:
		return CurseNotAtOffsetZero, nil
	case env.Payload.Pointer != nil:
		return CursePointer, nil
	case env.Pushnum:
		return CursePushnum, nil
	case env.Stutter:
		return CurseStutter, nil
	case inscribedCount > 0:
		if offset.Count > 1 {
			return CurseReinscription, nil
		}
		prior, err := lookupPrior()
		if err != nil {
			return CurseNone, err
		}
		priorWasCursedOrVindicated := prior.InscriptionNumber < 0 || prior.Vindicated
		if priorWasCursedOrVindicated {
			return CurseNone, nil
		}
		return CurseReinscription, nil
	default:
		return CurseNone, nil
	}
}

// JubileeClassify turns a Curse into the (cursed, vindicated) pair given
// whether the jubilee rule is in effect at the current height.
func JubileeClassify(curse Curse, jubilant bool) (cursed, vindicated bool) {
	if curse == CurseNone {
		return false, false
	}
	if jubilant {
		return false, true
	}
	return true, false
}

// IsUnbound reports whether a New inscription cannot be tied to a specific
// sat: a zero-value input, an UnrecognizedEvenField curse, or the raw
// unrecognized-even-field payload flag.
func IsUnbound(curse Curse, payload Payload, inputValue uint64) bool {
	return inputValue == 0 || curse == CurseUnrecognizedEvenField || payload.UnrecognizedEvenField
}
