// Package envelope extracts ordinals-style data envelopes from witness
// scripts and classifies them against the curse taxonomy.
package envelope

import "ordforge.dev/indexcore/inscription"

// Payload is the decoded tagged-field content of one envelope.
type Payload struct {
	UnrecognizedEvenField bool
	DuplicateField        bool
	IncompleteField       bool
	Pointer               *uint64
	Parent                *inscription.InscriptionId
	Hidden                bool
	ContentType           []byte
	Body                  []byte
}

// Envelope is one parsed data-carrier found in a transaction's witnesses.
// Input/Offset identify where it was found: Input is the transaction input
// index, Offset is the envelope's position among envelopes within that
// input's witness stack.
type Envelope struct {
	Input   uint32
	Offset  uint32
	Pushnum bool
	Stutter bool
	Payload Payload
}

// Cursor walks a slice of Envelopes with peek/advance, keeping the
// per-input drain loop in the flotsam pipeline straightforward.
type Cursor struct {
	envelopes []Envelope
	pos       int
}

func NewCursor(envelopes []Envelope) *Cursor {
	return &Cursor{envelopes: envelopes}
}

func (c *Cursor) Peek() (Envelope, bool) {
	if c.pos >= len(c.envelopes) {
		return Envelope{}, false
	}
	return c.envelopes[c.pos], true
}

func (c *Cursor) Advance() {
	c.pos++
}
