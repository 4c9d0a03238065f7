package envelope

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"ordforge.dev/indexcore/inscription"
)

// Known protocol tags. Any even tag not listed here that is present in a
// payload sets UnrecognizedEvenField so the envelope is cursed.
const (
	tagBody            = 0
	tagContentType     = 1
	tagPointer         = 2
	tagParent          = 3
	tagMetadata        = 5
	tagMetaprotocol    = 7
	tagContentEncoding = 9
	tagDelegate        = 11
)

var knownTags = map[int64]bool{
	tagBody: true, tagContentType: true, tagPointer: true, tagParent: true,
	tagMetadata: true, tagMetaprotocol: true, tagContentEncoding: true, tagDelegate: true,
}

// ExtractEnvelopes walks every input's witness stack looking for the
// ord-style data-carrier script: OP_FALSE OP_IF "ord" <tag> <value> ...
// OP_ENDIF, tapscript-style (the envelope script is whichever witness item
// parses as one, typically the script-path leaf before the control block).
// Envelopes are returned input-major, in on-script discovery order, which
// is the order the flotsam pipeline requires.
func ExtractEnvelopes(tx *wire.MsgTx) ([]Envelope, error) {
	var out []Envelope
	for inputIndex, txIn := range tx.TxIn {
		inputEnvelopes := uint32(0)
		for _, item := range txIn.Witness {
			envs, err := extractFromScript(uint32(inputIndex), item)
			if err != nil {
				continue // not an envelope-bearing witness item; try the next
			}
			for j := range envs {
				envs[j].Offset += inputEnvelopes
			}
			inputEnvelopes += uint32(len(envs))
			out = append(out, envs...)
		}
	}
	return out, nil
}

func extractFromScript(inputIndex uint32, script []byte) ([]Envelope, error) {
	var envelopes []Envelope
	offsetInInput := uint32(0)

	tok := txscript.MakeScriptTokenizer(0, script)
	for tok.Next() {
		if tok.Opcode() != txscript.OP_FALSE {
			continue
		}
		if !tok.Next() || tok.Opcode() != txscript.OP_IF {
			continue
		}
		if !tok.Next() || string(tok.Data()) != "ord" {
			continue
		}

		env, stutter, ok := parseOneEnvelope(&tok)
		if !ok {
			continue
		}
		env.Input = inputIndex
		env.Offset = offsetInInput
		env.Stutter = stutter
		envelopes = append(envelopes, env)
		offsetInInput++
	}
	if err := tok.Err(); err != nil {
		return nil, err
	}
	return envelopes, nil
}

// parseOneEnvelope consumes tag/value push pairs up to OP_ENDIF. A tag may
// be pushed as OP_0..OP_16; pushnum is set when a field value or body chunk
// is pushed with OP_1..OP_16. "stutter" is set when an OP_IF appears anywhere
// between the "ord" marker and OP_ENDIF, a known wallet-bug pattern that
// curses the envelope.
func parseOneEnvelope(tok *txscript.ScriptTokenizer) (Envelope, bool, bool) {
	var payload Payload
	var pushnum bool
	seen := map[int64]bool{}
	stutter := false

	for tok.Next() {
		if tok.Opcode() == txscript.OP_ENDIF {
			return Envelope{Payload: payload, Pushnum: pushnum}, stutter, true
		}
		if tok.Opcode() == txscript.OP_IF {
			stutter = true
			continue
		}

		tag, ok := asSmallInt(tok.Data(), tok.Opcode())
		if !ok {
			continue
		}

		if tag == tagBody {
			for tok.Next() && tok.Opcode() != txscript.OP_ENDIF {
				if isPushnumOpcode(tok.Opcode()) {
					pushnum = true
				}
				payload.Body = append(payload.Body, tok.Data()...)
			}
			return Envelope{Payload: payload, Pushnum: pushnum}, stutter, true
		}

		if !tok.Next() {
			payload.IncompleteField = true
			return Envelope{Payload: payload, Pushnum: pushnum}, stutter, true
		}
		if isPushnumOpcode(tok.Opcode()) {
			pushnum = true
		}
		value := append([]byte(nil), tok.Data()...)

		if seen[tag] {
			payload.DuplicateField = true
			continue
		}
		seen[tag] = true

		switch tag {
		case tagContentType:
			payload.ContentType = value
		case tagPointer:
			v := decodeLEUint64(value)
			payload.Pointer = &v
		case tagParent:
			id, ok := decodeInscriptionIdPush(value)
			if ok {
				payload.Parent = &id
			}
		case tagMetadata, tagMetaprotocol, tagContentEncoding, tagDelegate:
			// accepted odd/known tags not otherwise needed for indexing.
		default:
			if tag%2 == 0 && !knownTags[tag] {
				payload.UnrecognizedEvenField = true
			}
		}
	}

	// witness ended before OP_ENDIF: not a well-formed envelope.
	return Envelope{}, false, false
}

func isPushnumOpcode(op byte) bool {
	return op >= txscript.OP_1 && op <= txscript.OP_16
}

func asSmallInt(data []byte, op byte) (int64, bool) {
	if op == txscript.OP_0 {
		return 0, true
	}
	if op >= txscript.OP_1 && op <= txscript.OP_16 {
		return int64(op) - int64(txscript.OP_1) + 1, true
	}
	if len(data) > 0 && len(data) <= 8 {
		return int64(decodeLEUint64(data)), true
	}
	return 0, false
}

func decodeLEUint64(b []byte) uint64 {
	var v uint64
	for i, byt := range b {
		v |= uint64(byt) << (8 * i)
	}
	return v
}

func decodeInscriptionIdPush(b []byte) (inscription.InscriptionId, bool) {
	if len(b) < 32 {
		return inscription.InscriptionId{}, false
	}
	var id inscription.InscriptionId
	copy(id.Txid[:], b[0:32])
	if len(b) > 32 {
		id.Index = uint32(decodeLEUint64(b[32:]))
	}
	return id, true
}
