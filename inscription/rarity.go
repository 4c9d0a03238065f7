package inscription

import "ordforge.dev/indexcore/chainparams"

// Rarity is the ordinals sat-rarity taxonomy. Common and Mythic contribute
// no charm bit; the remaining tiers each set one.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
	RarityMythic
)

// degree decomposes a sat number into its position within the current
// block (hour), the current halving epoch (minute), the current
// difficulty-adjustment period (second) and the current cycle (third) — the same
// four-coordinate system ordinals theory uses to assign rarity.
type degree struct {
	hour, minute, second, third uint64
}

const (
	difficultyAdjustmentInterval = 2016
	cycleEpochs                  = 6
)

func supplyToHeight(p chainparams.Params, sat uint64) (height uint32, offset uint64) {
	var height64 uint64
	remaining := sat
	for {
		subsidy := p.Subsidy(uint32(height64))
		if subsidy == 0 {
			// Past the tail of emission: every remaining sat sits at the
			// final block, offset by how far past the cutoff it is.
			return uint32(height64), remaining
		}
		if remaining < subsidy {
			return uint32(height64), remaining
		}
		remaining -= subsidy
		height64++
	}
}

func degreeOf(p chainparams.Params, sat uint64) degree {
	height, offset := supplyToHeight(p, sat)
	h := uint64(height)
	return degree{
		hour:   offset,
		minute: h % p.SubsidyHalvingInterval,
		second: h % difficultyAdjustmentInterval,
		third:  h / (p.SubsidyHalvingInterval * cycleEpochs),
	}
}

// RarityOf classifies a sat number under the given chain parameters.
func RarityOf(p chainparams.Params, sat uint64) Rarity {
	d := degreeOf(p, sat)
	switch {
	case d.hour == 0 && d.minute == 0 && d.second == 0 && d.third == 0:
		return RarityMythic
	case d.hour == 0 && d.minute == 0 && d.second == 0:
		return RarityLegendary
	case d.hour == 0 && d.minute == 0:
		return RarityEpic
	case d.hour == 0 && d.second == 0:
		return RarityRare
	case d.hour == 0:
		return RarityUncommon
	default:
		return RarityCommon
	}
}

// IsNineball reports whether sat is the first sat mined in block 9 — a
// curiosity the ordinals community tracks independently of rarity.
func IsNineball(p chainparams.Params, sat uint64) bool {
	height, offset := supplyToHeight(p, sat)
	return height == 9 && offset == 0
}

// IsCoin reports whether sat is the first sat of whatever block it was
// mined in.
func IsCoin(p chainparams.Params, sat uint64) bool {
	_, offset := supplyToHeight(p, sat)
	return offset == 0
}
