// Package chainparams carries the per-network constants the indexing core
// needs but never derives on its own: block subsidy schedule, the jubilee
// height at which curses turn into vindications, and the sat-degree windows
// used for rarity classification.
package chainparams

// Network identifies which Bitcoin network a Params value describes.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Signet  Network = "signet"
	Regtest Network = "regtest"
)

// Params bundles the chain-specific values the updater consults. Subsidy
// halving follows Bitcoin consensus; JubileeHeight is ordinals-protocol
// specific and varies per network.
type Params struct {
	Network          Network
	SubsidyHalvingInterval uint64
	JubileeHeight    uint32
}

func For(network Network) Params {
	switch network {
	case Testnet:
		return Params{Network: Testnet, SubsidyHalvingInterval: 210_000, JubileeHeight: 2_544_192}
	case Signet:
		return Params{Network: Signet, SubsidyHalvingInterval: 210_000, JubileeHeight: 2_544_192}
	case Regtest:
		return Params{Network: Regtest, SubsidyHalvingInterval: 150, JubileeHeight: 250}
	default:
		return Params{Network: Mainnet, SubsidyHalvingInterval: 210_000, JubileeHeight: 824_544}
	}
}

// Subsidy computes the block reward at height per Bitcoin's halving
// schedule: 50 BTC (5_000_000_000 sats) halved every SubsidyHalvingInterval
// blocks, floored at zero once the reward would drop below one sat.
func (p Params) Subsidy(height uint32) uint64 {
	halvings := uint64(height) / p.SubsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	const initial = 5_000_000_000
	return initial >> halvings
}

// Jubilant reports whether curses at this height convert to vindications.
func (p Params) Jubilant(height uint32) bool {
	return height >= p.JubileeHeight
}
