package inscription

import (
	"testing"

	"ordforge.dev/indexcore/chainparams"
)

func TestRarityOfFirstSatIsMythic(t *testing.T) {
	p := chainparams.For(chainparams.Mainnet)
	if got := RarityOf(p, 0); got != RarityMythic {
		t.Fatalf("got %v, want RarityMythic", got)
	}
}

func TestRarityOfOrdinarySatIsCommon(t *testing.T) {
	p := chainparams.For(chainparams.Mainnet)
	if got := RarityOf(p, 5_000_000_001); got != RarityCommon {
		t.Fatalf("got %v, want RarityCommon", got)
	}
}

func TestIsCoinFirstSatOfEveryBlock(t *testing.T) {
	p := chainparams.For(chainparams.Mainnet)
	if !IsCoin(p, 0) {
		t.Fatal("sat 0 should be a coin (first sat of block 0)")
	}
	if IsCoin(p, 1) {
		t.Fatal("sat 1 should not be a coin")
	}
}

func TestIsNineballRequiresHeightNineOffsetZero(t *testing.T) {
	p := chainparams.For(chainparams.Mainnet)
	subsidy := p.Subsidy(0)
	nineballSat := subsidy * 9
	if !IsNineball(p, nineballSat) {
		t.Fatalf("sat %d should be the nineball", nineballSat)
	}
	if IsNineball(p, nineballSat+1) {
		t.Fatal("sat offset 1 into block 9 should not be the nineball")
	}
}
