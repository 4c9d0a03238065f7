package inscription

import "fmt"

// SatRange is a half-open [Start, End) range of sat numbers contributed by
// one transaction input, in input-scan order.
type SatRange struct {
	Start, End uint64
}

// CalculateSat finds the sat number at offset within the concatenated
// ranges. It returns ok=false when no ranges were supplied at all (no sat
// oracle available for this transaction). A ranges slice that is present
// but exhausted before reaching offset is an invariant breach: the caller
// must treat the returned error as fatal, not recoverable.
func CalculateSat(ranges []SatRange, offset uint64) (sat uint64, ok bool, err error) {
	if ranges == nil {
		return 0, false, nil
	}

	var cumulative uint64
	for _, r := range ranges {
		size := r.End - r.Start
		if cumulative+size > offset {
			return r.Start + (offset - cumulative), true, nil
		}
		cumulative += size
	}

	return 0, false, fmt.Errorf("inscription: sat offset %d exceeds total input range size %d: corrupt sat oracle", offset, cumulative)
}
