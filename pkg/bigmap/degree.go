package bigmap

import "github.com/endless-labs/btreemap/internal/bmerr"

// Size and degree bounds, matching the construction formulas: a node is
// targeted to occupy about DefaultTargetNodeSize bytes, never more than
// MaxNodeBytes, and the default configuration is sized so that a 0-sized
// hint always accepts keys/values up to DefaultMaxKeyOrValueSize.
const (
	MaxNodeBytes             = 400 * 1024
	DefaultTargetNodeSize    = 4096
	DefaultMaxKeyOrValueSize = 5 * 1024
	HintMaxNodeBytes         = 128 * 1024

	MinInnerDegree = 4
	MinLeafDegree  = 3
	MaxDegree      = 4096
)

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}

func sizeOrOne(n int) int {
	if n <= 0 {
		return 1
	}

	return n
}

// chooseDegrees centralizes deferred degree selection for
// NewWithConfig(0, 0, reuse): the one place a bug would silently let I7
// (key_size*inner_max_degree <= MAX_NODE_BYTES, entry_size*leaf_max_degree
// <= MAX_NODE_BYTES) slip. keySize and entrySize are the sizes observed
// at the moment degrees are fixed — either a constant-size type's single
// sample or the first inserted (key, value) pair under a variable-sized
// configuration.
func chooseDegrees(keySize, entrySize int) (innerMaxDegree, leafMaxDegree int) {
	// I7 checks inner nodes against key bytes alone but leaf nodes
	// against key+value bytes together, so the two caps differ: the
	// leaf cap reserves half of MAX_NODE_BYTES for the other half of
	// each entry's size.
	innerCapDegree := MaxNodeBytes / DefaultMaxKeyOrValueSize
	leafCapDegree := MaxNodeBytes / DefaultMaxKeyOrValueSize / 2

	innerMaxDegree = clampInt(minInt(innerCapDegree, DefaultTargetNodeSize/sizeOrOne(keySize)), MinInnerDegree, MaxDegree)
	leafMaxDegree = clampInt(minInt(leafCapDegree, DefaultTargetNodeSize/sizeOrOne(entrySize)), MinLeafDegree, MaxDegree)

	return innerMaxDegree, leafMaxDegree
}

// chooseDegreesFromHints implements NewWithTypeSizeHints's formula:
// clamp(min(TARGET/avg, HINT_MAX/max), MIN, MAX_DEGREE), failing if the
// hints are inconsistent (max < avg) or the max-based bound alone can't
// reach the floor.
func chooseDegreesFromHints(avgKey, maxKey, avgVal, maxVal int) (innerMaxDegree, leafMaxDegree int, err error) {
	innerMaxDegree, err = hintDegree(avgKey, maxKey, MinInnerDegree)
	if err != nil {
		return 0, 0, err
	}

	leafMaxDegree, err = hintDegree(avgKey+avgVal, maxKey+maxVal, MinLeafDegree)
	if err != nil {
		return 0, 0, err
	}

	return innerMaxDegree, leafMaxDegree, nil
}

func hintDegree(avg, maxSize, floorDeg int) (int, error) {
	if maxSize < avg {
		return 0, bmerr.New(bmerr.KindInvalidConfigParameter, "BigMap.NewWithTypeSizeHints")
	}

	maxBased := HintMaxNodeBytes / sizeOrOne(maxSize)
	if maxBased < floorDeg {
		return 0, bmerr.New(bmerr.KindInvalidConfigParameter, "BigMap.NewWithTypeSizeHints")
	}

	avgBased := DefaultTargetNodeSize / sizeOrOne(avg)

	return clampInt(minInt(avgBased, maxBased), floorDeg, MaxDegree), nil
}
