package systems

import (
	"math/rand"

	"github.com/pthm-cable/varbee/components"
)

// distanceEpsilon absorbs float noise when comparing candidate distances.
const distanceEpsilon = 1e-9

// RandomStep moves one cell to a uniformly chosen in-bounds Moore neighbor.
// On a 1x1 field there is nowhere to go and pos is returned unchanged.
func RandomStep(rng *rand.Rand, rf *ResourceField, pos components.Position) components.Position {
	var candidates [8]components.Position
	n := 0
	for _, off := range components.Moore {
		next := pos.Add(off)
		if rf.InBounds(next) {
			candidates[n] = next
			n++
		}
	}
	if n == 0 {
		return pos
	}
	return candidates[rng.Intn(n)]
}

// StepToward moves one cell to the Moore neighbor closest to target,
// choosing uniformly among equally close neighbors.
func StepToward(rng *rand.Rand, rf *ResourceField, pos, target components.Position) components.Position {
	var best [8]components.Position
	n := 0
	bestDist := 0.0
	for _, off := range components.Moore {
		next := pos.Add(off)
		if !rf.InBounds(next) {
			continue
		}
		d := next.DistanceTo(target)
		switch {
		case n == 0 || d < bestDist-distanceEpsilon:
			best[0] = next
			n = 1
			bestDist = d
		case d <= bestDist+distanceEpsilon:
			best[n] = next
			n++
		}
	}
	if n == 0 {
		return pos
	}
	if n == 1 {
		return best[0]
	}
	return best[rng.Intn(n)]
}
