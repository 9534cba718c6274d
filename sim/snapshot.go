package sim

import (
	"github.com/pthm-cable/varbee/components"
)

// BeeState is a read-only copy of one bee.
type BeeState struct {
	Pos  components.Position
	Life components.Lifecycle
	Bee  components.Bee
}

// MiteState is a read-only copy of one mite. Host handles are reduced to
// whether the mite is attached, since entity IDs are not stable across runs.
type MiteState struct {
	Pos      components.Position
	Life     components.Lifecycle
	Mode     components.MiteMode
	Attached bool
}

// State is a copy of everything that evolves during a run.
type State struct {
	Tick      int32
	Bees      []BeeState
	Mites     []MiteState
	Field     [][]int
	HiveStore map[components.Position]int
	HiveKnown map[components.Position]map[components.Position]int
	Heat      [][]int
}

// State copies the current model state, agents in registry order.
func (s *Simulation) State() State {
	st := State{
		Tick:      s.tick,
		Field:     s.field.Rows(),
		HiveStore: make(map[components.Position]int, s.hives.Len()),
		HiveKnown: make(map[components.Position]map[components.Position]int, s.hives.Len()),
		Heat:      s.heat.Rows(),
	}

	beeQuery := s.beeFilter.Query()
	for beeQuery.Next() {
		pos, life, bee := beeQuery.Get()
		st.Bees = append(st.Bees, BeeState{Pos: *pos, Life: *life, Bee: *bee})
	}

	miteQuery := s.miteFilter.Query()
	for miteQuery.Next() {
		pos, life, mite := miteQuery.Get()
		st.Mites = append(st.Mites, MiteState{Pos: *pos, Life: *life, Mode: mite.Mode, Attached: mite.Attached})
	}

	for _, h := range s.hives.All() {
		st.HiveStore[h.Location] = h.Store
		known := make(map[components.Position]int, len(h.Known))
		for k, v := range h.Known {
			known[k] = v
		}
		st.HiveKnown[h.Location] = known
	}

	return st
}
