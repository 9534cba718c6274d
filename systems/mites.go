package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
)

// MiteParams holds parasite tuning.
type MiteParams struct {
	DropChance     float64 // Per-tick chance of falling off a host away from the hive
	SettleChance   float64 // Per-tick chance of a reproducing mite going dormant
	CapRatio       int     // Mite population ceiling per bee
	ParasitismCost int     // Host lifespan lost per tick
	DeathDrawMax   int
	TransmitChance float64 // Chance the virus crosses on attachment
}

// Hosts is what a mite can see of the bee registry.
type Hosts interface {
	// At returns the live bees on p.
	At(p components.Position) []ecs.Entity
	// Resolve follows a host handle; ok is false once the bee is gone.
	Resolve(e ecs.Entity) (pos *components.Position, life *components.Lifecycle, bee *components.Bee, ok bool)
}

// MiteCreator spawns a newborn mite.
type MiteCreator func(pos components.Position, virus bool) ecs.Entity

// MiteEvents counts what happened during one mite pass.
type MiteEvents struct {
	Attachments int
	Arrivals    int // Carried to the host's hive
	Drops       int
	Settles     int
	Births      int
	Orphaned    int // Died with their host
	Infections  int // Virus crossings in either direction
	Deaths      int
}

// MiteBirth is a newborn queued during the pass.
type MiteBirth struct {
	Pos   components.Position
	Virus bool
}

// MiteTick is the population context of one mite pass. MiteCount grows as
// births are queued.
type MiteTick struct {
	BeeCount  int
	MiteCount int
	Births    []MiteBirth
}

// MiteSystem advances every mite through its parasite state machine.
type MiteSystem struct {
	filter *ecs.Filter3[components.Position, components.Lifecycle, components.Mite]
	params MiteParams
	births []MiteBirth // reused between ticks
}

// NewMiteSystem creates a mite system over the mites in w.
func NewMiteSystem(w *ecs.World, params MiteParams) *MiteSystem {
	return &MiteSystem{
		filter: ecs.NewFilter3[components.Position, components.Lifecycle, components.Mite](w),
		params: params,
	}
}

// Update runs one mite pass. beeCount and miteCount are the registry sizes
// at the start of the phase. Newborns are created through spawn after the
// pass, so they are not visited until the next tick.
func (s *MiteSystem) Update(rng *rand.Rand, hosts Hosts, beeCount, miteCount int, spawn MiteCreator) MiteEvents {
	var ev MiteEvents
	tick := MiteTick{
		BeeCount:  beeCount,
		MiteCount: miteCount,
		Births:    s.births[:0],
	}

	query := s.filter.Query()
	for query.Next() {
		pos, life, mite := query.Get()
		if !life.Alive {
			continue
		}

		s.UpdateMite(rng, hosts, pos, life, mite, &tick, &ev)

		if !life.Alive {
			ev.Deaths++
		}
	}

	// World is unlocked again
	for _, b := range tick.Births {
		if spawn != nil {
			spawn(b.Pos, b.Virus)
		}
	}
	s.births = tick.Births

	return ev
}

// UpdateMite runs one tick of a single mite.
func (s *MiteSystem) UpdateMite(
	rng *rand.Rand,
	hosts Hosts,
	pos *components.Position,
	life *components.Lifecycle,
	mite *components.Mite,
	tick *MiteTick,
	ev *MiteEvents,
) {
	switch mite.Mode {
	case components.MiteWait, components.MiteDrop:
		s.wait(rng, hosts, *pos, life, mite, ev)

	case components.MiteTransport:
		hostPos, hostLife, hostBee, ok := hosts.Resolve(mite.Host)
		if !ok || !hostLife.Alive {
			life.Kill()
			ev.Orphaned++
			return
		}
		*pos = *hostPos
		switch {
		case *pos == hostBee.Hive:
			mite.Detach()
			mite.SetMode(components.MiteReproduce)
			ev.Arrivals++
		case rng.Float64() < s.params.DropChance:
			mite.Drop()
			ev.Drops++
		}

	case components.MiteReproduce:
		if s.canReproduce(rng, tick) {
			tick.Births = append(tick.Births, MiteBirth{Pos: *pos, Virus: life.VirusPresent})
			tick.MiteCount++
			ev.Births++
		}
		if rng.Float64() < s.params.SettleChance {
			mite.SetMode(components.MiteWait)
			ev.Settles++
		}
	}

	s.age(rng, hosts, life, mite)
}

// wait keeps a dormant mite's lifespan steady and attaches it to a random
// bee on the same cell, if any.
func (s *MiteSystem) wait(
	rng *rand.Rand,
	hosts Hosts,
	pos components.Position,
	life *components.Lifecycle,
	mite *components.Mite,
	ev *MiteEvents,
) {
	mite.Mode = components.MiteWait
	// Cancels the decrement in age
	life.Advance(-1)

	candidates := hosts.At(pos)
	if len(candidates) == 0 {
		return
	}
	host := candidates[0]
	if len(candidates) > 1 {
		host = candidates[rng.Intn(len(candidates))]
	}

	mite.Attach(host)
	mite.SetMode(components.MiteTransport)
	ev.Attachments++

	if _, hostLife, _, ok := hosts.Resolve(host); ok {
		if s.transmit(rng, life, hostLife) {
			ev.Infections++
		}
	}
}

// transmit spreads the virus between a mite and its new host when exactly
// one of them carries it.
func (s *MiteSystem) transmit(rng *rand.Rand, mite, host *components.Lifecycle) bool {
	if mite.VirusPresent == host.VirusPresent {
		return false
	}
	if rng.Float64() >= s.params.TransmitChance {
		return false
	}
	mite.VirusPresent = true
	host.VirusPresent = true
	return true
}

// canReproduce draws against the population cap. With no bees the cap is
// zero and the draw always fails.
func (s *MiteSystem) canReproduce(rng *rand.Rand, tick *MiteTick) bool {
	limit := s.params.CapRatio * tick.BeeCount
	if limit < 0 {
		limit = 0
	}
	return rng.Intn(limit+1) > tick.MiteCount
}

func (s *MiteSystem) age(rng *rand.Rand, hosts Hosts, life *components.Lifecycle, mite *components.Mite) {
	life.Advance(1)
	if mite.Attached {
		if _, hostLife, _, ok := hosts.Resolve(mite.Host); ok && hostLife.Alive {
			hostLife.Advance(s.params.ParasitismCost)
		}
	}
	life.SurvivesDraw(rng.Intn(s.params.DeathDrawMax + 1))
}
