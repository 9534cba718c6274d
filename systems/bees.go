package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
)

// BeeParams holds forager tuning.
type BeeParams struct {
	ForageAmount int // Max nectar taken per flower visit
	VirusCost    int // Extra lifespan lost per tick when infected
	DeathDrawMax int // Death when lifespan < uniform[0, DeathDrawMax]
}

// BeeEvents counts what happened during one bee pass.
type BeeEvents struct {
	FlowersFound    int // SEARCH -> FORAGE transitions
	Harvests        int
	Extracted       int
	EmptyFlowers    int // Arrived at a flower with nothing left
	Deposits        int
	NectarDeposited int
	Deaths          int
}

// BeeSystem advances every bee through its forage state machine.
type BeeSystem struct {
	filter *ecs.Filter3[components.Position, components.Lifecycle, components.Bee]
	params BeeParams
}

// NewBeeSystem creates a bee system over the bees in w.
func NewBeeSystem(w *ecs.World, params BeeParams) *BeeSystem {
	return &BeeSystem{
		filter: ecs.NewFilter3[components.Position, components.Lifecycle, components.Bee](w),
		params: params,
	}
}

// Update moves, feeds and ages every live bee once. observe is called with
// the position of each bee still alive afterwards.
func (s *BeeSystem) Update(rng *rand.Rand, rf *ResourceField, hives *HiveRegistry, observe func(components.Position)) BeeEvents {
	var ev BeeEvents

	query := s.filter.Query()
	for query.Next() {
		pos, life, bee := query.Get()
		if !life.Alive {
			continue
		}

		s.UpdateBee(rng, rf, hives.Get(bee.Hive), pos, life, bee, &ev)

		if life.Alive {
			if observe != nil {
				observe(*pos)
			}
		} else {
			ev.Deaths++
		}
	}

	return ev
}

// UpdateBee runs one tick of a single bee. hive may be nil for a bee whose
// hive is not registered; its nectar is then lost on arrival.
func (s *BeeSystem) UpdateBee(
	rng *rand.Rand,
	rf *ResourceField,
	hive *Hive,
	pos *components.Position,
	life *components.Lifecycle,
	bee *components.Bee,
	ev *BeeEvents,
) {
	switch bee.Mode {
	case components.BeeSearch:
		*pos = RandomStep(rng, rf, *pos)
		if rf.Level(*pos) > 0 {
			bee.SetMode(components.BeeForage)
			bee.SetTarget(*pos)
			ev.FlowersFound++
		}

	case components.BeeForage:
		switch {
		case !bee.HasTarget:
			bee.SetMode(components.BeeSearch)
		case bee.AtTarget(*pos) && bee.TargetIsHive():
			s.unload(rng, hive, bee, ev)
		case bee.AtTarget(*pos):
			s.harvest(rf, *pos, bee, ev)
		default:
			*pos = StepToward(rng, rf, *pos, bee.Target)
		}
	}

	s.age(rng, life)
}

// unload banks the carried nectar, shares the last flower with the hive
// and picks the best flower the hive knows.
func (s *BeeSystem) unload(rng *rand.Rand, hive *Hive, bee *components.Bee, ev *BeeEvents) {
	ev.Deposits++
	ev.NectarDeposited += bee.Nectar
	bee.Trips++

	if hive == nil {
		bee.Nectar = 0
		bee.ClearTarget()
		bee.SetMode(components.BeeSearch)
		return
	}

	hive.Deposit(bee.Nectar)
	bee.Nectar = 0
	if bee.HasLast {
		hive.Learn(bee.LastTarget, bee.LastAmount)
	}

	next, ok := hive.BestFlower(rng)
	if !ok {
		bee.ClearTarget()
		bee.SetMode(components.BeeSearch)
		return
	}
	bee.SetTarget(next)
}

// harvest takes nectar from the flower under the bee and turns it home.
func (s *BeeSystem) harvest(rf *ResourceField, pos components.Position, bee *components.Bee, ev *BeeEvents) {
	if rf.Level(pos) == 0 {
		ev.EmptyFlowers++
		bee.ClearTarget()
		bee.SetMode(components.BeeSearch)
		return
	}

	taken := rf.Take(pos, s.params.ForageAmount)
	bee.Nectar += taken
	ev.Harvests++
	ev.Extracted += taken

	bee.Remember(pos, rf.Level(pos))
	bee.SetTarget(bee.Hive)
}

func (s *BeeSystem) age(rng *rand.Rand, life *components.Lifecycle) {
	cost := 1
	if life.VirusPresent {
		cost += s.params.VirusCost
	}
	life.Advance(cost)
	life.SurvivesDraw(rng.Intn(s.params.DeathDrawMax + 1))
}
