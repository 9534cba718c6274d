package components

// BeeMode is the bee's current objective.
type BeeMode uint8

const (
	BeeSearch BeeMode = iota // Wandering without a target
	BeeForage                // Heading to a flower or back to the hive
)

// String returns the mode name.
func (m BeeMode) String() string {
	switch m {
	case BeeSearch:
		return "SEARCH"
	case BeeForage:
		return "FORAGE"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether m is a declared bee mode.
func (m BeeMode) Valid() bool {
	return m <= BeeForage
}

// Bee holds forager state.
type Bee struct {
	Mode BeeMode
	Hive Position // Fixed at creation

	Target    Position
	HasTarget bool

	// Nectar carried since the last deposit
	Nectar int

	// Most recently visited flower and what was left on it
	LastTarget Position
	LastAmount int
	HasLast    bool

	// Completed deposits
	Trips int
}

// NewBee returns a searching bee belonging to the hive at hive.
func NewBee(hive Position) Bee {
	return Bee{Mode: BeeSearch, Hive: hive}
}

// SetMode changes mode. Invalid modes are rejected and leave the bee unchanged.
func (b *Bee) SetMode(m BeeMode) bool {
	if !m.Valid() {
		return false
	}
	b.Mode = m
	return true
}

// SetTarget points the bee at p.
func (b *Bee) SetTarget(p Position) {
	b.Target = p
	b.HasTarget = true
}

// ClearTarget drops the current target.
func (b *Bee) ClearTarget() {
	b.Target = Position{}
	b.HasTarget = false
}

// Remember records the flower just visited and its remaining amount.
func (b *Bee) Remember(flower Position, amount int) {
	b.LastTarget = flower
	b.LastAmount = amount
	b.HasLast = true
}

// AtTarget reports whether the bee stands on its target.
func (b *Bee) AtTarget(pos Position) bool {
	return b.HasTarget && pos == b.Target
}

// TargetIsHive reports whether the bee is heading home.
func (b *Bee) TargetIsHive() bool {
	return b.HasTarget && b.Target == b.Hive
}
