package components

import "github.com/mlange-42/ark/ecs"

// MiteMode is the mite's life-cycle stage.
type MiteMode uint8

const (
	MiteWait      MiteMode = iota // Dormant on a cell, waiting for a host
	MiteTransport                 // Riding a host bee
	MiteReproduce                 // Breeding at a hive
	MiteDrop                      // Fell off a host; folds back into MiteWait
)

// String returns the mode name.
func (m MiteMode) String() string {
	switch m {
	case MiteWait:
		return "WAIT"
	case MiteTransport:
		return "TRANSPORT"
	case MiteReproduce:
		return "REPRODUCE"
	case MiteDrop:
		return "DROP"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether m is a declared mite mode.
func (m MiteMode) Valid() bool {
	return m <= MiteDrop
}

// Mite holds parasite state. Host is a non-owning handle into the bee
// registry and is only meaningful while Attached is set.
type Mite struct {
	Mode     MiteMode
	Host     ecs.Entity
	Attached bool
}

// NewMite returns a waiting mite.
func NewMite() Mite {
	return Mite{Mode: MiteWait}
}

// SetMode changes mode. Invalid modes are rejected and leave the mite unchanged.
func (m *Mite) SetMode(mode MiteMode) bool {
	if !mode.Valid() {
		return false
	}
	m.Mode = mode
	return true
}

// Attach links the mite to a host bee.
func (m *Mite) Attach(host ecs.Entity) {
	m.Host = host
	m.Attached = true
}

// Detach drops the host link.
func (m *Mite) Detach() {
	m.Host = ecs.Entity{}
	m.Attached = false
}

// Drop detaches the mite and returns it to waiting.
func (m *Mite) Drop() {
	m.Detach()
	// DROP is transient and folds straight back into WAIT
	m.Mode = MiteWait
}
