package telemetry

import "github.com/mlange-42/ark/ecs"

// LifetimeTracker remembers when each agent was born so its age can be
// reported when it is purged.
type LifetimeTracker struct {
	births map[ecs.Entity]int32
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		births: make(map[ecs.Entity]int32),
	}
}

// Register records the birth tick of a new agent.
func (lt *LifetimeTracker) Register(e ecs.Entity, birthTick int32) {
	lt.births[e] = birthTick
}

// Remove forgets an agent and returns its age at tick. ok is false for
// agents that were never registered.
func (lt *LifetimeTracker) Remove(e ecs.Entity, tick int32) (age int32, ok bool) {
	born, ok := lt.births[e]
	if !ok {
		return 0, false
	}
	delete(lt.births, e)
	return tick - born, true
}

// Len returns the number of tracked agents.
func (lt *LifetimeTracker) Len() int {
	return len(lt.births)
}
