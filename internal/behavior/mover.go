package behavior

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brushwork/internal/build"
	"github.com/Faultbox/brushwork/internal/physics"
	"github.com/Faultbox/brushwork/internal/scene"
)

// MoverState is a phase of the mover cycle:
// IdleAtOrigin -> MovingToDestination -> IdleAtDestination -> MovingToOrigin.
type MoverState int

// Mover states in cycle order.
const (
	IdleAtOrigin MoverState = iota
	MovingToDestination
	IdleAtDestination
	MovingToOrigin
)

// String returns the state name in kebab case.
func (s MoverState) String() string {
	switch s {
	case IdleAtOrigin:
		return "idle-at-origin"
	case MovingToDestination:
		return "moving-to-destination"
	case IdleAtDestination:
		return "idle-at-destination"
	case MovingToOrigin:
		return "moving-to-origin"
	default:
		return "unknown"
	}
}

// Idle reports whether the state accepts triggers.
func (s MoverState) Idle() bool {
	return s == IdleAtOrigin || s == IdleAtDestination
}

// Mover translates its node between the entity origin and DestinationOffset.
type Mover struct {
	MovingTime        time.Duration
	DestinationTime   time.Duration
	DestinationOffset mgl32.Vec3
	State             MoverState
	// Elapsed is the time spent in State.
	Elapsed time.Duration
}

// Trigger leaves an idle state for the adjacent moving state. Triggers while
// moving are ignored. It reports whether the mover started moving.
func (m *Mover) Trigger() bool {
	switch m.State {
	case IdleAtOrigin:
		m.enter(MovingToDestination)
	case IdleAtDestination:
		m.enter(MovingToOrigin)
	default:
		return false
	}
	return true
}

// Advance runs the cycle forward by dt. With holdOpen the mover never leaves
// IdleAtDestination on its own.
func (m *Mover) Advance(dt time.Duration, holdOpen bool) {
	if dt < 0 {
		return
	}
	m.Elapsed += dt
	for {
		switch m.State {
		case MovingToDestination:
			if m.Elapsed < m.MovingTime {
				return
			}
			m.Elapsed -= m.MovingTime
			m.State = IdleAtDestination
		case IdleAtDestination:
			if holdOpen {
				m.Elapsed = 0
				return
			}
			if m.Elapsed < m.DestinationTime {
				return
			}
			m.Elapsed -= m.DestinationTime
			m.State = MovingToOrigin
		case MovingToOrigin:
			if m.Elapsed < m.MovingTime {
				return
			}
			m.Elapsed -= m.MovingTime
			m.State = IdleAtOrigin
		default:
			m.Elapsed = 0
			return
		}
	}
}

// Progress is 0 at the origin and 1 at the destination.
func (m *Mover) Progress() float32 {
	switch m.State {
	case MovingToDestination:
		return m.fraction()
	case IdleAtDestination:
		return 1
	case MovingToOrigin:
		return 1 - m.fraction()
	default:
		return 0
	}
}

// Offset is the current translation from the entity origin.
func (m *Mover) Offset() mgl32.Vec3 {
	return m.DestinationOffset.Mul(m.Progress())
}

func (m *Mover) enter(s MoverState) {
	m.State = s
	m.Elapsed = 0
}

func (m *Mover) fraction() float32 {
	if m.MovingTime <= 0 {
		return 1
	}
	f := float32(m.Elapsed) / float32(m.MovingTime)
	return mgl32.Clamp(f, 0, 1)
}

// Step advances every mover by dt and writes its offset into the node's local
// position. It returns the number of movers still in motion.
func Step(w *scene.World, dt time.Duration) int {
	moving := 0
	scene.Each(w, func(id scene.NodeID, m *Mover) {
		holdOpen := false
		if d, ok := scene.Get[Door](w, id); ok {
			holdOpen = d.OpenOnce
		}
		m.Advance(dt, holdOpen)

		local, _ := w.Local(id)
		local.Position = m.Offset()
		w.SetLocal(id, local)

		if !m.State.Idle() {
			moving++
		}
	})
	return moving
}

// Activate triggers the mover on id. A door with a key stays shut unless the
// same key is presented, and an open-once door never closes again.
func Activate(w *scene.World, id scene.NodeID, key *string) bool {
	m, ok := scene.Get[Mover](w, id)
	if !ok {
		return false
	}
	if d, ok := scene.Get[Door](w, id); ok {
		if d.Key != nil && (key == nil || *key != *d.Key) {
			return false
		}
		if d.OpenOnce && m.State != IdleAtOrigin {
			return false
		}
	}
	return m.Trigger()
}

// TriggerByName activates every mover whose targetname is name and returns how
// many started moving.
func TriggerByName(w *scene.World, name string, key *string) int {
	started := 0
	scene.Each(w, func(id scene.NodeID, t *build.TriggerTarget) {
		if t.Name == name && Activate(w, id, key) {
			started++
		}
	})
	return started
}

// Touch fires the trigger volumes containing the world point p. A
// trigger_once volume is disarmed after firing. It returns how many movers
// started moving.
func Touch(w *scene.World, p mgl32.Vec3, key *string) int {
	started := 0
	for _, id := range physics.Sensors(w, p) {
		if t, ok := scene.Get[build.TriggerMultiple](w, id); ok {
			started += TriggerByName(w, t.Target, key)
			continue
		}
		if t, ok := scene.Get[build.TriggerOnce](w, id); ok {
			target := t.Target
			scene.Remove[build.TriggerOnce](w, id)
			started += TriggerByName(w, target, key)
		}
	}
	return started
}
