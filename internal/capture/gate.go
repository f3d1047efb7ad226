package capture

import (
	"time"

	"github.com/ayusman/gestpipe/internal/config"
)

// Gate switches between idle and active capture rates from motion results.
// Motion activates immediately; the gate falls back to idle once no motion
// has been seen for the idle timeout.
type Gate struct {
	idleFPS     int
	activeFPS   int
	idleTimeout time.Duration
	active      bool
	lastMotion  time.Time
}

// NewGate creates an idle gate from the camera settings.
func NewGate(cfg config.Camera) *Gate {
	g := &Gate{
		idleFPS:     cfg.IdleFPS,
		activeFPS:   cfg.ActiveFPS,
		idleTimeout: cfg.IdleTimeout.Duration,
	}
	if g.idleFPS <= 0 {
		g.idleFPS = DefaultFPS
	}
	if g.activeFPS < g.idleFPS {
		g.activeFPS = g.idleFPS
	}
	return g
}

// Observe records one motion result and reports whether the mode changed.
func (g *Gate) Observe(motion bool, now time.Time) bool {
	if motion {
		g.lastMotion = now
		if !g.active {
			g.active = true
			return true
		}
		return false
	}
	if g.active && now.Sub(g.lastMotion) > g.idleTimeout {
		g.active = false
		return true
	}
	return false
}

// Active reports whether the gate is in active mode.
func (g *Gate) Active() bool { return g.active }

// FPS returns the frame rate for the current mode.
func (g *Gate) FPS() int {
	if g.active {
		return g.activeFPS
	}
	return g.idleFPS
}

// Interval returns the frame period for the current mode.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
