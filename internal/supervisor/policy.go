package supervisor

import (
	"math"
	"syscall"
	"time"

	"github.com/cryptogyan1/tgbot/internal/config"
)

// RestartPolicy bounds how fast a crashing worker is relaunched.
type RestartPolicy struct {
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// MaxRestarts consecutive crashes open the circuit for Cooldown.
	// Zero means no limit.
	MaxRestarts int
	// Cooldown is also the uptime after which a worker counts as healthy again.
	Cooldown time.Duration
}

// Delay is the wait before restart number n of a crash streak (n >= 1).
func (p RestartPolicy) Delay(n int) time.Duration {
	if n < 1 || p.BackoffBase <= 0 {
		return 0
	}

	d := p.BackoffBase
	for i := 1; i < n; i++ {
		if d > math.MaxInt64/2 {
			break
		}
		d *= 2
		if p.BackoffMax > 0 && d >= p.BackoffMax {
			return p.BackoffMax
		}
	}

	if p.BackoffMax > 0 && d > p.BackoffMax {
		return p.BackoffMax
	}
	return d
}

// Tripped reports whether a streak of n crashes should open the circuit.
func (p RestartPolicy) Tripped(n int) bool {
	return p.MaxRestarts > 0 && n > p.MaxRestarts
}

type exitReason int

const (
	reasonCrash exitReason = iota
	reasonClean
	reasonStopSignal
	reasonConfig
)

func (r exitReason) String() string {
	switch r {
	case reasonClean:
		return "clean exit"
	case reasonStopSignal:
		return "stop signal"
	case reasonConfig:
		return "configuration error"
	default:
		return "crash"
	}
}

// classify decides whether an exit warrants a relaunch. Only crashes do.
func classify(e Exit) exitReason {
	switch {
	case e.Err != nil:
		return reasonCrash
	case e.Signal == syscall.SIGINT || e.Signal == syscall.SIGTERM:
		return reasonStopSignal
	case e.Signal != 0:
		return reasonCrash
	case e.Code == 0:
		return reasonClean
	case e.Code == config.ExitConfig:
		return reasonConfig
	default:
		return reasonCrash
	}
}
