package fifo

import (
	"sync"

	"github.com/golang/glog"
)

// Role identifies which side of the link a CPU plays in the reset
// handshake.
type Role int

const (
	// RolePrimary holds the native reboot capability and can restart the
	// system directly.
	RolePrimary Role = iota
	// RoleSecondary cannot restart the system itself; it relays reset
	// requests to the primary over the link.
	RoleSecondary
)

func (r Role) String() string {
	if r == RolePrimary {
		return "primary"
	}
	return "secondary"
}

// BootSignature is the validity mark a loader leaves in the boot control
// descriptor ("bootstub" as a little-endian quadword).
const BootSignature uint64 = 0x62757473746F6F62

// BootControl is the shared boot descriptor populated by a prior loader.
// The reboot entries are capabilities injected by the embedding
// application; this package only ever invokes them.
type BootControl struct {
	Signature       uint64
	RebootPrimary   func()
	RebootSecondary func()
}

// Valid reports whether a loader populated the descriptor.
func (b *BootControl) Valid() bool {
	return b != nil && b.Signature == BootSignature
}

// ExitState tracks the shutdown handshake progress.
type ExitState int

const (
	// StateRunning means no exit has been requested.
	StateRunning ExitState = iota
	// StateExitRequested means Exit was entered and the fatal hook ran.
	StateExitRequested
	// StateRebooting means the reboot path was taken (native or relayed).
	StateRebooting
	// StateShuttingDown means no valid bootcode was found and the system
	// is powering off.
	StateShuttingDown
	// StateHalted is terminal. The exiting goroutine never leaves it.
	StateHalted
)

// Exiter runs the synchronized dual-processor shutdown at program exit.
//
// Both CPUs need to be running for a reset to work: the secondary cannot
// restart the system alone, so it asks the primary over the link. A command
// word is used because ordinary traffic masks the reserved header bits and
// can never look like a reset request.
type Exiter struct {
	Link *Link
	Boot *BootControl
	Role Role

	// OnFatal runs before any reset or shutdown action when the exit code
	// is non-zero. Default is a no-op.
	OnFatal func(code int)
	// Shutdown powers the system off when no valid bootcode exists.
	Shutdown func()
	// Halt parks the exiting goroutine. The default never returns;
	// tests inject a returning one.
	Halt func()

	stateLock sync.Mutex
	state     ExitState
}

// State returns the handshake state.
func (e *Exiter) State() ExitState {
	e.stateLock.Lock()
	defer e.stateLock.Unlock()
	return e.state
}

func (e *Exiter) setState(s ExitState) {
	e.stateLock.Lock()
	e.state = s
	e.stateLock.Unlock()
}

// Bind installs the inbound command handler on a link so a reset request
// from the peer triggers the local reboot capability.
func (e *Exiter) Bind(l *Link) {
	e.Link = l
	l.HandleCommand(func(code uint32) {
		switch {
		case code == CmdResetPrimary && e.Role == RolePrimary && e.Boot.Valid():
			glog.Info("peer requested reset")
			e.setState(StateRebooting)
			e.Boot.RebootPrimary()
		case code == CmdResetSecondary && e.Role == RoleSecondary && e.Boot.Valid():
			glog.Info("peer requested reset")
			e.setState(StateRebooting)
			e.Boot.RebootSecondary()
		default:
			glog.Warningf("ignored command %#x", code)
		}
	})
}

// Exit runs the shutdown handshake. It never returns: after issuing the
// reboot or shutdown action the goroutine halts, so a failure partway
// through is indistinguishable from an intentional halt. There is no error
// return by design.
func (e *Exiter) Exit(rc int) {
	e.setState(StateExitRequested)
	if rc != 0 && e.OnFatal != nil {
		e.OnFatal(rc)
	}

	if e.Boot.Valid() {
		e.setState(StateRebooting)
		if e.Role == RolePrimary {
			e.Boot.RebootPrimary()
		} else {
			// Relay through the primary. Past this point a send
			// failure cannot be reported to anyone; the halt below
			// is the outcome either way.
			e.Link.SendCommand(CmdResetPrimary)
		}
	} else {
		e.setState(StateShuttingDown)
		if e.Shutdown != nil {
			e.Shutdown()
		}
	}

	e.setState(StateHalted)
	if e.Halt != nil {
		e.Halt()
		return
	}
	select {}
}
