package fifo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// capturePort records pushed words. The exit path never pops.
type capturePort struct {
	words []uint32
}

func (p *capturePort) PushWord(word uint32) bool {
	p.words = append(p.words, word)
	return true
}

func (p *capturePort) PopWord() (uint32, bool) {
	return 0, false
}

func validBoot() *BootControl {
	return &BootControl{Signature: BootSignature}
}

func TestExitSecondaryRelaysReset(t *testing.T) {
	port := &capturePort{}
	boot := validBoot()
	boot.RebootSecondary = func() { t.Fatal("secondary must not reboot itself") }

	halted := false
	e := &Exiter{
		Link: NewLink(port),
		Boot: boot,
		Role: RoleSecondary,
		Halt: func() { halted = true },
	}
	e.Exit(0)

	// Exactly one special command word, never ordinary traffic.
	require.Equal(t, []uint32{EncodeCommand(CmdResetPrimary)}, port.words)
	require.Equal(t, KindCommand, Header(port.words[0]).Kind())
	require.True(t, halted)
	require.Equal(t, StateHalted, e.State())
}

func TestExitPrimaryRebootsNatively(t *testing.T) {
	port := &capturePort{}
	boot := validBoot()
	rebooted := false
	boot.RebootPrimary = func() { rebooted = true }

	e := &Exiter{
		Link: NewLink(port),
		Boot: boot,
		Role: RolePrimary,
		Halt: func() {},
	}
	e.Exit(0)

	require.True(t, rebooted)
	require.Empty(t, port.words)
	require.Equal(t, StateHalted, e.State())
}

func TestExitInvalidBootShutsDown(t *testing.T) {
	port := &capturePort{}
	shutdown := false
	e := &Exiter{
		Link:     NewLink(port),
		Boot:     &BootControl{Signature: 0x1234},
		Role:     RoleSecondary,
		Shutdown: func() { shutdown = true },
		Halt:     func() {},
	}
	e.Exit(0)

	require.True(t, shutdown)
	require.Empty(t, port.words)
	require.Equal(t, StateHalted, e.State())
}

func TestExitMissingBootShutsDown(t *testing.T) {
	shutdown := false
	e := &Exiter{
		Link:     NewLink(&capturePort{}),
		Shutdown: func() { shutdown = true },
		Halt:     func() {},
	}
	e.Exit(1)
	require.True(t, shutdown)
}

func TestExitFatalHook(t *testing.T) {
	var reported []int
	e := &Exiter{
		Link:    NewLink(&capturePort{}),
		Boot:    validBoot(),
		Role:    RolePrimary,
		OnFatal: func(code int) { reported = append(reported, code) },
		Halt:    func() {},
	}
	e.Boot.RebootPrimary = func() {}

	e.Exit(0)
	require.Empty(t, reported)

	e.Exit(3)
	require.Equal(t, []int{3}, reported)
}

func TestBindHandlesPeerReset(t *testing.T) {
	port := &capturePort{}
	link := NewLink(port)
	boot := validBoot()
	rebooted := false
	boot.RebootPrimary = func() { rebooted = true }

	e := &Exiter{Boot: boot, Role: RolePrimary}
	e.Bind(link)

	// The peer's relayed request arrives as a special command word.
	link.deliver(Inbound{Kind: KindCommand, Value: CmdResetPrimary})
	require.True(t, rebooted)
	require.Equal(t, StateRebooting, e.State())

	// A reset aimed at the other role is ignored.
	rebooted = false
	link.deliver(Inbound{Kind: KindCommand, Value: CmdResetSecondary})
	require.False(t, rebooted)
}
