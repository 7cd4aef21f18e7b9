package gamepad

import (
	"sync"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/joystick"
)

// Pads is the live state of gamepads 1 and 2. One Pads is shared by every
// op-mode so that whichever mode is active sees the sticks as they are now.
type Pads struct {
	lock sync.Mutex
	pads [2]Gamepad
}

// Apply updates gamepad 1 or 2 from an event. Other pads are ignored.
func (p *Pads) Apply(pad int, event *joystick.Event) {
	if pad < 1 || pad > len(p.pads) {
		return
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.pads[pad-1].Apply(event)
}

// Reset returns a pad to neutral, as if every control had been released.
func (p *Pads) Reset(pad int) {
	if pad < 1 || pad > len(p.pads) {
		return
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.pads[pad-1] = Gamepad{}
}

func (p *Pads) Snapshot() (Gamepad, Gamepad) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.pads[0], p.pads[1]
}
