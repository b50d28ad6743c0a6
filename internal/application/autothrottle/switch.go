package autothrottle

import "sync/atomic"

// MasterSwitch holds the operator's enable and repeat flags. The UI side
// flips them from its own goroutine while the tick loop reads them, so
// both are atomics.
type MasterSwitch struct {
	enabled atomic.Bool
	repeat  atomic.Bool
}

func NewMasterSwitch() *MasterSwitch {
	return &MasterSwitch{}
}

func (s *MasterSwitch) IsEnabled() bool {
	return s.enabled.Load()
}

func (s *MasterSwitch) IsRepeatEnabled() bool {
	return s.repeat.Load()
}

// Toggle flips the enabled flag and returns the new value.
func (s *MasterSwitch) Toggle() bool {
	return toggle(&s.enabled)
}

// ToggleRepeat flips the repeat flag and returns the new value.
func (s *MasterSwitch) ToggleRepeat() bool {
	return toggle(&s.repeat)
}

// Disable clears the enabled flag and reports whether it was set.
// The repeat flag is left alone.
func (s *MasterSwitch) Disable() bool {
	return s.enabled.Swap(false)
}

func toggle(b *atomic.Bool) bool {
	for {
		old := b.Load()
		if b.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
