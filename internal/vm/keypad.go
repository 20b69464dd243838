package vm

import "sync/atomic"

// keypad holds the level triggered state of all keys. Every key is an atomic
// so that an input goroutine can update it while the machine is running.
type keypad [KeyCount]atomic.Bool

// firstPressed returns the lowest pressed key.
func (k *keypad) firstPressed() (uint8, bool) {
	for i := range k {
		if k[i].Load() {
			return uint8(i), true
		}
	}
	return 0, false
}

func (k *keypad) reset() {
	for i := range k {
		k[i].Store(false)
	}
}

// bits returns the keypad state as a bitfield, key 0 in bit 0.
func (k *keypad) bits() uint16 {
	var b uint16
	for i := range k {
		if k[i].Load() {
			b |= 1 << i
		}
	}
	return b
}
