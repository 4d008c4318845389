package nfc

import (
	"context"
	"sync"
)

// SimDevice is an in-process reader used in dev mode and tests. Taps are
// injected with PresentCard; writes are captured for inspection. It stands
// in for the browser NDEF reader the table used before this service existed.
type SimDevice struct {
	mu      sync.Mutex
	taps    chan Tap
	written [][]byte

	// PermissionErr, if set, is returned from RequestPermission to simulate
	// an unsupported or locked-down reader.
	PermissionErr error
}

func NewSimDevice() *SimDevice {
	return &SimDevice{taps: make(chan Tap, 1)}
}

func (d *SimDevice) RequestPermission(_ context.Context) error {
	return d.PermissionErr
}

func (d *SimDevice) BeginScan(_ context.Context) error { return nil }

func (d *SimDevice) AwaitTap(ctx context.Context) (Tap, error) {
	select {
	case tap := <-d.taps:
		return tap, nil
	case <-ctx.Done():
		return Tap{}, ctx.Err()
	}
}

func (d *SimDevice) Write(_ context.Context, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	d.written = append(d.written, cp)
	return nil
}

// PresentCard queues a tap as if a card had been placed on the reader.
func (d *SimDevice) PresentCard(tap Tap) {
	d.taps <- tap
}

// Written returns every payload written so far, newest last.
func (d *SimDevice) Written() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.written))
	copy(out, d.written)
	return out
}
