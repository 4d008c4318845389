package nfc

import (
	"context"
	"errors"
	"sync"
)

// Gate serializes access to the device. Permission is requested once, at
// construction; a second concurrent Acquire fails immediately with ErrBusy
// instead of queueing, so tap-to-result latency stays predictable during a
// game.
type Gate struct {
	mu  sync.Mutex
	dev Device
}

// NewGate probes the device once. Unsupported-device and permission failures
// are reported here; later operations only see them again if the driver
// revokes access mid-game.
func NewGate(ctx context.Context, dev Device) (*Gate, error) {
	if err := dev.RequestPermission(ctx); err != nil {
		return nil, err
	}
	if err := dev.BeginScan(ctx); err != nil {
		return nil, err
	}
	return &Gate{dev: dev}, nil
}

// Handle is exclusive ownership of the transport. All device I/O goes
// through the handle, so transport use without ownership is impossible.
type Handle struct {
	gate *Gate
	once sync.Once
}

// Acquire takes exclusive ownership or fails fast with ErrBusy.
func (g *Gate) Acquire(ctx context.Context) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrTimeout
	}
	if !g.mu.TryLock() {
		return nil, ErrBusy
	}
	return &Handle{gate: g}, nil
}

// Release returns the transport. Safe to call more than once.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.gate.mu.Unlock()
	})
}

// AwaitTap waits for the next card presentation, bounded by ctx. A deadline
// expiry is surfaced as ErrTimeout and leaves no pending read behind.
func (h *Handle) AwaitTap(ctx context.Context) (Tap, error) {
	tap, err := h.gate.dev.AwaitTap(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Tap{}, ErrTimeout
		}
		return Tap{}, err
	}
	return tap, nil
}

// Write pushes a payload to the card currently on the reader.
func (h *Handle) Write(ctx context.Context, payload []byte) error {
	if err := h.gate.dev.Write(ctx, payload); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		return err
	}
	return nil
}
