// Package nfc manages access to the proximity reader. The physical driver is
// abstracted behind Device; Gate layers exclusive, timed access on top of it
// so at most one card operation is ever in flight.
package nfc

import (
	"context"
	"errors"
)

var (
	ErrUnsupported      = errors.New("nfc: device not supported")
	ErrPermissionDenied = errors.New("nfc: permission denied")
	ErrBusy             = errors.New("nfc: another operation is in progress")
	ErrTimeout          = errors.New("nfc: timed out waiting for a card tap")
)

// Tap is the event raised when a card is physically presented. Payload is
// the raw record bytes read from the card; empty for a blank card.
type Tap struct {
	Serial  string
	Payload []byte
}

// Device is the minimal capability set of the underlying proximity driver.
// AwaitTap resolves exactly once per call: with the next tap, or with the
// context's cancellation. It must never deliver a tap after its context is
// done.
type Device interface {
	RequestPermission(ctx context.Context) error
	BeginScan(ctx context.Context) error
	AwaitTap(ctx context.Context) (Tap, error)
	Write(ctx context.Context, payload []byte) error
}
