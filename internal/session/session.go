// Package session orchestrates single card operations: it acquires the
// transport, waits for a tap, runs the codec, applies results to the ledger
// and writes back when the operation mutates state. Exactly one operation
// runs at a time; a second request fails fast with Busy so the table never
// waits on a queue.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wanqqq29/monopoly-bank/internal/card"
	"github.com/wanqqq29/monopoly-bank/internal/ledger"
	"github.com/wanqqq29/monopoly-bank/internal/nfc"
)

// State is the observable position of the in-flight operation. Every
// failure path releases the transport and lands back on Idle.
type State int32

const (
	StateIdle State = iota
	StateAcquiringTransport
	StateAwaitingTap
	StateDecoding
	StateValidating
	StateApplying
	StateEncoding
	StateWriting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiringTransport:
		return "acquiring_transport"
	case StateAwaitingTap:
		return "awaiting_tap"
	case StateDecoding:
		return "decoding"
	case StateValidating:
		return "validating"
	case StateApplying:
		return "applying"
	case StateEncoding:
		return "encoding"
	case StateWriting:
		return "writing"
	}
	return "unknown"
}

const (
	// DefaultTapTimeout bounds how long a full read/write waits for a card.
	DefaultTapTimeout = 30 * time.Second
	// DefaultIDTimeout bounds the quicker serial-only read.
	DefaultIDTimeout = 5 * time.Second
)

type Session struct {
	gate   *nfc.Gate
	ledger *ledger.Ledger
	log    *zap.Logger

	inFlight atomic.Bool
	state    atomic.Int32

	TapTimeout time.Duration
	IDTimeout  time.Duration
}

func New(gate *nfc.Gate, l *ledger.Ledger, log *zap.Logger) *Session {
	return &Session{
		gate:       gate,
		ledger:     l,
		log:        log,
		TapTimeout: DefaultTapTimeout,
		IDTimeout:  DefaultIDTimeout,
	}
}

// State reports where the current operation is, Idle when none is running.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) enter(st State) {
	s.state.Store(int32(st))
}

// begin claims the single operation slot.
func (s *Session) begin(op string) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Warn("card operation rejected, another in progress", zap.String("op", op))
		return nfc.ErrBusy
	}
	return nil
}

func (s *Session) end() {
	s.enter(StateIdle)
	s.inFlight.Store(false)
}

// acquire claims the transport and returns a handle plus a tap-bounded
// context. The caller must invoke the returned cleanup on every path.
func (s *Session) acquire(ctx context.Context, timeout time.Duration) (*nfc.Handle, context.Context, func(), error) {
	s.enter(StateAcquiringTransport)
	handle, err := s.gate.Acquire(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	cleanup := func() {
		cancel()
		handle.Release()
	}
	return handle, opCtx, cleanup, nil
}

// ReadCardID waits for a tap and returns the card's derived account id
// without touching its payload.
func (s *Session) ReadCardID(ctx context.Context) (string, error) {
	if err := s.begin("read_card_id"); err != nil {
		return "", err
	}
	defer s.end()

	handle, opCtx, cleanup, err := s.acquire(ctx, s.IDTimeout)
	if err != nil {
		return "", err
	}
	defer cleanup()

	s.enter(StateAwaitingTap)
	tap, err := handle.AwaitTap(opCtx)
	if err != nil {
		s.log.Info("read card id failed", zap.Error(err))
		return "", err
	}
	id := AccountID(tap.Serial)
	s.log.Info("card id read", zap.String("card_id", id))
	return id, nil
}

// ReadCard reads and validates a full payload. Blank cards come back with
// Blank set so the caller can offer initialization; nothing is written back.
func (s *Session) ReadCard(ctx context.Context) (card.Decoded, error) {
	if err := s.begin("read_card"); err != nil {
		return card.Decoded{}, err
	}
	defer s.end()

	handle, opCtx, cleanup, err := s.acquire(ctx, s.TapTimeout)
	if err != nil {
		return card.Decoded{}, err
	}
	defer cleanup()

	s.enter(StateAwaitingTap)
	tap, err := handle.AwaitTap(opCtx)
	if err != nil {
		s.log.Info("read card failed", zap.Error(err))
		return card.Decoded{}, err
	}

	s.enter(StateDecoding)
	decoded, err := card.Decode(tap.Payload)
	if err != nil {
		s.log.Warn("card payload invalid", zap.String("serial", tap.Serial), zap.Error(err))
		return card.Decoded{}, err
	}
	s.enter(StateValidating)
	if decoded.Blank {
		s.log.Info("blank card read", zap.String("serial", tap.Serial))
	} else {
		s.log.Info("card read", zap.String("card_id", decoded.Card.ID), zap.Int64("balance", decoded.Card.Balance))
	}
	return decoded, nil
}

// WriteCard replaces a card's payload with the ledger's current state for
// the account. The payload is encoded before the tap wait so an encoding
// problem never consumes a physical tap.
func (s *Session) WriteCard(ctx context.Context, accountID string) error {
	if err := s.begin("write_card"); err != nil {
		return err
	}
	defer s.end()

	account, err := s.ledger.Get(accountID)
	if err != nil {
		return err
	}
	s.enter(StateEncoding)
	payload, err := card.Encode(toPayload(account))
	if err != nil {
		return err
	}

	handle, opCtx, cleanup, err := s.acquire(ctx, s.TapTimeout)
	if err != nil {
		return err
	}
	defer cleanup()

	s.enter(StateAwaitingTap)
	if _, err := handle.AwaitTap(opCtx); err != nil {
		s.log.Info("write card failed awaiting tap", zap.Error(err))
		return err
	}

	s.enter(StateWriting)
	if err := handle.Write(opCtx, payload); err != nil {
		s.log.Warn("write card failed", zap.String("card_id", accountID), zap.Error(err))
		return err
	}
	s.log.Info("card written", zap.String("card_id", accountID), zap.Int64("balance", account.Balance))
	return nil
}

// FormatCard waits for a tap, registers a brand-new account with the given
// opening balance and writes the fresh payload to the card. The ledger is
// only touched after a card is actually present.
func (s *Session) FormatCard(ctx context.Context, initialBalance int64) (ledger.Account, error) {
	if err := s.begin("format_card"); err != nil {
		return ledger.Account{}, err
	}
	defer s.end()

	handle, opCtx, cleanup, err := s.acquire(ctx, s.TapTimeout)
	if err != nil {
		return ledger.Account{}, err
	}
	defer cleanup()

	s.enter(StateAwaitingTap)
	if _, err := handle.AwaitTap(opCtx); err != nil {
		s.log.Info("format card failed awaiting tap", zap.Error(err))
		return ledger.Account{}, err
	}

	s.enter(StateApplying)
	id := AccountID(uuid.NewString())
	account, err := s.ledger.Initialize(ctx, id, initialBalance)
	if err != nil {
		return ledger.Account{}, err
	}

	s.enter(StateEncoding)
	payload, err := card.Encode(toPayload(account))
	if err != nil {
		return ledger.Account{}, err
	}

	s.enter(StateWriting)
	if err := handle.Write(opCtx, payload); err != nil {
		s.log.Warn("format card write failed, account kept in ledger",
			zap.String("card_id", id), zap.Error(err))
		return ledger.Account{}, err
	}
	s.log.Info("card formatted", zap.String("card_id", id), zap.Int64("balance", initialBalance))
	return account, nil
}

// AccountID derives the ledger id for a card serial or generated token.
func AccountID(serial string) string {
	return "card_" + serial
}

// toPayload projects ledger state into the on-card snapshot. Server-side
// transaction ids and kinds are deliberately dropped; the wire format
// carries only the four interop fields.
func toPayload(a ledger.Account) card.Payload {
	p := card.Payload{
		ID:           a.ID,
		Balance:      a.Balance,
		Transactions: make([]card.Entry, 0, len(a.Transactions)),
	}
	for _, t := range a.Transactions {
		p.Transactions = append(p.Transactions, card.Entry{
			From:      t.From,
			To:        t.To,
			Amount:    t.Amount,
			Timestamp: t.Timestamp,
		})
	}
	return p
}
