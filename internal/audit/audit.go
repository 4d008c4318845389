package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Entry struct {
	Actor    string
	Action   string
	CardID   *string
	Amount   *int64
	Metadata []byte
}

// Write records an audit entry; failures are returned so callers can ignore
// them. A nil pool (file/redis/memory store backends) makes this a no-op.
func Write(ctx context.Context, db *pgxpool.Pool, e Entry) error {
	if db == nil {
		return nil
	}

	var metadata interface{}
	if len(e.Metadata) > 0 {
		raw := json.RawMessage(e.Metadata)
		metadata = raw
	}

	_, err := db.Exec(ctx, `
INSERT INTO audit_logs (actor, action, card_id, amount, metadata)
VALUES ($1, $2, $3, $4, $5)
`, e.Actor, e.Action, e.CardID, e.Amount, metadata)

	return err
}
