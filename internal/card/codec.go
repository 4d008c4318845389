// Package card encodes and decodes the payload stored on a physical NFC
// card: a JSON snapshot of one account wrapped in an NDEF-style text record.
// The JSON object is the interop contract; any reader/writer pair must agree
// on it byte for byte after unwrapping the record.
package card

import (
	"encoding/json"
	"fmt"
)

// Entry is one transaction as it appears on the card. The on-card history
// carries only the four interop fields; server-side ids and kinds stay in
// the ledger.
type Entry struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// Payload is the full account snapshot written to a card. It is rebuilt
// from scratch on every write, never patched in place.
type Payload struct {
	ID           string  `json:"id"`
	Balance      int64   `json:"balance"`
	Transactions []Entry `json:"transactions"`
}

// Decoded distinguishes a blank (never written) card from a valid payload.
// Malformed payloads are reported through ValidationError, never coerced.
type Decoded struct {
	Blank bool
	Card  Payload
}

// ValidationError reports a structurally invalid payload and which part of
// it failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid card payload: %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Encode serializes a payload into a language-tagged text record. The JSON
// field order follows the struct declaration, so equal payloads encode to
// equal bytes.
func Encode(p Payload) ([]byte, error) {
	if p.Transactions == nil {
		p.Transactions = []Entry{}
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return wrapTextRecord(body), nil
}

// Decode unwraps and validates a card payload. An empty or unwritten card
// yields Decoded{Blank: true}; anything non-empty must be fully well-formed.
func Decode(raw []byte) (Decoded, error) {
	body, blank, err := unwrapTextRecord(raw)
	if err != nil {
		return Decoded{}, err
	}
	if blank {
		return Decoded{Blank: true}, nil
	}

	var obj map[string]json.RawMessage
	if err := jsonDecoder(body).Decode(&obj); err != nil {
		return Decoded{}, invalid("payload", "not a JSON object")
	}

	id, err := stringField(obj, "id")
	if err != nil {
		return Decoded{}, err
	}
	balance, err := intField(obj, "balance")
	if err != nil {
		return Decoded{}, err
	}

	rawTxns, ok := obj["transactions"]
	if !ok {
		return Decoded{}, invalid("transactions", "missing")
	}
	var txns []json.RawMessage
	if err := jsonDecoder(rawTxns).Decode(&txns); err != nil {
		return Decoded{}, invalid("transactions", "not an array")
	}

	p := Payload{ID: id, Balance: balance, Transactions: make([]Entry, 0, len(txns))}
	for i, raw := range txns {
		e, err := decodeEntry(i, raw)
		if err != nil {
			return Decoded{}, err
		}
		p.Transactions = append(p.Transactions, e)
	}
	return Decoded{Card: p}, nil
}

func decodeEntry(i int, raw json.RawMessage) (Entry, error) {
	prefix := fmt.Sprintf("transactions[%d]", i)

	var obj map[string]json.RawMessage
	if err := jsonDecoder(raw).Decode(&obj); err != nil {
		return Entry{}, invalid(prefix, "not a JSON object")
	}

	from, err := stringField(obj, prefix+".from", "from")
	if err != nil {
		return Entry{}, err
	}
	to, err := stringField(obj, prefix+".to", "to")
	if err != nil {
		return Entry{}, err
	}
	amount, err := intField(obj, prefix+".amount", "amount")
	if err != nil {
		return Entry{}, err
	}
	ts, err := intField(obj, prefix+".timestamp", "timestamp")
	if err != nil {
		return Entry{}, err
	}
	return Entry{From: from, To: to, Amount: amount, Timestamp: ts}, nil
}

// stringField reads a required string field. The optional second name is the
// key to look up when the reported field path differs from the key.
func stringField(obj map[string]json.RawMessage, name string, key ...string) (string, error) {
	k := name
	if len(key) > 0 {
		k = key[0]
	}
	raw, ok := obj[k]
	if !ok {
		return "", invalid(name, "missing")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", invalid(name, "not a string")
	}
	return s, nil
}

func intField(obj map[string]json.RawMessage, name string, key ...string) (int64, error) {
	k := name
	if len(key) > 0 {
		k = key[0]
	}
	raw, ok := obj[k]
	if !ok {
		return 0, invalid(name, "missing")
	}
	var n json.Number
	if err := jsonDecoder(raw).Decode(&n); err != nil {
		return 0, invalid(name, "not a number")
	}
	v, err := n.Int64()
	if err != nil {
		return 0, invalid(name, "not an integer")
	}
	return v, nil
}
