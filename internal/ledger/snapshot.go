package ledger

import "encoding/json"

// The persisted snapshot is a JSON object keyed by account id, the same
// shape the original web app kept in browser storage, so an exported state
// file from either side restores in the other.

func marshalSnapshot(accounts map[string]*Account) ([]byte, error) {
	return json.Marshal(accounts)
}

func unmarshalSnapshot(blob []byte) (map[string]*Account, error) {
	accounts := make(map[string]*Account)
	if len(blob) == 0 {
		return accounts, nil
	}
	if err := json.Unmarshal(blob, &accounts); err != nil {
		return nil, err
	}
	for id, a := range accounts {
		if a == nil {
			delete(accounts, id)
			continue
		}
		if a.ID == "" {
			a.ID = id
		}
	}
	return accounts, nil
}
