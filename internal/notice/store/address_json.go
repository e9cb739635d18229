package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"breachnotice/internal/notice/models"
)

// Addresses are stored as JSONB; they are selected wholesale from reference
// data and never queried by field.

func encodeAddress(addr *models.Address) (any, error) {
	if addr == nil {
		return nil, nil
	}
	data, err := json.Marshal(addr)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}
	return data, nil
}

func decodeAddress(raw sql.NullString) (*models.Address, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var addr models.Address
	if err := json.Unmarshal([]byte(raw.String), &addr); err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	return &addr, nil
}
