package report

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/access-log-analyzer/backend/internal/models"
)

// EncodeMsgpack serializes a snapshot for binary clients.
func EncodeMsgpack(snap *models.Snapshot) ([]byte, error) {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeMsgpack is the inverse of EncodeMsgpack.
func DecodeMsgpack(data []byte) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}
