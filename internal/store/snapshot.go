package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/blake2b"
)

// SchemaVersion is written into every envelope. Payloads with a newer
// version are refused rather than overwritten.
const SchemaVersion = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	SchemaVersion int                 `json:"schemaVersion"`
	SavedAt       time.Time           `json:"savedAt"`
	Checksum      string              `json:"checksum"`
	Data          jsoniter.RawMessage `json:"data"`
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Encode wraps value in a versioned, checksummed envelope.
func Encode(value any, savedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot data: %w", err)
	}
	return json.Marshal(envelope{
		SchemaVersion: SchemaVersion,
		SavedAt:       savedAt.UTC(),
		Checksum:      checksum(data),
		Data:          data,
	})
}

// Decode unwraps an envelope produced by Encode into dest.
func Decode(payload []byte, dest any) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if env.SchemaVersion > SchemaVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrUnsupportedSchema, env.SchemaVersion, SchemaVersion)
	}
	if env.SchemaVersion < 1 || len(env.Data) == 0 {
		return fmt.Errorf("%w: missing schema version or data", ErrCorruptSnapshot)
	}
	if checksum(env.Data) != env.Checksum {
		return fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return nil
}

// Save encodes value and writes it under key.
func Save(ctx context.Context, repo Repository, key string, value any, savedAt time.Time) error {
	payload, err := Encode(value, savedAt)
	if err != nil {
		return err
	}
	return repo.Put(ctx, key, payload)
}

// Load reads key into dest. It reports false without error when the key has
// never been written.
func Load(ctx context.Context, repo Repository, key string, dest any) (bool, error) {
	payload, err := repo.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := Decode(payload, dest); err != nil {
		return false, err
	}
	return true, nil
}
