package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a random identifier of the form "<prefix>-<uuid>".
func New(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// Valid reports whether id carries prefix followed by a well-formed uuid.
func Valid(prefix string, id string) bool {
	raw := id
	if prefix != "" {
		head := prefix + "-"
		if len(id) <= len(head) || id[:len(head)] != head {
			return false
		}
		raw = id[len(head):]
	}
	_, err := uuid.Parse(raw)
	return err == nil
}
