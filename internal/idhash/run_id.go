// Package idhash derives deterministic identifiers so that re-running
// the same simulation yields the same IDs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(strategy|symbol|started_unix_ms|finished_unix_ms)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(strategy, symbol string, started, finished time.Time) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		strategy,
		symbol,
		started.UnixMilli(),
		finished.UnixMilli(),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
