package service

import "github.com/google/uuid"

// Actors recorded in audit entries for non-HTTP callers.
const (
	ActorCLI  = "cli"
	ActorSeed = "seed"
)

// ImportResult summarizes an Import call.
type ImportResult struct {
	Created []uuid.UUID
	Skipped []uuid.UUID // already present
}
