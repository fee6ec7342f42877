package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces correlation tokens for journal entries.
// The token ties a journal entry to the decision event published for it;
// it is not part of the content-addressed id.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 tokens.
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequentialGenerator returns prefix-0001, prefix-0002, ...
// Used by tests, scenarios and replay where tokens must be reproducible.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialGenerator creates a generator; an empty prefix means "tok".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "tok"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next token.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
