package tasks

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out identifiers that are never reused within a process.
type IDGenerator interface {
	NewID() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator yields prefix-1, prefix-2, ... and is meant for tests.
type SequenceGenerator struct {
	prefix string
	next   atomic.Uint64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.next.Add(1))
}
