// Package utils provides general-purpose helper utilities used across the
// sync engine: identifier generation, canonical hashing, HTTP response
// writing, HTTP client initialization, and JWT token inspection.
package utils

import "github.com/google/uuid"

// UUIDGenerator issues time-ordered identifiers for operations, updates and
// conflicts. V7 UUIDs sort by creation time, which keeps persisted queue
// records naturally ordered in storage.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
