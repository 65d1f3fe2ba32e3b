// Package storage provides the key-value persistence backends the project
// store and the admin gate write through.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("key not found")

// Fixed keys used by the portfolio.
const (
	KeyProjects      = "portfolioProjects"
	KeyAuthenticated = "isAuthenticated"
)

// Storage is a byte-oriented key-value store. Values are read and written
// whole.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
