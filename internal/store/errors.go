package store

import "github.com/resqnet/incident-server/internal/apperrors"

// ErrNotFound keeps store-level 404s consistent across the in-memory and
// Postgres implementations.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
