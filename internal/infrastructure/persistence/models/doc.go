// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// The same schema is used by the shared catalog and by every per-project store.
// Columns added after the first release are pointers so rows written by older
// versions, where the column was added as NULL, still scan.
package models
