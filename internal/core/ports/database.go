// internal/core/ports/database.go
package ports

import (
	"context"
)

// Database defines the lifecycle port of the persistence backend, so health
// checks do not depend on the concrete driver.
type Database interface {
	Close()
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}

// CurrentSchemaVersion is the newest migration shipped with both backends
const CurrentSchemaVersion uint = 2

// SchemaInspector reports the migration state of the store. A dirty schema
// means a migration failed halfway.
type SchemaInspector interface {
	SchemaVersion(ctx context.Context) (version uint, dirty bool, err error)
}
