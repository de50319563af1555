// Package migrations carries the SQL schema so binaries can migrate without
// the source tree at hand. Each goose dialect has its own directory.
package migrations

import (
	"embed"
	"fmt"
)

// FS holds the goose migration files, one directory per dialect.
//
//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var FS embed.FS

// Dir returns the directory of FS holding the migrations for a goose dialect.
func Dir(dialect string) (string, error) {
	switch dialect {
	case "postgres":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("no migrations for dialect %s", dialect)
	}
}
