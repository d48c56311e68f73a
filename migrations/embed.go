// Package migrations embeds the keystore schema into the binary.
package migrations

import (
	"embed"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
