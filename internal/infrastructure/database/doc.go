// Package database provides the SQLite connection behind the hub keystore.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Applying embedded schema migrations in version order
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file is chmod 0600 because it holds secrets and keys
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: env.Keystore, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package and are named
// YYYYMMDD_HHMMSS_description.up.sql.
package database
