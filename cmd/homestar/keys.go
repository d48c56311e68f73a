package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/database"
	"github.com/nerrad567/homestar-hub/internal/keystore"
)

// keystoreKey is the document the CLI reads and writes.
const keystoreKey = keystore.RunnerKey

// keystoreBusyTimeout is the SQLite lock wait, in seconds.
const keystoreBusyTimeout = 5

// errNoValue is returned by set when neither a value nor --uuid is given.
var errNoValue = errors.New("a value or --uuid is required")

func newSetCmd() *cobra.Command {
	var genUUID bool
	cmd := &cobra.Command{
		Use:   "set <path> [value]",
		Short: "Persist a setting in the keystore",
		Long: `Persist one configuration leaf. The value is read the same way as a
run override: the type of the existing leaf decides whether it is stored as
a number, a boolean or a string.

Examples:
  homestar set secrets/session --uuid
  homestar set webserver/port 8080
  homestar set keys/homestar/key abc123`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			switch {
			case genUUID:
				value = uuid.NewString()
			case len(args) == 2:
				value = args[1]
			default:
				return errNoValue
			}
			return setValue(cmd.Context(), args[0], value)
		},
	}
	cmd.Flags().BoolVar(&genUUID, "uuid", false, "store a freshly generated UUID")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print a setting as JSON",
		Long:  "Print one configuration leaf or subtree: the keystore value overlaid on the defaults.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := getValue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding %s: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

// setValue coerces value against the current leaf and stores it.
func setValue(ctx context.Context, path, value string) error {
	env, err := config.LoadEnvironment()
	if err != nil {
		return err
	}
	keys, closeKeys, err := openKeystore(ctx, env)
	if err != nil {
		return err
	}
	defer closeKeys()

	stored, err := keys.Tree(ctx, keystoreKey)
	if err != nil {
		return err
	}

	// Coerce through the same rules as run overrides, then keep only the leaf.
	scratch := config.Defaults().Merge(stored).Raw()
	if err := config.ApplyOverrides(scratch, []string{path + "=" + value}); err != nil {
		return err
	}
	v, _ := config.NewTree(scratch).Get(path)

	if err := keys.Set(ctx, keystoreKey, path, v); err != nil {
		return fmt.Errorf("storing %s: %w", path, err)
	}
	return nil
}

// getValue reads path from the keystore overlaid on the defaults. A path
// that is set nowhere yields nil.
func getValue(ctx context.Context, path string) (any, error) {
	env, err := config.LoadEnvironment()
	if err != nil {
		return nil, err
	}
	keys, closeKeys, err := openKeystore(ctx, env)
	if err != nil {
		return nil, err
	}
	defer closeKeys()

	stored, err := keys.Tree(ctx, keystoreKey)
	if err != nil {
		return nil, err
	}
	v, _ := config.Defaults().Merge(stored).Get(path)
	return v, nil
}

// openKeystore opens and migrates the keystore database.
//
// Returns:
//   - *keystore.Store: Ready for reads and writes
//   - func(): Closes the database; always non-nil on success
//   - error: If the database cannot be opened or migrated
func openKeystore(ctx context.Context, env config.Environment) (*keystore.Store, func(), error) {
	db, err := database.Open(database.Config{
		Path:        env.Keystore,
		WALMode:     true,
		BusyTimeout: keystoreBusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening keystore: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // migration error takes precedence
		return nil, nil, fmt.Errorf("migrating keystore: %w", err)
	}
	return keystore.New(db), func() { _ = db.Close() }, nil
}
