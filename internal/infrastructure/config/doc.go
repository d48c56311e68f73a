// Package config builds the hub's layered configuration tree.
//
// This package manages:
//   - Built-in defaults for every setting the hub understands
//   - Overlaying a persisted document (config file and keystore) on the defaults
//   - Command-line overrides of the form path/to/leaf=value, coerced to the
//     type of the leaf they replace
//   - Validation of required secrets
//   - Derived fields (address, external URL, name) and folder creation
//   - Expansion of install-root placeholders at the point of use
//
// Security Considerations:
//   - Everything under "secrets" and "keys" is removed from Sanitized copies,
//     which are the only form handed to templates
//   - Unset secrets are fatal: the hub refuses to start without them
//
// Performance Characteristics:
//   - The tree is built once at startup and only read afterwards
//   - No locking: a loaded Tree is never mutated
//
// Usage:
//
//	store := config.NewStore(env)
//	tree, err := store.Load(config.Defaults(), persisted, os.Args[1:])
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(tree.String("webserver/url"))
package config
