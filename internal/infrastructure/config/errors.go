package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for configuration loading.
var (
	// ErrCompositeOverride is returned when a command-line token targets an
	// array or mapping leaf. Only scalar leaves can be set this way.
	ErrCompositeOverride = errors.New("config: cannot override an array or mapping leaf")

	// ErrScalarPath is returned when a token path walks through a scalar leaf.
	ErrScalarPath = errors.New("config: path walks through a scalar leaf")

	// ErrInvalidValue is returned when a token value cannot be coerced to the
	// numeric type of the leaf it replaces.
	ErrInvalidValue = errors.New("config: value does not match leaf type")

	// ErrMissingSecrets is matched by *MissingSecretsError.
	ErrMissingSecrets = errors.New("config: required secrets are not set")
)

// MissingSecretsError lists every unset leaf under the secrets namespace.
type MissingSecretsError struct {
	Keys []string
}

func (e *MissingSecretsError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingSecrets, strings.Join(e.Keys, ", "))
}

// Is reports whether target is ErrMissingSecrets.
func (e *MissingSecretsError) Is(target error) bool {
	return target == ErrMissingSecrets
}

// Remediation returns one command per missing key that fixes it.
func (e *MissingSecretsError) Remediation() []string {
	fixes := make([]string, 0, len(e.Keys))
	for _, key := range e.Keys {
		fixes = append(fixes, fmt.Sprintf("homestar set secrets/%s --uuid", key))
	}
	return fixes
}

func newMissingSecretsError(keys []string) *MissingSecretsError {
	sort.Strings(keys)
	return &MissingSecretsError{Keys: keys}
}
