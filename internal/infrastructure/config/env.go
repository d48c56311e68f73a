package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix of every environment variable the hub reads.
const envPrefix = "homestar"

// installVar is the placeholder resolved against Environment.Install.
const installVar = "HOMESTAR_INSTALL"

// Environment is the small fixed environment the hub reads at startup.
//
// Variables:
//   - HOMESTAR_INSTALL: install root containing dynamic/ and static/
//   - HOMESTAR_KEYSTORE: path of the persisted keystore database
//   - HOMESTAR_CONFIG: optional YAML file overlaid on the defaults
type Environment struct {
	Install  string `envconfig:"INSTALL" default:"web"`
	Keystore string `envconfig:"KEYSTORE" default:".iotdb/keystore.db"`
	Config   string `envconfig:"CONFIG"`
}

// LoadEnvironment reads the HOMESTAR_* variables.
func LoadEnvironment() (Environment, error) {
	var env Environment
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return Environment{}, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// Vars returns the placeholder mapping used by Expand.
func (e Environment) Vars() map[string]string {
	return map[string]string{
		installVar: e.Install,
	}
}

// Expand resolves $NAME placeholders in s against Vars.
//
// Placeholders that are not part of the fixed mapping are left in place, so
// a stored path never picks up arbitrary process environment.
func (e Environment) Expand(s string) string {
	vars := e.Vars()
	return os.Expand(s, func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return "$" + name
	})
}

// ExpandAll applies Expand to each string.
func (e Environment) ExpandAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = e.Expand(v)
	}
	return out
}
