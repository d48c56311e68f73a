package main

import (
	"github.com/nerrad567/homestar-hub/internal/extension"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
	"github.com/nerrad567/homestar-hub/internal/recipepage"
)

// manifest lists the extensions compiled into the binary, in dispatch
// order. The hub namespace is always installed ahead of them.
func manifest(env config.Environment) []extension.Extension {
	return []extension.Extension{
		recipepage.New(env.Expand("$HOMESTAR_INSTALL/extensions/recipe.html")),
	}
}
