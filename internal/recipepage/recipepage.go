package recipepage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homestar-hub/internal/extension"
	"github.com/nerrad567/homestar-hub/internal/hub"
	"github.com/nerrad567/homestar-hub/internal/render"
	"github.com/nerrad567/homestar-hub/internal/routes"
)

// Path is the page pattern.
const Path = "/recipes/{id}"

// ErrNoNamespace is returned when the hub namespace is absent from the
// composition context.
var ErrNoNamespace = errors.New("recipepage: hub namespace not available")

// Extension registers the recipe detail page.
type Extension struct {
	template string
}

// New creates the extension rendering template. A template that does not
// exist registers nothing.
func New(template string) *Extension {
	return &Extension{template: template}
}

func (e *Extension) Name() string { return "recipe-page" }

// SetupApp adds the page.
func (e *Extension) SetupApp(ctx *extension.Context, app extension.App) error {
	if _, err := os.Stat(e.template); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v, _ := ctx.Get(hub.NamespaceName)
	ns, ok := v.(*hub.Namespace)
	if !ok {
		return ErrNoNamespace
	}

	err := app.AddPage(routes.RouteSpec{
		Path:      Path,
		Kind:      routes.KindPage,
		Template:  e.template,
		Mount:     "recipe",
		Customize: lookup(ns),
	})
	if err != nil {
		return fmt.Errorf("adding %s: %w", Path, err)
	}
	return nil
}

// lookup resolves the id in the path to a recipe.
func lookup(ns *hub.Namespace) render.Customize {
	return func(_ context.Context, r *http.Request, locals *render.Locals) render.Outcome {
		id := chi.URLParam(r, "id")
		recipe, ok := ns.RecipeByID(id)
		if !ok {
			return render.Fail("recipe not found: " + id)
		}
		locals.Set("recipe", recipe)
		return render.Continue()
	}
}
