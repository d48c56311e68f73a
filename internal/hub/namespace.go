package hub

import (
	"net/http"

	"github.com/nerrad567/homestar-hub/internal/catalog"
	"github.com/nerrad567/homestar-hub/internal/extension"
	"github.com/nerrad567/homestar-hub/internal/routes"
	"github.com/nerrad567/homestar-hub/internal/session"
)

// NamespaceName is the composition context key of the built-in namespace.
const NamespaceName = "homestar"

// Namespace is what the hub itself offers extensions and templates under
// "homestar".
type Namespace struct {
	server *Server

	// Data holds fixed vocabularies used by editing pages.
	Data NamespaceData
}

// NamespaceData lists the vocabularies offered to pages.
type NamespaceData struct {
	Facets             []string `json:"facets"`
	Zones              []string `json:"zones"`
	Groups             []string `json:"groups"`
	DefaultAccessRead  []string `json:"default_access_read"`
	DefaultAccessWrite []string `json:"default_access_write"`
	DefaultGroups      []string `json:"default_groups"`
}

func defaultNamespaceData() NamespaceData {
	return NamespaceData{
		Facets: []string{
			"iot-facet:appliance",
			"iot-facet:climate",
			"iot-facet:climate.cooling",
			"iot-facet:climate.heating",
			"iot-facet:control",
			"iot-facet:control.dial",
			"iot-facet:control.dimmer",
			"iot-facet:control.keyboard",
			"iot-facet:control.keypad",
			"iot-facet:control.mouse",
			"iot-facet:control.switch",
			"iot-facet:control.touchpad",
			"iot-facet:gateway",
			"iot-facet:lighting",
			"iot-facet:media",
			"iot-facet:security",
			"iot-facet:sensor",
			"iot-facet:sensor.chemical",
			"iot-facet:sensor.chemical.carbon-dioxide",
			"iot-facet:sensor.chemical.carbon-monoxide",
			"iot-facet:sensor.fire",
			"iot-facet:sensor.heat",
			"iot-facet:sensor.humidity",
			"iot-facet:sensor.humidty",
			"iot-facet:sensor.motion",
			"iot-facet:sensor.particulates",
			"iot-facet:sensor.presence",
			"iot-facet:sensor.shatter",
			"iot-facet:sensor.sound",
			"iot-facet:sensor.spatial",
			"iot-facet:sensor.temperature",
			"iot-facet:sensor.water",
			"iot-facet:toy",
			"iot-facet:wearable",
		},
		Zones: []string{
			"Kitchen", "Living Room", "Basement", "Master Bedroom", "Bedroom", "Den",
			"Main Floor", "Second Floor",
			"Front Garden", "Back Garden",
		},
		Groups:             []string{"Everyone", "Friends", "Family"},
		DefaultAccessRead:  []string{"Everyone"},
		DefaultAccessWrite: []string{"Friends"},
		DefaultGroups:      []string{"Everyone"},
	}
}

// MakeDynamic returns a handler serving spec through the login gate,
// customize step and renderer. Extensions use it to serve pages on
// patterns the route compiler cannot express.
func (n *Namespace) MakeDynamic(spec routes.RouteSpec) http.Handler {
	return n.server.pageHandler(spec)
}

// Settings returns the configuration tree with secrets and keys removed.
func (n *Namespace) Settings() map[string]any {
	return n.server.tree.Sanitized()
}

// Owner returns the hub owner if they have signed in.
func (n *Namespace) Owner() (*session.User, bool) {
	return n.server.users.Owner()
}

// Users returns every user seen since start.
func (n *Namespace) Users() []*session.User {
	return n.server.users.Users()
}

// UserByID looks a user up by id.
func (n *Namespace) UserByID(id string) (*session.User, bool) {
	return n.server.users.ByID(id)
}

// UpdateUser replaces a user's groups.
func (n *Namespace) UpdateUser(id string, groups []string) (*session.User, error) {
	return n.server.users.Update(id, groups)
}

// ThingByID looks a thing up in the catalog.
func (n *Namespace) ThingByID(id string) (catalog.Thing, bool) {
	return n.server.catalog.ThingByID(id)
}

// RecipeByID looks a recipe up in the catalog.
func (n *Namespace) RecipeByID(id string) (map[string]any, bool) {
	return n.server.catalog.RecipeByID(id)
}

// namespaceExtension installs the Namespace during setup. It is always
// first in the manifest so extensions can read it.
type namespaceExtension struct {
	server *Server
}

func (namespaceExtension) Name() string { return NamespaceName }

func (e namespaceExtension) Setup(b *extension.Builder) error {
	return b.Set(NamespaceName, &Namespace{
		server: e.server,
		Data:   defaultNamespaceData(),
	})
}
