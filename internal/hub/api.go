package hub

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/mqtt"
	"github.com/nerrad567/homestar-hub/internal/session"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Name       string      `json:"name"`
	URL        string      `json:"url"`
	Version    string      `json:"version"`
	Things     int         `json:"things"`
	Recipes    int         `json:"recipes"`
	Devices    int         `json:"devices"`
	Routes     int         `json:"routes"`
	Configures []Configure `json:"configures"`
	Bus        bool        `json:"bus"`
}

// RecipeRequest is the body of PUT /api/recipes/{id}.
type RecipeRequest struct {
	Value any `json:"value"`
}

// recipeCommand is published on the recipe command topic.
type recipeCommand struct {
	ID     string `json:"id"`
	Value  any    `json:"value"`
	UserID string `json:"user_id,omitempty"`
}

// handleStatus reports what the hub is serving.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	things, recipes, devices := s.catalog.Counts()
	configures := s.configures
	if configures == nil {
		configures = []Configure{}
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Name:       s.tree.String("name"),
		URL:        s.web.URL,
		Version:    s.version,
		Things:     things,
		Recipes:    recipes,
		Devices:    devices,
		Routes:     len(s.routes),
		Configures: configures,
		Bus:        s.bus != nil,
	})
}

// handleListRecipes returns every recipe with its interactor assigned.
func (s *Server) handleListRecipes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"recipes": s.catalog.Recipes(s.interactors.Assign),
	})
}

// handleRunRecipe sends a value to a recipe over the bus.
//
// Anonymous callers are refused unless access/open is set.
func (s *Server) handleRunRecipe(w http.ResponseWriter, r *http.Request) {
	user, authenticated := session.UserFrom(r.Context())
	if !authenticated && !s.tree.Bool("access/open") {
		writeUnauthorized(w, "sign in to run recipes")
		return
	}

	id := chi.URLParam(r, "id")
	if _, ok := s.catalog.RecipeByID(id); !ok {
		writeNotFound(w, "recipe not found")
		return
	}

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if s.bus == nil {
		writeUnavailable(w, "message bus not connected")
		return
	}

	cmd := recipeCommand{ID: id, Value: req.Value}
	if user != nil {
		cmd.UserID = user.ID
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		writeInternalError(w, "encoding command failed")
		return
	}

	topic := mqtt.Topics{}.RecipeCommand(id)
	if err := s.bus.Publish(topic, payload, 1, false); err != nil {
		s.logger.Error("recipe publish failed", "recipe", id, "error", err)
		writeUnavailable(w, "message bus unavailable")
		return
	}

	s.logger.Debug("recipe command sent", "recipe", id, "topic", topic)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"id":     id,
	})
}
