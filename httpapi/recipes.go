package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"makefoods"
	"makefoods/tools"
)

type recipeHandler struct {
	recipes recipeReader
}

// GET /recipes/count
func (h *recipeHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.recipes.Count(r.Context())
	if err != nil {
		slog.Error("HTTP: failed to count recipes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count recipes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// GET /recipes/{id}
func (h *recipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe, err := h.recipes.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("HTTP: failed to read recipe", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read recipe")
		return
	}
	if recipe == nil {
		writeError(w, http.StatusNotFound, makefoods.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

type toolHandler struct {
	tools toolRunner
}

// GET /tools
func (h *toolHandler) List(w http.ResponseWriter, r *http.Request) {
	all := h.tools.GetTools()
	out := make([]tools.Descriptor, 0, len(all))
	for _, t := range all {
		out = append(out, tools.Describe(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

// Run executes a tool with the JSON object in the body as its input.
// POST /tools/{name}
func (h *toolHandler) Run(w http.ResponseWriter, r *http.Request) {
	input := map[string]any{}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &input); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	out, err := h.tools.Run(r.Context(), tools.Call{Name: chi.URLParam(r, "name"), Input: input})
	switch {
	case errors.Is(err, makefoods.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}
