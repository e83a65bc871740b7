package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"makefoods"
)

type ingredientHandler struct {
	fridge    fridgeService
	shelfLife time.Duration
	now       func() time.Time
}

type ingredientRequest struct {
	Name      *string    `json:"name"`
	Quantity  *int       `json:"quantity"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type deleteIngredientsRequest struct {
	IDs []int64 `json:"ids"`
}

type ingredientsResponse struct {
	Ingredients []makefoods.Ingredient `json:"ingredients"`
}

// GET /ingredients
func (h *ingredientHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeInventory(w, http.StatusOK)
}

// GET /ingredients/{id}
func (h *ingredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	ing, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ing)
}

// Create adds one ingredient. ExpiresAt defaults to now plus the shelf life.
// POST /ingredients
func (h *ingredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	ing := makefoods.Ingredient{Quantity: 1, RegisteredAt: now, ExpiresAt: now.Add(h.shelfLife)}
	if msg := req.apply(&ing); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if ing.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if !h.await(w, r, h.fridge.Insert(ing)) {
		return
	}
	h.writeInventory(w, http.StatusCreated)
}

// Update changes the fields present in the body.
// PUT /ingredients/{id}
func (h *ingredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	ing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req ingredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.apply(ing); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if !h.await(w, r, h.fridge.Update(*ing)) {
		return
	}
	writeJSON(w, http.StatusOK, ing)
}

// DELETE /ingredients/{id}
func (h *ingredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ing, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !h.await(w, r, h.fridge.DeleteByID(ing.ID)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMany removes the ingredients listed in {"ids": [...]}, or every
// ingredient when the body is empty.
// DELETE /ingredients
func (h *ingredientHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if h.await(w, r, h.fridge.DeleteAll()) {
			w.WriteHeader(http.StatusNoContent)
		}
		return
	}

	var req deleteIngredientsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ings := make([]makefoods.Ingredient, 0, len(req.IDs))
	for _, id := range req.IDs {
		ings = append(ings, makefoods.Ingredient{ID: id})
	}
	if h.await(w, r, h.fridge.DeleteBatch(ings)) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *ingredientHandler) lookup(w http.ResponseWriter, r *http.Request) (*makefoods.Ingredient, bool) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	ing, err := h.fridge.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("HTTP: failed to read ingredient", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ingredient")
		return nil, false
	}
	if ing == nil {
		writeError(w, http.StatusNotFound, makefoods.ErrNotFound.Error())
		return nil, false
	}
	return ing, true
}

// await blocks until the fridge applies a mutation or the request ends.
func (h *ingredientHandler) await(w http.ResponseWriter, r *http.Request, done <-chan error) bool {
	if err := wait(r.Context(), done); err != nil {
		slog.Error("HTTP: fridge mutation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update fridge")
		return false
	}
	return true
}

// writeInventory answers with the published inventory, most recent first.
// After a mutation is awaited the worker has already republished it.
func (h *ingredientHandler) writeInventory(w http.ResponseWriter, status int) {
	ings := h.fridge.Current()
	if ings == nil {
		ings = []makefoods.Ingredient{}
	}
	writeJSON(w, status, ingredientsResponse{Ingredients: ings})
}

// apply copies the fields present in req onto ing and returns a validation
// message when one of them is invalid.
func (req ingredientRequest) apply(ing *makefoods.Ingredient) string {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return "name must not be blank"
		}
		ing.Name = name
	}
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return "quantity must be at least 1"
		}
		ing.Quantity = *req.Quantity
	}
	if req.ExpiresAt != nil {
		ing.ExpiresAt = *req.ExpiresAt
	}
	return ""
}

func wait(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
