package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"makefoods"
)

type messageHandler struct {
	conv conversation
	log  messageLog
}

type messagesResponse struct {
	Messages []makefoods.Message `json:"messages"`
	Next     int                 `json:"next"`
}

type textRequest struct {
	Text string `json:"text"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type ingredientsRequest struct {
	Ingredients []string `json:"ingredients"`
}

// List returns the messages after the first `after` ones. Clients poll with
// the returned next value.
// GET /messages?after=N
func (h *messageHandler) List(w http.ResponseWriter, r *http.Request) {
	after := 0
	if raw := r.URL.Query().Get("after"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "after must be a non-negative integer")
			return
		}
		after = n
	}

	msgs := h.log.Since(after)
	if msgs == nil {
		msgs = []makefoods.Message{}
	}
	writeJSON(w, http.StatusOK, messagesResponse{Messages: msgs, Next: after + len(msgs)})
}

// Send appends the user message and starts the reply in the background.
// POST /messages
func (h *messageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	msg := h.conv.SendUserMessage(r.Context(), req.Text)
	writeJSON(w, http.StatusAccepted, msg)
}

// POST /messages/recipe-detail
func (h *messageHandler) RecipeDetail(w http.ResponseWriter, r *http.Request) {
	name, ok := readName(w, r)
	if !ok {
		return
	}
	h.conv.RequestRecipeDetail(r.Context(), name)
	w.WriteHeader(http.StatusAccepted)
}

// POST /messages/explain
func (h *messageHandler) Explain(w http.ResponseWriter, r *http.Request) {
	name, ok := readName(w, r)
	if !ok {
		return
	}
	h.conv.ExplainRecipe(r.Context(), name)
	w.WriteHeader(http.StatusAccepted)
}

// POST /messages/suggest
func (h *messageHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req ingredientsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.conv.SuggestForIngredients(r.Context(), req.Ingredients)
	w.WriteHeader(http.StatusAccepted)
}

func readName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return "", false
	}
	return req.Name, true
}
