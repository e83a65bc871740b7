package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"makefoods"
	"makefoods/vision"
)

const maxImageBody = 10 << 20

type recognizeHandler struct {
	recognizer recognizer
	collector  *Collector
	now        func() time.Time
}

type recognizeResponse struct {
	vision.Result
	Added []makefoods.Ingredient `json:"added,omitempty"`
}

// Recognize reads a raw image body and lists the food items in it. With
// add=true the items also go into the fridge.
// POST /recognize?kind=receipt|ingredients&add=true
func (h *recognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if h.recognizer == nil {
		writeError(w, http.StatusServiceUnavailable, "image recognition is not configured")
		return
	}

	q := r.URL.Query()
	kind := q.Get("kind")
	if kind == "" {
		kind = vision.KindIngredients
	}
	if kind != vision.KindReceipt && kind != vision.KindIngredients {
		writeError(w, http.StatusBadRequest, "kind must be receipt or ingredients")
		return
	}
	add := false
	if raw := q.Get("add"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "add must be a boolean")
			return
		}
		add = v
	}

	image, err := io.ReadAll(io.LimitReader(r.Body, maxImageBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "image body is empty")
		return
	}

	result, err := h.recognizer.Recognize(r.Context(), kind, image, imageFormat(r.Header.Get("Content-Type")))
	switch {
	case errors.Is(err, vision.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if h.collector != nil {
		h.collector.RecordRecognized(len(result.Items))
	}

	resp := recognizeResponse{Result: result}
	if add {
		added, err := h.recognizer.AddToFridge(r.Context(), result.Items, h.now())
		switch {
		case errors.Is(err, vision.ErrEmptyItems):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case err != nil:
			slog.Error("HTTP: failed to add recognized items", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to add items to fridge")
			return
		}
		resp.Added = added
	}
	writeJSON(w, http.StatusOK, resp)
}

// imageFormat maps "image/png" to "png". Unknown types pass through and are
// rejected by the vision service.
func imageFormat(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(mediaType, "image/")
}
