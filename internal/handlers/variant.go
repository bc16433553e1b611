package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"galry/internal/logging"
	"galry/internal/metrics"
	"galry/internal/variant"
)

// ServeVariant handles GET /_/{what}/{path}: the original image, its
// thumbnail or its preview.
//
// Files on disk go through http.ServeFile, so conditional and range requests
// work for originals and cached variants alike. Variants that could not be
// persisted are written from memory.
func (h *Handlers) ServeVariant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, err := variant.ParseKind(vars["what"])
	if err != nil {
		h.variantError(w, r, kind, err)
		return
	}

	rendered, err := h.cache.Get(r.Context(), variant.Request{
		Root:   h.rootDir,
		Path:   vars["path"],
		Kind:   kind,
		Policy: h.policy,
	})
	if err != nil {
		h.variantError(w, r, kind, err)
		return
	}

	w.Header().Set(variant.OutcomeHeader, variant.OutcomeOf(rendered).String())

	switch res := rendered.(type) {
	case variant.FileResult:
		if res.Outcome != variant.ServeOriginal {
			// Cached variants keep the source name but always hold JPEG data.
			w.Header().Set("Content-Type", variant.ContentType)
			w.Header().Set("Cache-Control", "public, max-age=86400")
		}
		http.ServeFile(w, r, res.Path)
	case variant.BytesResult:
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			if _, err := w.Write(res.Data); err != nil {
				logging.Debug("Variant write aborted for %s: %v", r.URL.Path, err)
			}
		}
	}
}

func (h *Handlers) variantError(w http.ResponseWriter, r *http.Request, kind variant.Kind, err error) {
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody is left to read a status.
		logging.Debug("Variant request cancelled: %s", r.URL.Path)
		return
	}

	metrics.ObserveVariantError(kind, err)
	status := statusForError(err)
	message := http.StatusText(status)
	if status == http.StatusInternalServerError {
		logging.Error("Variant %s failed: %v", r.URL.Path, err)
	} else {
		logging.Debug("Variant %s rejected: %v", r.URL.Path, err)
		message += ": " + variant.Detail(err)
	}
	http.Error(w, message, status)
}

// statusForError maps a classified variant error to an HTTP status.
func statusForError(err error) int {
	switch variant.Classify(err) {
	case variant.LabelBadRequest:
		return http.StatusBadRequest
	case variant.LabelNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
