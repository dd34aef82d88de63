package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidsmith/genmedia-ms-go/internal/jobstore"
	"github.com/vidsmith/genmedia-ms-go/internal/model"
)

// JobGetter loads a job record by id.
type JobGetter interface {
	Get(ctx context.Context, id string) (*model.GenerationJob, error)
}

func GetGenerationHandler(store JobGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		job, err := store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, jobstore.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "Generation not found", nil)
				return
			}
			WriteError(w, http.StatusInternalServerError, "could not get generation details", err)
			return
		}

		RespondJSON(w, http.StatusOK, job)
		log.Printf("✅  Successfully returned details for generation #%s", id)
	}
}
