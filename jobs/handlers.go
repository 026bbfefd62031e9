package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"micmap/models"
	"micmap/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handler exposes the orchestrator over HTTP.
type Handler struct {
	Pipeline *Pipeline
}

// TriggerIndex enqueues an index run for one source.
func (h *Handler) TriggerIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var args models.IndexJobArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, ok := h.Pipeline.Registry.Get(args.SourceID); !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Unknown source")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	job := NewIndexJob(args)
	if err := Enqueue(ctx, job); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, utils.M{"jobid": job.JobID})
}

// TriggerDetail enqueues a single candidate, mostly for operator re-runs.
func (h *Handler) TriggerDetail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var args models.DetailJobArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if args.Candidate.DetailURL == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "candidate.detail_url is required")
		return
	}
	if _, ok := h.Pipeline.Registry.Get(args.SourceID); !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Unknown source")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	job := NewDetailJob(args)
	if err := Enqueue(ctx, job); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, utils.M{"jobid": job.JobID})
}

// GetJobStatus returns the persisted record, including roll-up outcomes.
func (h *Handler) GetJobStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	job, err := GetJob(ctx, ps.ByName("jobid"))
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch job")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, job)
}
