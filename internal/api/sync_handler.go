package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lociapp/loci-api/internal/api/shared"
	"github.com/lociapp/loci-api/internal/service"
	"github.com/lociapp/loci-api/internal/service/sync"
)

// SyncHandler serves the Raindrop synchronization endpoints. The sync
// service is optional at startup, so a nil service maps to 503.
type SyncHandler struct {
	sync   *sync.RaindropSync
	logger *slog.Logger
}

// NewSyncHandler creates a SyncHandler. syncService may be nil when no
// Raindrop token is configured.
func NewSyncHandler(syncService *sync.RaindropSync, logger *slog.Logger) *SyncHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncHandler{
		sync:   syncService,
		logger: logger.With(slog.String("component", "sync_handler")),
	}
}

// SyncRaindrop handles POST /api/sync/raindrop.
func (h *SyncHandler) SyncRaindrop(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		RespondWithMappedError(w, r, service.ErrSyncUnavailable)
		return
	}

	// An empty body means a full sync, so EOF is not an error here.
	var req SyncRaindropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	var since time.Time
	if req.Since != nil {
		since = *req.Since
	}

	result, err := h.sync.Sync(r.Context(), since)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.Info("raindrop sync completed",
		slog.Int("synced", result.Synced),
		slog.Int("skipped_duplicates", result.SkippedDuplicates))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// SyncStatus handles GET /api/sync/raindrop/status.
func (h *SyncHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		shared.RespondWithJSON(w, r, http.StatusOK, SyncStatusResponse{
			Connected: false,
			Message:   "Raindrop integration is not configured",
		})
		return
	}

	connected, message := h.sync.Status(r.Context())
	shared.RespondWithJSON(w, r, http.StatusOK, SyncStatusResponse{
		Connected: connected,
		Message:   message,
	})
}
