package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"galaxy-server/internal/galaxy"
	"galaxy-server/internal/middleware"
	"galaxy-server/internal/shared/errors"
	"galaxy-server/internal/shared/response"
)

const maxParametersBody = 16 << 10

type GalaxyHandler struct {
	service *galaxy.Service
	logger  *slog.Logger
}

func NewGalaxyHandler(service *galaxy.Service, logger *slog.Logger) *GalaxyHandler {
	return &GalaxyHandler{
		service: service,
		logger:  logger,
	}
}

// BufferResponse is the JSON form of a published buffer.
type BufferResponse struct {
	Count       int               `json:"count"`
	Epoch       uint64            `json:"epoch"`
	GeneratedAt time.Time         `json:"generated_at"`
	Parameters  galaxy.Parameters `json:"parameters"`
	Positions   []float32         `json:"positions"`
	Colors      []float32         `json:"colors"`
}

// Parameters handles GET and PUT /api/galaxy/parameters. Routing wraps PUT
// with the operator check.
func (h *GalaxyHandler) Parameters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getParameters(w, r)
	case http.MethodPut:
		h.updateParameters(w, r)
	default:
		response.Error(w, r, h.logger.With("handler", "galaxy_parameters"), errors.MethodNotAllowed(r.Method))
	}
}

func (h *GalaxyHandler) getParameters(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "get_galaxy_parameters")

	snapshot, err := h.service.Snapshot()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, snapshot)
}

func (h *GalaxyHandler) updateParameters(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "update_galaxy_parameters")

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}
	logger = logger.With("operator", claims.Email)

	var p galaxy.Parameters
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxParametersBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&p); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
		return
	}

	snapshot, err := h.service.UpdateParameters(r.Context(), p, claims.Email)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Galaxy parameters updated", "snapshot_id", snapshot.ID)
	response.Success(w, http.StatusOK, snapshot)
}

// History handles GET /api/galaxy/parameters/history?limit=N
func (h *GalaxyHandler) History(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "galaxy_history")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(w, r, logger, errors.Validationf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = parsed
	}

	snapshots, err := h.service.History(r.Context(), limit)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if snapshots == nil {
		snapshots = []galaxy.Snapshot{}
	}
	response.Success(w, http.StatusOK, snapshots)
}

func (h *GalaxyHandler) Controls(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, r, h.logger.With("handler", "galaxy_controls"), errors.MethodNotAllowed(r.Method))
		return
	}
	response.Success(w, http.StatusOK, h.service.Controls())
}

// Buffer handles GET /api/galaxy/buffer. Clients asking for
// application/octet-stream get the compact binary encoding.
func (h *GalaxyHandler) Buffer(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "galaxy_buffer")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	buf, err := h.service.Current()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	w.Header().Set("X-Galaxy-Epoch", strconv.FormatUint(buf.Epoch, 10))

	if strings.Contains(r.Header.Get("Accept"), galaxy.ContentTypeBuffer) {
		payload, err := buf.MarshalBinary()
		if err != nil {
			response.Error(w, r, logger, errors.WrapInternal("failed to encode galaxy buffer", err))
			return
		}
		if err := response.Binary(w, http.StatusOK, galaxy.ContentTypeBuffer, payload); err != nil {
			logger.Debug("Client went away during buffer transfer", "error", err)
		}
		return
	}

	response.Success(w, http.StatusOK, BufferResponse{
		Count:       buf.Len(),
		Epoch:       buf.Epoch,
		GeneratedAt: buf.GeneratedAt,
		Parameters:  buf.Params,
		Positions:   buf.Positions,
		Colors:      buf.Colors,
	})
}

func (h *GalaxyHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, r, h.logger.With("handler", "galaxy_status"), errors.MethodNotAllowed(r.Method))
		return
	}
	response.Success(w, http.StatusOK, h.service.Status())
}
