package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/tanq16/pulldown/internal/controller"
	"github.com/tanq16/pulldown/internal/transfer"
	"github.com/tanq16/pulldown/internal/utils"
	"github.com/tanq16/pulldown/internal/validation"
)

type CreateRequest struct {
	URL string `json:"url" validate:"required,download_url"`
}

type CreateResponse struct {
	ID transfer.ID `json:"id"`
}

type Handler struct {
	ctrl *controller.Controller
	log  zerolog.Logger
}

func NewHandler(ctrl *controller.Controller) *Handler {
	return &Handler{ctrl: ctrl, log: utils.GetLogger("server")}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Records())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rec, err := h.ctrl.Lookup(id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Validator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validation.ErrInvalidURL.Error())
		return
	}
	id, err := h.ctrl.Request(req.URL)
	if err != nil {
		h.log.Warn().Err(err).Str("url", req.URL).Msg("download rejected")
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, CreateResponse{ID: id})
}

func (h *Handler) Signal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var err error
	switch action := chi.URLParam(r, "action"); action {
	case "toggle":
		err = h.ctrl.Toggle(id)
	case "pause":
		err = h.ctrl.Pause(id)
	case "resume":
		err = h.ctrl.Resume(id)
	case "cancel":
		err = h.ctrl.Cancel(id)
	default:
		writeError(w, http.StatusNotFound, "unknown action "+action)
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func parseID(w http.ResponseWriter, r *http.Request) (transfer.ID, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid download id")
		return 0, false
	}
	return transfer.ID(id), true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, controller.ErrUnknownDownload):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrFinished), errors.Is(err, controller.ErrDuplicateFile):
		return http.StatusConflict
	case errors.Is(err, validation.ErrInvalidURL), errors.Is(err, transfer.ErrNoFileName):
		return http.StatusBadRequest
	case errors.Is(err, transfer.ErrControlBusy), errors.Is(err, controller.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log := utils.GetLogger("server")
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
