package handlers

import (
	"net/http"

	"github.com/bgaliyev/cue-league/brackets"
	"github.com/bgaliyev/cue-league/middleware"
	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
}

func NewParticipantHandler(ps services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: ps}
}

// RegisterHandler handles POST /tournaments/{tournamentID}/participants
func (h *ParticipantHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to register")
		return
	}

	participant, err := h.participantService.Register(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmHandler handles POST /participants/{participantID}/confirm
func (h *ParticipantHandler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to confirm participant")
		return
	}

	participant, err := h.participantService.Confirm(r.Context(), participantID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WithdrawHandler handles DELETE /participants/{participantID}
func (h *ParticipantHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to withdraw")
		return
	}

	if err := h.participantService.Withdraw(r.Context(), participantID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/participants
func (h *ParticipantHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.ParticipantStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		s := models.ParticipantStatus(statusStr)
		status = &s
	}

	participants, err := h.participantService.ListByTournament(r.Context(), tournamentID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// standingEntry decorates a participant with a human-readable label for its
// final position ("1st", "2nd", ...), empty until the tournament completes.
type standingEntry struct {
	*models.Participant
	PositionLabel string `json:"position_label,omitempty"`
}

// StandingsHandler handles GET /tournaments/{tournamentID}/standings
func (h *ParticipantHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.participantService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	entries := make([]standingEntry, 0, len(standings))
	for _, p := range standings {
		entry := standingEntry{Participant: p}
		if p.FinalPosition != nil {
			entry.PositionLabel = brackets.FormatPosition(*p.FinalPosition)
		}
		entries = append(entries, entry)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
