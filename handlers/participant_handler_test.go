package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/services"
)

type stubParticipantService struct {
	services.ParticipantService
	standings []*models.Participant
	err       error
}

func (s *stubParticipantService) Standings(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.standings, nil
}

func intPtr(n int) *int { return &n }

func standingsRequest(t *testing.T, h *ParticipantHandler, target string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/tournaments/{tournamentID}/standings", h.StandingsHandler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStandingsHandlerLabelsFinalPositions(t *testing.T) {
	svc := &stubParticipantService{
		standings: []*models.Participant{
			{ID: 1, Status: models.ParticipantStatusConfirmed, FinalPosition: intPtr(1)},
			{ID: 2, Status: models.ParticipantStatusConfirmed, FinalPosition: intPtr(2)},
			{ID: 3, Status: models.ParticipantStatusConfirmed, FinalPosition: intPtr(3)},
			{ID: 4, Status: models.ParticipantStatusConfirmed},
		},
	}
	h := NewParticipantHandler(svc)

	rec := standingsRequest(t, h, "/tournaments/7/standings")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Standings []struct {
			ID            int    `json:"id"`
			PositionLabel string `json:"position_label"`
		} `json:"standings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Standings, 4)

	assert.Equal(t, "1st", body.Standings[0].PositionLabel)
	assert.Equal(t, "2nd", body.Standings[1].PositionLabel)
	assert.Equal(t, "3rd", body.Standings[2].PositionLabel)

	// Still-running tournaments have no final positions, so no label.
	assert.Empty(t, body.Standings[3].PositionLabel)
}

func TestStandingsHandlerMapsServiceErrors(t *testing.T) {
	h := NewParticipantHandler(&stubParticipantService{err: services.ErrTournamentNotFound})

	rec := standingsRequest(t, h, "/tournaments/999/standings")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStandingsHandlerRejectsBadTournamentID(t *testing.T) {
	h := NewParticipantHandler(&stubParticipantService{})

	rec := standingsRequest(t, h, "/tournaments/abc/standings")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
