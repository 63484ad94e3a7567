package brackets

import (
	"context"
	"sort"
	"time"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
)

// fakeTxRunner runs the unit of work directly, no transaction involved.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.nextID++
	match.ID = r.nextID
	match.CreatedAt = time.Now()
	r.matches[match.ID] = match
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m, nil
}

func (r *fakeMatchRepo) GetByTournamentAndType(_ context.Context, tournamentID int, matchType models.MatchType) (*models.Match, error) {
	for _, m := range r.sorted() {
		if m.TournamentID == tournamentID && m.MatchType == matchType {
			return m, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.sorted() {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMatchRepo) ListByNextMatch(_ context.Context, nextMatchID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.sorted() {
		if m.NextMatchID != nil && *m.NextMatchID == nextMatchID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateNextMatchInfo(_ context.Context, _ repositories.SQLExecutor, matchID int, nextMatchID *int, slot *models.Slot) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.NextMatchID = nextMatchID
	m.NextMatchSlot = slot
	return nil
}

func (r *fakeMatchRepo) UpdatePlayers(_ context.Context, _ repositories.SQLExecutor, matchID int, player1ID, player2ID *int) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Player1ID = player1ID
	m.Player2ID = player2ID
	return nil
}

func (r *fakeMatchRepo) SetPlayerSlot(_ context.Context, matchID int, slot models.Slot, participantID int) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if slot == models.SlotPlayer1 {
		m.Player1ID = &participantID
	} else {
		m.Player2ID = &participantID
	}
	return nil
}

func (r *fakeMatchRepo) MarkBye(_ context.Context, matchID int, winnerID int, playedAt time.Time) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.MatchType = models.MatchTypeBye
	m.Status = models.MatchStatusCompleted
	m.WinnerID = &winnerID
	m.Player1Score, m.Player2Score = 0, 0
	m.PlayedAt = &playedAt
	return nil
}

func (r *fakeMatchRepo) UpdateResult(_ context.Context, matchID int, p1Score, p2Score int, winnerID, loserID *int, status models.MatchStatus, playedAt *time.Time) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Player1Score = p1Score
	m.Player2Score = p2Score
	m.WinnerID = winnerID
	m.LoserID = loserID
	m.Status = status
	m.PlayedAt = playedAt
	return nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, matchID int, status models.MatchStatus) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

func (r *fakeMatchRepo) sorted() []*models.Match {
	out := make([]*models.Match, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeParticipantRepo struct {
	nextID       int
	participants map[int]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[int]*models.Participant)}
}

func (r *fakeParticipantRepo) Create(_ context.Context, p *models.Participant) error {
	r.nextID++
	p.ID = r.nextID
	r.participants[p.ID] = p
	return nil
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, id int) (*models.Participant, error) {
	p, ok := r.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	return p, nil
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int, status *models.ParticipantStatus, _ bool) ([]*models.Participant, error) {
	var out []*models.Participant
	ids := make([]int, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		p := r.participants[id]
		if p.TournamentID != tournamentID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeParticipantRepo) UpdateStatus(_ context.Context, id int, status models.ParticipantStatus) error {
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

func (r *fakeParticipantRepo) UpdateSeed(_ context.Context, _ repositories.SQLExecutor, id int, seed int) error {
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Seed = &seed
	return nil
}

func (r *fakeParticipantRepo) UpdateFinalPosition(_ context.Context, id int, position int) error {
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.FinalPosition = &position
	return nil
}

func (r *fakeParticipantRepo) ApplyMatchResult(_ context.Context, id int, framesWon, framesLost int, won bool) error {
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.MatchesPlayed++
	if won {
		p.MatchesWon++
	}
	p.FramesWon += framesWon
	p.FramesLost += framesLost
	return nil
}

func (r *fakeParticipantRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.participants[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.participants, id)
	return nil
}
