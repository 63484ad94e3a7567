package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/bgaliyev/cue-league/brackets"
	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubGenerator records calls and supports a single format.
type stubGenerator struct {
	format        models.TournamentFormat
	minimum       int
	generated     int
	advanced      int
	semisHandled  int
	generateErr   error
	resultToServe *brackets.BracketResult
}

func (g *stubGenerator) Supports(t *models.Tournament) bool {
	return t != nil && t.Format == g.format
}

func (g *stubGenerator) Generate(_ context.Context, _ *models.Tournament) (*brackets.BracketResult, error) {
	g.generated++
	if g.generateErr != nil {
		return nil, g.generateErr
	}
	return g.resultToServe, nil
}

func (g *stubGenerator) AdvanceWinner(_ context.Context, _ *models.Match) error {
	g.advanced++
	return nil
}

func (g *stubGenerator) MinimumParticipants() int {
	return g.minimum
}

func (g *stubGenerator) HandleSemiFinalCompletion(_ context.Context, _ *models.Match) error {
	g.semisHandled++
	return nil
}

type stubMatchRepo struct {
	repositories.MatchRepository
	matches []*models.Match
}

func (r *stubMatchRepo) ListByTournament(_ context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
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
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubParticipantRepo struct {
	repositories.ParticipantRepository
	participants []*models.Participant
}

func (r *stubParticipantRepo) ListByTournament(_ context.Context, tournamentID int, status *models.ParticipantStatus, _ bool) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, p := range r.participants {
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

type stubTournamentRepo struct {
	repositories.TournamentRepository
	tournaments map[int]*models.Tournament
}

func (r *stubTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func newTestBracketService(gen brackets.Generator, matchRepo *stubMatchRepo, participantRepo *stubParticipantRepo, tournamentRepo *stubTournamentRepo) BracketService {
	if matchRepo == nil {
		matchRepo = &stubMatchRepo{}
	}
	if participantRepo == nil {
		participantRepo = &stubParticipantRepo{}
	}
	if tournamentRepo == nil {
		tournamentRepo = &stubTournamentRepo{tournaments: map[int]*models.Tournament{}}
	}
	return NewBracketService([]brackets.Generator{gen}, matchRepo, participantRepo, tournamentRepo, testLogger())
}

func TestBracketServiceDispatchesByFormat(t *testing.T) {
	gen := &stubGenerator{
		format:        models.FormatSingleElimination,
		minimum:       2,
		resultToServe: &brackets.BracketResult{BracketSize: 4},
	}
	svc := newTestBracketService(gen, nil, nil, nil)

	tournament := &models.Tournament{ID: 1, Format: models.FormatSingleElimination}
	result, err := svc.Generate(context.Background(), tournament)
	require.NoError(t, err)
	assert.Equal(t, 4, result.BracketSize)
	assert.Equal(t, 1, gen.generated)

	minimum, err := svc.MinimumParticipants(tournament)
	require.NoError(t, err)
	assert.Equal(t, 2, minimum)
}

func TestBracketServiceRejectsUnknownFormat(t *testing.T) {
	gen := &stubGenerator{format: models.FormatSingleElimination}
	svc := newTestBracketService(gen, nil, nil, nil)

	_, err := svc.Generate(context.Background(), &models.Tournament{Format: "round_robin"})
	assert.ErrorIs(t, err, ErrNoGeneratorForFormat)
	assert.Equal(t, 0, gen.generated)

	_, err = svc.MinimumParticipants(&models.Tournament{Format: "round_robin"})
	assert.ErrorIs(t, err, ErrNoGeneratorForFormat)
}

func TestBracketServiceAdvanceWinnerLoadsTournamentFormat(t *testing.T) {
	gen := &stubGenerator{format: models.FormatSingleElimination}
	tournamentRepo := &stubTournamentRepo{tournaments: map[int]*models.Tournament{
		7: {ID: 7, Format: models.FormatSingleElimination},
	}}
	svc := newTestBracketService(gen, nil, nil, tournamentRepo)

	winner := 3
	match := &models.Match{ID: 10, TournamentID: 7, WinnerID: &winner}
	require.NoError(t, svc.AdvanceWinner(context.Background(), match))
	assert.Equal(t, 1, gen.advanced)

	require.NoError(t, svc.HandleSemiFinalCompletion(context.Background(), match))
	assert.Equal(t, 1, gen.semisHandled)
}

func TestCanStartTournament(t *testing.T) {
	gen := &stubGenerator{format: models.FormatSingleElimination, minimum: 2}
	participantRepo := &stubParticipantRepo{participants: []*models.Participant{
		{ID: 1, TournamentID: 1, Status: models.ParticipantStatusConfirmed},
		{ID: 2, TournamentID: 1, Status: models.ParticipantStatusApplied},
	}}
	svc := newTestBracketService(gen, nil, participantRepo, nil)

	tournament := &models.Tournament{ID: 1, Format: models.FormatSingleElimination}

	// Only one confirmed participant, applied ones do not count.
	ok, err := svc.CanStartTournament(context.Background(), tournament)
	require.NoError(t, err)
	assert.False(t, ok)

	participantRepo.participants[1].Status = models.ParticipantStatusConfirmed
	ok, err = svc.CanStartTournament(context.Background(), tournament)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsBracketComplete(t *testing.T) {
	scheduled := models.MatchStatusScheduled
	completed := models.MatchStatusCompleted

	matchRepo := &stubMatchRepo{}
	svc := newTestBracketService(&stubGenerator{format: models.FormatSingleElimination}, matchRepo, nil, nil)
	ctx := context.Background()

	// No matches yet: not complete.
	done, err := svc.IsBracketComplete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, done)

	matchRepo.matches = []*models.Match{
		{ID: 1, TournamentID: 1, Status: completed},
		{ID: 2, TournamentID: 1, Status: scheduled},
	}
	done, err = svc.IsBracketComplete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, done)

	matchRepo.matches[1].Status = models.MatchStatusPendingConfirmation
	done, err = svc.IsBracketComplete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, done)

	matchRepo.matches[1].Status = completed
	done, err = svc.IsBracketComplete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, done)

	// An unresolved bye placeholder never blocks completion.
	matchRepo.matches = append(matchRepo.matches, &models.Match{
		ID: 3, TournamentID: 1, MatchType: models.MatchTypeBye, Status: scheduled,
	})
	done, err = svc.IsBracketComplete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestGetBracketDataGroupsRounds(t *testing.T) {
	p1, p2 := 1, 2
	matchRepo := &stubMatchRepo{matches: []*models.Match{
		{ID: 1, TournamentID: 1, Round: 1, RoundName: "Semi-Finals", MatchType: models.MatchTypeSemiFinal, Status: models.MatchStatusCompleted, Player1ID: &p1, Player2ID: &p2},
		{ID: 2, TournamentID: 1, Round: 1, RoundName: "Semi-Finals", MatchType: models.MatchTypeSemiFinal, Status: models.MatchStatusScheduled},
		{ID: 3, TournamentID: 1, Round: 2, RoundName: "Final", MatchType: models.MatchTypeFinal, Status: models.MatchStatusScheduled},
		{ID: 4, TournamentID: 1, Round: 2, RoundName: "Third Place", MatchType: models.MatchTypeThirdPlace, Status: models.MatchStatusScheduled},
	}}
	nickname := "ace"
	participantRepo := &stubParticipantRepo{participants: []*models.Participant{
		{ID: 1, TournamentID: 1, UserID: 11, Status: models.ParticipantStatusConfirmed, User: &models.User{ID: 11, Nickname: &nickname}},
		{ID: 2, TournamentID: 1, UserID: 12, Status: models.ParticipantStatusConfirmed, User: &models.User{ID: 12, FirstName: "Sam", LastName: "Hill"}},
	}}
	svc := newTestBracketService(&stubGenerator{format: models.FormatSingleElimination}, matchRepo, participantRepo, nil)

	data, err := svc.GetBracketData(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, data.Rounds, 2)
	assert.Equal(t, "Semi-Finals", data.Rounds[0].Name)
	assert.Len(t, data.Rounds[0].Matches, 2)
	assert.Equal(t, "Final", data.Rounds[1].Name)
	assert.Len(t, data.Rounds[1].Matches, 1)

	// The third-place match is pulled out of the round list.
	require.NotNil(t, data.ThirdPlace)
	assert.Equal(t, 4, data.ThirdPlace.ID)

	first := data.Rounds[0].Matches[0]
	require.NotNil(t, first.Player1)
	assert.Equal(t, "ace", first.Player1.Name)
	require.NotNil(t, first.Player2)
	assert.Equal(t, "Sam Hill", first.Player2.Name)
}

func TestCalculateFinalPositionsReleasesTournamentLock(t *testing.T) {
	gen := &stubGenerator{format: models.FormatSingleElimination}
	tournamentRepo := &stubTournamentRepo{tournaments: map[int]*models.Tournament{
		7: {ID: 7, Format: models.FormatSingleElimination},
	}}
	svc := newTestBracketService(gen, nil, nil, tournamentRepo).(*bracketService)
	ctx := context.Background()

	winner := 3
	require.NoError(t, svc.AdvanceWinner(ctx, &models.Match{ID: 10, TournamentID: 7, WinnerID: &winner}))
	assert.Contains(t, svc.tournamentLocks, 7)

	_, err := svc.CalculateFinalPositions(ctx, tournamentRepo.tournaments[7])
	require.NoError(t, err)

	// The tournament is finished, so its advancement lock must not linger.
	assert.NotContains(t, svc.tournamentLocks, 7)
}
