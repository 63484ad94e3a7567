package brackets

import (
	"context"
	"testing"
	"time"

	"github.com/bgaliyev/cue-league/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bracketFixture struct {
	generator       *SingleEliminationGenerator
	matchRepo       *fakeMatchRepo
	participantRepo *fakeParticipantRepo
	tournament      *models.Tournament
}

// newBracketFixture seeds n confirmed participants with strictly descending
// ratings, so participant ID i always ends up with seed i.
func newBracketFixture(t *testing.T, n int, mode models.SeedingMode) *bracketFixture {
	t.Helper()

	matchRepo := newFakeMatchRepo()
	participantRepo := newFakeParticipantRepo()

	tournament := &models.Tournament{
		ID:          1,
		Name:        "Spring Open",
		Format:      models.FormatSingleElimination,
		SeedingMode: mode,
		Status:      models.StatusRegistration,
		StartDate:   time.Now().Add(48 * time.Hour),
	}

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := &models.Participant{
			TournamentID: tournament.ID,
			UserID:       100 + i,
			Status:       models.ParticipantStatusConfirmed,
			Rating:       float64(2000 - 10*i),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, participantRepo.Create(context.Background(), p))
	}

	return &bracketFixture{
		generator:       NewSingleEliminationGenerator(fakeTxRunner{}, matchRepo, participantRepo, discardLogger()),
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		tournament:      tournament,
	}
}

func (f *bracketFixture) matchAt(t *testing.T, round, position int) *models.Match {
	t.Helper()
	matches, err := f.matchRepo.ListByTournament(context.Background(), f.tournament.ID, &round, nil)
	require.NoError(t, err)
	for _, m := range matches {
		if m.BracketPosition == position && m.MatchType != models.MatchTypeThirdPlace {
			return m
		}
	}
	t.Fatalf("no match at round %d position %d", round, position)
	return nil
}

func TestGenerateFullBracket(t *testing.T) {
	f := newBracketFixture(t, 8, models.SeedingFair)

	result, err := f.generator.Generate(context.Background(), f.tournament)
	require.NoError(t, err)

	assert.Equal(t, 8, result.BracketSize)
	assert.Equal(t, 3, result.TotalRounds)
	assert.Equal(t, 0, result.ByeCount)
	assert.Equal(t, 8, result.MatchesCreated, "7 bracket matches plus third place")
	assert.Equal(t, 0, result.ByeMatchesProcessed)

	require.Len(t, result.Rounds, 3)
	assert.Equal(t, "Quarter-Finals", result.Rounds[0].Name)
	assert.Equal(t, "Semi-Finals", result.Rounds[1].Name)
	assert.Equal(t, "Final", result.Rounds[2].Name)
	assert.Equal(t, 4, result.Rounds[0].Matches)
	assert.Equal(t, 2, result.Rounds[1].Matches)
	assert.Equal(t, 1, result.Rounds[2].Matches)

	// Every round-1 match is fully populated, pairing adjacent seeds.
	for pos := 0; pos < 4; pos++ {
		m := f.matchAt(t, 1, pos)
		require.NotNil(t, m.Player1ID)
		require.NotNil(t, m.Player2ID)
		assert.Equal(t, 2*pos+1, *m.Player1ID)
		assert.Equal(t, 2*pos+2, *m.Player2ID)
	}

	// The final is the only bracket match with nowhere to advance.
	final := f.matchAt(t, 3, 0)
	assert.Equal(t, models.MatchTypeFinal, final.MatchType)
	assert.Nil(t, final.NextMatchID)

	// Third place match sits alongside the final, outside the advancement
	// chain.
	thirdPlace, err := f.matchRepo.GetByTournamentAndType(context.Background(), f.tournament.ID, models.MatchTypeThirdPlace)
	require.NoError(t, err)
	assert.Equal(t, 3, thirdPlace.Round)
	assert.Equal(t, 1, thirdPlace.BracketPosition)
	assert.Equal(t, ThirdPlaceRoundName, thirdPlace.RoundName)
	assert.Nil(t, thirdPlace.NextMatchID)
}

func TestGenerateWithByes(t *testing.T) {
	f := newBracketFixture(t, 6, models.SeedingFair)

	result, err := f.generator.Generate(context.Background(), f.tournament)
	require.NoError(t, err)

	assert.Equal(t, 8, result.BracketSize)
	assert.Equal(t, 2, result.ByeCount)
	assert.Equal(t, 2, result.ByeMatchesProcessed)

	// Seeds 1 and 2 sit alone at the first and last round-1 matches; both
	// byes complete immediately.
	for _, pos := range []int{0, 3} {
		m := f.matchAt(t, 1, pos)
		assert.Equal(t, models.MatchTypeBye, m.MatchType)
		assert.Equal(t, models.MatchStatusCompleted, m.Status)
		require.NotNil(t, m.WinnerID)
	}

	// Bye winners were pushed into round 2: seed 1 into match 0 slot 1,
	// seed 2 into match 1 slot 2.
	semi0 := f.matchAt(t, 2, 0)
	require.NotNil(t, semi0.Player1ID)
	assert.Equal(t, 1, *semi0.Player1ID)

	semi1 := f.matchAt(t, 2, 1)
	require.NotNil(t, semi1.Player2ID)
	assert.Equal(t, 2, *semi1.Player2ID)

	// The played round-1 matches pair 3v4 and 5v6 and stay scheduled.
	m1 := f.matchAt(t, 1, 1)
	assert.Equal(t, models.MatchStatusScheduled, m1.Status)
	assert.Equal(t, 3, *m1.Player1ID)
	assert.Equal(t, 4, *m1.Player2ID)

	m2 := f.matchAt(t, 1, 2)
	assert.Equal(t, 5, *m2.Player1ID)
	assert.Equal(t, 6, *m2.Player2ID)
}

func TestGenerateTwoPlayerBracketSkipsThirdPlace(t *testing.T) {
	f := newBracketFixture(t, 2, models.SeedingFair)

	result, err := f.generator.Generate(context.Background(), f.tournament)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalRounds)
	assert.Equal(t, 1, result.MatchesCreated)

	_, err = f.matchRepo.GetByTournamentAndType(context.Background(), f.tournament.ID, models.MatchTypeThirdPlace)
	assert.Error(t, err, "a one-round bracket has no third place match")
}

func TestGenerateRejectsTooFewParticipants(t *testing.T) {
	f := newBracketFixture(t, 1, models.SeedingFair)

	_, err := f.generator.Generate(context.Background(), f.tournament)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}

func TestGenerateRejectsExistingBracket(t *testing.T) {
	f := newBracketFixture(t, 4, models.SeedingFair)

	_, err := f.generator.Generate(context.Background(), f.tournament)
	require.NoError(t, err)

	_, err = f.generator.Generate(context.Background(), f.tournament)
	assert.ErrorIs(t, err, ErrBracketAlreadyExists)
}

func TestGenerateStandardSeeding(t *testing.T) {
	f := newBracketFixture(t, 8, models.SeedingStandard)

	_, err := f.generator.Generate(context.Background(), f.tournament)
	require.NoError(t, err)

	// Classic layout: 1v8 opens, 2v7 closes, so 1 and 2 can only meet in
	// the final.
	m0 := f.matchAt(t, 1, 0)
	assert.Equal(t, 1, *m0.Player1ID)
	assert.Equal(t, 8, *m0.Player2ID)

	m3 := f.matchAt(t, 1, 3)
	assert.Equal(t, 7, *m3.Player1ID)
	assert.Equal(t, 2, *m3.Player2ID)
}

func TestAdvanceWinner(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	g := NewSingleEliminationGenerator(fakeTxRunner{}, matchRepo, newFakeParticipantRepo(), discardLogger())
	ctx := context.Background()

	next := &models.Match{TournamentID: 1, Round: 2, Status: models.MatchStatusScheduled}
	require.NoError(t, matchRepo.Create(ctx, nil, next))

	slot := models.SlotPlayer2
	completed := &models.Match{
		TournamentID:  1,
		Round:         1,
		Status:        models.MatchStatusCompleted,
		Player1ID:     intPtr(1),
		Player2ID:     intPtr(2),
		WinnerID:      intPtr(2),
		NextMatchID:   &next.ID,
		NextMatchSlot: &slot,
	}
	require.NoError(t, matchRepo.Create(ctx, nil, completed))

	// A second, still-open feeder keeps the next match from collapsing into
	// a bye.
	openFeeder := &models.Match{
		TournamentID: 1,
		Round:        1,
		Status:       models.MatchStatusScheduled,
		Player1ID:    intPtr(3),
		Player2ID:    intPtr(4),
		NextMatchID:  &next.ID,
	}
	require.NoError(t, matchRepo.Create(ctx, nil, openFeeder))

	require.NoError(t, g.AdvanceWinner(ctx, completed))

	require.NotNil(t, next.Player2ID)
	assert.Equal(t, 2, *next.Player2ID)
	assert.Equal(t, models.MatchStatusScheduled, next.Status, "opponent still to come")
}

func TestAdvanceWinnerRequiresWinner(t *testing.T) {
	g := NewSingleEliminationGenerator(fakeTxRunner{}, newFakeMatchRepo(), newFakeParticipantRepo(), discardLogger())

	err := g.AdvanceWinner(context.Background(), &models.Match{ID: 5, Status: models.MatchStatusCompleted})
	assert.ErrorIs(t, err, ErrNoWinner)
}

func TestAdvanceWinnerFinalIsNoOp(t *testing.T) {
	g := NewSingleEliminationGenerator(fakeTxRunner{}, newFakeMatchRepo(), newFakeParticipantRepo(), discardLogger())

	final := &models.Match{
		ID:        9,
		MatchType: models.MatchTypeFinal,
		Status:    models.MatchStatusCompleted,
		WinnerID:  intPtr(1),
	}
	assert.NoError(t, g.AdvanceWinner(context.Background(), final))
}

func TestAdvanceWinnerMissingNextMatchIsContained(t *testing.T) {
	g := NewSingleEliminationGenerator(fakeTxRunner{}, newFakeMatchRepo(), newFakeParticipantRepo(), discardLogger())

	missing := 999
	m := &models.Match{
		ID:          3,
		Status:      models.MatchStatusCompleted,
		WinnerID:    intPtr(1),
		NextMatchID: &missing,
	}
	assert.NoError(t, g.AdvanceWinner(context.Background(), m), "dangling link is logged, not fatal")
}

func TestAdvanceWinnerResolvesCollidedBye(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	g := NewSingleEliminationGenerator(fakeTxRunner{}, matchRepo, newFakeParticipantRepo(), discardLogger())
	ctx := context.Background()

	next := &models.Match{TournamentID: 1, Round: 2, Status: models.MatchStatusScheduled}
	require.NoError(t, matchRepo.Create(ctx, nil, next))

	// Both feeders are completed but only one produced a winner, so the
	// advanced player has no possible opponent.
	deadFeeder := &models.Match{
		TournamentID: 1,
		Round:        1,
		Status:       models.MatchStatusCompleted,
		NextMatchID:  &next.ID,
	}
	require.NoError(t, matchRepo.Create(ctx, nil, deadFeeder))

	slot := models.SlotPlayer1
	completed := &models.Match{
		TournamentID:  1,
		Round:         1,
		Status:        models.MatchStatusCompleted,
		Player1ID:     intPtr(1),
		Player2ID:     intPtr(2),
		WinnerID:      intPtr(1),
		NextMatchID:   &next.ID,
		NextMatchSlot: &slot,
	}
	require.NoError(t, matchRepo.Create(ctx, nil, completed))

	require.NoError(t, g.AdvanceWinner(ctx, completed))

	assert.Equal(t, models.MatchStatusCompleted, next.Status)
	assert.Equal(t, models.MatchTypeBye, next.MatchType)
	require.NotNil(t, next.WinnerID)
	assert.Equal(t, 1, *next.WinnerID)
}

func TestHandleSemiFinalCompletion(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	g := NewSingleEliminationGenerator(fakeTxRunner{}, matchRepo, newFakeParticipantRepo(), discardLogger())
	ctx := context.Background()

	thirdPlace := &models.Match{
		TournamentID: 1,
		Round:        3,
		MatchType:    models.MatchTypeThirdPlace,
		Status:       models.MatchStatusScheduled,
	}
	require.NoError(t, matchRepo.Create(ctx, nil, thirdPlace))

	semi1 := &models.Match{
		TournamentID: 1,
		Round:        2,
		MatchType:    models.MatchTypeSemiFinal,
		Status:       models.MatchStatusCompleted,
		WinnerID:     intPtr(1),
		LoserID:      intPtr(4),
	}
	require.NoError(t, g.HandleSemiFinalCompletion(ctx, semi1))
	require.NotNil(t, thirdPlace.Player1ID)
	assert.Equal(t, 4, *thirdPlace.Player1ID)

	semi2 := &models.Match{
		TournamentID: 1,
		Round:        2,
		MatchType:    models.MatchTypeSemiFinal,
		Status:       models.MatchStatusCompleted,
		WinnerID:     intPtr(2),
		LoserID:      intPtr(3),
	}
	require.NoError(t, g.HandleSemiFinalCompletion(ctx, semi2))
	require.NotNil(t, thirdPlace.Player2ID)
	assert.Equal(t, 3, *thirdPlace.Player2ID)

	// Replaying a semi-final completion never double-places the loser.
	require.NoError(t, g.HandleSemiFinalCompletion(ctx, semi1))
	assert.Equal(t, 4, *thirdPlace.Player1ID)
	assert.Equal(t, 3, *thirdPlace.Player2ID)
}

func TestHandleSemiFinalCompletionIgnoresOtherRounds(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	g := NewSingleEliminationGenerator(fakeTxRunner{}, matchRepo, newFakeParticipantRepo(), discardLogger())

	quarter := &models.Match{
		TournamentID: 1,
		MatchType:    models.MatchTypeQuarterFinal,
		Status:       models.MatchStatusCompleted,
		WinnerID:     intPtr(1),
		LoserID:      intPtr(2),
	}
	assert.NoError(t, g.HandleSemiFinalCompletion(context.Background(), quarter))
}
