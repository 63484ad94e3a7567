package brackets

import (
	"context"
	"fmt"
	"sort"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
)

// SeedAssignment binds a participant to a seed number and the rating the
// seed was derived from. Assignments live for a single generation pass.
type SeedAssignment struct {
	Participant *models.Participant
	Seed        int
	Rating      float64
}

// Seeder ranks eligible participants and assigns sequential seed numbers.
type Seeder interface {
	Seed(ctx context.Context, exec repositories.SQLExecutor, participants []*models.Participant) ([]SeedAssignment, error)
}

// RatingSeeder is traditional seeding: rating descending, seed 1 for the
// strongest player. Exactly equal ratings fall back to registration order
// (CreatedAt, then id) so the seed order is a strict total order.
type RatingSeeder struct {
	participantRepo repositories.ParticipantRepository
}

func NewRatingSeeder(participantRepo repositories.ParticipantRepository) *RatingSeeder {
	return &RatingSeeder{participantRepo: participantRepo}
}

// Seed sorts the given participants and persists the assigned seed back onto
// each participant row. The seeder owns the seed column for the duration of
// a generation pass; nothing else writes it.
func (s *RatingSeeder) Seed(ctx context.Context, exec repositories.SQLExecutor, participants []*models.Participant) ([]SeedAssignment, error) {
	if len(participants) == 0 {
		return []SeedAssignment{}, nil
	}

	ranked := make([]*models.Participant, len(participants))
	copy(ranked, participants)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
		}
		return ranked[i].ID < ranked[j].ID
	})

	assignments := make([]SeedAssignment, 0, len(ranked))
	for i, p := range ranked {
		seed := i + 1
		if err := s.participantRepo.UpdateSeed(ctx, exec, p.ID, seed); err != nil {
			return nil, fmt.Errorf("failed to persist seed %d for participant %d: %w", seed, p.ID, err)
		}
		p.Seed = &seed
		assignments = append(assignments, SeedAssignment{
			Participant: p,
			Seed:        seed,
			Rating:      p.Rating,
		})
	}
	return assignments, nil
}
