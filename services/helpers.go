package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/storage"
)

func validateTournamentDates(reg, start, end time.Time) error {
	if reg.IsZero() || start.IsZero() || end.IsZero() {
		return ErrTournamentDatesRequired
	}
	if reg.After(start) {
		return fmt.Errorf("%w: registration date (%s) cannot be after start date (%s)",
			ErrTournamentInvalidRegDate, reg.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start date (%s) must be before end date (%s)",
			ErrTournamentInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusSoon:         {models.StatusRegistration, models.StatusCanceled},
		models.StatusRegistration: {models.StatusActive, models.StatusCanceled},
		models.StatusActive:       {models.StatusCompleted, models.StatusCanceled},
		models.StatusCompleted:    {},
		models.StatusCanceled:     {},
	}
	for _, status := range allowed[current] {
		if next == status {
			return true
		}
	}
	return false
}

func populateTournamentLogoURL(t *models.Tournament, uploader storage.FileUploader) {
	if t == nil || t.LogoKey == nil || *t.LogoKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*t.LogoKey); url != "" {
		t.LogoURL = &url
	}
}

func populateUserLogoURL(u *models.User, uploader storage.FileUploader) {
	if u == nil || u.LogoKey == nil || *u.LogoKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*u.LogoKey); url != "" {
		u.LogoURL = &url
	}
}

// sortParticipantsForStandings orders by final position when assigned, then
// by seed, then by registration id.
func sortParticipantsForStandings(participants []*models.Participant) {
	intOr := func(v *int, fallback int) int {
		if v == nil {
			return fallback
		}
		return *v
	}
	sort.SliceStable(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if ap, bp := intOr(a.FinalPosition, math.MaxInt), intOr(b.FinalPosition, math.MaxInt); ap != bp {
			return ap < bp
		}
		if as, bs := intOr(a.Seed, math.MaxInt), intOr(b.Seed, math.MaxInt); as != bs {
			return as < bs
		}
		return a.ID < b.ID
	})
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type %q", contentType)
	}
}
