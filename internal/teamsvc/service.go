package teamsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/best-lviv/ctf-bot/internal/gate"
	"github.com/best-lviv/ctf-bot/internal/models"
	"github.com/best-lviv/ctf-bot/internal/notify"
	"github.com/best-lviv/ctf-bot/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrTeamFull and ErrWrongPassword are the recoverable join failures:
	// reported to the user, nothing changes.
	ErrTeamFull      = errors.New("team is full")
	ErrWrongPassword = errors.New("wrong team password")

	// ErrNoTeam is returned by operations that require membership.
	ErrNoTeam = errors.New("participant has no team")
)

// IsCapacityOrAuth reports whether err is a capacity or password failure.
func IsCapacityOrAuth(err error) bool {
	return errors.Is(err, ErrTeamFull) || errors.Is(err, ErrWrongPassword)
}

// Repository is the storage surface the service needs. The conditional
// UpdateTeamMembers call is the only serialization point for concurrent
// membership changes.
type Repository interface {
	GetParticipant(ctx context.Context, userID int64) (*models.Participant, error)
	SetParticipantTeam(ctx context.Context, userID int64, teamID *string) error

	CreateTeam(ctx context.Context, team *models.Team) (bool, error)
	GetTeamByName(ctx context.Context, name string) (*models.Team, error)
	GetTeamByID(ctx context.Context, id string) (*models.Team, error)
	UpdateTeamMembers(ctx context.Context, team *models.Team) (bool, error)
	UpdateTeamStatus(ctx context.Context, teamID string, testTaskPassed, isParticipant bool) (bool, error)
}

// Service owns the participant.team_id <-> team.members edge pair. Nothing
// else writes either side.
type Service struct {
	repo             Repository
	notifier         notify.Notifier
	notifyTimeout    time.Duration
	organizerContact string
}

func New(repo Repository, notifier notify.Notifier, notifyTimeout time.Duration, organizerContact string) *Service {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &Service{
		repo:             repo,
		notifier:         notifier,
		notifyTimeout:    notifyTimeout,
		organizerContact: organizerContact,
	}
}

// A version conflict means another membership change landed between our
// read and write; the whole read-check-write is retried from scratch so the
// capacity and password checks always run against the current document.
const maxUpdateAttempts = 5

// CreateOrJoin makes userID a member of the named team, creating the team
// if it does not exist. created reports which of the two happened. Joining
// fails with ErrTeamFull or ErrWrongPassword; concurrent joins against the
// same team can never push it past MaxTeamSize.
func (s *Service) CreateOrJoin(ctx context.Context, teamName string, userID int64, password string) (*models.Team, bool, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		team, err := s.repo.GetTeamByName(ctx, teamName)
		if err != nil && !storage.IsNotFound(err) {
			return nil, false, fmt.Errorf("looking up team %q: %w", teamName, err)
		}

		if team == nil || storage.IsNotFound(err) {
			team = &models.Team{
				ID:       uuid.New().String(),
				Name:     teamName,
				Password: password,
				Members:  []int64{userID},
			}
			created, err := s.repo.CreateTeam(ctx, team)
			if err != nil {
				return nil, false, fmt.Errorf("creating team %q: %w", teamName, err)
			}
			if !created {
				// Lost the creation race, join the winner's team.
				continue
			}
			if err := s.repo.SetParticipantTeam(ctx, userID, &team.ID); err != nil {
				return nil, false, fmt.Errorf("attaching creator to team: %w", err)
			}
			return team, true, nil
		}

		if team.HasMember(userID) {
			return team, false, nil
		}
		if team.IsFull() {
			return nil, false, ErrTeamFull
		}
		if team.Password != "" && team.Password != password {
			return nil, false, ErrWrongPassword
		}

		team.Members = append(team.Members, userID)
		matched, err := s.repo.UpdateTeamMembers(ctx, team)
		if err != nil {
			return nil, false, fmt.Errorf("adding member to team %q: %w", teamName, err)
		}
		if !matched {
			continue
		}
		team.Version++

		if err := s.repo.SetParticipantTeam(ctx, userID, &team.ID); err != nil {
			return nil, false, fmt.Errorf("attaching participant to team: %w", err)
		}

		s.notifyJoined(ctx, team, userID)
		return team, false, nil
	}

	return nil, false, fmt.Errorf("joining team %q: too many conflicting updates", teamName)
}

// Leave removes userID from their team and clears the back-reference.
// Returns ErrNoTeam when there is nothing to leave. The team row is kept
// even when it ends up empty.
func (s *Service) Leave(ctx context.Context, userID int64) (*models.Team, error) {
	p, err := s.repo.GetParticipant(ctx, userID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrNoTeam
		}
		return nil, fmt.Errorf("looking up participant: %w", err)
	}
	if p.TeamID == nil {
		return nil, ErrNoTeam
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		team, err := s.repo.GetTeamByID(ctx, *p.TeamID)
		if err != nil {
			if storage.IsNotFound(err) {
				// Dangling reference; clear it and report no team.
				if err := s.repo.SetParticipantTeam(ctx, userID, nil); err != nil {
					return nil, fmt.Errorf("detaching participant: %w", err)
				}
				return nil, ErrNoTeam
			}
			return nil, fmt.Errorf("looking up team: %w", err)
		}

		members := make([]int64, 0, len(team.Members))
		for _, id := range team.Members {
			if id != userID {
				members = append(members, id)
			}
		}
		team.Members = members

		matched, err := s.repo.UpdateTeamMembers(ctx, team)
		if err != nil {
			return nil, fmt.Errorf("removing member from team %q: %w", team.Name, err)
		}
		if !matched {
			continue
		}
		team.Version++

		if err := s.repo.SetParticipantTeam(ctx, userID, nil); err != nil {
			return nil, fmt.Errorf("detaching participant: %w", err)
		}

		s.notifyLeft(ctx, team)
		return team, nil
	}

	return nil, fmt.Errorf("leaving team: too many conflicting updates")
}

// GetStatus reads the team flags; a missing team defaults both to false.
func (s *Service) GetStatus(ctx context.Context, teamID string) (gate.TeamStatus, error) {
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		if storage.IsNotFound(err) {
			return gate.TeamStatus{}, nil
		}
		return gate.TeamStatus{}, fmt.Errorf("looking up team: %w", err)
	}
	return gate.TeamStatus{
		IsParticipant:  team.IsParticipant,
		TestTaskPassed: team.TestTaskPassed,
	}, nil
}

// SetTestTaskStatus records the test-task result. Passing implies
// admission, so setting true forces is_participant as well; setting false
// leaves admission untouched.
func (s *Service) SetTestTaskStatus(ctx context.Context, teamID string, passed bool) error {
	if passed {
		if _, err := s.repo.UpdateTeamStatus(ctx, teamID, true, true); err != nil {
			return err
		}
		return nil
	}
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("looking up team: %w", err)
	}
	_, err = s.repo.UpdateTeamStatus(ctx, teamID, false, team.IsParticipant)
	return err
}

// SetParticipantStatus overrides admission directly, used administratively.
func (s *Service) SetParticipantStatus(ctx context.Context, teamID string, flag bool) error {
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("looking up team: %w", err)
	}
	_, err = s.repo.UpdateTeamStatus(ctx, teamID, team.TestTaskPassed, flag)
	return err
}

// SetStatusByName sets both flags at once by team name, for the admin
// surface. The admission invariant still holds: a passed test task forces
// is_participant.
func (s *Service) SetStatusByName(ctx context.Context, teamName string, testTaskPassed, isParticipant bool) (bool, error) {
	team, err := s.repo.GetTeamByName(ctx, teamName)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("looking up team %q: %w", teamName, err)
	}
	if testTaskPassed {
		isParticipant = true
	}
	return s.repo.UpdateTeamStatus(ctx, team.ID, testTaskPassed, isParticipant)
}

// MemberNames resolves the display names of a team's members. Members whose
// participant row is gone are skipped.
func (s *Service) MemberNames(ctx context.Context, team *models.Team) []string {
	names := make([]string, 0, len(team.Members))
	for _, id := range team.Members {
		p, err := s.repo.GetParticipant(ctx, id)
		if err != nil {
			if !storage.IsNotFound(err) {
				logrus.Errorf("failed to resolve member %d of team %q: %v", id, team.Name, err)
			}
			continue
		}
		names = append(names, p.Name)
	}
	return names
}

func (s *Service) notifyJoined(ctx context.Context, team *models.Team, newMemberID int64) {
	name := "Новий учасник"
	if p, err := s.repo.GetParticipant(ctx, newMemberID); err == nil {
		name = p.Name
	}
	text := fmt.Sprintf(
		"Вітаю, до вашої команди *%s* доєднався(-лась) *%s*! Якщо ви не знаєте, хто це, зверніться до %s.",
		team.Name, name, s.organizerContact,
	)
	s.notifyMembers(ctx, team, newMemberID, text)
}

func (s *Service) notifyLeft(ctx context.Context, team *models.Team) {
	text := fmt.Sprintf("Учасник залишив команду *%s*. 😔", team.Name)
	s.notifyMembers(ctx, team, 0, text)
}

// notifyMembers fans text out to every member except skipID. Per-recipient
// failures are logged and swallowed: a broken recipient never fails the
// membership change that triggered the notification.
func (s *Service) notifyMembers(ctx context.Context, team *models.Team, skipID int64, text string) {
	for _, memberID := range team.Members {
		if memberID == skipID {
			continue
		}
		p, err := s.repo.GetParticipant(ctx, memberID)
		if err != nil {
			logrus.Warnf("no participant row for member %d of team %q: %v", memberID, team.Name, err)
			continue
		}
		if p.ChatID == 0 {
			logrus.Warnf("no chat for member %d of team %q", memberID, team.Name)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		err = s.notifier.SendText(sendCtx, p.ChatID, text)
		cancel()

		switch {
		case err == nil:
		case errors.Is(err, notify.ErrUnreachable):
			logrus.Warnf("member %d of team %q is unreachable", memberID, team.Name)
		default:
			logrus.Errorf("failed to notify member %d of team %q: %v", memberID, team.Name, err)
		}
	}
}
