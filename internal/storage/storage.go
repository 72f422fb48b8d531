package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/best-lviv/ctf-bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Storage struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&models.Participant{},
		&models.Team{},
		&models.CV{},
		&models.EventState{},
	); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (s *Storage) GetParticipant(ctx context.Context, userID int64) (*models.Participant, error) {
	var p models.Participant
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, fmt.Errorf("getting participant: %w", err)
	}
	return &p, nil
}

func (s *Storage) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	var count int64
	if err := s.db.
		WithContext(ctx).
		Model(&models.Participant{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error; err != nil {
		return false, fmt.Errorf("counting participants: %w", err)
	}
	return count > 0, nil
}

// UpsertParticipant inserts the participant or fully replaces an existing
// row with the same user id. Registration restarted after the contact step
// re-runs through here instead of tripping the primary key.
func (s *Storage) UpsertParticipant(ctx context.Context, p *models.Participant) error {
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(p).
		Error; err != nil {
		return fmt.Errorf("upserting participant: %w", err)
	}
	return nil
}

func (s *Storage) SetDataConsent(ctx context.Context, userID int64) error {
	if err := s.db.
		WithContext(ctx).
		Model(&models.Participant{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"data_consent": true}).
		Error; err != nil {
		return fmt.Errorf("updating data consent: %w", err)
	}
	return nil
}

func (s *Storage) SetParticipantTeam(ctx context.Context, userID int64, teamID *string) error {
	if err := s.db.
		WithContext(ctx).
		Model(&models.Participant{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"team_id": teamID}).
		Error; err != nil {
		return fmt.Errorf("updating participant team: %w", err)
	}
	return nil
}

func (s *Storage) DeleteParticipant(ctx context.Context, userID int64) error {
	if err := s.db.
		WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Participant{}).
		Error; err != nil {
		return fmt.Errorf("deleting participant: %w", err)
	}
	return nil
}

func (s *Storage) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	var result []*models.Participant
	if err := s.db.WithContext(ctx).Find(&result).Error; err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return result, nil
}

// CreateTeam inserts a new team, reporting created=false when a team with
// the same name already exists.
func (s *Storage) CreateTeam(ctx context.Context, team *models.Team) (bool, error) {
	res := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(team)
	if res.Error != nil {
		return false, fmt.Errorf("creating team: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Storage) GetTeamByName(ctx context.Context, name string) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&team).Error; err != nil {
		return nil, fmt.Errorf("getting team by name: %w", err)
	}
	return &team, nil
}

func (s *Storage) GetTeamByID(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&team).Error; err != nil {
		return nil, fmt.Errorf("getting team by id: %w", err)
	}
	return &team, nil
}

func (s *Storage) ListTeams(ctx context.Context) ([]*models.Team, error) {
	var result []*models.Team
	if err := s.db.WithContext(ctx).Find(&result).Error; err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return result, nil
}

// UpdateTeamMembers writes the member list conditionally on the version the
// caller read, bumping the version on match. matched=false means the row
// changed underneath the caller and the whole read-check-write must be
// retried.
func (s *Storage) UpdateTeamMembers(ctx context.Context, team *models.Team) (bool, error) {
	res := s.db.
		WithContext(ctx).
		Model(&models.Team{}).
		Where("id = ? AND version = ?", team.ID, team.Version).
		Updates(map[string]any{
			"members": team.Members,
			"version": team.Version + 1,
		})
	if res.Error != nil {
		return false, fmt.Errorf("updating team members: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Storage) UpdateTeamStatus(ctx context.Context, teamID string, testTaskPassed, isParticipant bool) (bool, error) {
	res := s.db.
		WithContext(ctx).
		Model(&models.Team{}).
		Where("id = ?", teamID).
		Updates(map[string]any{
			"test_task_passed": testTaskPassed,
			"is_participant":   isParticipant,
		})
	if res.Error != nil {
		return false, fmt.Errorf("updating team status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Storage) GetPhase(ctx context.Context) (string, error) {
	var state models.EventState
	err := s.db.
		WithContext(ctx).
		Where("id = ?", models.EventStateID).
		First(&state).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting event state: %w", err)
	}
	return state.Phase, nil
}

func (s *Storage) SetPhase(ctx context.Context, phase string) error {
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"phase"}),
		}).
		Create(&models.EventState{ID: models.EventStateID, Phase: phase}).
		Error; err != nil {
		return fmt.Errorf("setting event state: %w", err)
	}
	return nil
}

func (s *Storage) GetCV(ctx context.Context, userID int64) (*models.CV, error) {
	var cv models.CV
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cv).Error; err != nil {
		return nil, fmt.Errorf("getting cv: %w", err)
	}
	return &cv, nil
}

func (s *Storage) PutCV(ctx context.Context, cv *models.CV) error {
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(cv).
		Error; err != nil {
		return fmt.Errorf("saving cv: %w", err)
	}
	return nil
}
