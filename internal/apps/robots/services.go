package robots

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/volm-robotics/volm-backend/internal/apperror"
	"github.com/volm-robotics/volm-backend/internal/identity"
)

const (
	MaxRobotsPerUser = 2

	DefaultName  = "VÖLM Robot"
	DefaultModel = "VLM-2024"
)

// Run states.
const (
	StatusOnline = "online"

	TaskIdle     = "idle"
	TaskCleaning = "cleaning"
	TaskPaused   = "paused"
)

var (
	ErrRobotNotFound = apperror.NotFound("Robot not found")
	ErrQuotaExceeded = apperror.Validation("Maximum 2 robots allowed")
	ErrNoFields      = apperror.Validation("No fields to update")
	ErrInvalidAction = apperror.Validation("Invalid action. Use: start, stop, pause")
	ErrNoCleaning    = apperror.Validation("This robot does not have cleaning capability")
)

type runState struct {
	task   string
	active bool
}

var controlActions = map[string]runState{
	"start": {TaskCleaning, true},
	"pause": {TaskPaused, true},
	"stop":  {TaskIdle, false},
}

type RobotService struct {
	db *gorm.DB
}

func NewRobotService(db *gorm.DB) *RobotService {
	return &RobotService{db: db}
}

// List returns the caller's live robots, newest first.
func (s *RobotService) List(ctx context.Context, userID int64) ([]Robot, error) {
	robots := []Robot{}
	err := s.db.WithContext(ctx).
		Scopes(identity.OwnedBy(userID), identity.NotArchived).
		Order("created_at DESC").
		Find(&robots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list robots: %w", err)
	}
	return robots, nil
}

func (s *RobotService) Get(ctx context.Context, userID, robotID int64) (*Robot, error) {
	var robot Robot
	err := s.db.WithContext(ctx).
		Scopes(identity.OwnedBy(userID), identity.NotArchived).
		Where("id = ?", robotID).
		Take(&robot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRobotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get robot: %w", err)
	}
	return &robot, nil
}

// Connect registers a new robot for the user. The count and the insert run
// under a per-user advisory lock so concurrent connects cannot exceed the
// quota.
func (s *RobotService) Connect(ctx context.Context, userID int64, req *ConnectRequest) (*Robot, error) {
	name, model, hasCleaning := DefaultName, DefaultModel, true
	if req.Name != nil {
		name = *req.Name
	}
	if req.Model != nil {
		model = *req.Model
	}
	if req.HasCleaning != nil {
		hasCleaning = *req.HasCleaning
	}

	var robot *Robot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", userID).Error; err != nil {
			return fmt.Errorf("failed to lock robot quota: %w", err)
		}

		var count int64
		if err := tx.Model(&Robot{}).
			Scopes(identity.OwnedBy(userID), identity.NotArchived).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count robots: %w", err)
		}
		if count >= MaxRobotsPerUser {
			return ErrQuotaExceeded
		}

		robot = &Robot{
			UserID:       userID,
			Name:         fmt.Sprintf("%s #%d", name, count+1),
			Model:        model,
			HasCleaning:  hasCleaning,
			BatteryLevel: 100,
			Status:       StatusOnline,
			CurrentTask:  TaskIdle,
			IsActive:     false,
			Archived:     new(bool),
		}
		if err := tx.Create(robot).Error; err != nil {
			return fmt.Errorf("failed to create robot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return robot, nil
}

// Update applies a partial update. Ownership is checked without the archived
// filter, so archived robots can still be updated.
func (s *RobotService) Update(ctx context.Context, userID, robotID int64, req *UpdateRequest) (*Robot, error) {
	robot, err := s.owned(ctx, userID, robotID)
	if err != nil {
		return nil, err
	}

	cols := req.columns()
	if len(cols) == 0 {
		return nil, ErrNoFields
	}
	return s.apply(ctx, robot, cols)
}

// Control moves the robot between run states. The action is validated before
// the robot is looked up.
func (s *RobotService) Control(ctx context.Context, userID, robotID int64, action string) (*Robot, error) {
	state, ok := controlActions[action]
	if !ok {
		return nil, ErrInvalidAction
	}

	robot, err := s.owned(ctx, userID, robotID)
	if err != nil {
		return nil, err
	}
	if action == "start" && !robot.HasCleaning {
		return nil, ErrNoCleaning
	}

	return s.apply(ctx, robot, map[string]interface{}{
		"current_task": state.task,
		"is_active":    state.active,
	})
}

// Delete archives the robot. Deleting an already archived robot succeeds.
func (s *RobotService) Delete(ctx context.Context, userID, robotID int64) error {
	result := s.db.WithContext(ctx).Model(&Robot{}).
		Scopes(identity.OwnedBy(userID)).
		Where("id = ?", robotID).
		Updates(map[string]interface{}{"archived": true})
	if result.Error != nil {
		return fmt.Errorf("failed to delete robot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRobotNotFound
	}
	return nil
}

// owned loads the robot regardless of its archived flag.
func (s *RobotService) owned(ctx context.Context, userID, robotID int64) (*Robot, error) {
	var robot Robot
	err := s.db.WithContext(ctx).
		Scopes(identity.OwnedBy(userID)).
		Where("id = ?", robotID).
		Take(&robot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRobotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find robot: %w", err)
	}
	return &robot, nil
}

// apply writes cols (updated_at is stamped by gorm) and reloads the row from
// the RETURNING clause.
func (s *RobotService) apply(ctx context.Context, robot *Robot, cols map[string]interface{}) (*Robot, error) {
	result := s.db.WithContext(ctx).Model(robot).
		Clauses(clause.Returning{}).
		Scopes(identity.OwnedBy(robot.UserID)).
		Updates(cols)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update robot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRobotNotFound
	}
	return robot, nil
}
