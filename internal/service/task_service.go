package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

// TaskCreateInput captures fields for a new task. AssigneeID is honored for
// ADMIN actors only.
type TaskCreateInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Completed   bool
	AssigneeID  string
}

// TaskUpdateInput captures mutable fields of a task.
type TaskUpdateInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Completed   *bool
}

// TaskService coordinates task CRUD with ownership enforcement: a USER only
// ever sees or mutates their own tasks, an ADMIN sees everything.
type TaskService struct {
	tasks      repository.TaskRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTaskService builds the service.
func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TaskService {
	return &TaskService{tasks: tasks, users: users, dispatcher: dispatcher, logger: logger}
}

// Create stores a new task owned by the actor, or by the assignee when an
// ADMIN assigns one.
func (s *TaskService) Create(ctx context.Context, actor *domain.User, input TaskCreateInput) (*domain.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	ownerID := actor.ID
	if input.AssigneeID != "" && input.AssigneeID != actor.ID {
		if !actor.IsAdmin() {
			return nil, apperrors.NewForbidden("only admins may assign tasks to other users")
		}
		assignee, err := s.users.GetByID(ctx, input.AssigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("assignee does not exist", map[string]any{"user_id": input.AssigneeID})
			}
			return nil, err
		}
		ownerID = assignee.ID
	}

	task := &domain.Task{
		UserID:      ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Completed:   input.Completed,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskCreated,
		UserID:  ownerID,
		Payload: events.TaskCreatedPayload{TaskID: task.ID, Title: task.Title},
	})
	return task, nil
}

// Get loads a task the actor may see.
func (s *TaskService) Get(ctx context.Context, actor *domain.User, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"id": taskID})
		}
		return nil, err
	}
	if !s.canAccess(actor, task) {
		return nil, apperrors.NewForbidden("task belongs to another user")
	}
	return task, nil
}

// List returns the actor's tasks, or every task for an ADMIN.
func (s *TaskService) List(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.Task, error) {
	filter := repository.TaskFilter{Limit: limit, Offset: offset}
	if !actor.IsAdmin() {
		filter.UserID = &actor.ID
	}
	return s.tasks.ListWithFilter(ctx, filter)
}

// ListForUser returns another user's tasks; non-admins may only name themselves.
func (s *TaskService) ListForUser(ctx context.Context, actor *domain.User, userID string, limit, offset int) ([]domain.Task, error) {
	if !actor.IsAdmin() && actor.ID != userID {
		return nil, apperrors.NewForbidden("cannot list tasks of another user")
	}
	return s.tasks.ListWithFilter(ctx, repository.TaskFilter{UserID: &userID, Limit: limit, Offset: offset})
}

// ListByCompleted filters the actor's own tasks by completion state.
func (s *TaskService) ListByCompleted(ctx context.Context, actor *domain.User, completed bool) ([]domain.Task, error) {
	return s.tasks.ListWithFilter(ctx, repository.TaskFilter{UserID: &actor.ID, Completed: &completed})
}

// ListDueBetween returns a user's tasks due inside [start, end]; non-admins
// may only name themselves.
func (s *TaskService) ListDueBetween(ctx context.Context, actor *domain.User, userID string, start, end time.Time) ([]domain.Task, error) {
	if !actor.IsAdmin() && actor.ID != userID {
		return nil, apperrors.NewForbidden("cannot list tasks of another user")
	}
	return s.tasks.ListWithFilter(ctx, repository.TaskFilter{UserID: &userID, DueFrom: &start, DueTo: &end})
}

// Update mutates a task the actor owns (or any task for an ADMIN).
func (s *TaskService) Update(ctx context.Context, actor *domain.User, taskID string, input TaskUpdateInput) (*domain.Task, error) {
	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	wasCompleted := task.Completed
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("title is required", nil)
		}
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if !wasCompleted && task.Completed {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventTaskCompleted,
			UserID:  task.UserID,
			Payload: events.TaskCompletedPayload{TaskID: task.ID},
		})
	}
	return task, nil
}

// Delete removes a task the actor owns (or any task for an ADMIN).
func (s *TaskService) Delete(ctx context.Context, actor *domain.User, taskID string) error {
	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskDeleted,
		UserID:  task.UserID,
		Payload: events.TaskDeletedPayload{TaskID: task.ID},
	})
	return nil
}

func (s *TaskService) canAccess(actor *domain.User, task *domain.Task) bool {
	return actor.IsAdmin() || task.UserID == actor.ID
}

func (s *TaskService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
