package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/service"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

// TasksHandler manages task endpoints. All routes sit behind RequireAuth, so
// a missing principal here is a programming error, not a client one.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// Create POST /api/tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	task, err := h.service.Create(c.Context(), actor, service.TaskCreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
		AssigneeID:  req.UserID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTaskResponse(task))
}

// Get GET /api/tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	task, err := h.service.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTaskResponse(task))
}

// List GET /api/tasks. Admins see every task, users only their own.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	tasks, err := h.service.List(c.Context(), actor, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(taskResponses(tasks))
}

// ListForUser GET /api/tasks/user/:userId.
func (h *TasksHandler) ListForUser(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	tasks, err := h.service.ListForUser(c.Context(), actor, c.Params("userId"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(taskResponses(tasks))
}

// ListByCompleted GET /api/tasks/completed/:completed.
func (h *TasksHandler) ListByCompleted(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	completed, err := strconv.ParseBool(c.Params("completed"))
	if err != nil {
		return apperrors.NewValidationError("completed must be true or false", nil)
	}

	tasks, err := h.service.ListByCompleted(c.Context(), actor, completed)
	if err != nil {
		return err
	}
	return c.JSON(taskResponses(tasks))
}

// ListDueBetween GET /api/tasks/user/:userId/date-range?start=&end=.
func (h *TasksHandler) ListDueBetween(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		return apperrors.NewValidationError("start must be a date (YYYY-MM-DD)", nil)
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		return apperrors.NewValidationError("end must be a date (YYYY-MM-DD)", nil)
	}

	tasks, err := h.service.ListDueBetween(c.Context(), actor, c.Params("userId"), start, end)
	if err != nil {
		return err
	}
	return c.JSON(taskResponses(tasks))
}

// Update PUT /api/tasks/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	task, err := h.service.Update(c.Context(), actor, c.Params("id"), service.TaskUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTaskResponse(task))
}

// Delete DELETE /api/tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func requireActor(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	return principal.User, nil
}

func taskResponses(tasks []domain.Task) []dto.TaskResponse {
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, dto.NewTaskResponse(&tasks[i]))
	}
	return items
}
