package handlers

import (
	"net/http"

	"github.com/abcdjack1/todolist/internal/dto"
	apperrors "github.com/abcdjack1/todolist/internal/errors"
	"github.com/abcdjack1/todolist/internal/repository"
	"github.com/abcdjack1/todolist/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type TaskHandler struct {
	taskService *services.TaskService
	logger      *log.Logger
}

func NewTaskHandler(taskService *services.TaskService, logger *log.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask appends a new task to the to-do list
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Save(c.Request.Context(), services.CreateTaskInput{
		Message:      req.Message,
		Priority:     req.Priority,
		ReminderTime: req.ReminderTime.TimePtr(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// UpdateTask replaces the editable fields of a task. Omitting reminderTime
// removes the stored reminder.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), c.Param("id"), services.UpdateTaskInput{
		Message:   &req.Message,
		Completed: req.Completed,
		Priority:  req.Priority,
		Order:     req.Order,
		Reminder:  req.ReminderUpdate(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// CompleteTask moves a task to the done list
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	task, err := h.taskService.CompleteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if _, err := h.taskService.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListToDoTasks returns open tasks in display order
func (h *TaskHandler) ListToDoTasks(c *gin.Context) {
	tasks, err := h.taskService.ListNotDone(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{Tasks: dto.ToTaskDTOs(tasks)})
}

// ListDoneTasks returns completed tasks, most recently updated first
func (h *TaskHandler) ListDoneTasks(c *gin.Context) {
	tasks, err := h.taskService.ListDone(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{Tasks: dto.ToTaskDTOs(tasks)})
}

// ReorderTasks applies a bulk reorder. On a short match the client gets a
// DataNotFoundError and should reload the to-do list.
func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	var pairs []repository.OrderPair
	if err := c.ShouldBindJSON(&pairs); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.taskService.Reorder(c.Request.Context(), pairs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReorderResponse{Modified: result.Modified})
}

func (h *TaskHandler) respondError(c *gin.Context, err error) {
	if kind, ok := apperrors.KindOf(err); !ok || kind == apperrors.KindDatabase {
		h.logger.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("task request failed")
	}
	apperrors.RespondWithError(c, err)
}
