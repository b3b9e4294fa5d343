package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/service"
)

// HandleGetTasks lists the board, filtered by ?q= and ?status= when given.
func (h *Handler) HandleGetTasks(c *gin.Context) {
	tasks := h.tasks.Search(c.Query("q"))
	if status := models.TaskStatus(c.Query("status")); status != "" {
		filtered := []models.Task{}
		for _, t := range tasks {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) HandleGetBoard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"columns": h.tasks.GroupedByColumn()})
}

func (h *Handler) HandleGetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.tasks.Summary())
}

func (h *Handler) HandleGetTask(c *gin.Context) {
	task, ok := h.tasks.TaskByID(c.Param("id"))
	if !ok {
		h.fail(c, service.ErrTaskNotFound)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) HandleCreateTask(c *gin.Context) {
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	if err := in.Validate(time.Now(), true); err != nil {
		h.fail(c, err)
		return
	}

	session := sessionFromContext(c)
	creator := &models.Creator{
		Name:  session.User.Name,
		Email: session.User.Email,
		Type:  models.CreatorInternal,
	}

	task, err := h.tasks.Create(c, in.Sanitized(), creator)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// HandleUpdateTask edits the form fields and keeps id, creator and created_at.
func (h *Handler) HandleUpdateTask(c *gin.Context) {
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	if err := in.Validate(time.Now(), false); err != nil {
		h.fail(c, err)
		return
	}

	task, ok := h.tasks.TaskByID(c.Param("id"))
	if !ok {
		h.fail(c, service.ErrTaskNotFound)
		return
	}

	in = in.Sanitized()
	task.Name = in.Name
	task.Description = in.Description
	task.AssignedTo = models.NewAssignees(in.AssignedTo...)
	task.DueDate = in.DueDate
	task.Prio = in.Prio
	task.Category = in.Category
	task.Subtasks = in.Subtasks
	if in.Status != "" {
		task.Status = in.Status
	}

	if err := h.tasks.Update(c, task); err != nil {
		h.fail(c, err)
		return
	}
	updated, _ := h.tasks.TaskByID(task.ID)
	c.JSON(http.StatusOK, updated)
}

type statusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required"`
}

func (h *Handler) HandleSetTaskStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateStatus(c, c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) HandleToggleSubtask(c *gin.Context) {
	subtaskID, err := strconv.Atoi(strings.TrimSpace(c.Param("sid")))
	if err != nil {
		abort(c, newBadRequestError("invalid subtask id"))
		return
	}

	task, err := h.tasks.ToggleSubtask(c, c.Param("id"), subtaskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) HandleDeleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
