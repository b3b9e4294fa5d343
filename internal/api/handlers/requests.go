package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TWRT/board-sync/internal/service"
)

const (
	screenHeader   = "X-Client-Screen"
	timezoneHeader = "X-Client-Timezone"
)

type requestBody struct {
	service.StakeholderRequest
	Screen   string `json:"screen"`
	Timezone string `json:"timezone"`
}

func clientFingerprint(c *gin.Context, screen, timezone string) string {
	if screen == "" {
		screen = c.GetHeader(screenHeader)
	}
	if timezone == "" {
		timezone = c.GetHeader(timezoneHeader)
	}
	return service.Fingerprint(c.Request.UserAgent(), screen, timezone)
}

// HandleSubmitRequest accepts the public stakeholder form.
func (h *Handler) HandleSubmitRequest(c *gin.Context) {
	var req requestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.requests.Submit(c, req.StakeholderRequest, clientFingerprint(c, req.Screen, req.Timezone))
	if err != nil {
		h.fail(c, err)
		return
	}
	if task == nil {
		c.JSON(http.StatusAccepted, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "task_id": task.ID})
}

type limitResponse struct {
	service.LimitStatus
	ResetsIn string `json:"resets_in"`
}

func (h *Handler) HandleGetLimit(c *gin.Context) {
	status := h.rateLimit.Check(c, clientFingerprint(c, c.Query("screen"), c.Query("timezone")))
	c.JSON(http.StatusOK, limitResponse{
		LimitStatus: status,
		ResetsIn:    h.rateLimit.TimeUntilResetString(),
	})
}
