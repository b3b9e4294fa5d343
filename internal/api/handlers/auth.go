package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/service"
)

func (h *Handler) HandleLogin(c *gin.Context) {
	var req models.LoginCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	result, err := h.auth.Login(c, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !result.Success {
		c.AbortWithStatusJSON(http.StatusUnauthorized, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleRegister(c *gin.Context) {
	var req models.RegisterData
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if err := service.ValidateRegistration(req); err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.auth.Register(c, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !result.Success {
		c.AbortWithStatusJSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) HandleLogout(c *gin.Context) {
	session := sessionFromContext(c)
	if err := h.auth.Logout(c, session.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type meResponse struct {
	User     models.CurrentUser `json:"user"`
	LastPage string             `json:"last_page"`
}

func (h *Handler) HandleMe(c *gin.Context) {
	session := sessionFromContext(c)
	c.JSON(http.StatusOK, meResponse{
		User:     session.User,
		LastPage: session.LastPage,
	})
}

type lastPageRequest struct {
	Page string `json:"page" binding:"required"`
}

func (h *Handler) HandleSetLastPage(c *gin.Context) {
	var req lastPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	session := sessionFromContext(c)
	if err := h.auth.SetLastPage(c, session.ID, req.Page); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
