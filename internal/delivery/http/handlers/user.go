package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/apierr"
	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
)

type UserHandler struct {
	users UserService
	reset ResetService
}

func NewUserHandler(users UserService, reset ResetService) *UserHandler {
	return &UserHandler{users: users, reset: reset}
}

// GET /me
func (h *UserHandler) GetMe(c *gin.Context) {
	me, err := h.users.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"me": me})
}

// DELETE /me/progress
func (h *UserHandler) ResetProgress(c *gin.Context) {
	if err := h.reset.ResetUser(c.Request.Context(), middleware.UserID(c)); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
