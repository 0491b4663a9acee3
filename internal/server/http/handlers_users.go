package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dnsforyou/idgw/internal/keycloak"
	"github.com/dnsforyou/idgw/internal/observability"
	"github.com/dnsforyou/idgw/internal/server/http/middleware"
	"github.com/dnsforyou/idgw/internal/store"
)

type updateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (r *Router) userByID(c *gin.Context) {
	respond(c, r.service.UserByID(c.Request.Context(), c.Param("userId")), "")
}

func (r *Router) userByUsername(c *gin.Context) {
	respond(c, r.service.UserByUsername(c.Request.Context(), c.Param("username")), "")
}

func (r *Router) userByEmail(c *gin.Context) {
	respond(c, r.service.UserByEmail(c.Request.Context(), c.Param("email")), "")
}

func (r *Router) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, "Invalid request payload")
		return
	}

	userID := c.Param("userId")
	result := r.service.UpdateUser(c.Request.Context(), userID, keycloak.UserUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if result.IsFailure() {
		respondFail(c, result.Message())
		return
	}

	// Refresh the projection from the provider so the stored copy reflects
	// exactly what the update produced.
	if fetched := r.service.UserByID(c.Request.Context(), userID); fetched.IsSuccess() {
		user := fetched.Data()
		r.putProjection(c, store.UserProjection{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Enabled:   user.Enabled,
			UpdatedAt: time.Now().UTC(),
		})
	}

	respondMessage(c, "User updated successfully")
}

func (r *Router) deleteUser(c *gin.Context) {
	userID := c.Param("userId")

	result := r.service.DeleteUser(c.Request.Context(), userID)
	if result.IsFailure() {
		respondFail(c, result.Message())
		return
	}

	if r.store != nil {
		if err := r.store.Delete(c.Request.Context(), userID); err != nil {
			r.logger.Warn("failed to delete user projection",
				observability.String("requestId", middleware.GetRequestID(c)),
				observability.String("userId", userID),
				observability.Error(err),
			)
		}
	}

	respondMessage(c, "User deleted successfully")
}
