package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dnsforyou/idgw/internal/keycloak"
	"github.com/dnsforyou/idgw/internal/observability"
	"github.com/dnsforyou/idgw/internal/server/http/middleware"
	"github.com/dnsforyou/idgw/internal/store"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password" binding:"required"`
}

func (r *Router) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, "Invalid request payload")
		return
	}

	respond(c, r.service.Login(c.Request.Context(), req.Username, req.Password), "")
}

func (r *Router) logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, "Invalid request payload")
		return
	}

	respondAck(c, r.service.Logout(c.Request.Context(), req.RefreshToken), "Logged out successfully")
}

func (r *Router) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, "Invalid request payload")
		return
	}

	result := r.service.CreateUser(c.Request.Context(), keycloak.NewUser{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if result.IsFailure() {
		respondFail(c, result.Message())
		return
	}

	userID := result.Data()
	r.putProjection(c, store.UserProjection{
		ID:        userID,
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Enabled:   true,
		UpdatedAt: time.Now().UTC(),
	})

	respondOK(c, userID, "User created successfully")
}

// putProjection updates the local user projection. Projection maintenance is
// best effort; a store failure never fails the request.
func (r *Router) putProjection(c *gin.Context, user store.UserProjection) {
	if r.store == nil {
		return
	}
	if err := r.store.Put(c.Request.Context(), user); err != nil {
		r.logger.Warn("failed to update user projection",
			observability.String("requestId", middleware.GetRequestID(c)),
			observability.String("userId", user.ID),
			observability.Error(err),
		)
	}
}
