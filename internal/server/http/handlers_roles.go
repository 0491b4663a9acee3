package http

import "github.com/gin-gonic/gin"

type assignRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

func (r *Router) realmRoles(c *gin.Context) {
	respond(c, r.service.RealmRoles(c.Request.Context()), "")
}

func (r *Router) assignRoles(c *gin.Context) {
	var req assignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, "Invalid request payload")
		return
	}

	result := r.service.AssignRoles(c.Request.Context(), c.Param("userId"), req.Roles)
	respondAck(c, result, "Roles assigned successfully")
}

func (r *Router) removeRoles(c *gin.Context) {
	var req assignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, "Invalid request payload")
		return
	}

	result := r.service.RemoveRoles(c.Request.Context(), c.Param("userId"), req.Roles)
	respondAck(c, result, "Roles removed successfully")
}
