package http

import "github.com/gin-gonic/gin"

func (r *Router) listGroups(c *gin.Context) {
	respond(c, r.service.Groups(c.Request.Context()), "")
}

func (r *Router) assignToGroup(c *gin.Context) {
	result := r.service.AssignToGroup(c.Request.Context(), c.Param("userId"), c.Param("groupId"))
	respondAck(c, result, "User assigned to group successfully")
}

func (r *Router) removeFromGroup(c *gin.Context) {
	result := r.service.RemoveFromGroup(c.Request.Context(), c.Param("userId"), c.Param("groupId"))
	respondAck(c, result, "User removed from group successfully")
}
