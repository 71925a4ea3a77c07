package handler

import (
	"backend/internal/service"
	"backend/pkg/apperr"
	"backend/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// actorFromContext rebuilds the acting user from the JWT claims the auth
// middleware stashed on the gin context.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	rawID, exists := c.Get("userID")
	if !exists {
		return service.Actor{}, false
	}
	idStr, ok := rawID.(string)
	if !ok {
		return service.Actor{}, false
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return service.Actor{}, false
	}

	role, _ := c.Get("userRole")
	roleStr, _ := role.(string)

	return service.Actor{UserID: userID, Role: roleStr}, true
}

// requireActor aborts with 401 when no authenticated user is on the context
func requireActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User not found in context"))
	}
	return actor, ok
}

// fail translates service errors into the right HTTP status
func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}
