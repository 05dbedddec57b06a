package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/duka-pos/internal/presentation/http/middleware"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/sangkips/duka-pos/pkg/utils"
)

// GetUserID extracts the operator ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	id := middleware.UserID(c)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// operator returns the authenticated operator and session, writing a 401
// when either is missing.
func operator(c *gin.Context) (userID, sessionID uuid.UUID, ok bool) {
	userID, sessionID = middleware.UserID(c), middleware.SessionID(c)
	if userID == uuid.Nil || sessionID == uuid.Nil {
		response.Unauthorized(c, "User not authenticated")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

// pathID parses a UUID path parameter, writing a 400 when it is malformed
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) *pagination.PaginationParams {
	return pagination.FromStrings(c.Query("page"), c.Query("per_page"))
}
