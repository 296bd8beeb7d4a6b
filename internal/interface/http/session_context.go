package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionIDKey = "session_id"

func setSessionID(c *gin.Context, id uuid.UUID) {
	c.Set(sessionIDKey, id)
}

func getSessionID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(sessionIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
