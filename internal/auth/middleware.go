package auth

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the name of the http-only cookie carrying the session token
const SessionCookie = "token"

const contextTelegramID = "telegram_id"

// SessionGate validates the session cookie and protects routes. Every failure
// mode produces the same 401 body.
func SessionGate(codec *SessionCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil {
			unauthenticated(c)
			return
		}

		telegramID, err := codec.Decode(token)
		if err != nil {
			log.Printf("session rejected: %v", err)
			unauthenticated(c)
			return
		}

		c.Set(contextTelegramID, telegramID)
		c.Next()
	}
}

func unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"ok":      false,
		"message": "Unauthenticated",
	})
}

// GetTelegramID retrieves the authenticated Telegram ID from the context
func GetTelegramID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(contextTelegramID)
	if !exists {
		return 0, false
	}

	id, ok := v.(int64)
	return id, ok
}
