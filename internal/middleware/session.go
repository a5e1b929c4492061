package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	SessionCookie = "bambite_session"
	sessionKey    = "sessionID"
)

// Session gives every browser tab an opaque session id held in a cookie.
// The id only keys in-memory state such as the cart; it is not an identity.
func Session(secure bool, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(sessionID) != nil {
			if err == nil {
				log.Warnf("Middleware: Discarding malformed session cookie: %.10s...", sessionID)
			}
			sessionID = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			log.Debugf("Middleware: Issued session %s", sessionID)
		}

		c.Set(sessionKey, sessionID)
		c.Next()
	}
}

func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
