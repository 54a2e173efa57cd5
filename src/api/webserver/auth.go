package webserver

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Auth struct {
	adminSecret string
	jwtSecret   []byte
}

func NewAuth(adminSecret string, jwtSecret []byte) Auth {
	return Auth{adminSecret: adminSecret, jwtSecret: jwtSecret}
}

// Login exchanges the shared admin secret for a short-lived bearer token.
func (a Auth) Login(c *gin.Context) {
	var req struct {
		Secret string `json:"secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if a.adminSecret == "" ||
		subtle.ConstantTimeCompare([]byte(req.Secret), []byte(a.adminSecret)) != 1 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(12 * time.Hour).Unix(),
	})
	signed, err := tok.SignedString(a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed})
}
