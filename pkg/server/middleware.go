package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-Id"

	requestIDKey = "request_id"
	subjectKey   = "subject"
)

// RequestID tags every request with an id, reusing the caller's when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logFor(c, log).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Info("request")
	}
}

// Recovery turns a panic into a 500.
func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logFor(c, log).WithField("panic", recovered).Error("handler panicked")
		failed(c, http.StatusInternalServerError)
	})
}

// Authenticate requires a bearer session token signed with secret whose
// subject is set.
func Authenticate(secret []byte, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			failed(c, http.StatusUnauthorized)
			return
		}

		subject, err := VerifyToken(secret, raw)
		if err != nil {
			logFor(c, log).WithError(err).Debug("rejected session token")
			failed(c, http.StatusUnauthorized)
			return
		}
		c.Set(subjectKey, subject)
		c.Next()
	}
}

var ErrNoSubject = errors.New("token has no subject")

// IssueToken signs a session token for subject valid for ttl.
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrNoSubject
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	})
	return token.SignedString(secret)
}

// VerifyToken checks signature and expiry and returns the subject.
func VerifyToken(secret []byte, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}

func logFor(c *gin.Context, log logrus.FieldLogger) logrus.FieldLogger {
	if id, ok := c.Get(requestIDKey); ok {
		return log.WithField("request_id", id)
	}
	return log
}
