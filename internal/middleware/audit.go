package middleware

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ColorlessCube/fastapi-admin/internal/services"
	"github.com/gin-gonic/gin"
)

// AuditLog records write operations (POST/PUT/PATCH/DELETE) to the
// system log, with sensitive body fields masked.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "PATCH" && method != "DELETE" {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		userID := GetUserID(c)
		username := GetUsername(c)
		status := c.Writer.Status()

		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		outcome := "failed"
		if status >= 200 && status < 300 {
			outcome = "ok"
		}
		message := fmt.Sprintf("%s %s %s %s", username, method, c.Request.URL.Path, outcome)

		services.LogInfo(
			auditModule(c.FullPath()), methodAction(method), message,
			uid, c.ClientIP(), c.Request.UserAgent(),
			map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
			})
	}
}

// auditModule takes the first path segment after the API prefix as
// the module name, e.g. "/api/v1/users/:id" becomes "users".
func auditModule(fullPath string) string {
	path := strings.TrimPrefix(fullPath, "/api/v1/")
	path = strings.TrimPrefix(path, "/api/")
	if idx := strings.Index(path, "/"); idx >= 0 {
		path = path[:idx]
	}
	if path == "" {
		return "unknown"
	}
	return path
}

func methodAction(method string) string {
	switch method {
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

var sensitiveKeys = []string{"password", "old_password", "new_password", "bot_token", "secret", "token", "access_token"}

// maskSensitiveFields replaces sensitive string values in a JSON body.
func maskSensitiveFields(body string) string {
	lower := strings.ToLower(body)
	for _, key := range sensitiveKeys {
		if strings.Contains(lower, key) {
			body = maskJSONValue(body, key)
		}
	}
	return body
}

// maskJSONValue does a best-effort mask of JSON string values for a given key
func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, "\""+key+"\"")
	if idx == -1 {
		return body
	}

	colonIdx := strings.Index(body[idx+len(key)+2:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := idx + len(key) + 2 + colonIdx + 1

	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}
	if valueStart >= len(body) {
		return body
	}

	if body[valueStart] == '"' {
		endQuote := strings.Index(body[valueStart+1:], "\"")
		if endQuote == -1 {
			return body
		}
		return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
	}
	return body
}
