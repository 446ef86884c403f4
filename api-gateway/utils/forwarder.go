package utils

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vietshop/backend/services/common/logger"
	"go.uber.org/zap"
)

type ForwardOptions struct {
	TargetBase  string
	StripPrefix string
}

var forwardClient = &http.Client{Timeout: 30 * time.Second}

// ForwardRequest proxies the current request to a downstream service,
// preserving method, path suffix, query string, headers and body.
func ForwardRequest(c *gin.Context, opts ForwardOptions) {
	targetPath := c.Param("any")
	if opts.StripPrefix != "" {
		targetPath = strings.TrimPrefix(targetPath, opts.StripPrefix)
	}

	targetURL := opts.TargetBase + targetPath
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	logger.Log.Info("Forwarding request",
		zap.String("method", c.Request.Method),
		zap.String("url", targetURL),
	)

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
	if err != nil {
		logger.Log.Error("Failed to create forward request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create request"})
		return
	}

	for k, v := range c.Request.Header {
		req.Header[k] = v
	}

	// Identity headers travel from the edge to every downstream service.
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	resp, err := forwardClient.Do(req)
	if err != nil {
		logger.Log.Error("Failed to forward request", zap.Error(err), zap.String("url", targetURL))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Service unreachable"})
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		lowerKey := strings.ToLower(k)

		// CORS headers are owned by the gateway.
		if strings.HasPrefix(lowerKey, "access-control-") {
			continue
		}

		// Hop-by-hop headers must not be forwarded.
		if lowerKey == "connection" || lowerKey == "keep-alive" ||
			lowerKey == "proxy-authenticate" || lowerKey == "proxy-authorization" ||
			lowerKey == "te" || lowerKey == "trailers" ||
			lowerKey == "transfer-encoding" || lowerKey == "upgrade" {
			continue
		}

		c.Header(k, strings.Join(v, ","))
	}

	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logger.Log.Error("Failed to copy response body", zap.Error(err))
	}
}
