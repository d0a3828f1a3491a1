package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/tagcheck/analyzer"
	"github.com/seo-optimizer/tagcheck/middleware"
)

const msgInvalidURL = "Invalid URL format"

type analyzeRequest struct {
	URL string `json:"url" binding:"required,url"`
}

func (h *handler) analyze(c *gin.Context) {
	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": msgInvalidURL,
		})
		return
	}
	c.Set(middleware.AnalyzedURLKey, request.URL)

	result, err := h.analyzer.Analyze(c.Request.Context(), request.URL)
	if err != nil {
		kind := analyzer.KindOf(err)
		status := StatusFor(kind)
		c.Set(middleware.FailureKindKey, kind.String())

		h.logger.WithFields(logrus.Fields{
			"request_id": middleware.RequestID(c),
			"url":        request.URL,
			"kind":       kind.String(),
			"status":     status,
		}).Info("analysis failed")

		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StatusFor maps an analysis failure kind to the HTTP status returned to clients.
func StatusFor(kind analyzer.Kind) int {
	switch kind {
	case analyzer.KindInvalidScheme, analyzer.KindBlockedHost, analyzer.KindUnsupportedContentType:
		return http.StatusBadRequest
	case analyzer.KindUnreachable, analyzer.KindTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
