package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/seo-optimizer/tagcheck/stats"
)

// Context keys handlers set so StatsMiddleware can attribute an analysis.
const (
	AnalyzedURLKey = "analysis.url"
	FailureKindKey = "analysis.failure_kind"
)

// StatsMiddleware records visitors for every request and one analysis for
// every request whose handler set AnalyzedURLKey.
func StatsMiddleware(store *stats.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		store.TrackVisitor(c.ClientIP())

		c.Next()

		target, ok := c.Get(AnalyzedURLKey)
		if !ok {
			return
		}
		url, _ := target.(string)
		store.RecordAnalysis(url, time.Since(start), c.GetString(FailureKindKey))
	}
}
