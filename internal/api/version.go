package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VersionHandler returns the version report handler. Deploy tooling polls
// this after a rollout to confirm the expected build is live.
func VersionHandler(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": version})
	}
}
