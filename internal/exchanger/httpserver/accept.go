package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// requireJSONAccept rejects with 406 any request to a JSON-only
// endpoint (credential_offer_uri, protocols) that explicitly asks for
// something other than JSON. A missing Accept header, or one that
// includes application/json or */*, passes.
func requireJSONAccept(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	if accept == "" || strings.Contains(accept, "application/json") || strings.Contains(accept, "*/*") {
		return true
	}

	c.AbortWithStatus(http.StatusNotAcceptable)
	return false
}
