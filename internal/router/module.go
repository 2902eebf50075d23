package router

import "github.com/gin-gonic/gin"

// Module mounts a feature's routes under /api.
type Module interface {
	Register(api *gin.RouterGroup)
}

// RootModule mounts routes on the engine itself, like /health and /metrics.
type RootModule interface {
	RegisterRoot(engine *gin.Engine)
}
