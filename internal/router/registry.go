package router

import "github.com/gin-gonic/gin"

// Registry collects feature modules and mounts them in one pass. API modules
// share the /api group and its middleware; root modules get the bare engine.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
	roots       []RootModule
	mounted     bool
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

// Use adds middleware to the /api group only.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mods ...Module) {
	r.modules = append(r.modules, mods...)
}

func (r *Registry) AddRoot(mods ...RootModule) {
	r.roots = append(r.roots, mods...)
}

// RegisterAll mounts every module. Calling it again does nothing.
func (r *Registry) RegisterAll() {
	if r.mounted {
		return
	}
	r.mounted = true
	for _, m := range r.roots {
		m.RegisterRoot(r.Engine)
	}
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
