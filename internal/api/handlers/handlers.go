package handlers

import (
	"lurelab/internal/domain/services"
	"lurelab/internal/infrastructure/cache"
	"lurelab/internal/infrastructure/database"
	"lurelab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health       *HealthHandler
	Conversation *ConversationHandler
	Sessions     *SessionsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Coordinator *services.SessionCoordinator
	Cache       *cache.RedisCache
	DB          *database.PostgresDB
	Logger      *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(deps.Cache, deps.DB, deps.Logger),
		Conversation: NewConversationHandler(deps.Coordinator, deps.Logger),
		Sessions:     NewSessionsHandler(deps.Coordinator, deps.Cache, deps.Logger),
	}
}
