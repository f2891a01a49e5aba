package handlers

import (
	"context"

	"github.com/jtomassoni/mmb-sub000/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// UserIDKey ключ для хранения user_id в контексте
	UserIDKey contextKey = "user_id"
	// RoleKey ключ для хранения роли в контексте
	RoleKey contextKey = "role"
	// SiteIDKey ключ для хранения site_id в контексте
	SiteIDKey contextKey = "site_id"
)

// GetActor собирает актора из значений контекста, установленных AuthMiddleware.
func GetActor(ctx context.Context) (models.Actor, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return models.Actor{}, false
	}
	role, _ := ctx.Value(RoleKey).(string)
	siteID, _ := ctx.Value(SiteIDKey).(string)
	return models.Actor{
		UserID: userID,
		Role:   models.Role(role),
		SiteID: siteID,
	}, true
}
