package rollback

import (
	"log/slog"

	"github.com/jtomassoni/mmb-sub000/internal/models"
)

// LogNotifier is the default Notifier: a structured log line per rollback.
// Точка расширения для email/webhook уведомлений без изменения координатора.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyRollback(entry, compensating *models.AuditEntry, actor models.Actor) {
	n.logger.Info("Rollback notification",
		"site_id", entry.Ref.SiteID,
		"ref", entry.Ref,
		"original_id", entry.ID,
		"compensating_id", compensating.ID,
		"actor", actor.UserID)
}
