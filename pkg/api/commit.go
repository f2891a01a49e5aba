package api

import "time"

// CommitRequest представляет запрос на коммит изменений одного ресурса
type CommitRequest struct {
	SiteID      string         `json:"site_id"`      // сайт-тенант ресурса
	Kind        string         `json:"kind"`         // тип ресурса: event, special, hours, profile
	ResourceID  string         `json:"resource_id"`  // идентификатор ресурса внутри сайта
	Fields      map[string]any `json:"fields"`       // изменённые поля (coalesced change set)
	BaseVersion int64          `json:"base_version"` // версия, от которой сделаны изменения (0 = create)
	Timestamp   time.Time      `json:"timestamp"`    // время коммита на клиенте (информационно)
}

// CommitResponse представляет успешный ответ на коммит
type CommitResponse struct {
	Fields  map[string]any `json:"fields"`   // актуальное состояние ресурса после коммита
	Version int64          `json:"version"`  // новая версия ресурса
	AuditID string         `json:"audit_id"` // идентификатор audit-записи (может быть пустым)
}

// ConflictBody представляет тело 409 ответа при version mismatch
type ConflictBody struct {
	LocalChanges      map[string]any `json:"local_changes"`      // изменения, отправленные клиентом
	ServerChanges     map[string]any `json:"server_changes"`     // текущее состояние на сервере
	ConflictingFields []string       `json:"conflicting_fields"` // поля, различающиеся между ними
	ServerVersion     int64          `json:"server_version"`     // текущая версия на сервере
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
