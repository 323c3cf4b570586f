package entity

import (
	"encoding/json"
	"time"
)

// AuditLog hecho de auditoría emitido tras cada mutación confirmada del ledger.
// Su persistencia es best-effort: un fallo aquí nunca revierte la mutación.
type AuditLog struct {
	ID         string
	UserID     string
	Action     string // STOCK_IN, STOCK_OUT, ADJUST_STOCK
	EntityType string // "Stock"
	EntityID   string // product_id
	OldValues  json.RawMessage
	NewValues  json.RawMessage
	CreatedAt  time.Time
}
