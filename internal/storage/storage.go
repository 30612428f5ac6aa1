package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// AuditEvent фиксирует одно действие обслуживания.
type AuditEvent struct {
	Subject   string
	Action    string
	Status    string
	RequestID string
	Payload   []byte
	TS        time.Time
}

// AuditQuery задает фильтры выборки аудита.
type AuditQuery struct {
	From    time.Time
	To      time.Time
	Subject string
	Limit   int
}

// Store описывает операции журнала аудита.
type Store interface {
	SaveAudit(ctx context.Context, ev AuditEvent) error
	QueryAudit(ctx context.Context, q AuditQuery) ([]AuditEvent, error)
	Close() error
}

// AuditWriter задает минимальный контракт для записи аудита.
type AuditWriter interface {
	SaveAudit(ctx context.Context, ev AuditEvent) error
}

// NewRequestID возвращает случайный идентификатор, связывающий
// записи аудита одного запуска.
func NewRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
