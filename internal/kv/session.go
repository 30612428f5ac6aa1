package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"kvadmin/internal/confirm"
	"kvadmin/internal/resp"
	"kvadmin/internal/storage"
)

// FlushToken задает строку, которую оператор обязан ввести дважды.
const FlushToken = "FLUSHALL"

// Session выполняет одну административную операцию над хранилищем.
// Соединение открывается только после подтверждения и закрывается
// ровно один раз на любом пути выхода.
type Session struct {
	Config  Config
	Prompts confirm.PromptSource
	Subject string
	Audit   storage.AuditWriter // nil отключает аудит
	Log     *slog.Logger
	Dialer  DialFunc // nil означает Dial
}

// Flush проводит машину состояний:
// подтверждение -> соединение -> AUTH (если задан пароль) -> FLUSHALL.
// Любой сбой прерывает сессию; до подтверждения сетевой
// активности нет.
func (s *Session) Flush(ctx context.Context) error {
	requestID := storage.NewRequestID()

	if err := confirm.RequireDouble(s.Prompts, FlushToken); err != nil {
		s.writeAudit(ctx, requestID, "denied")
		return err
	}

	dial := s.Dialer
	if dial == nil {
		dial = Dial
	}
	conn, err := dial(s.Config)
	if err != nil {
		s.writeAudit(ctx, requestID, "connect_failed")
		return err
	}
	defer conn.Close()

	if s.Config.Password != "" {
		reply, err := conn.Do("AUTH", s.Config.Password)
		if err != nil {
			s.writeAudit(ctx, requestID, auditStatus(err, "auth_failed"))
			return fmt.Errorf("auth: %w", err)
		}
		if !reply.IsStatus() {
			s.writeAudit(ctx, requestID, "auth_failed")
			return fmt.Errorf("%w: %s", ErrAuthFailed, replyText(reply))
		}
	}

	reply, err := conn.Do(FlushToken)
	if err != nil {
		s.writeAudit(ctx, requestID, auditStatus(err, "flush_failed"))
		return fmt.Errorf("flushall: %w", err)
	}
	if !reply.IsStatus() {
		s.writeAudit(ctx, requestID, "flush_failed")
		return fmt.Errorf("%w: %s", ErrCommandFailed, replyText(reply))
	}

	s.writeAudit(ctx, requestID, "flushed")
	if s.Log != nil {
		s.Log.Info("database flushed", "addr", s.Config.Addr(), "request_id", requestID)
	}
	return nil
}

func (s *Session) writeAudit(ctx context.Context, requestID, status string) {
	if s.Audit == nil {
		return
	}
	// Пароль в журнал не попадает.
	payload, _ := json.Marshal(map[string]any{
		"host": s.Config.Host,
		"port": s.Config.Port,
	})
	err := s.Audit.SaveAudit(ctx, storage.AuditEvent{
		Subject:   s.Subject,
		Action:    "kv:flush",
		Status:    status,
		RequestID: requestID,
		Payload:   payload,
	})
	if err != nil && s.Log != nil {
		s.Log.Warn("audit write failed", "err", err)
	}
}

// auditStatus выводит статус аудита из класса ошибки: транспортные
// сбои и мусор в ответе не выдаются за отказ сервера, чтобы журнал
// совпадал с диагностикой процесса.
func auditStatus(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrConnection):
		return "connect_failed"
	case errors.Is(err, resp.ErrProtocol):
		return "protocol_error"
	default:
		return fallback
	}
}

func replyText(r resp.Reply) string {
	if r.IsError() {
		return r.Text
	}
	return "unexpected " + r.String()
}

// Ping проверяет достижимость сервера командой PING.
func Ping(cfg Config) error {
	conn, err := Dial(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	reply, err := conn.Do("PING")
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !reply.IsStatus() {
		return fmt.Errorf("%w: %s", ErrCommandFailed, replyText(reply))
	}
	return nil
}
