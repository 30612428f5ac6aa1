package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"kvadmin/internal/confirm"
	"kvadmin/internal/resp"
	"kvadmin/internal/storage"
)

type scriptedPrompts struct {
	answers []string
	calls   int
}

func (s *scriptedPrompts) Prompt(label string) (string, error) {
	if s.calls >= len(s.answers) {
		return "", errors.New("no more answers")
	}
	answer := s.answers[s.calls]
	s.calls++
	return answer, nil
}

func confirmOK() *scriptedPrompts {
	return &scriptedPrompts{answers: []string{"FLUSHALL", "FLUSHALL"}}
}

// fakeConn scripts one reply per sent command and records every send.
type fakeConn struct {
	replies []resp.Reply
	doErr   error
	sent    [][]string
	closes  int
}

func (f *fakeConn) Do(args ...string) (resp.Reply, error) {
	f.sent = append(f.sent, args)
	if f.doErr != nil {
		return resp.Reply{}, f.doErr
	}
	if len(f.replies) == 0 {
		return resp.Reply{}, errors.New("unexpected command")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeConn) Close() error {
	f.closes++
	return nil
}

type memAudit struct {
	events []storage.AuditEvent
}

func (m *memAudit) SaveAudit(ctx context.Context, ev storage.AuditEvent) error {
	m.events = append(m.events, ev)
	return nil
}

func statusReply(text string) resp.Reply { return resp.Reply{Kind: resp.KindStatus, Text: text} }
func errorReply(text string) resp.Reply  { return resp.Reply{Kind: resp.KindError, Text: text} }

func TestFlushWithoutPassword(t *testing.T) {
	conn := &fakeConn{replies: []resp.Reply{statusReply("OK")}}
	audit := &memAudit{}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556},
		Prompts: confirmOK(),
		Subject: "tester",
		Audit:   audit,
		Dialer:  func(cfg Config) (Conn, error) { return conn, nil },
	}

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0][0] != "FLUSHALL" {
		t.Fatalf("unexpected commands: %#v", conn.sent)
	}
	if conn.closes != 1 {
		t.Fatalf("close calls = %d, want 1", conn.closes)
	}
	last := audit.events[len(audit.events)-1]
	if last.Status != "flushed" || last.Action != "kv:flush" || last.Subject != "tester" {
		t.Fatalf("unexpected audit event: %#v", last)
	}
	if strings.Contains(string(last.Payload), "password") {
		t.Fatal("audit payload must not mention the password")
	}
}

func TestFlushWithPassword(t *testing.T) {
	conn := &fakeConn{replies: []resp.Reply{statusReply("OK"), statusReply("OK")}}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556, Password: "s3cret"},
		Prompts: confirmOK(),
		Dialer:  func(cfg Config) (Conn, error) { return conn, nil },
	}

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(conn.sent) != 2 {
		t.Fatalf("command count = %d, want 2", len(conn.sent))
	}
	if conn.sent[0][0] != "AUTH" || conn.sent[0][1] != "s3cret" {
		t.Fatalf("first command = %#v, want AUTH", conn.sent[0])
	}
	if conn.sent[1][0] != "FLUSHALL" {
		t.Fatalf("second command = %#v, want FLUSHALL", conn.sent[1])
	}
}

func TestFlushConfirmationDenied(t *testing.T) {
	dialed := false
	audit := &memAudit{}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556},
		Prompts: &scriptedPrompts{answers: []string{"FLUSHALL", "flushall"}},
		Audit:   audit,
		Dialer: func(cfg Config) (Conn, error) {
			dialed = true
			return nil, errors.New("must not dial")
		},
	}

	err := s.Flush(context.Background())
	if !errors.Is(err, confirm.ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if dialed {
		t.Fatal("connection attempted after denied confirmation")
	}
	if audit.events[0].Status != "denied" {
		t.Fatalf("unexpected audit: %#v", audit.events)
	}
}

func TestFlushAuthRejected(t *testing.T) {
	conn := &fakeConn{replies: []resp.Reply{errorReply("ERR invalid password")}}
	audit := &memAudit{}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556, Password: "wrong"},
		Prompts: confirmOK(),
		Audit:   audit,
		Dialer:  func(cfg Config) (Conn, error) { return conn, nil },
	}

	err := s.Flush(context.Background())
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if len(conn.sent) != 1 {
		t.Fatalf("send count = %d, want 1 (FLUSHALL must never be sent)", len(conn.sent))
	}
	if conn.closes != 1 {
		t.Fatalf("close calls = %d, want 1", conn.closes)
	}
	if audit.events[0].Status != "auth_failed" {
		t.Fatalf("unexpected audit: %#v", audit.events)
	}
}

func TestFlushAuthTransportError(t *testing.T) {
	conn := &fakeConn{doErr: fmt.Errorf("%w: read timeout after 5s", ErrConnection)}
	audit := &memAudit{}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556, Password: "s3cret"},
		Prompts: confirmOK(),
		Audit:   audit,
		Dialer:  func(cfg Config) (Conn, error) { return conn, nil },
	}

	err := s.Flush(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if errors.Is(err, ErrAuthFailed) {
		t.Fatalf("transport failure must not become an auth failure: %v", err)
	}
	if audit.events[0].Status != "connect_failed" {
		t.Fatalf("audit status = %q, want connect_failed", audit.events[0].Status)
	}
}

func TestFlushProtocolGarbage(t *testing.T) {
	conn := &fakeConn{doErr: fmt.Errorf("%w: unknown reply sigil '?'", resp.ErrProtocol)}
	audit := &memAudit{}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556},
		Prompts: confirmOK(),
		Audit:   audit,
		Dialer:  func(cfg Config) (Conn, error) { return conn, nil },
	}

	err := s.Flush(context.Background())
	if !errors.Is(err, resp.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	if audit.events[0].Status != "protocol_error" {
		t.Fatalf("audit status = %q, want protocol_error", audit.events[0].Status)
	}
}

func TestFlushCommandRejected(t *testing.T) {
	conn := &fakeConn{replies: []resp.Reply{statusReply("OK"), errorReply("ERR flush disabled")}}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556, Password: "s3cret"},
		Prompts: confirmOK(),
		Dialer:  func(cfg Config) (Conn, error) { return conn, nil },
	}

	err := s.Flush(context.Background())
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "ERR flush disabled") {
		t.Fatalf("server error text lost: %v", err)
	}
	if conn.closes != 1 {
		t.Fatalf("close calls = %d, want 1", conn.closes)
	}
}

func TestFlushUnexpectedReplyVariant(t *testing.T) {
	conn := &fakeConn{replies: []resp.Reply{{Kind: resp.KindInteger, Int: 1}}}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556},
		Prompts: confirmOK(),
		Dialer:  func(cfg Config) (Conn, error) { return conn, nil },
	}

	err := s.Flush(context.Background())
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
}

func TestFlushDialFailure(t *testing.T) {
	audit := &memAudit{}
	s := &Session{
		Config:  Config{Host: "127.0.0.1", Port: 5556},
		Prompts: confirmOK(),
		Audit:   audit,
		Dialer: func(cfg Config) (Conn, error) {
			return nil, ErrConnection
		},
	}

	err := s.Flush(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if audit.events[0].Status != "connect_failed" {
		t.Fatalf("unexpected audit: %#v", audit.events)
	}
}
