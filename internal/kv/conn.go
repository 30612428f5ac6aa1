package kv

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"kvadmin/internal/resp"
)

// Conn представляет одно блокирующее соединение: ровно один обмен
// команда/ответ за раз.
type Conn interface {
	Do(args ...string) (resp.Reply, error)
	Close() error
}

// DialFunc открывает соединение; подменяется в тестах.
type DialFunc func(cfg Config) (Conn, error)

// Dial открывает TCP-соединение с таймаутом из конфигурации.
func Dial(cfg Config) (Conn, error) {
	nc, err := net.DialTimeout("tcp", cfg.Addr(), cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, cfg.Addr(), err)
	}
	return &netConn{nc: nc, r: bufio.NewReader(nc), timeout: cfg.Timeout}, nil
}

type netConn struct {
	nc      net.Conn
	r       *bufio.Reader
	timeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Do кодирует команду, отправляет ее целиком и читает один ответ.
// Таймауты записи и чтения поднимаются как ErrConnection,
// мусор в ответе остается resp.ErrProtocol.
func (c *netConn) Do(args ...string) (resp.Reply, error) {
	frame, err := resp.EncodeCommand(args...)
	if err != nil {
		return resp.Reply{}, err
	}
	if c.timeout > 0 {
		_ = c.nc.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.nc.Write(frame); err != nil {
		return resp.Reply{}, fmt.Errorf("%w: write: %v", ErrConnection, err)
	}
	if c.timeout > 0 {
		_ = c.nc.SetReadDeadline(time.Now().Add(c.timeout))
	}
	reply, err := resp.ReadReply(c.r)
	if err != nil {
		if isTimeout(err) {
			return resp.Reply{}, fmt.Errorf("%w: read timeout after %s", ErrConnection, c.timeout)
		}
		if errors.Is(err, resp.ErrProtocol) {
			return resp.Reply{}, err
		}
		return resp.Reply{}, fmt.Errorf("%w: read: %v", ErrConnection, err)
	}
	return reply, nil
}

// Close идемпотентно закрывает сокет.
func (c *netConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
