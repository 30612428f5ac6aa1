package kv

import (
	"errors"
	"net"
	"strconv"
	"time"
)

var (
	// ErrConnection означает, что сокет не открылся, запись оборвалась
	// или чтение уперлось в таймаут. Не повторяется автоматически.
	ErrConnection = errors.New("kv: connection error")
	// ErrAuthFailed означает, что сервер отверг пароль; деструктивная
	// команда после этого не отправляется.
	ErrAuthFailed = errors.New("kv: authentication failed")
	// ErrCommandFailed означает, что сервер ответил ошибкой на команду;
	// текст сервера сохраняется без изменений.
	ErrCommandFailed = errors.New("kv: command failed")
)

// Config задает параметры одного соединения с KeyDB/Redis-совместимым
// сервером. После старта сессии не меняется.
type Config struct {
	Host     string
	Port     int
	Password string
	Timeout  time.Duration
}

// Addr возвращает host:port для набора соединения.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
