package app

import (
	"fmt"
	"log/slog"
	"os"

	"kvadmin/internal/config"
	"kvadmin/internal/confirm"
	"kvadmin/internal/kv"
	"kvadmin/internal/storage"
	"kvadmin/internal/storage/sqlite"
)

// App агрегирует зависимости команд kvadmin.
type App struct {
	Config config.Config
	Log    *slog.Logger
}

// New собирает приложение из загруженной конфигурации.
func New(cfg config.Config, lg *slog.Logger) *App {
	return &App{Config: cfg, Log: lg}
}

// KVConfig строит параметры соединения с хранилищем.
func (a *App) KVConfig() kv.Config {
	return kv.Config{
		Host:     a.Config.KV.Host,
		Port:     a.Config.KV.Port,
		Password: a.Config.KV.Password,
		Timeout:  a.Config.KVTimeout(),
	}
}

// OpenAudit открывает журнал аудита.
func (a *App) OpenAudit() (storage.Store, error) {
	st, err := sqlite.Open(a.Config.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	return st, nil
}

// FlushSession собирает сессию очистки хранилища.
// audit может быть nil, если журнал недоступен.
func (a *App) FlushSession(kvCfg kv.Config, prompts confirm.PromptSource, audit storage.AuditWriter) *kv.Session {
	return &kv.Session{
		Config:  kvCfg,
		Prompts: prompts,
		Subject: Subject(),
		Audit:   audit,
		Log:     a.Log,
	}
}

// Subject возвращает имя оператора для журнала аудита.
func Subject() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}
