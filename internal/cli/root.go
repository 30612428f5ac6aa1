package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kvadmin/internal/apicheck"
	"kvadmin/internal/app"
	"kvadmin/internal/config"
	"kvadmin/internal/confirm"
	"kvadmin/internal/doctor"
	"kvadmin/internal/kv"
	"kvadmin/internal/resp"
	"kvadmin/internal/storage"
	"kvadmin/pkg/logger"
)

// errSmokeFailed сигнализирует о провале части smoke-проверок.
var errSmokeFailed = errors.New("smoke checks failed")

// Коды выхода процесса по стадии отказа.
const (
	ExitOK           = 0
	ExitUnknown      = 1
	ExitConfirmation = 2
	ExitConnection   = 3
	ExitAuth         = 4
	ExitCommand      = 5
	ExitProtocol     = 6
	ExitSmoke        = 7
)

// ExitCode переводит ошибку команды в код выхода процесса.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, confirm.ErrDenied):
		return ExitConfirmation
	case errors.Is(err, kv.ErrConnection):
		return ExitConnection
	case errors.Is(err, kv.ErrAuthFailed):
		return ExitAuth
	case errors.Is(err, kv.ErrCommandFailed):
		return ExitCommand
	case errors.Is(err, resp.ErrProtocol):
		return ExitProtocol
	case errors.Is(err, errSmokeFailed):
		return ExitSmoke
	default:
		return ExitUnknown
	}
}

// New создает корневую CLI-команду.
func New(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "kvadmin",
		Short:         "Обслуживание тестового окружения игрового API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "путь к YAML-конфигу")

	root.AddCommand(newVersionCmd(version))
	root.AddCommand(newFlushCmd(&configPath))
	root.AddCommand(newSmokeCmd(&configPath))
	root.AddCommand(newDoctorCmd(&configPath))
	root.AddCommand(newAuditCmd(&configPath))

	return root
}

func setup(configPath string) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg, logger.New(cfg.Log.Level)), nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version)
		},
	}
}

func newFlushCmd(configPath *string) *cobra.Command {
	var (
		host     string
		port     int
		password string
		timeout  int
	)
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Необратимо очистить KeyDB/Redis (FLUSHALL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath)
			if err != nil {
				return err
			}

			kvCfg := a.KVConfig()
			if cmd.Flags().Changed("host") {
				kvCfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				kvCfg.Port = port
			}
			if cmd.Flags().Changed("password") {
				kvCfg.Password = password
			}
			if cmd.Flags().Changed("timeout") {
				kvCfg.Timeout = time.Duration(timeout) * time.Second
			}

			var audit storage.AuditWriter
			store, err := a.OpenAudit()
			if err != nil {
				a.Log.Warn("audit store unavailable", "err", err)
			} else {
				defer store.Close()
				audit = store
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "WARNING: This will delete ALL data in the database.")
			prompts := confirm.NewStdinSource(cmd.InOrStdin(), out)
			session := a.FlushSession(kvCfg, prompts, audit)
			if err := session.Flush(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Database cleared.")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "адрес сервера")
	cmd.Flags().IntVar(&port, "port", 5556, "порт сервера")
	cmd.Flags().StringVar(&password, "password", "", "пароль для AUTH")
	cmd.Flags().IntVar(&timeout, "timeout", 5, "таймаут сокета в секундах")
	return cmd
}

func newSmokeCmd(configPath *string) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Прогнать smoke-проверки HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath)
			if err != nil {
				return err
			}
			url := a.Config.API.BaseURL
			if cmd.Flags().Changed("base-url") {
				url = baseURL
			}

			client := apicheck.NewClient(url, a.Config.APITimeout(), a.Config.APIMinInterval())
			out := cmd.OutOrStdout()
			if failed := apicheck.Run(cmd.Context(), client, out); failed > 0 {
				return fmt.Errorf("%w: %d of %d", errSmokeFailed, failed, len(apicheck.Checks()))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "http://127.0.0.1:5554", "базовый URL API")
	return cmd
}

func newDoctorCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Предполетный отчет: узел и достижимость KV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath)
			if err != nil {
				return err
			}
			report, err := doctor.Report(cmd.Context(), a.KVConfig(), nil)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func newAuditCmd(configPath *string) *cobra.Command {
	var (
		limit   int
		subject string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Показать журнал действий обслуживания",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath)
			if err != nil {
				return err
			}
			store, err := a.OpenAudit()
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.QueryAudit(cmd.Context(), storage.AuditQuery{
				Subject: subject,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(events)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "максимум записей")
	cmd.Flags().StringVar(&subject, "subject", "", "фильтр по оператору")
	return cmd
}
