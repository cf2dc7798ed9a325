package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/gopherchat/internal/app"
	"github.com/suPer8Hu/gopherchat/internal/config"
	"github.com/suPer8Hu/gopherchat/internal/logging"
	"github.com/suPer8Hu/gopherchat/internal/ui"
)

type rootFlags struct {
	email         string
	provider      string
	model         string
	dsn           string
	store         string
	history       bool
	logFile       string
	markdownStyle string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:          "gopherchat",
		Short:        "Chat with an AI assistant from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			defer closeLog()
			return runChat(cmd.Context(), cfg, f)
		},
	}

	fl := cmd.PersistentFlags()
	fl.StringVar(&f.dsn, "db", "", "database DSN (overrides DB_DSN)")
	fl.StringVar(&f.store, "store", "", "conversation store: sql or mongo (overrides STORE_BACKEND)")
	fl.StringVar(&f.logFile, "log-file", "gopherchat.log", "log destination, the terminal belongs to the UI")

	cmd.Flags().StringVar(&f.email, "email", "", "prefill the sign in email")
	cmd.Flags().StringVar(&f.provider, "provider", "", "AI provider: gemini, openai, openrouter or ollama")
	cmd.Flags().StringVar(&f.model, "model", "", "model name for the selected provider")
	cmd.Flags().BoolVar(&f.history, "history", false, "include prior turns in every prompt")
	cmd.Flags().StringVar(&f.markdownStyle, "markdown-style", "dark", "glamour style for assistant replies")

	cmd.AddCommand(newRegisterCmd(&f))
	return cmd
}

func newRegisterCmd(root *rootFlags) *cobra.Command {
	var email, password, name, avatar string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a local account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := loadConfig(cmd, *root)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.Identity.Register(cmd.Context(), email, password, name, avatar)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar image url")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// loadConfig reads the environment and applies flags that were set.
func loadConfig(cmd *cobra.Command, f rootFlags) (config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("db") {
		cfg.DBDSN = f.dsn
	}
	if changed("store") {
		cfg.StoreBackend = f.store
	}
	if changed("provider") {
		cfg.AIProvider = f.provider
	}
	if changed("model") {
		cfg.AIModel = f.model
	}
	if changed("history") {
		cfg.ChatIncludeHistory = f.history
	}

	out, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return config.Config{}, nil, errors.Wrap(err, "open log file")
	}
	logging.Init(cfg.LogLevel, "json", out)
	return cfg, func() { _ = out.Close() }, nil
}

func runChat(ctx context.Context, cfg config.Config, f rootFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.NewController()
	defer ctrl.SignOut(context.Background())

	m := ui.NewModel(ctx, ctrl, ui.Options{MarkdownStyle: f.markdownStyle, Email: f.email})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Error().Err(err).Msg("ui exited")
		return err
	}
	return nil
}
