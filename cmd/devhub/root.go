package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/app"
	"github.com/abdullathedruid/devhub/internal/commitmsg"
	"github.com/abdullathedruid/devhub/internal/config"
	"github.com/abdullathedruid/devhub/internal/git"
	"github.com/abdullathedruid/devhub/internal/history"
	"github.com/abdullathedruid/devhub/internal/logging"
	"github.com/abdullathedruid/devhub/internal/session"
	"github.com/abdullathedruid/devhub/internal/terminal"
	"github.com/abdullathedruid/devhub/internal/version"
)

var (
	projectDir string
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "devhub",
	Short: "Shell, AI assistant and git in one terminal screen",
	Long: `devhub runs an interactive shell and an AI coding assistant side by side
with a live git panel for the project, and commits with messages suggested
by the assistant.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/devhub/config.toml)")
	rootCmd.Flags().StringVarP(&projectDir, "project", "p", "", "project directory (default is the current directory)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(versionCmd)
}

func resolveProject(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project directory: %s is not a directory", abs)
	}
	return abs, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	project, err := resolveProject(projectDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Options{ConfigFile: configFile, ProjectDir: project})
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	log, err := logging.New(cfg.LogFile(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting devhub", zap.String("version", version.Short()), zap.String("project", project))

	if err := config.EnsureProjectStateDir(project); err != nil {
		log.Warn("project state directory", zap.Error(err))
	}
	hist, err := history.Open(cfg.HistoryDir(), cfg.HistoryMaxBytes)
	if err != nil {
		log.Warn("interaction history disabled", zap.Error(err))
		hist = nil
	}

	var settings session.Settings
	if ps, err := config.LoadProjectSettings(project); err != nil {
		log.Warn("project settings unreadable", zap.Error(err))
	} else {
		settings = ps
	}

	sup := terminal.NewSupervisor(log)
	sessions := session.NewManager(sup, session.Config{
		Dir:         project,
		Shell:       cfg.Shell,
		DefaultAI:   cfg.DefaultAI,
		Scrollback:  cfg.ScrollbackLines,
		Grace:       cfg.TerminateGrace,
		Executables: cfg.AIExecutables(),
		Rows:        24,
		Cols:        80,
	}, settings, hist, log)
	defer shutdownSessions(sessions, cfg.TerminateGrace, log)

	repo, err := git.Open(project)
	if err != nil {
		log.Info("git panel disabled", zap.Error(err))
		repo = nil
	}

	gen := commitmsg.New(&commitmsg.ExecRunner{Dir: project, Log: log}, commitmsg.Config{
		Timeout:      cfg.CommitTimeout,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Executables:  cfg.AIExecutables(),
	}, log)

	a, err := app.New(app.Deps{
		Config:    cfg,
		Sessions:  sessions,
		Repo:      repo,
		Generator: gen,
		History:   hist,
		Log:       log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	runErr := a.Run(ctx)
	if runErr != nil {
		log.Error("devhub exited with error", zap.Error(runErr), logging.Stack(runErr))
		return runErr
	}
	log.Info("devhub exited")
	return nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownSessions terminates every session, giving each process grace to
// exit before it is killed.
func shutdownSessions(s shutdowner, grace time.Duration, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), grace+5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err), logging.Stack(err))
	}
}
