package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/attendance-kiosk/internal/attendance"
	"github.com/nhle/attendance-kiosk/internal/camera"
	"github.com/nhle/attendance-kiosk/internal/camera/webcam"
	"github.com/nhle/attendance-kiosk/internal/credential"
	"github.com/nhle/attendance-kiosk/internal/detect/cascade"
	"github.com/nhle/attendance-kiosk/internal/kiosk"
	"github.com/nhle/attendance-kiosk/internal/model"
	"github.com/nhle/attendance-kiosk/internal/store"
	"github.com/nhle/attendance-kiosk/internal/ui/setup"
)

// Version is the application version.
const Version = "0.1.0"

var (
	cfgPath   string
	stillPath string

	// cfg and log are populated by the root pre-run for every subcommand.
	cfg     *model.AppConfig
	log     *logrus.Logger
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:           "kiosk",
	Short:         "Webcam attendance kiosk",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := model.NewViper(cfgPath)
		if err := bindFlags(v, cmd); err != nil {
			return err
		}

		var err error
		cfg, err = model.LoadConfigFrom(v)
		if err != nil {
			return err
		}

		log, logFile, err = newLogger(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKiosk(cmd.Context())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgPath, "config", model.DefaultConfigPath(), "config file")
	flags.String("base-url", "", "attendance API base URL (default "+model.DefaultBaseURL+")")
	flags.String("device", "", "camera device index or capture URL (default 0)")
	flags.String("log-file", "", "log file path")

	rootCmd.Flags().StringVar(&stillPath, "still", "", "serve a still image instead of a webcam")
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"base-url": "api.base_url",
	"device":   "camera.device",
	"log-file": "log.file",
}

// bindFlags lets explicitly set flags override the file and environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// newLogger writes to the configured file; the terminal belongs to the UI.
func newLogger(c model.LogConfig) (*logrus.Logger, *os.File, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	l.SetLevel(level)

	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	l.SetOutput(f)

	return l, f, nil
}

func runKiosk(ctx context.Context) error {
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		saved, err := runSetup()
		if err != nil {
			return err
		}
		if !saved {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	token, err := credential.APIToken()
	if err != nil {
		log.WithError(err).Warn("reading API token; continuing without one")
	}

	journal, err := openJournal(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	var opener camera.Opener = webcam.NewOpener(cfg.Camera)
	if stillPath != "" {
		opener = camera.NewStillOpener(stillPath, cfg.Camera.JPEGQuality)
	}

	client := attendance.NewClient(cfg.API.BaseURL, token, cfg.API.Timeout())

	m := kiosk.New(kiosk.Deps{
		Camera:        opener,
		Detector:      cascade.NewLoader(cfg.Detector.CascadePath),
		Submitter:     attendance.NewPipeline(client, log),
		Journal:       journal,
		Log:           log,
		PollInterval:  cfg.Detector.PollInterval(),
		SubmitTimeout: 2 * cfg.API.Timeout(),
	})

	log.WithFields(logrus.Fields{
		"base_url": cfg.API.BaseURL,
		"device":   cfg.Camera.Device,
		"still":    stillPath,
	}).Info("kiosk starting")

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if km, ok := final.(kiosk.Model); ok {
		km.Shutdown()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running kiosk: %w", err)
	}

	log.Info("kiosk stopped")
	return nil
}

// runSetup shows the setup form and reloads cfg when it was saved.
func runSetup() (bool, error) {
	final, err := tea.NewProgram(setup.New(cfg, cfgPath)).Run()
	if err != nil {
		return false, fmt.Errorf("running setup: %w", err)
	}

	sm, ok := final.(setup.Model)
	if !ok {
		return false, nil
	}
	if sm.Err() != nil {
		return false, sm.Err()
	}
	if sm.Saved() {
		cfg = sm.Config()
		log.WithField("path", cfgPath).Info("configuration saved")
	}
	return sm.Saved(), nil
}

func openJournal(path string) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return s, nil
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
