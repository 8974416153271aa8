// Command mudra runs the sign recognition service: the camera pipeline, the
// HTTP API with the browser UI, and the system tray.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	noTray := flag.Bool("no-tray", false, "run headless without the system tray")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "mudra",
		ServiceVersion: version,
	})
	if err != nil {
		log.Printf("Failed to initialize metrics: %v", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(flushCtx); err != nil {
			log.Printf("Metrics shutdown error: %v", err)
		}
	}()

	dbPath, err := databasePath(cfg)
	if err != nil {
		log.Printf("Failed to locate database: %v", err)
		return 1
	}
	st, err := store.New(dbPath)
	if err != nil {
		log.Printf("Failed to initialize store: %v", err)
		return 1
	}
	defer st.Close()

	application, err := app.New(app.Config{
		Store:           st,
		Engine:          cfg.EngineConfig(),
		CameraID:        cfg.Camera.DeviceID,
		IdleFPS:         cfg.Camera.IdleFPS,
		ActiveFPS:       cfg.Camera.ActiveFPS,
		MotionThreshold: cfg.Camera.MotionThreshold,
		HandlersDir:     cfg.Handlers.Dir,
		HandlerTimeout:  cfg.HandlerTimeout(),
	})
	if err != nil {
		log.Printf("Failed to build pipeline: %v", err)
		return 1
	}

	if err := application.Reload(); err != nil {
		log.Printf("Failed to load stored gestures and phrases: %v", err)
	}
	if err := application.DiscoverHandlers(); err != nil {
		log.Printf("Handler discovery failed: %v", err)
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Printf("Serving static files from %s", staticDir)
	}

	srvCfg := server.Config{
		StaticDir: staticDir,
		Store:     st,
		Camera:    application.Camera(),
		Source:    application.Source(),
		Pipeline:  application,
		OnChange: func() {
			if err := application.Reload(); err != nil {
				log.Printf("Reload after mutation failed: %v", err)
			}
		},
	}

	var trayUI *tray.Tray
	if !*noTray {
		trayUI = tray.New(application.Enabled())
		srvCfg.Pipeline = trayPipeline{App: application, tray: trayUI}
	}

	srv := server.New(srvCfg)
	application.Engine().AddSink(srv.Events())
	if trayUI != nil {
		application.Engine().AddSink(trayUI)
	}

	if err := application.Start(); err != nil {
		log.Printf("Failed to start pipeline: %v", err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server listening on %s", cfg.Server.ListenAddr)
		return srv.ListenAndServe(cfg.Server.ListenAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if trayUI != nil {
		trayUI.OnToggle(func(enabled bool) {
			if err := application.SetEnabled(enabled); err != nil {
				log.Printf("Failed to set recognition state: %v", err)
			}
		})
		trayUI.OnSettings(func() { openSettings(cfg.Server.ListenAddr) })
		trayUI.OnQuit(stop)

		// A signal or server failure must also dismiss the tray loop.
		go func() {
			<-gctx.Done()
			trayUI.Quit()
		}()

		// systray owns the main thread until quit.
		trayUI.Run()
	} else {
		<-gctx.Done()
	}

	application.Stop()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Server error: %v", err)
		return 1
	}
	return 0
}

// trayPipeline decorates the app so toggles made through the HTTP API show
// up in the tray menu.
type trayPipeline struct {
	*app.App
	tray *tray.Tray
}

func (p trayPipeline) SetEnabled(enabled bool) error {
	if err := p.App.SetEnabled(enabled); err != nil {
		return err
	}
	p.tray.SetEnabled(enabled)
	return nil
}

// loadConfig reads the config file when one is given; otherwise the
// built-in defaults apply so the app runs configless.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

// databasePath resolves the SQLite file, defaulting to ~/.mudra/mudra.db.
func databasePath(cfg *config.Config) (string, error) {
	if cfg.Storage.Path != "" {
		return cfg.Storage.Path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(homeDir, ".mudra")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dbDir, "mudra.db"), nil
}

// findWebDir searches for the browser UI directory in common locations.
// It checks "web", "../web", "../../web", and ~/.mudra/web, returning the
// first existing directory or empty string if none is found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// openSettings opens the browser UI for the given listen address.
func openSettings(addr string) {
	url := settingsURL(addr)
	if err := exec.Command("open", url).Start(); err != nil {
		log.Printf("Failed to open %s: %v", url, err)
	}
}

// settingsURL turns a listen address into a browsable URL.
func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
