package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/gestpipe/internal/app"
	"github.com/ayusman/gestpipe/internal/capture"
	"github.com/ayusman/gestpipe/internal/config"
	"github.com/ayusman/gestpipe/internal/detector"
	"github.com/ayusman/gestpipe/internal/discovery"
	"github.com/ayusman/gestpipe/internal/events"
	"github.com/ayusman/gestpipe/internal/fixtures"
	"github.com/ayusman/gestpipe/internal/plugin"
	"github.com/ayusman/gestpipe/internal/practice"
	"github.com/ayusman/gestpipe/internal/server"
	"github.com/ayusman/gestpipe/internal/server/api"
	"github.com/ayusman/gestpipe/internal/store"
	"github.com/ayusman/gestpipe/internal/tray"
)

const version = "0.1.0"

// eventRetention bounds the event log kept in the database.
const eventRetention = 30 * 24 * time.Hour

func main() {
	baseDir := config.HomeDir()

	configPath := flag.String("config", filepath.Join(baseDir, "config.json"), "path to the JSON config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	demo := flag.Bool("demo", false, "run without a camera, replaying a scripted swipe against the reference models")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	enabled := flag.Bool("enable", true, "start with gesture detection enabled")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("gestpipe", version)
		return
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	cfg, err := config.Load(*configPath, baseDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *demo {
		if err := useReferenceModels(&cfg); err != nil {
			log.Fatalf("Failed to prepare demo models: %v", err)
		}
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir(baseDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, *demo, *withTray || cfg.Tray, *enabled); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, demo, withTray, enabled bool) error {
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	if n, err := st.Events().DeleteBefore(time.Now().Add(-eventRetention)); err != nil {
		log.Printf("Failed to prune event log: %v", err)
	} else if n > 0 {
		log.Printf("Pruned %d old events", n)
	}

	models, err := app.LoadModels(cfg.Artifacts)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	if err := app.ImportTemplates(st, models.Templates); err != nil {
		return fmt.Errorf("import templates: %w", err)
	}

	hub := events.NewHub()
	bus := events.NewBus()
	bus.Add("ws", hub)
	bus.Add("log", events.NewRecorder(st.Events()))
	if cfg.Redis.Enabled {
		pub := events.NewRedisPublisher(cfg.Redis)
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			log.Printf("Redis unavailable, events will not be published there: %v", err)
		} else {
			bus.Add("redis", pub)
			log.Printf("Publishing events to redis %s (%s)", cfg.Redis.Addr, pub.Key("events"))
		}
	}

	plugins := plugin.NewManager(cfg.Plugins.Dir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	dispatcher := plugin.NewDispatcher(plugins, plugin.NewExecutor(cfg.Plugins.Timeout.Duration), st.Actions())
	seeded, err := dispatcher.SeedDefaults(func(name string) bool {
		_, ok := models.Templates.Get(name)
		return ok
	})
	if err != nil {
		log.Printf("Failed to seed default bindings: %v", err)
	} else if seeded > 0 {
		log.Printf("Bound %d gestures to plugin defaults", seeded)
	}

	camera, det := openSources(cfg, demo)
	application := app.New(app.Config{
		Camera:     cfg.Camera,
		Recognizer: cfg.Recognizer,
		Artifacts:  models.Artifacts,
		Patterns:   models.Patterns.Table,
		Bus:        bus,
		Dispatcher: dispatcher,
	}, camera, det)
	application.SetEnabled(enabled)

	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Artifacts: models.Artifacts,
		Hub:       hub,
		Pipeline:  application,
		Practice: &api.PracticeConfig{
			Evaluator:       practice.NewEvaluator(models.Templates, models.Artifacts, cfg.Practice),
			Store:           st,
			DefaultDuration: cfg.Practice.DefaultDuration.Duration,
			RecordAttempts:  cfg.Practice.RecordAttempts,
			ListLimit:       cfg.Practice.AttemptsListLimit,
		},
	})

	if cfg.Discovery.Enabled {
		if port, err := discovery.PortFromAddr(cfg.Server.Addr); err != nil {
			log.Printf("mDNS disabled: %v", err)
		} else {
			adv := discovery.New(cfg.Discovery.Instance, port, version)
			if err := adv.Start(); err != nil {
				log.Printf("mDNS disabled: %v", err)
			} else {
				defer adv.Stop()
				log.Printf("Advertising %s as %s", discovery.ServiceType, adv.Instance())
			}
		}
	}

	if err := application.Start(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	defer application.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe(ctx, cfg.Server.Addr)
	}()

	if withTray {
		t := tray.New(enabled)
		t.OnToggle(application.SetEnabled)
		t.OnDashboard(func() { openBrowser("http://" + cfg.Server.Addr) })
		t.OnQuit(stop)
		application.OnGesture = t.SetLastGesture
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray owns the main thread until quit.
		t.Run()
		stop()
	}

	return <-errCh
}

// openSources picks the frame source and hand tracker. Demo mode replays
// DemoSequence over synthetic frames; otherwise MediaPipe is preferred and
// the mock tracker is the fallback.
func openSources(cfg config.Config, demo bool) (capture.Camera, detector.Detector) {
	if demo {
		det := detector.NewMockDetector()
		det.SetSequence(app.DemoSequence())
		log.Println("Demo mode: replaying a scripted next_slide swipe")
		return capture.NewMockCamera(capture.AlternatingFrames(2, 64, 48), true), det
	}

	dc := detector.Config{
		MaxHands:        cfg.Detector.MaxHands,
		MinConfidence:   cfg.Detector.MinDetectionConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConfidence,
		Mirror:          cfg.Detector.Mirror,
		ScriptPath:      cfg.Detector.ScriptPath,
	}
	camera := capture.NewCamera(cfg.Camera)
	mp, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		return camera, detector.NewMockDetector()
	}
	log.Println("Using MediaPipe hand detection")
	return camera, mp
}

// useReferenceModels points the artifacts at a temporary copy of the
// embedded reference set.
func useReferenceModels(cfg *config.Config) error {
	dir, err := os.MkdirTemp("", "gestpipe-demo")
	if err != nil {
		return err
	}
	if err := fixtures.WriteReference(dir); err != nil {
		return err
	}
	cfg.Artifacts.Dir = dir
	cfg.Artifacts.Dataset = filepath.Join(dir, fixtures.CompactDataset)
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <baseDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(baseDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(baseDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	if err := exec.Command(name, url).Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
