package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/airpaint/internal/app"
	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/config"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/present"
	"github.com/ayusman/airpaint/internal/server"
	"github.com/ayusman/airpaint/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.airpaint/config.toml when present)")
	cameraID := flag.Int("camera", 0, "camera device id")
	streamAddr := flag.String("stream", "", "serve the preview stream on this address, e.g. :8080")
	advertise := flag.Bool("advertise", false, "announce the preview server over mDNS")
	window := flag.Bool("window", true, "show the preview window")
	useTray := flag.Bool("tray", false, "show the system tray menu")
	noResize := flag.Bool("no-resize", false, "present frames at camera resolution")
	writeConfig := flag.Bool("write-config", false, "write the effective config to the config path and exit")
	flag.Parse()

	fmt.Println("airpaint - Air Drawing")

	path, explicit := *configPath, *configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}
	cfg := loadConfig(path, explicit)

	// Flags given on the command line override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "camera":
			cfg.Camera.Device = *cameraID
		case "stream":
			cfg.Preview.Addr = *streamAddr
		case "advertise":
			cfg.Preview.Advertise = *advertise
		case "window":
			cfg.Preview.Window = *window
		case "tray":
			cfg.Preview.Tray = *useTray
		case "no-resize":
			cfg.Resize.Enabled = !*noResize
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *writeConfig {
		if err := config.Save(path, cfg); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Wrote config to %s\n", path)
		return
	}

	session := uuid.NewString()
	log.Printf("Session %s", session)

	var sinks present.Multi

	var win *present.Window
	if cfg.Preview.Window {
		win = present.NewWindow("airpaint")
		sinks = append(sinks, win)
	}

	var feed *server.Feed
	var srv *server.Server
	if cfg.Preview.Addr != "" {
		feed = server.NewFeed(session)
		sinks = append(sinks, feed)

		webDir := findWebDir()
		if webDir != "" {
			fmt.Printf("Serving static files from: %s\n", webDir)
		}
		srv = server.New(server.Config{StaticDir: webDir, Feed: feed})

		go func() {
			fmt.Printf("Starting server on %s\n", cfg.Preview.Addr)
			if err := srv.ListenAndServe(cfg.Preview.Addr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()

		if cfg.Preview.Advertise {
			if adv := advertisePreview(cfg.Preview.Addr, session); adv != nil {
				defer adv.Close()
			}
		}
	}

	if len(sinks) == 0 {
		log.Fatal("Nothing to present: enable -window or -stream")
	}

	a, err := app.New(cfg, capture.NewCamera(cfg.CaptureConfig()), newDetector(cfg.Detector), sinks)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if feed != nil {
		a.OnFrame(func(s app.Snapshot) error {
			return feed.PublishCursor(s.Gesture, s.Brush)
		})
	}

	if cfg.Preview.Tray {
		tr := tray.New()
		tr.OnToggle(a.SetEnabled)
		tr.OnClear(a.Clear)
		tr.OnQuit(stop)
		a.OnFrame(func(s app.Snapshot) error {
			tr.SetMode(s.Gesture.Mode.String())
			return nil
		})

		// The tray owns the main goroutine
		done := make(chan error, 1)
		go func() {
			done <- a.Run(ctx)
			tr.Stop()
		}()
		tr.Run()
		stop()
		err = <-done
	} else {
		err = a.Run(ctx)
	}

	if srv != nil {
		feed.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
		cancel()
	}
	if win != nil {
		win.Close()
	}
	if cerr := a.Close(); cerr != nil {
		log.Printf("Error closing session: %v", cerr)
	}

	if err != nil {
		log.Fatalf("Session failed: %v", err)
	}
}

// advertisePreview announces the preview server. Failures are logged and
// the session continues without it.
func advertisePreview(addr, session string) *server.Advertiser {
	port, err := server.PortOf(addr)
	if err != nil {
		log.Printf("Cannot advertise %s: %v", addr, err)
		return nil
	}
	adv, err := server.Advertise(port, session)
	if err != nil {
		log.Printf("mDNS advertisement failed: %v", err)
		return nil
	}
	log.Printf("Advertising preview as %s on port %d", server.ServiceType, port)
	return adv
}

// loadConfig reads path over the defaults. A missing file is only an error
// when the path was given explicitly.
func loadConfig(path string, explicit bool) config.Config {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		return config.Default()
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Loaded config from %s", path)
	return cfg
}

// newDetector prefers MediaPipe and falls back to the mock detector.
func newDetector(cfg detector.Config) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(cfg)
	if err != nil {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		return detector.NewMockDetector()
	}
	log.Println("Using MediaPipe hand detection")
	return mp
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.airpaint/web.
// Returns the first existing directory or empty string if none found.
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

	homeWebDir := filepath.Join(config.Dir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
