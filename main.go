package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/heatsense/occupancy.report/internal/api"
	"github.com/heatsense/occupancy.report/internal/config"
	"github.com/heatsense/occupancy.report/internal/db"
	"github.com/heatsense/occupancy.report/internal/httputil"
	"github.com/heatsense/occupancy.report/internal/monitor"
	"github.com/heatsense/occupancy.report/internal/serialmux"
	"github.com/heatsense/occupancy.report/internal/sink"
	"github.com/heatsense/occupancy.report/internal/source"
	"github.com/heatsense/occupancy.report/internal/thermal"
	"github.com/heatsense/occupancy.report/internal/timeutil"
	"github.com/heatsense/occupancy.report/internal/units"
	"github.com/heatsense/occupancy.report/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode    = flag.Bool("dev", false, "Run in dev mode (serve ./static, mock serial port)")
	listen     = flag.String("listen", ":8080", "Listen address")
	sourceFlag = flag.String("source", "", "Frame source: a URL, serial:<device path>, or empty to analyze frames POSTed to this server")
	once       = flag.Bool("once", false, "Run a single analysis pass, print the result, and exit")
	configPath = flag.String("config", "", "Path to tuning config JSON")
	interval   = flag.String("interval", "", "Poll interval override (e.g. 3s)")
	timeout    = flag.String("timeout", "", "Fetch timeout override (e.g. 10s)")
	unitsFlag  = flag.String("units", units.Celsius, "Display units (celsius or fahrenheit)")
	dbFile     = flag.String("db", "occupancy.db", "SQLite database path (empty to disable the readings store)")
	logFile    = flag.String("log-file", "", "Append readings as JSON lines to this file")
	forwardURL = flag.String("forward", "", "Forward each reading as a JSON POST to this URL")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

// cacheSource reads the latest frame that a sensor POSTed to this server. It
// is the default source when no external URL or serial device is given.
type cacheSource struct {
	cache *api.FrameCache
}

func (c *cacheSource) Fetch(ctx context.Context) (*thermal.Frame, error) {
	frame := c.cache.Latest("")
	if frame == nil {
		return nil, &source.FetchError{Source: "cache", Reason: "no frame received yet"}
	}
	return frame, nil
}

// latestReadingSink hands each reading to the API server so /api/occupancy
// always reflects the most recent pass.
type latestReadingSink struct {
	srv *api.Server
}

func (s *latestReadingSink) Report(ctx context.Context, r *thermal.Reading) error {
	s.srv.SetLatestReading(r)
	return nil
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("occupancy.report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	params := cfg.AnalysisParams()
	if err := params.Validate(); err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if !units.Valid(*unitsFlag) {
		log.Fatalf("configuration error: unknown units %q", *unitsFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := runOnce(ctx, cfg, params); err != nil {
			log.Fatalf("analysis failed: %v", err)
		}
		return
	}

	runServer(ctx, cfg, params)
}

func loadConfig() (*config.TuningConfig, error) {
	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}
	if *interval != "" {
		cfg.PollInterval = interval
	}
	if *timeout != "" {
		cfg.FetchTimeout = timeout
	}
	return cfg, cfg.Validate()
}

// buildSource resolves the -source flag. The serial mux is returned so the
// caller can run its monitor goroutine; it is nil for HTTP and cache sources.
func buildSource(cache *api.FrameCache, cfg *config.TuningConfig) (source.FrameSource, serialmux.SerialMuxInterface, error) {
	switch {
	case *sourceFlag == "":
		if cache == nil {
			return nil, nil, errors.New("-once requires -source (no ingest server is running)")
		}
		return &cacheSource{cache: cache}, nil, nil

	case strings.HasPrefix(*sourceFlag, "serial:"):
		device := strings.TrimPrefix(*sourceFlag, "serial:")
		var mux serialmux.SerialMuxInterface
		if *devMode {
			frame := thermal.Frame{
				SensorID: "mock",
				Width:    thermal.DefaultFrameWidth,
				Height:   thermal.DefaultFrameHeight,
				Temps:    make([]float64, thermal.DefaultFrameWidth*thermal.DefaultFrameHeight),
			}
			for i := range frame.Temps {
				frame.Temps[i] = 22.5
			}
			line, err := json.Marshal(frame.Wire())
			if err != nil {
				return nil, nil, err
			}
			mux = serialmux.NewMockSerialMux(line)
		} else {
			var err error
			mux, err = serialmux.NewRealSerialMux(device, serialmux.DefaultPortOptions())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open serial device %s: %w", device, err)
			}
		}
		return source.NewSerialSource(mux), mux, nil

	default:
		return source.NewHTTPSource(*sourceFlag, httputil.NewStandardClient(nil), cfg.GetFetchTimeout()), nil, nil
	}
}

func runOnce(ctx context.Context, cfg *config.TuningConfig, params thermal.AnalysisParams) error {
	src, mux, err := buildSource(nil, cfg)
	if err != nil {
		return err
	}
	if mux != nil {
		defer mux.Close()
		go func() {
			if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("serial monitor error: %v", err)
			}
		}()
		if ss, ok := src.(*source.SerialSource); ok {
			go ss.Run(ctx)
			// Give the sensor a moment to emit its first frame.
			if err := (timeutil.RealClock{}).Sleep(ctx, cfg.GetPollInterval()); err != nil {
				return err
			}
		}
	}

	mon, err := monitor.New(src, params, nil, cfg.GetPollInterval(), cfg.GetAmbientSmoothing(), nil)
	if err != nil {
		return err
	}
	reading, err := mon.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Println(sink.FormatReading(reading, *unitsFlag))
	return nil
}

func runServer(ctx context.Context, cfg *config.TuningConfig, params thermal.AnalysisParams) {
	cache := api.NewFrameCache()

	var database *db.DB
	if *dbFile != "" {
		var err error
		database, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer database.Close()
	}

	apiServer := api.NewServer(cache, database, cfg, *unitsFlag)

	src, smux, err := buildSource(cache, cfg)
	if err != nil {
		log.Fatalf("failed to build frame source: %v", err)
	}
	if smux != nil {
		defer smux.Close()
	}

	sinks := sink.MultiSink{
		&latestReadingSink{srv: apiServer},
		sink.NewConsoleSink(*unitsFlag),
	}
	if database != nil {
		sinks = append(sinks, sink.NewStoreSink(database))
	}
	if *logFile != "" {
		fs, err := sink.NewFileSink(*logFile)
		if err != nil {
			log.Fatalf("failed to open readings log: %v", err)
		}
		defer fs.Close()
		sinks = append(sinks, fs)
	}
	if *forwardURL != "" {
		sinks = append(sinks, sink.NewHTTPSink(*forwardURL, nil))
	}

	mon, err := monitor.New(src, params, nil, cfg.GetPollInterval(), cfg.GetAmbientSmoothing(), sinks)
	if err != nil {
		log.Fatalf("failed to create monitor: %v", err)
	}

	var wg sync.WaitGroup

	// serial IO goroutines when reading straight off a sensor's UART
	if smux != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := smux.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("serial monitor error: %v", err)
			}
			log.Print("serial monitor routine terminated")
		}()
		if ss, ok := src.(*source.SerialSource); ok {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ss.Run(ctx)
				log.Print("serial frame reader terminated")
			}()
		}
	}

	// continuous analysis loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("monitor stopped: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// admin debugging routes
		if database != nil {
			if err := database.AttachAdminRoutes(mux); err != nil {
				log.Fatalf("failed to attach admin routes: %v", err)
			}
		}
		if smux != nil {
			smux.AttachAdminRoutes(mux)
		}

		mux.Handle("/api/", http.StripPrefix("/api", apiServer.ServeMux()))
		apiServer.AttachChartRoutes(mux)

		// read static files from the embedded filesystem in production or
		// from the local ./static in dev for easier iteration without
		// restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			// Strip the embedded static/ prefix so the viewer is
			// served at / like in dev mode.
			sub, err := fs.Sub(staticFiles, "static")
			if err != nil {
				log.Fatalf("failed to open embedded static files: %v", err)
			}
			staticHandler = http.FileServer(http.FS(sub))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
