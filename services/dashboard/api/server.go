package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/engine"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	defaultExtendedPoints = 50
	defaultJournalLimit   = 20
	maxJournalLimit       = 500
	shutdownTimeout       = 5 * time.Second
)

var log = logger.GetOrCreate("api")

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	engine         VitalsEngine
	journal        AlertJournal
	devices        DeviceRegistry
	patient        common.PatientProfile
	metricsHandler http.Handler
	isRunning      func() bool
	listenAddr     string
	staticDir      string
	generalHandler func(http.Handler) http.Handler
	events         *eventsHub
	unsubscribe    func()
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ListenAddress  string
	StaticDir      string
	Engine         VitalsEngine
	Journal        AlertJournal
	Devices        DeviceRegistry
	Patient        common.PatientProfile
	MetricsHandler http.Handler
	IsRunning      func() bool
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Engine) {
		return nil, errors.New("nil vitals engine")
	}
	if check.IfNil(args.Journal) {
		return nil, errors.New("nil alert journal")
	}
	if check.IfNil(args.Devices) {
		return nil, errors.New("nil device registry")
	}
	if args.MetricsHandler == nil {
		return nil, errors.New("nil metrics handler")
	}
	if args.IsRunning == nil {
		return nil, errors.New("nil running status handler")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		engine:         args.Engine,
		journal:        args.Journal,
		devices:        args.Devices,
		patient:        args.Patient,
		metricsHandler: args.MetricsHandler,
		isRunning:      args.IsRunning,
		listenAddr:     args.ListenAddress,
		staticDir:      args.StaticDir,
		generalHandler: args.GeneralHandler,
		events:         newEventsHub(),
	}
	s.unsubscribe = args.Engine.Subscribe(s.events.HandleTick)

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/vitals", s.handleGetVitals)
		api.GET("/vitals/export", s.handleExportVitals)
		api.GET("/vitals/:kind", s.handleGetVital)
		api.GET("/vitals/:kind/extended", s.handleGetExtendedVital)
		api.GET("/alerts", s.handleGetAlerts)
		api.GET("/alerts/journal", s.handleGetJournal)
		api.GET("/events", s.handleEvents)
		api.GET("/patient", s.handleGetPatient)
		api.GET("/devices", s.handleGetDevices)
		api.GET("/status", s.handleGetStatus)
	}

	s.router.GET("/metrics", gin.WrapH(s.metricsHandler))

	// Serve static files from the frontend build if configured
	if s.staticDir != "" {
		log.Info("serving static files", "dir", s.staticDir)
		s.router.Static("/static", path.Join(s.staticDir, "static"))
		s.router.StaticFile("/favicon.ico", path.Join(s.staticDir, "favicon.ico"))

		// NoRoute for SPA fallback
		s.router.NoRoute(func(c *gin.Context) {
			// If request is for an /api route that doesn't exist, return 404
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "api route not found"})
				return
			}
			// Otherwise serve index.html for CSR
			c.File(path.Join(s.staticDir, "index.html"))
		})
	}
}

// Start binds the listen address and serves connections in the background. A bind failure is returned.
func (s *server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("%w while listening on %s", err, s.listenAddr)
	}
	s.listenAddr = ln.Addr().String()

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: s.generalHandler(s.router),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close ends the event streams and gracefully stops the server
func (s *server) Close() error {
	s.unsubscribe()
	s.events.close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()

	return nil
}

// --- Handlers ---

func (s *server) handleGetVitals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tick":   s.engine.Status().Tick,
		"vitals": s.engine.Vitals(),
	})
}

func (s *server) handleGetVital(c *gin.Context) {
	view, err := s.engine.Vital(common.VitalKind(c.Param("kind")))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *server) handleGetExtendedVital(c *gin.Context) {
	count, err := queryInt(c, "count", defaultExtendedPoints)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
		return
	}

	kind := common.VitalKind(c.Param("kind"))
	points, err := s.engine.ExtendedHistory(kind, count)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":   kind,
		"points": points,
	})
}

func (s *server) handleExportVitals(c *gin.Context) {
	alerts, _ := s.engine.Alerts()
	buff, err := buildVitalsWorkbook(s.patient, s.engine.Vitals(), alerts, time.Now())
	if err != nil {
		log.Warn("failed to build the vitals workbook", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="vitals.xlsx"`)
	c.Data(http.StatusOK, xlsxMimeType, buff.Bytes())
}

func (s *server) handleGetAlerts(c *gin.Context) {
	alerts, total := s.engine.Alerts()

	c.JSON(http.StatusOK, gin.H{
		"alerts":        alerts,
		"totalRecorded": total,
	})
}

func (s *server) handleGetJournal(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultJournalLimit)
	if err != nil || limit <= 0 || limit > maxJournalLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	entries, err := s.journal.GetAlerts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": entries})
}

func (s *server) handleEvents(c *gin.Context) {
	id, ch := s.events.register()
	if ch == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is closing"})
		return
	}
	defer s.events.unregister(id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	alerts, total := s.engine.Alerts()
	c.SSEvent("snapshot", gin.H{
		"status":        s.engine.Status(),
		"vitals":        s.engine.Vitals(),
		"alerts":        alerts,
		"totalRecorded": total,
	})
	c.Writer.Flush()

	log.Debug("events client connected", "client", id, "remote", c.Request.RemoteAddr)

	c.Stream(func(w io.Writer) bool {
		select {
		case result, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("tick", result)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	log.Debug("events client disconnected", "client", id)
}

func (s *server) handleGetPatient(c *gin.Context) {
	c.JSON(http.StatusOK, s.patient)
}

func (s *server) handleGetDevices(c *gin.Context) {
	c.JSON(http.StatusOK, s.devices.Report())
}

func (s *server) handleGetStatus(c *gin.Context) {
	status := s.engine.Status()

	c.JSON(http.StatusOK, gin.H{
		"tick":       status.Tick,
		"lastTickAt": status.LastTickAt,
		"running":    s.isRunning(),
	})
}

func queryInt(c *gin.Context, key string, defaultValue int) (int, error) {
	raw, found := c.GetQuery(key)
	if !found {
		return defaultValue, nil
	}

	return strconv.Atoi(raw)
}

func respondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, vitals.ErrUnknownKind):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
