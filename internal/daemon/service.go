// Package daemon provides the long-running dashboard poller and its HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/theirongolddev/garage/internal/logging"
	"github.com/theirongolddev/garage/internal/model"
	"github.com/theirongolddev/garage/internal/pipeline"
)

// LoadFunc runs one read-evaluate cycle against the record store.
type LoadFunc func(ctx context.Context, now time.Time) (*pipeline.LoadResult, error)

// Config controls the daemon runtime behavior.
type Config struct {
	Backend      string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Load         LoadFunc
}

// Snapshot is a compact dashboard state for status/event payloads.
type Snapshot struct {
	At               time.Time `json:"at"`
	CurrentMileageKM int       `json:"current_mileage_km"`
	MaintenanceCount int       `json:"maintenance_records"`
	Fills            int       `json:"fills"`
	Overdue          int       `json:"overdue"`
	Warning          int       `json:"warning"`
	NoRecord         int       `json:"no_record"`
	AvgKMPerLiter    float64   `json:"avg_km_per_liter"`
	FuelSpend        float64   `json:"fuel_spend"`
	MaintenanceSpend float64   `json:"maintenance_spend"`
	Coercions        int       `json:"coercions"`
}

// StatusChange records a part moving between wear statuses.
type StatusChange struct {
	Part string           `json:"part"`
	From model.WearStatus `json:"from"`
	To   model.WearStatus `json:"to"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	MileageKM        int            `json:"mileage_km"`
	MaintenanceCount int            `json:"maintenance_records"`
	Fills            int            `json:"fills"`
	FuelSpend        float64        `json:"fuel_spend"`
	MaintenanceSpend float64        `json:"maintenance_spend"`
	Parts            []StatusChange `json:"parts,omitempty"`
}

func (d Delta) isZero() bool {
	return d.MileageKM == 0 &&
		d.MaintenanceCount == 0 &&
		d.Fills == 0 &&
		d.FuelSpend == 0 &&
		d.MaintenanceSpend == 0 &&
		len(d.Parts) == 0
}

// Event is emitted whenever the dashboard snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Backend         string    `json:"backend"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	metrics *Metrics
	log     *zap.SugaredLogger
	now     func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	dashboard   model.Dashboard
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	return &Service{
		cfg:       cfg,
		metrics:   NewMetrics(),
		log:       logging.With("component", "daemon", "backend", cfg.Backend),
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/status", s.handleStatus)
		v1.Get("/dashboard", s.handleDashboard)
		v1.Get("/parts/{part}", s.handlePart)
		v1.Get("/events", s.handleEvents)
		v1.Get("/stream", s.handleStream)
	})
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Load == nil {
		return errors.New("daemon: no loader configured")
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Infow("daemon listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval.String())

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce runs one load cycle. On failure the previous snapshot is kept
// and only last_error changes.
func (s *Service) pollOnce(ctx context.Context) {
	start := s.now()
	res, err := s.cfg.Load(ctx, start)
	s.metrics.PollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = start
		s.pollCount++
		s.mu.Unlock()
		s.metrics.PollsTotal.WithLabelValues("error").Inc()
		s.log.Errorw("daemon poll failed", "error", err)
		return
	}
	s.metrics.PollsTotal.WithLabelValues("ok").Inc()

	snap := snapshotFromResult(res, start)
	s.metrics.observe(res.Dashboard, snap)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevDash := s.dashboard
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.dashboard = res.Dashboard
	s.lastPollAt = start
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: start,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		delta.Parts = diffParts(prevDash.Parts, res.Dashboard.Parts)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "dashboard_delta",
				Timestamp: start,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
		s.log.Debugw("daemon event", "id", ev.ID, "type", ev.Type)
	}
}

func snapshotFromResult(res *pipeline.LoadResult, at time.Time) Snapshot {
	d := res.Dashboard
	counts := d.CountByStatus()

	var maintSpend float64
	for _, r := range d.Maintenance {
		maintSpend += r.Cost
	}

	return Snapshot{
		At:               at,
		CurrentMileageKM: d.CurrentMileage,
		MaintenanceCount: len(d.Maintenance),
		Fills:            d.Fuel.Fills,
		Overdue:          counts[model.WearOverdue],
		Warning:          counts[model.WearWarning],
		NoRecord:         counts[model.WearNoRecord],
		AvgKMPerLiter:    d.Fuel.AvgKMPerLiter,
		FuelSpend:        d.Fuel.TotalSpend,
		MaintenanceSpend: maintSpend,
		Coercions:        len(res.Coercions),
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		MileageKM:        curr.CurrentMileageKM - prev.CurrentMileageKM,
		MaintenanceCount: curr.MaintenanceCount - prev.MaintenanceCount,
		Fills:            curr.Fills - prev.Fills,
		FuelSpend:        curr.FuelSpend - prev.FuelSpend,
		MaintenanceSpend: curr.MaintenanceSpend - prev.MaintenanceSpend,
	}
}

// diffParts lists parts whose status changed, in the current part order.
func diffParts(prev, curr []model.PartWear) []StatusChange {
	before := make(map[string]model.WearStatus, len(prev))
	for _, p := range prev {
		before[p.Part.Name] = p.Status
	}

	var out []StatusChange
	for _, p := range curr {
		from, ok := before[p.Part.Name]
		if ok && from == p.Status {
			continue
		}
		out = append(out, StatusChange{Part: p.Part.Name, From: from, To: p.Status})
	}
	return out
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Backend:         s.cfg.Backend,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ready := s.hasSnapshot
	dash := s.dashboard
	s.mu.RUnlock()

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no successful poll yet"})
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Service) handlePart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "part")

	s.mu.RLock()
	parts := s.dashboard.Parts
	s.mu.RUnlock()

	for _, p := range parts {
		if p.Part.Name == name {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("part %q is not tracked", name)})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
