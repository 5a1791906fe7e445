package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nergy-se/priceanalyzer/pkg/alarm"
	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/nergy-se/priceanalyzer/pkg/state"
	"github.com/nergy-se/priceanalyzer/pkg/store"
	"github.com/nergy-se/priceanalyzer/pkg/version"
	"github.com/sirupsen/logrus"
)

type Area interface {
	Snapshot() *driver.Snapshot
	Current() *analyzer.ClassifiedPeriod
	Location() *time.Location
}

type History interface {
	History(ctx context.Context, area string, from, to time.Time) ([]store.Period, error)
}

type Server struct {
	areas   map[string]Area
	history History
	alarms  *alarm.ActiveAlarms
	metrics http.Handler
}

// NewServer serves areas keyed by area code. history and metrics may be nil.
func NewServer(areas map[string]Area, history History, alarms *alarm.ActiveAlarms, metrics http.Handler) *Server {
	s := &Server{
		areas:   make(map[string]Area, len(areas)),
		history: history,
		alarms:  alarms,
		metrics: metrics,
	}
	for name, a := range areas {
		s.areas[strings.ToUpper(name)] = a
	}
	if s.alarms == nil {
		s.alarms = &alarm.ActiveAlarms{}
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/alarms", s.handleAlarms)
		r.Get("/areas", s.handleAreas)
		r.Route("/areas/{area}", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Get("/current", s.handleCurrent)
			r.Get("/today", s.handleToday)
			r.Get("/tomorrow", s.handleTomorrow)
			r.Get("/cheapest", s.handleCheapest)
			r.Get("/history", s.handleHistory)
		})
	})

	return r
}

// ListenAndServe serves Handler on address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			logrus.Errorf("web: error shutting down: %s", err)
		}
	}()

	logrus.Infof("web: listening on %s", address)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, version.Get())
}

func (s *Server) handleAlarms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.alarms.List())
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.areas))
	for name := range s.areas {
		names = append(names, name)
	}
	sort.Strings(names)

	states := make([]state.State, 0, len(names))
	for _, name := range names {
		snap := s.areas[name].Snapshot()
		if snap == nil {
			states = append(states, state.State{Area: name})
			continue
		}
		states = append(states, state.FromSnapshot(snap))
	}
	respondJSON(w, http.StatusOK, states)
}

// snapshot writes an error and returns nil if the area is unknown or not computed yet.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (Area, *driver.Snapshot) {
	name := strings.ToUpper(chi.URLParam(r, "area"))
	a, ok := s.areas[name]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown area %s", name))
		return nil, nil
	}
	snap := a.Snapshot()
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, fmt.Sprintf("no prices for %s yet", name))
		return nil, nil
	}
	return a, snap
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	_, snap := s.snapshot(w, r)
	if snap == nil {
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	a, snap := s.snapshot(w, r)
	if snap == nil {
		return
	}
	current := a.Current()
	if current == nil {
		respondError(w, http.StatusNotFound, "no period contains the current time")
		return
	}
	respondJSON(w, http.StatusOK, current)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	_, snap := s.snapshot(w, r)
	if snap == nil {
		return
	}
	respondJSON(w, http.StatusOK, snap.Today)
}

func (s *Server) handleTomorrow(w http.ResponseWriter, r *http.Request) {
	_, snap := s.snapshot(w, r)
	if snap == nil {
		return
	}
	if !snap.TomorrowValid {
		respondJSON(w, http.StatusOK, []analyzer.ClassifiedPeriod{})
		return
	}
	respondJSON(w, http.StatusOK, snap.Tomorrow)
}

func (s *Server) handleCheapest(w http.ResponseWriter, r *http.Request) {
	n := 5
	if v := r.URL.Query().Get("n"); v != "" {
		var err error
		n, err = strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
	}
	tomorrow := false
	switch r.URL.Query().Get("day") {
	case "", "today":
	case "tomorrow":
		tomorrow = true
	default:
		respondError(w, http.StatusBadRequest, "day must be today or tomorrow")
		return
	}

	_, snap := s.snapshot(w, r)
	if snap == nil {
		return
	}
	list := snap.Cheapest(n, tomorrow)
	if list == nil {
		list = []analyzer.Price{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotImplemented, "history is not enabled")
		return
	}
	name := strings.ToUpper(chi.URLParam(r, "area"))
	a, ok := s.areas[name]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown area %s", name))
		return
	}

	loc := a.Location()
	now := time.Now().In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -7)
	to := from.AddDate(0, 0, 9)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			respondError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			respondError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
	}

	periods, err := s.history.History(r.Context(), name, from, to)
	if err != nil {
		logrus.Errorf("web: error fetching history: %s", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if periods == nil {
		periods = []store.Period{}
	}
	respondJSON(w, http.StatusOK, periods)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		logrus.Errorf("web: error encoding response: %s", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
