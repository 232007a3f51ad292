package cogs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"ccasino/utils"
)

// StatusServer serves read-only JSON about the casino
type StatusServer struct {
	casino *Casino
	addr   string
	logger *log.Logger
	state  atomic.Value
}

// NewStatusServer creates a status server for casino on addr
func NewStatusServer(casino *Casino, addr string, logger *log.Logger) *StatusServer {
	s := &StatusServer{
		casino: casino,
		addr:   addr,
		logger: logger.WithPrefix("status"),
	}
	s.state.Store("starting")
	return s
}

// SetState records the transport state reported by /health
func (s *StatusServer) SetState(state string) {
	s.state.Store(state)
}

// Router returns the HTTP routes
func (s *StatusServer) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/table", s.table).Methods(http.MethodGet)
	r.HandleFunc("/players/{id:[0-9]+}", s.player).Methods(http.MethodGet)
	r.HandleFunc("/scoreboard", s.scoreboard).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is cancelled
func (s *StatusServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", s.addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *StatusServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"service":    "ccasino",
		"bot_status": s.state.Load().(string),
		"game":       s.casino.Table().Name(),
	})
}

func (s *StatusServer) table(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.casino.Table().DescribeRound())
}

type playerResponse struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Credits      int64              `json:"credits"`
	Score        int64              `json:"score"`
	CheatStrikes int                `json:"cheat_strikes"`
	Locked       []utils.LockedItem `json:"locked"`
}

func (s *StatusServer) player(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid player id"})
		return
	}
	p, err := s.casino.Ledger().GetPlayer(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load player", "player", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ledger unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{
		ID:           p.ID,
		Name:         p.Name,
		Credits:      p.Credits,
		Score:        p.Score,
		CheatStrikes: p.CheatStrikes,
		Locked:       s.casino.Locks().Active(id),
	})
}

func (s *StatusServer) scoreboard(w http.ResponseWriter, r *http.Request) {
	players, err := s.casino.Ledger().TopPlayers(r.Context(), utils.ScoreboardSize)
	if err != nil {
		s.logger.Error("failed to load scoreboard", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ledger unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
