// Package server streams map generation to browsers over WebSocket and
// serves archived maps.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/tilegen/internal/config"
	"github.com/lawnchairsociety/tilegen/internal/database"
	"github.com/lawnchairsociety/tilegen/internal/logger"
	"github.com/lawnchairsociety/tilegen/internal/mapfile"
	"github.com/lawnchairsociety/tilegen/internal/tiles"
	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

//go:embed static/index.html
var indexPage []byte

// Server generates maps on request. The zero value is not usable; create
// one with NewServer.
type Server struct {
	config     config.ServerConfig
	generation config.GenerationConfig
	catalogue  tiles.Catalogue

	// archive is nil when maps are not stored.
	archive *database.Database

	connLimiter *ConnLimiter
	rateLimiter *RequestLimiter
	upgrader    websocket.Upgrader
}

// NewServer creates a server drawing tiles from c. Generation limits come
// from cfg.Generation (attempts, step budget) and cfg.Server (sizes,
// connections). archive may be nil.
func NewServer(cfg *config.Config, c tiles.Catalogue, archive *database.Database) *Server {
	s := &Server{
		config:      cfg.Server,
		generation:  cfg.Generation,
		catalogue:   c,
		archive:     archive,
		connLimiter: NewConnLimiter(cfg.Server.Connections),
		rateLimiter: NewRequestLimiter(cfg.Server.RateLimit),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.config.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	return s
}

// Close releases background resources. It does not stop listeners.
func (s *Server) Close() {
	s.rateLimiter.Stop()
	stats := s.connLimiter.Stats()
	logger.Info("Server closed", "open_streams", stats.Streams, "clients", stats.Clients)
}

// Handler returns the HTTP routes:
//
//	GET /           browser client
//	GET /ws         generation stream
//	GET /maps       archived maps as JSON (archive only)
//	GET /maps/{id}  one archived map as HTML or ?format=text (archive only)
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws", s.handleWebSocketUpgrade)
	if s.archive != nil {
		mux.HandleFunc("GET /maps", s.handleListMaps)
		mux.HandleFunc("GET /maps/{id}", s.handleGetMap)
	}
	return mux
}

// ListenAndServe serves Handler on the configured address until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", s.config.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

// handleWebSocketUpgrade checks limits and upgrades the connection.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	if locked, remaining := s.rateLimiter.IsLocked(clientIP); locked {
		logger.Warning("WebSocket connection rejected - client locked out",
			"client_ip", clientIP,
			"remaining", remaining)
		http.Error(w, "Too many refused requests. Please try again later.", http.StatusTooManyRequests)
		return
	}

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}

	stats := s.connLimiter.Stats()
	logger.Debug("Stream opened",
		"client_ip", clientIP,
		"client_streams", s.connLimiter.ClientStreams(clientIP),
		"open_streams", stats.Streams,
		"clients", stats.Clients)

	go s.serveStream(conn, clientIP)
}

// serveStream answers generation requests on conn until the client leaves
// or is locked out.
func (s *Server) serveStream(conn *websocket.Conn, clientIP string) {
	log := logger.With("client_ip", clientIP)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Stream handler panicked", "panic", r)
		}
		s.connLimiter.Release(clientIP)
		conn.Close()
		log.Debug("Stream closed", "open_streams", s.connLimiter.Stats().Streams)
	}()

	conn.SetReadLimit(s.config.WebSocket.MaxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("WebSocket read failed", "error", err)
			}
			return
		}

		req, err := s.parseRequest(data)
		if err != nil {
			(&stream{conn: conn}).send(ErrorMessage{Type: TypeError, Error: err.Error()})
			if locked, d := s.rateLimiter.RecordFailure(clientIP); locked {
				log.Warn("Client locked out", "error", err, "lockout", d)
				return
			}
			log.Debug("Request refused", "error", err, "failures", s.rateLimiter.Failures(clientIP))
			continue
		}
		s.rateLimiter.RecordSuccess(clientIP)

		ctx, cancel := context.WithCancel(context.Background())
		st := &stream{conn: conn, cancel: cancel}
		s.streamRequest(ctx, st, req, log)
		cancel()
		if st.err != nil {
			log.Debug("WebSocket write failed", "error", st.err)
			return
		}
	}
}

func (s *Server) parseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return req, errors.Join(ErrBadRequest, err)
	}
	if err := req.validate(s.config.MaxWidth, s.config.MaxHeight); err != nil {
		return req, err
	}
	return req, nil
}

// streamRequest runs req, sending step and retry messages as they happen
// and a done or error message at the end. A failed write cancels ctx.
func (s *Server) streamRequest(ctx context.Context, st *stream, req Request, log *slog.Logger) {
	var observe func(wfc.Event)
	if !req.Quiet {
		observe = func(e wfc.Event) {
			if e.Kind == wfc.EventConstrain {
				return
			}
			st.send(stepMessage(e))
		}
	}
	onRetry := func(attempt int, seed int64, err error) {
		log.Debug("Generation attempt failed", "attempt", attempt, "seed", seed, "error", err)
		st.send(RetryMessage{Type: TypeRetry, Attempt: attempt, Seed: seed, Error: err.Error()})
	}

	result, err := s.generate(ctx, req, observe, onRetry)
	if errors.Is(err, context.Canceled) {
		log.Debug("Generation abandoned", "width", req.Width, "height", req.Height)
		return
	}
	if err != nil {
		log.Warn("Generation failed", "width", req.Width, "height", req.Height, "error", err)
		st.send(ErrorMessage{Type: TypeError, Error: err.Error()})
		return
	}

	done, err := s.doneMessage(result)
	if err != nil {
		log.Error("Encoding map failed", "error", err)
		st.send(ErrorMessage{Type: TypeError, Error: err.Error()})
		return
	}
	log.Info("Map generated",
		"width", req.Width,
		"height", req.Height,
		"seed", result.Seed,
		"attempts", result.Attempts,
		"digest", done.Digest,
		"map_id", done.MapID)
	st.send(done)
}

// generate runs the generator for req until it finishes or ctx is done. A
// zero seed is replaced by the current time.
func (s *Server) generate(ctx context.Context, req Request, observe func(wfc.Event), onRetry func(int, int64, error)) (*wfc.GeneratedMap, error) {
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cfg := s.generation.GeneratorConfig(seed)
	cfg.Bounds = req.Bounds()

	g := wfc.NewGenerator(s.catalogue, cfg)
	g.Observer = observe
	g.OnRetry = onRetry
	return g.GenerateContext(ctx)
}

// doneMessage encodes result and archives it when an archive is set.
// Archive failures are logged and leave MapID unset.
func (s *Server) doneMessage(result *wfc.GeneratedMap) (DoneMessage, error) {
	f, err := mapfile.FromMap(result.Map, result.Seed, time.Now())
	if err != nil {
		return DoneMessage{}, err
	}

	done := DoneMessage{
		Type:       TypeDone,
		Seed:       result.Seed,
		BaseSeed:   result.BaseSeed,
		Attempts:   result.Attempts,
		XMin:       f.XMin,
		YMin:       f.YMin,
		Width:      f.Width,
		Height:     f.Height,
		Rows:       f.Rows,
		Digest:     f.Digest,
		Steps:      result.Stats.Steps,
		Collapses:  result.Stats.Collapses,
		Rejections: result.Stats.Rejections,
	}

	if s.archive != nil {
		rec, created, err := s.archive.SaveMap(result.Seed, result.Map)
		if err != nil {
			logger.Error("Archiving map failed", "digest", f.Digest, "error", err)
		} else {
			done.MapID = rec.ID
			if !created {
				logger.Debug("Map already archived", "map_id", rec.ID)
			}
		}
	}
	return done, nil
}

// stream writes JSON messages to a connection and keeps the first write
// error; later sends are dropped. cancel, if set, runs on that error.
type stream struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	err    error
}

func (st *stream) send(v any) {
	if st.err != nil {
		return
	}
	st.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if st.err = st.conn.WriteJSON(v); st.err != nil && st.cancel != nil {
		st.cancel()
	}
}
