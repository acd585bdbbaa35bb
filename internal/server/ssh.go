package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/gliderlabs/ssh"

	"github.com/lawnchairsociety/tilegen/internal/logger"
	"github.com/lawnchairsociety/tilegen/internal/render"
)

// Size of a map drawn for a session that gives neither a size nor a PTY.
const (
	defaultSSHWidth  = 16
	defaultSSHHeight = 8
)

// SSHServer draws freshly generated maps as text for ssh clients:
//
//	ssh -p 2222 host            map sized to the terminal
//	ssh -p 2222 host 20 10 42   20x10 map with seed 42
type SSHServer struct {
	server *Server
	ssh    *ssh.Server
}

// NewSSHServer creates the terminal viewer for s. It shares s's catalogue,
// size limits and connection limiter.
func NewSSHServer(s *Server) (*SSHServer, error) {
	v := &SSHServer{server: s}
	v.ssh = &ssh.Server{
		Addr:    s.config.SSH.Address,
		Handler: v.handleSession,
	}

	if key := s.config.SSH.HostKey; key != "" {
		if err := v.ssh.SetOption(ssh.HostKeyFile(key)); err != nil {
			return nil, fmt.Errorf("set host key: %w", err)
		}
	}
	return v, nil
}

// Serve accepts sessions on l until Close.
func (v *SSHServer) Serve(l net.Listener) error {
	return v.ssh.Serve(l)
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (v *SSHServer) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("SSH viewer listening", "address", v.ssh.Addr)
		errCh <- v.ssh.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := v.ssh.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the listener and drops open sessions.
func (v *SSHServer) Close() error {
	return v.ssh.Close()
}

func (v *SSHServer) handleSession(sess ssh.Session) {
	clientIP := extractIP(sess.RemoteAddr().String())
	log := logger.With("client_ip", clientIP, "user", sess.User())

	if !v.server.connLimiter.TryAcquire(clientIP) {
		fmt.Fprintln(sess.Stderr(), "Too many connections. Please try again later.")
		sess.Exit(1)
		return
	}
	defer v.server.connLimiter.Release(clientIP)

	req, err := v.sessionRequest(sess)
	if err != nil {
		fmt.Fprintln(sess.Stderr(), err)
		sess.Exit(2)
		return
	}

	result, err := v.server.generate(sess.Context(), req, nil, nil)
	if err != nil {
		log.Warn("Generation failed", "width", req.Width, "height", req.Height, "error", err)
		fmt.Fprintln(sess.Stderr(), err)
		sess.Exit(1)
		return
	}

	title := fmt.Sprintf("%dx%d map, seed %d", req.Width, req.Height, result.Seed)
	if err := render.Text(sess, result.Map, render.TextOptions{Title: title, Legend: true}); err != nil {
		log.Debug("SSH write failed", "error", err)
		return
	}
	log.Info("Map drawn over SSH", "width", req.Width, "height", req.Height, "seed", result.Seed)
	sess.Exit(0)
}

// sessionRequest builds a request from the session command, falling back
// to the terminal size.
func (v *SSHServer) sessionRequest(sess ssh.Session) (Request, error) {
	width, height := defaultSSHWidth, defaultSSHHeight
	if pty, _, ok := sess.Pty(); ok {
		// 3x3 characters per tile, leaving room for the title and legend
		width = max(1, min(pty.Window.Width/3, v.server.config.MaxWidth))
		height = max(1, min((pty.Window.Height-8)/3, v.server.config.MaxHeight))
	}
	return parseSSHCommand(sess.Command(), width, height, v.server.config.MaxWidth, v.server.config.MaxHeight)
}

// parseSSHCommand reads "[width height [seed]]".
func parseSSHCommand(args []string, width, height, maxWidth, maxHeight int) (Request, error) {
	req := Request{Width: width, Height: height}

	switch len(args) {
	case 0:
	case 2, 3:
		var err error
		if req.Width, err = strconv.Atoi(args[0]); err != nil {
			return req, fmt.Errorf("%w: width %q", ErrBadRequest, args[0])
		}
		if req.Height, err = strconv.Atoi(args[1]); err != nil {
			return req, fmt.Errorf("%w: height %q", ErrBadRequest, args[1])
		}
		if len(args) == 3 {
			if req.Seed, err = strconv.ParseInt(args[2], 10, 64); err != nil {
				return req, fmt.Errorf("%w: seed %q", ErrBadRequest, args[2])
			}
		}
	default:
		return req, fmt.Errorf("%w: usage: [width height [seed]]", ErrBadRequest)
	}

	return req, req.validate(maxWidth, maxHeight)
}
