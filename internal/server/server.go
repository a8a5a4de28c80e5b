package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/handler"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/store"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	TCPAddr string
	// AdminAddr is the admin HTTP address; empty disables it.
	AdminAddr        string
	MaxFrameBytes    int
	AutoSaveInterval time.Duration
}

type Uploader interface {
	Upload(ctx context.Context, files ...string) error
}

// Server accepts client connections, runs one session per connection and owns
// the stores for the lifetime of the process.
type Server struct {
	cfg      Config
	accounts *store.AccountStore
	convs    *store.ConversationStore
	backup   Uploader
	logger   *slog.Logger

	ln       net.Listener
	sessions *registry
	e        *echo.Echo
	upgrader websocket.Upgrader

	shutdownOnce sync.Once
	shutdownErr  error
}

// New wires a server. backup may be nil.
func New(cfg Config, accounts *store.AccountStore, convs *store.ConversationStore, backup Uploader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		accounts: accounts,
		convs:    convs,
		backup:   backup,
		logger:   logger,
		sessions: newRegistry(),
	}
	s.e = s.newAdmin()
	return s
}

func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.TCPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.TCPAddr, err)
	}
	s.ln = ln
	s.logger.Info("listening for clients", "addr", ln.Addr().String())
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until the listener is closed, which is a clean
// stop and returns nil.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept timeout", "err", err)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		codec := protocol.NewStreamCodec(conn, s.cfg.MaxFrameBytes)
		if sess, ok := s.startSession(codec, conn.RemoteAddr().String()); ok {
			go sess.Serve()
		}
	}
}

func (s *Server) startSession(codec protocol.Codec, remote string) (*handler.Session, bool) {
	sess := handler.NewSession(codec, remote, s.accounts, s.convs, s.logger)
	if !s.sessions.Add(sess) {
		_ = codec.Close()
		return nil, false
	}
	return sess, true
}

// Run serves clients, the admin API and auto-save until ctx is done or one of
// them fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.Serve)
	if s.cfg.AdminAddr != "" {
		g.Go(func() error {
			s.logger.Info("admin http listening", "addr", s.cfg.AdminAddr)
			if err := s.e.Start(s.cfg.AdminAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin http: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		return s.accounts.AutoSave(gctx, s.cfg.AutoSaveInterval, s.afterSave)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown stops accepting, closes every session, waits for them and then
// persists both stores. Only the first call does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.shutdown(ctx)
	})
	return s.shutdownErr
}

func (s *Server) shutdown(ctx context.Context) error {
	s.logger.Info("shutting down", "sessions", s.sessions.Count())
	var errs []error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("close listener: %w", err))
		}
	}
	if s.cfg.AdminAddr != "" {
		if err := s.e.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin http shutdown: %w", err))
		}
	}
	s.sessions.CloseAll()
	if err := s.sessions.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait for sessions: %w", err))
	}
	if err := s.Persist(); err != nil {
		errs = append(errs, err)
	}
	if err := s.runBackup(ctx); err != nil {
		errs = append(errs, err)
	}
	s.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

// Persist writes the account store and the conversation index.
func (s *Server) Persist() error {
	if err := s.accounts.Persist(); err != nil {
		return err
	}
	return s.convs.SaveIndex()
}

func (s *Server) afterSave(ctx context.Context) error {
	if err := s.convs.SaveIndex(); err != nil {
		return err
	}
	return s.runBackup(ctx)
}

func (s *Server) runBackup(ctx context.Context) error {
	if s.backup == nil {
		return nil
	}
	convFiles, err := s.convs.DataFiles()
	if err != nil {
		return err
	}
	files := append(s.accounts.DataFiles(), convFiles...)
	if err := s.backup.Upload(ctx, files...); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	return nil
}

// SessionCount reports the number of live sessions.
func (s *Server) SessionCount() int {
	return s.sessions.Count()
}
