package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/handler"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/store"
)

type healthResponse struct {
	OK       bool `json:"ok"`
	Sessions int  `json:"sessions"`
}

type statsResponse struct {
	store.Stats
	Conversations int `json:"conversations"`
	Sessions      int `json:"sessions"`
}

func (s *Server) newAdmin() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("admin request",
				"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowOriginFunc: allowLocalOrigin,
	}))

	items := handler.NewItemHandler(s.accounts)

	e.GET("/healthz", s.health)
	e.GET("/ws", s.serveWebsocket)
	api := e.Group("/api")
	api.GET("/items", items.List)
	api.GET("/items/search", items.Search)
	api.GET("/stats", s.stats)
	return e
}

// allowLocalOrigin admits dashboards served from the same machine.
func allowLocalOrigin(origin string) (bool, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, nil
	}
	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1", nil
}

// Handler exposes the admin API, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{OK: true, Sessions: s.sessions.Count()})
}

func (s *Server) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, statsResponse{
		Stats:         s.accounts.Stats(),
		Conversations: s.convs.Count(),
		Sessions:      s.sessions.Count(),
	})
}

// serveWebsocket runs a client session over a websocket connection for as
// long as the connection lives.
func (s *Server) serveWebsocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return nil
	}
	sess, ok := s.startSession(protocol.NewWebsocketCodec(conn, s.cfg.MaxFrameBytes), c.RealIP())
	if !ok {
		return nil
	}
	sess.Serve()
	return nil
}
