package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
	"github.com/brandon-schabel/td-engine-sub006/internal/persist"
	"github.com/brandon-schabel/td-engine-sub006/internal/sim"
)

// submitTimeout bounds how long a request waits for the tick loop to pick
// its command up.
const submitTimeout = 2 * time.Second

var errEngineBusy = errors.New("engine command queue full or stalled")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the HTTP and websocket surface over a running engine. Commands
// come in over REST and are handed to the tick goroutine; change events
// stream out over the websocket.
type Server struct {
	engine *sim.Engine
	hub    *Hub
	scores persist.ScoreStore
	log    *zap.Logger
}

func NewServer(engine *sim.Engine, hub *Hub, scores persist.ScoreStore, log *zap.Logger) *Server {
	return &Server{engine: engine, hub: hub, scores: scores, log: log}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/state", s.handleState)
		api.POST("/game/start", s.handleStart)
		api.POST("/game/pause", s.handlePause)
		api.POST("/game/resume", s.handleResume)
		api.POST("/game/reset", s.handleReset)
		api.POST("/waves/next", s.handleNextWave)
		api.POST("/towers", s.handlePlaceTower)
		api.DELETE("/towers/:id", s.handleSellTower)
		api.POST("/towers/:id/upgrade", s.handleUpgradeTower)
		api.POST("/player/upgrade", s.handleUpgradePlayer)
		api.POST("/select", s.handleSelect)
		api.GET("/scores", s.handleScores)
	}
	r.GET("/ws", s.handleWS)
	return r
}

// do runs fn on the tick goroutine and waits for it. Every engine touch in
// a handler goes through here; the engine itself is never called from an
// HTTP goroutine.
func (s *Server) do(fn func(e *sim.Engine)) error {
	done := make(chan struct{})
	ok := s.engine.Submit(func(e *sim.Engine) {
		fn(e)
		close(done)
	})
	if !ok {
		return errEngineBusy
	}
	select {
	case <-done:
		return nil
	case <-time.After(submitTimeout):
		return errEngineBusy
	}
}

func (s *Server) handleState(c *gin.Context) {
	var snap sim.Snapshot
	if err := s.do(func(e *sim.Engine) { snap = e.Snapshot() }); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleStart(c *gin.Context)  { s.runCommand(c, func(e *sim.Engine) error { return e.Start() }) }
func (s *Server) handlePause(c *gin.Context)  { s.runCommand(c, func(e *sim.Engine) error { return e.Pause() }) }
func (s *Server) handleResume(c *gin.Context) { s.runCommand(c, func(e *sim.Engine) error { return e.Resume() }) }
func (s *Server) handleReset(c *gin.Context)  { s.runCommand(c, func(e *sim.Engine) error { return e.Reset() }) }

func (s *Server) handleNextWave(c *gin.Context) {
	var wave int
	var cmdErr error
	if err := s.do(func(e *sim.Engine) { wave, cmdErr = e.StartNextWave() }); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if cmdErr != nil {
		c.JSON(statusFor(cmdErr), gin.H{"error": cmdErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wave": wave})
}

type placeTowerRequest struct {
	DefID string `json:"def_id" binding:"required"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

func (s *Server) handlePlaceTower(c *gin.Context) {
	var req placeTowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var id ecs.EntityID
	var cmdErr error
	err := s.do(func(e *sim.Engine) {
		id, cmdErr = e.PlaceTower(req.DefID, grid.Cell{X: req.X, Y: req.Y})
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if cmdErr != nil {
		c.JSON(statusFor(cmdErr), gin.H{"error": cmdErr.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) handleSellTower(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad tower id"})
		return
	}
	var refund int
	var cmdErr error
	doErr := s.do(func(e *sim.Engine) {
		refund, cmdErr = e.SellTower(ecs.EntityID(id))
	})
	if doErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": doErr.Error()})
		return
	}
	if cmdErr != nil {
		c.JSON(statusFor(cmdErr), gin.H{"error": cmdErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refund": refund})
}

type upgradeRequest struct {
	Attribute string `json:"attribute" binding:"required"`
}

func (s *Server) handleUpgradeTower(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad tower id"})
		return
	}
	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var cost int
	var cmdErr error
	doErr := s.do(func(e *sim.Engine) {
		cost, cmdErr = e.UpgradeTower(ecs.EntityID(id), sim.UpgradeAttr(req.Attribute))
	})
	if doErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": doErr.Error()})
		return
	}
	if cmdErr != nil {
		c.JSON(statusFor(cmdErr), gin.H{"error": cmdErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cost": cost})
}

func (s *Server) handleUpgradePlayer(c *gin.Context) {
	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var cost int
	var cmdErr error
	doErr := s.do(func(e *sim.Engine) {
		cost, cmdErr = e.UpgradePlayer(sim.UpgradeAttr(req.Attribute))
	})
	if doErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": doErr.Error()})
		return
	}
	if cmdErr != nil {
		c.JSON(statusFor(cmdErr), gin.H{"error": cmdErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cost": cost})
}

// An empty def_id clears the current selection.
type selectRequest struct {
	DefID string `json:"def_id"`
}

func (s *Server) handleSelect(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.runCommand(c, func(e *sim.Engine) error { return e.SetSelectedTowerType(req.DefID) })
}

func (s *Server) handleScores(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-100"})
			return
		}
		limit = n
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	rows, err := s.scores.Top(ctx, limit)
	if err != nil {
		s.log.Error("score query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "score query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": rows})
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	var snap sim.Snapshot
	if err := s.do(func(e *sim.Engine) { snap = e.Snapshot() }); err != nil {
		conn.Close()
		return
	}
	s.hub.Register(conn, snap)
}

// runCommand executes a simple error-only engine command and maps the
// result to an HTTP response.
func (s *Server) runCommand(c *gin.Context, fn func(e *sim.Engine) error) {
	var cmdErr error
	if err := s.do(func(e *sim.Engine) { cmdErr = fn(e) }); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if cmdErr != nil {
		c.JSON(statusFor(cmdErr), gin.H{"error": cmdErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// statusFor maps validation errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sim.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrUnknownTowerType),
		errors.Is(err, sim.ErrInvalidAttribute),
		errors.Is(err, grid.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, sim.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		// Occupied cells, blocked paths, wrong state, max level: the
		// request was well-formed but the world disagrees.
		return http.StatusConflict
	}
}
