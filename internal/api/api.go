// Package api exposes the Control Facade over the JSON wire protocol: a
// gin router for the REST endpoints plus a gorilla/websocket push channel
// for tick-by-tick snapshots. No authentication or rate limiting.
package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/terminal-bench/glp-fleet/internal/cache"
	"github.com/terminal-bench/glp-fleet/internal/control"
)

// environmentCacheKey is the Redis key the full /environment snapshot is
// cached under, so concurrent pollers share one read during a tick.
const environmentCacheKey = "glp:environment:snapshot"

// Config holds API server configuration.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sane server timeouts.
func DefaultConfig(port string) Config {
	return Config{Port: port, ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}
}

// Server is the HTTP/WebSocket front door over a control.Facade.
type Server struct {
	router        *gin.Engine
	ctrl          *control.Facade
	log           *zap.Logger
	snapshotCache *cache.Cache

	wsMu      sync.RWMutex
	wsClients map[uuid.UUID]*wsClient
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// New constructs a Server wired to ctrl. snapshotCache is optional; a nil
// value disables caching of the /environment endpoint.
func New(cfg Config, ctrl *control.Facade, log *zap.Logger, snapshotCache *cache.Cache) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		router:        gin.New(),
		ctrl:          ctrl,
		log:           log,
		snapshotCache: snapshotCache,
		wsClients:     make(map[uuid.UUID]*wsClient),
	}
	s.router.Use(gin.Recovery())
	s.router.Use(s.corsMiddleware())
	s.setupRoutes()
	return s
}

// Router exposes the underlying gin.Engine, used by tests and by
// cmd/simulator to start the HTTP server.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)

	s.router.GET("/environment", s.getEnvironment)
	s.router.GET("/vehicles", s.getVehicles)
	s.router.GET("/orders", s.getOrders)
	s.router.GET("/blockages", s.getBlockages)

	s.router.GET("/simulation/status", s.getStatus)
	s.router.POST("/simulation/start", s.postStart)
	s.router.POST("/simulation/pause", s.postPause)
	s.router.GET("/simulation/speed", s.getSpeed)
	s.router.POST("/simulation/speed", s.postSpeed)

	s.router.POST("/vehicle/breakdown", s.postBreakdown)
	s.router.POST("/vehicle/repair", s.postRepair)

	s.router.GET("/ws", s.handleWebSocket)
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func errJSON(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"status": "error", "message": msg})
}

func okJSON(c *gin.Context, payload gin.H) {
	payload["status"] = "success"
	c.JSON(http.StatusOK, payload)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// environmentSnapshot is the cacheable shape of the /environment response.
type environmentSnapshot struct {
	Vehicles  []control.VehicleSnapshot  `json:"vehicles"`
	Orders    []control.OrderSnapshot    `json:"orders"`
	Blockages []control.BlockageSnapshot `json:"blockages"`
	Fleet     control.FleetSnapshot      `json:"fleet"`
}

// getEnvironment builds the snapshot by fanning out the vehicle, order and
// blockage reads concurrently (errgroup) and adding the fleet summary.
// Depots are not included. When a cache is configured, every caller within
// the same tick shares one computed snapshot via the Redis cache rather than
// re-walking the environment's locks per request.
func (s *Server) getEnvironment(c *gin.Context) {
	fleet := s.ctrl.SnapshotFleet()
	cacheKey := environmentCacheKey + ":" + strconv.FormatInt(fleet.Tick, 10)

	if s.snapshotCache != nil {
		var cached environmentSnapshot
		if found, err := s.snapshotCache.GetSnapshot(c.Request.Context(), cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	var vehicles []control.VehicleSnapshot
	var orders []control.OrderSnapshot
	var blockages []control.BlockageSnapshot

	g, _ := errgroup.WithContext(c.Request.Context())
	g.Go(func() error { vehicles = s.ctrl.SnapshotVehicles(); return nil })
	g.Go(func() error { orders = s.ctrl.SnapshotOrders(); return nil })
	g.Go(func() error { blockages = s.ctrl.SnapshotBlockages(); return nil })
	_ = g.Wait()

	snapshot := environmentSnapshot{Vehicles: vehicles, Orders: orders, Blockages: blockages, Fleet: fleet}
	if s.snapshotCache != nil {
		if err := s.snapshotCache.PutSnapshot(c.Request.Context(), cacheKey, snapshot); err != nil {
			s.log.Warn("failed to cache environment snapshot", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) getVehicles(c *gin.Context) {
	vehicles := s.ctrl.SnapshotVehicles()
	type vehicleWithPlan struct {
		control.VehicleSnapshot
		PlanActions int `json:"planActions"`
	}
	out := make([]vehicleWithPlan, 0, len(vehicles))
	for _, v := range vehicles {
		actions := 0
		if p, err := s.ctrl.VehiclePlan(v.ID); err == nil {
			actions = len(p.Actions)
		}
		out = append(out, vehicleWithPlan{VehicleSnapshot: v, PlanActions: actions})
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": out})
}

func (s *Server) getOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": s.ctrl.SnapshotOrders()})
}

func (s *Server) getBlockages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blockages": s.ctrl.SnapshotBlockages()})
}

func (s *Server) getStatus(c *gin.Context) {
	fleet := s.ctrl.SnapshotFleet()
	c.JSON(http.StatusOK, gin.H{
		"simTime":       fleet.SimTime,
		"running":       !fleet.Paused,
		"pendingOrders": fleet.PendingOrders,
		"overdueOrders": fleet.OverdueOrders,
		"tick":          fleet.Tick,
	})
}

func (s *Server) postStart(c *gin.Context) {
	s.ctrl.Resume()
	okJSON(c, gin.H{})
}

func (s *Server) postPause(c *gin.Context) {
	s.ctrl.Pause()
	okJSON(c, gin.H{})
}

type speedRequest struct {
	Speed int64 `json:"speed"`
}

func (s *Server) getSpeed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"speed": s.ctrl.Speed()})
}

func (s *Server) postSpeed(c *gin.Context) {
	var req speedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.ctrl.SetSpeed(req.Speed); err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	okJSON(c, gin.H{"speed": req.Speed})
}

type breakdownRequest struct {
	VehicleID            string  `json:"vehicleId" binding:"required"`
	Reason               string  `json:"reason"`
	EstimatedRepairHours float64 `json:"estimatedRepairHours"`
}

func (s *Server) postBreakdown(c *gin.Context) {
	var req breakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		errJSON(c, http.StatusBadRequest, "invalid vehicleId")
		return
	}
	inc, err := s.ctrl.BreakDown(vehicleID, req.EstimatedRepairHours, req.Reason)
	if err != nil {
		if err == control.ErrVehicleNotFound {
			errJSON(c, http.StatusNotFound, err.Error())
			return
		}
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	okJSON(c, gin.H{"incidentId": inc.ID, "incidentType": inc.Type})
}

type repairRequest struct {
	VehicleID string `json:"vehicleId" binding:"required"`
}

func (s *Server) postRepair(c *gin.Context) {
	var req repairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		errJSON(c, http.StatusBadRequest, "invalid vehicleId")
		return
	}
	if err := s.ctrl.Repair(vehicleID); err != nil {
		switch err {
		case control.ErrVehicleNotFound:
			errJSON(c, http.StatusNotFound, err.Error())
		case control.ErrNoActiveIncident:
			errJSON(c, http.StatusBadRequest, err.Error())
		default:
			errJSON(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	okJSON(c, gin.H{})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and registers the client; it
// receives only what is pushed through Broadcast, which nothing in this
// module calls, so no snapshots are sent per tick.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 16), done: make(chan struct{})}
	id := uuid.New()

	s.wsMu.Lock()
	s.wsClients[id] = client
	s.wsMu.Unlock()

	go s.wsReadPump(id, client)
	go s.wsWritePump(client)
}

func (s *Server) wsReadPump(id uuid.UUID, client *wsClient) {
	defer func() {
		s.wsMu.Lock()
		delete(s.wsClients, id)
		s.wsMu.Unlock()
		close(client.done)
		client.conn.Close()
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) wsWritePump(client *wsClient) {
	for {
		select {
		case msg := <-client.send:
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-client.done:
			return
		}
	}
}

// Broadcast pushes payload to every connected WebSocket client, dropping it
// for clients whose send buffer is full rather than blocking the caller.
func (s *Server) Broadcast(payload []byte) {
	s.wsMu.RLock()
	defer s.wsMu.RUnlock()
	for _, client := range s.wsClients {
		select {
		case client.send <- payload:
		default:
		}
	}
}
