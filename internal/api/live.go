package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"referral_app/internal/middleware"
	"referral_app/internal/service"
	"referral_app/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultLiveRefresh = 10 * time.Second

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// LiveDashboard streams dashboard snapshots: one on connect, one after every
// ledger change of the account and one per refresh tick.
func (r *formRoutes) LiveDashboard(c *gin.Context) {
	log := logger.Logger().With(zap.String("request_id", c.GetString(middleware.RequestIDKey)))

	username := strings.TrimSpace(c.Param("username"))
	dashboard, err := r.ds.Dashboard(c.Request.Context(), username)
	if err != nil {
		respondError(c, "live dashboard", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	changes, cancel := r.ds.Watch(dashboard.AccountID)
	defer cancel()

	// The request context is not cancelled when a hijacked connection closes.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go readPump(conn, stop)

	refresh := r.liveRefresh
	if refresh <= 0 {
		refresh = DefaultLiveRefresh
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()
	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	if err := writeMessage(conn, Message{Type: "dashboard", Payload: newDashboardResponse(dashboard)}); err != nil {
		log.Debug("failed to send dashboard", zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			continue
		case <-changes:
		case <-ticker.C:
		}

		dashboard, err = r.ds.Dashboard(ctx, username)
		if err != nil {
			if errors.Is(err, service.ErrAccountNotFound) {
				return
			}
			log.Error("failed to refresh dashboard", zap.String("username", username), zap.Error(err))
			continue
		}

		if err := writeMessage(conn, Message{Type: "dashboard", Payload: newDashboardResponse(dashboard)}); err != nil {
			log.Debug("failed to send dashboard", zap.Error(err))
			return
		}
	}
}

// readPump drains client frames so control frames are handled, and calls
// done once the connection is gone.
func readPump(conn *websocket.Conn, done func()) {
	defer done()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Logger().Debug("websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
