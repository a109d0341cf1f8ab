package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlreel/internal/jobs"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// watchJob streams job snapshots: the current one on connect, then every
// published update. The connection is closed after a terminal snapshot.
func (s *Server) watchJob(c echo.Context) error {
	id := c.Param("id")
	obs, snap, err := s.jobs.Subscribe(id)
	if err != nil {
		return err
	}
	defer s.jobs.Unsubscribe(obs)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already replied
		return nil
	}
	defer conn.Close()

	log := s.log.WithFields(logrus.Fields{"job_id": id, "observer_id": obs.ID})
	log.Debug("observer connected")
	defer log.Debug("observer disconnected")

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithError(err).Debug("websocket read")
				}
				obs.Close()
				return
			}
		}
	}()

	if done, err := send(conn, snap); err != nil || done {
		return nil
	}

	last := snap
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case j, ok := <-obs.Updates():
			if !ok {
				// pruned by the broadcaster
				return nil
			}
			if stale(last, j) {
				continue
			}
			last = j
			if done, err := send(conn, j); err != nil || done {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-gone:
			return nil
		}
	}
}

// stale reports an update queued between subscribing and reading the
// snapshot that is older than what the client already has.
func stale(last, next jobs.Job) bool {
	return next.Status == jobs.StatusProcessing && next.Progress < last.Progress
}

// send writes one snapshot and, when it is terminal, a close frame.
func send(conn *websocket.Conn, j jobs.Job) (bool, error) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(j); err != nil {
		return false, err
	}
	if !j.Status.Terminal() {
		return false, nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(j.Status))
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return true, nil
}
