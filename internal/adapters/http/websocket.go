package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/flyover/internal/core/domain"
	"github.com/samirrijal/flyover/internal/core/usecases"
	"github.com/samirrijal/flyover/internal/pkg/eventloop"
	"github.com/samirrijal/flyover/internal/pkg/metrics"
)

// wsClientMessage is sent by the page. Which fields are read depends on Type:
//
//	search           field, query
//	select           field, place
//	geolocated       location
//	geolocate_failed unsupported
//	track            location
//	route
//	control          control, action
//	camera           camera
type wsClientMessage struct {
	Type        string             `json:"type"`
	Field       domain.Field       `json:"field,omitempty"`
	Query       string             `json:"query,omitempty"`
	Place       *domain.Place      `json:"place,omitempty"`
	Location    *domain.GeoPoint   `json:"location,omitempty"`
	Unsupported bool               `json:"unsupported,omitempty"`
	Control     domain.ControlKind `json:"control,omitempty"`
	Action      string             `json:"action,omitempty"`
	Camera      *domain.Camera     `json:"camera,omitempty"`
}

var clientMessageTypes = map[string]bool{
	"search": true, "select": true, "geolocated": true, "geolocate_failed": true,
	"track": true, "route": true, "control": true, "camera": true,
}

// sessionQuery is read from the upgrade URL:
// /ws?tz=Asia/Kolkata&lon=77.59&lat=12.97&w=1280&h=800
type sessionQuery struct {
	Location *time.Location
	Device   *domain.GeoPoint
	Width    int
	Height   int
}

func parseSessionQuery(get func(string) string) (sessionQuery, error) {
	var q sessionQuery
	if tz := get("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return q, fmt.Errorf("unknown time zone %q", tz)
		}
		q.Location = loc
	}
	if lon, lat := get("lon"), get("lat"); lon != "" || lat != "" {
		p, err := domain.ParseGeoPoint(lon + "," + lat)
		if err != nil {
			return q, err
		}
		q.Device = &p
	}
	for key, dst := range map[string]*int{"w": &q.Width, "h": &q.Height} {
		raw := get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return q, fmt.Errorf("viewport %s must be a positive integer, got %q", key, raw)
		}
		*dst = n
	}
	return q, nil
}

// handleClientMessage applies one page message to the session. It must run
// on the session loop. Validation failures the session already showed to
// the user are not returned.
func handleClientMessage(s *usecases.MapSession, client *mapClient, m wsClientMessage) error {
	var err error
	switch m.Type {
	case "search":
		err = s.Search(m.Field, m.Query)
	case "select":
		if m.Place == nil {
			return errors.New("select: place is required")
		}
		err = s.SelectPlace(m.Field, *m.Place)
	case "geolocated":
		if m.Location == nil {
			return errors.New("geolocated: location is required")
		}
		err = s.UseDeviceLocation(*m.Location)
	case "geolocate_failed":
		s.DeviceLocationFailed(m.Unsupported)
	case "track":
		if m.Location == nil {
			return errors.New("track: location is required")
		}
		err = s.TrackUser(*m.Location)
	case "route":
		err = s.RequestRoute()
	case "control":
		err = s.PressControl(m.Control, m.Action)
	case "camera":
		if m.Camera == nil {
			return errors.New("camera: camera is required")
		}
		client.syncCamera(*m.Camera)
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	if errors.Is(err, domain.ErrEmptyQuery) || errors.Is(err, domain.ErrMissingEndpoint) {
		return nil
	}
	return err
}

// WebSocketHandler runs one map session per connection. The session lives on
// its own event loop; page messages are posted onto it.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		q, err := parseSessionQuery(func(k string) string { return c.Query(k) })
		if err != nil {
			_ = writeJSON(wsServerMessage{Type: msgError, Error: err.Error()})
			return
		}
		routes := deps.routes()
		if deps.Places == nil || routes == nil {
			_ = writeJSON(wsServerMessage{Type: msgError, Error: "map sessions are not available"})
			return
		}

		id := uuid.NewString()
		logger := deps.logger().With("session_id", id, "remote", c.RemoteAddr().String())
		client := newMapClient(func(m wsServerMessage) error { return writeJSON(m) }, q.Width, q.Height, logger)

		cfg := deps.Session
		if q.Location != nil {
			cfg.Location = q.Location
		}

		loop := eventloop.New(256, deps.Cron, logger)
		session, err := usecases.NewMapSession(id, usecases.SessionDeps{
			Loop:      loop,
			Renderer:  client,
			Presenter: client,
			Lookup:    deps.Places,
			Routes:    routes,
			Events:    deps.Events,
			Logger:    logger,
		}, cfg)
		if err != nil {
			logger.Error("create map session", "error", err)
			_ = writeJSON(wsServerMessage{Type: msgError, Error: "could not start map session"})
			return
		}
		go loop.Run()
		defer loop.Close()

		metrics.ActiveSessions.Inc()
		defer metrics.ActiveSessions.Dec()

		_ = writeJSON(wsServerMessage{Type: msgSessionOpen, SessionID: id})
		loop.Post(func() {
			if err := session.Open(q.Device); err != nil {
				logger.Error("open map session", "error", err)
				client.sendError(err)
			}
		})

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsClientMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(wsServerMessage{Type: msgError, Error: "invalid JSON"})
				continue
			}
			label := m.Type
			if !clientMessageTypes[label] {
				label = "unknown"
			}
			metrics.SessionMessages.WithLabelValues(label).Inc()

			if !loop.Post(func() {
				if err := handleClientMessage(session, client, m); err != nil {
					client.sendError(err)
				}
			}) {
				break
			}
		}

		close(done)
		closed := make(chan struct{})
		if loop.Post(func() {
			session.Close()
			close(closed)
		}) {
			select {
			case <-closed:
			case <-time.After(2 * time.Second):
				logger.Warn("map session close timed out")
			}
		}
	}
}
