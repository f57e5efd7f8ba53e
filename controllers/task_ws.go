package controller

import (
	"time"

	"taskmanager/middleware"
	"taskmanager/models"
	"taskmanager/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const wsPingInterval = 30 * time.Second

type TaskEventsController struct {
	Hub    *services.EventHub
	Logger logrus.FieldLogger
}

func NewTaskEventsController(hub *services.EventHub, logger logrus.FieldLogger) *TaskEventsController {
	return &TaskEventsController{Hub: hub, Logger: logger}
}

// RequireUpgrade rejects plain HTTP requests to the event feed.
func (ec *TaskEventsController) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleTaskEventsWS streams task events visible to the connected user until
// the client disconnects.
func (ec *TaskEventsController) HandleTaskEventsWS(c *websocket.Conn) {
	defer c.Close()

	user, ok := c.Locals(middleware.LocalUser).(*models.User)
	if !ok {
		return
	}
	log := ec.Logger.WithField("user_id", user.ID)

	events, cancel := ec.Hub.Subscribe(services.RequesterFor(user))
	defer cancel()
	log.Info("Task event subscriber connected")

	// the read loop only detects disconnects; clients send nothing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			log.Info("Task event subscriber disconnected")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(event); err != nil {
				log.WithError(err).Warn("Error writing task event")
				return
			}
		case <-ping.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
