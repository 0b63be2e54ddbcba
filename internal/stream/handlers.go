package stream

import (
	"backend-nextquest/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes exposes /ws/me (the caller's private topic) and /ws/:topic
// for public topics.
func RegisterRoutes(r fiber.Router, hub *Hub, authMiddleware fiber.Handler) {
	r.Get("/ws/me", authMiddleware, func(c *fiber.Ctx) error {
		id, err := auth.RequireIdentity(c)
		if err != nil {
			return err
		}
		c.Locals("topic", UserTopic(id.UserID))
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		topic, _ := c.Locals("topic").(string)
		serve(hub, c, topic)
	}))

	r.Get("/ws/:topic", func(c *fiber.Ctx) error {
		if c.Params("topic") != TopicSpots {
			return fiber.NewError(fiber.StatusNotFound, "unknown topic")
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		serve(hub, c, c.Params("topic"))
	}))
}

func serve(hub *Hub, c *websocket.Conn, topic string) {
	client := hub.Register(topic)
	defer hub.Unregister(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	hub.Unregister(client)
	<-done
}
