package handlers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/trentd187/golf-society/internal/feed"
)

// keepAlive is how often an idle stream gets a comment line, so proxies don't time it out.
const keepAlive = 25 * time.Second

// Feed returns a handler for GET /api/v1/feed, a Server-Sent Events stream of notices.
// ?eventId=<id> narrows the stream to one event; without it every notice is sent.
//
// The stream ends when the client disconnects (the next write fails), when the hub drops
// the client for falling behind, or when the hub shuts down.
func Feed(hub *feed.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		topic := c.Query("eventId", feed.TopicAll)

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		client := feed.NewClient(topic)
		hub.Register(client)

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer hub.Unregister(client)
			stream(w, client, keepAlive)
		}))
		return nil
	}
}

// stream writes every message from client.Send as an SSE "notice" event until Send is
// closed or a write fails.
func stream(w *bufio.Writer, client *feed.Client, every time.Duration) {
	fmt.Fprintf(w, ": subscribed to %s\n\n", client.Topic)
	if w.Flush() != nil {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-client.Send:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: notice\ndata: %s\n\n", data)
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		if w.Flush() != nil {
			return
		}
	}
}
