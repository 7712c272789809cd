package httpapi

import (
	"bufio"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/quickspace/internal/quickspace"
)

const streamKeepAlive = 15 * time.Second

// streamListener is one server-sent-events client. Updates coalesce: a slow
// client sees the latest view, never a backlog.
type streamListener struct {
	id      string
	updates chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newStreamListener() *streamListener {
	return &streamListener{
		id:      uuid.NewString(),
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (l *streamListener) OnDataUpdated() {
	select {
	case l.updates <- struct{}{}:
	default:
	}
}

// Close ends the stream. The controller calls it when the listener is
// removed, e.g. on pause.
func (l *streamListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func serveStream(c *fiber.Ctx, qs *quickspace.Controller, logger *slog.Logger) error {
	encode := c.App().Config().JSONEncoder
	l := newStreamListener()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	qs.AddListener(l)
	logger.Debug("stream listener added", "listener", l.id)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			qs.RemoveListener(l)
			logger.Debug("stream listener removed", "listener", l.id)
		}()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-l.done:
				return
			case <-l.updates:
				data, err := encode(buildView(qs))
				if err != nil {
					logger.Error("encode quickspace view", "err", err)
					return
				}
				fmt.Fprintf(w, "id: %s\nevent: update\ndata: %s\n\n", l.id, data)
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
			}
			// A flush error means the client went away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}
