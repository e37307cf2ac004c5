package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"projectboard/domain"
	"projectboard/session"
)

const keepaliveInterval = 30 * time.Second

// latestTasks holds at most one pending snapshot. Each push replaces the
// whole list, so an unsent older snapshot is discarded.
type latestTasks struct {
	mu sync.Mutex
	ch chan []domain.Task
}

func newLatestTasks() *latestTasks {
	return &latestTasks{ch: make(chan []domain.Task, 1)}
}

func (l *latestTasks) put(tasks []domain.Task) {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
	default:
	}
	l.ch <- tasks
}

// streamProjectTasks pushes the project's task list as server-sent events,
// once on connect and again after every change.
func streamProjectTasks(sessions *session.Manager) echo.HandlerFunc {
	return withStreamSession(sessions, func(c echo.Context, s *session.Session) error {
		projectID := c.Param("id")
		if _, ok := s.Entities.ProjectByID(projectID); !ok {
			return writeError(c, errNotFound)
		}
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}

		ctx := c.Request().Context()
		updates := newLatestTasks()
		stop, err := s.Entities.WatchProjectTasks(ctx, projectID, updates.put)
		if err != nil {
			return writeError(c, err)
		}
		defer stop()

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().WriteHeader(http.StatusOK)
		if _, err := c.Response().Write([]byte(":ok\n\n")); err != nil {
			return nil
		}
		flusher.Flush()

		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()
		for {
			select {
			case tasks := <-updates.ch:
				data, err := sonic.Marshal(tasks)
				if err != nil {
					return nil
				}
				if _, err := c.Response().Write([]byte("data: ")); err != nil {
					return nil
				}
				if _, err := c.Response().Write(data); err != nil {
					return nil
				}
				if _, err := c.Response().Write([]byte("\n\n")); err != nil {
					return nil
				}
				flusher.Flush()
			case <-ticker.C:
				if _, err := c.Response().Write([]byte(":keepalive\n\n")); err != nil {
					return nil
				}
				flusher.Flush()
			case <-ctx.Done():
				return nil
			}
		}
	})
}
