// Package notify holds the toasts shown to the operator on their next page render.
package notify

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type Level string

const (
	Success Level = "success"
	Failure Level = "error"
)

type Notification struct {
	Level   Level
	Message string
}

// Notifier is what the form binder reports outcomes to.
type Notifier interface {
	Push(sessionID string, n Notification)
}

// Center keeps pending notifications per session until they are drained by a render.
// Undrained notifications expire after ttl.
type Center struct {
	mu    sync.Mutex
	items *cache.Cache
}

func NewCenter(ttl time.Duration) *Center {
	return &Center{items: cache.New(ttl, 2*ttl)}
}

func (c *Center) Push(sessionID string, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var queue []Notification
	if v, found := c.items.Get(sessionID); found {
		queue = v.([]Notification)
	}
	queue = append(queue, n)
	c.items.SetDefault(sessionID, queue)
}

// Drain returns and forgets the session's pending notifications, oldest first.
func (c *Center) Drain(sessionID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, found := c.items.Get(sessionID)
	if !found {
		return nil
	}
	c.items.Delete(sessionID)
	return v.([]Notification)
}

func Succeeded(msg string) Notification { return Notification{Level: Success, Message: msg} }
func Failed(msg string) Notification    { return Notification{Level: Failure, Message: msg} }
