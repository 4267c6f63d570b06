package tui

import "time"

const (
	toastTTL  = 5 * time.Second
	maxToasts = 3
)

type toast struct {
	text      string
	remaining time.Duration
}

// ToastController manages transient alert lines: push, TTL countdown,
// eviction of the oldest when the stack is full.
type ToastController struct {
	toasts []toast
}

func NewToastController() *ToastController {
	return &ToastController{}
}

func (c *ToastController) Push(text string) {
	c.toasts = append(c.toasts, toast{text: text, remaining: toastTTL})
	if len(c.toasts) > maxToasts {
		c.toasts = c.toasts[len(c.toasts)-maxToasts:]
	}
}

// Tick decrements remaining TTLs by d and drops expired toasts.
func (c *ToastController) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

func (c *ToastController) Lines() []string {
	out := make([]string, len(c.toasts))
	for i, t := range c.toasts {
		out[i] = t.text
	}
	return out
}
