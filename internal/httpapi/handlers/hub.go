package handlers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/controller"
)

type hubEntry struct {
	ctrl      *controller.Controller
	expiresAt time.Time
}

// Hub keeps one controller per signed-in session until the session's token
// expires or the user signs out.
type Hub struct {
	newController func() *controller.Controller
	identity      controller.Identity
	now           func() time.Time

	mu    sync.Mutex
	ctrls map[string]hubEntry
	group singleflight.Group
}

func NewHub(newController func() *controller.Controller, identity controller.Identity) *Hub {
	return &Hub{
		newController: newController,
		identity:      identity,
		now:           func() time.Time { return time.Now().UTC() },
		ctrls:         map[string]hubEntry{},
	}
}

func (h *Hub) SignIn(ctx context.Context, creds auth.Credentials) (*auth.Session, *controller.Controller, error) {
	ctrl := h.newController()
	sess, err := ctrl.SignIn(ctx, creds)
	if err != nil {
		return nil, nil, err
	}
	h.mu.Lock()
	h.evictExpiredLocked()
	h.ctrls[sess.ID] = hubEntry{ctrl: ctrl, expiresAt: sess.ExpiresAt}
	h.mu.Unlock()
	return sess, ctrl, nil
}

func (h *Hub) lookup(sessionID string) (*controller.Controller, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evictExpiredLocked()
	e, ok := h.ctrls[sessionID]
	return e.ctrl, ok
}

// evictExpiredLocked drops controllers whose token can no longer be verified.
// A zero expiry never expires.
func (h *Hub) evictExpiredLocked() {
	now := h.now()
	for id, e := range h.ctrls {
		if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
			delete(h.ctrls, id)
		}
	}
}

// Get returns the session's controller. A verified session without one (the
// process restarted) gets a fresh controller resumed from the token.
func (h *Hub) Get(ctx context.Context, sess *auth.Session) *controller.Controller {
	if c, ok := h.lookup(sess.ID); ok {
		return c
	}
	// shared by every waiting request, so it must outlive the first one
	rctx := context.WithoutCancel(ctx)
	v, _, _ := h.group.Do(sess.ID, func() (any, error) {
		if c, ok := h.lookup(sess.ID); ok {
			return c, nil
		}
		c := h.newController()
		// a failed list load leaves an empty list and a notice
		_ = c.Resume(rctx, sess.User, sess.Token)
		h.mu.Lock()
		h.ctrls[sess.ID] = hubEntry{ctrl: c, expiresAt: sess.ExpiresAt}
		h.mu.Unlock()
		return c, nil
	})
	return v.(*controller.Controller)
}

func (h *Hub) SignOut(ctx context.Context, sess *auth.Session) {
	h.mu.Lock()
	e, ok := h.ctrls[sess.ID]
	delete(h.ctrls, sess.ID)
	h.mu.Unlock()

	if ok {
		e.ctrl.SignOut(ctx)
		return
	}
	h.identity.SignOut(ctx, sess.Token)
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ctrls)
}
