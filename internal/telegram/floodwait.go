package telegram

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/tgerr"
)

// ErrFloodWaitActive возвращается, пока аккаунт отбывает FLOOD_WAIT.
var ErrFloodWaitActive = errors.New("client is in flood wait")

// floodGate помнит, до какого момента аккаунту запрещено обращаться к API.
type floodGate struct {
	now func() time.Time

	mu    sync.RWMutex
	until time.Time
}

// check возвращает ErrFloodWaitActive, если ограничение еще действует.
func (g *floodGate) check() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.until.IsZero() || !g.now().Before(g.until) {
		return nil
	}
	return fmt.Errorf("%w: active until %s", ErrFloodWaitActive, g.until.Format(time.RFC3339))
}

// trip закрывает ворота, если err — FLOOD_WAIT. Более раннее окончание
// не перезаписывает уже известное более позднее.
func (g *floodGate) trip(err error) (time.Time, bool) {
	wait, ok := tgerr.AsFloodWait(err)
	if !ok {
		return time.Time{}, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if until := g.now().Add(wait); until.After(g.until) {
		g.until = until
	}
	return g.until, true
}

func (g *floodGate) recovery() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.until
}
