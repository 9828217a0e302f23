package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"easyadmin/pkg/logger"
)

// OrgChangedChannel is the NOTIFY channel raised by the sys_org trigger.
const OrgChangedChannel = "sys_org_changed"

// Invalidator is anything that can drop its cached state.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// OrgListener invalidates the department cache whenever sys_org changes,
// so edits to the tree are visible before the TTL expires.
type OrgListener struct {
	pool   *pgxpool.Pool
	target Invalidator

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewOrgListener creates a listener that invalidates target.
func NewOrgListener(pool *pgxpool.Pool, target Invalidator) *OrgListener {
	return &OrgListener{pool: pool, target: target}
}

// Start begins listening in the background. Calling it twice is a no-op.
func (l *OrgListener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
}

// Stop cancels the listener and waits for it to exit.
func (l *OrgListener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
}

func (l *OrgListener) listenLoop() {
	defer l.wg.Done()

	for l.ctx.Err() == nil {
		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			l.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(l.ctx, "LISTEN "+OrgChangedChannel); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "channel", OrgChangedChannel, "error", err)
			conn.Release()
			l.sleep(time.Second)
			continue
		}

		// Anything cached before LISTEN succeeded may have missed a change.
		l.invalidate()
		l.waitForNotifications(conn)
		conn.Release()
	}
}

func (l *OrgListener) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			if conn.Conn().IsClosed() {
				logger.Warn(l.ctx, "LISTEN connection lost", "error", err)
				return
			}
			// Idle timeout, keep waiting on the same connection.
			continue
		}

		logger.Debug(l.ctx, "org tree changed", "payload", notification.Payload)
		l.invalidate()
	}
}

func (l *OrgListener) invalidate() {
	if err := l.target.Invalidate(l.ctx); err != nil {
		logger.Error(l.ctx, "org cache invalidation failed", "error", err)
	}
}

func (l *OrgListener) sleep(d time.Duration) {
	select {
	case <-l.ctx.Done():
	case <-time.After(d):
	}
}
