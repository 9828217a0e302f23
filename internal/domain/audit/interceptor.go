package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appctx "easyadmin/internal/core/context"
	"easyadmin/internal/core/id"
	"easyadmin/pkg/logger"
)

// DefaultWriteTimeout bounds one background audit write.
const DefaultWriteTimeout = 5 * time.Second

// Op names an audited operation.
type Op struct {
	// Method is the operation name fed to Classify, e.g. "DeleteUser".
	Method string
	// Args are the operation arguments fed to Classify.
	Args []any
	// Description may start with "{0}", which is replaced by the action label.
	// When empty the menu label of the current path is used.
	Description string
	// Action overrides classification, for operations such as Export whose
	// names carry no rule. All Args are then recorded as payload.
	Action Action
}

// Interceptor records audited operations without ever affecting them. Writes
// happen on a background goroutine; failures only reach the logger.
type Interceptor struct {
	recorder Recorder
	menus    MenuResolver
	timeout  time.Duration

	// closed is set by Close; later writes run inline instead of joining wg.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithMenus enables the menu label fallback for empty descriptions.
func WithMenus(m MenuResolver) Option {
	return func(i *Interceptor) { i.menus = m }
}

// WithWriteTimeout sets the timeout of a single audit write.
func WithWriteTimeout(d time.Duration) Option {
	return func(i *Interceptor) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// NewInterceptor creates an Interceptor writing to recorder.
func NewInterceptor(recorder Recorder, opts ...Option) *Interceptor {
	i := &Interceptor{recorder: recorder, timeout: DefaultWriteTimeout}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Do runs fn and records it. fn's error is returned unchanged; a panic in fn
// is recorded as a failure and re-raised.
func (i *Interceptor) Do(ctx context.Context, op Op, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			i.log(ctx, op, fmt.Errorf("panic: %v", r), time.Since(start))
			panic(r)
		}
		i.log(ctx, op, err, time.Since(start))
	}()

	return fn(ctx)
}

// Wrap returns fn decorated with auditing.
func (i *Interceptor) Wrap(op Op, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return i.Do(ctx, op, fn)
	}
}

// Call is Do for operations that return a value.
func Call[R any](ctx context.Context, i *Interceptor, op Op, fn func(ctx context.Context) (R, error)) (R, error) {
	var result R
	err := i.Do(ctx, op, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

// Wait blocks until every pending write finished or ctx is done.
func (i *Interceptor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops background writes and waits for the pending ones like Wait.
// Operations that finish after Close, such as handlers outliving the HTTP
// shutdown timeout, write their record synchronously.
func (i *Interceptor) Close(ctx context.Context) error {
	i.mu.Lock()
	i.closed = true
	i.mu.Unlock()
	return i.Wait(ctx)
}

// log builds the record from what is known now and hands the write to a
// goroutine detached from the request's cancellation.
func (i *Interceptor) log(ctx context.Context, op Op, callErr error, elapsed time.Duration) {
	if i == nil || i.recorder == nil {
		return
	}

	action, payload, ok := Classify(op.Method, op.Args)
	if op.Action != "" {
		action, payload, ok = op.Action, serialize(op.Args), true
	}
	if !ok {
		return
	}

	rec := Record{
		ID:          id.New(),
		CreatedTime: time.Now().UTC(),
		Action:      action,
		Params:      payload,
		Outcome:     Success,
		DurationMs:  elapsed.Milliseconds(),
	}
	if callErr != nil {
		rec.Outcome = Failure
		rec.FailureReason = callErr.Error()
	}
	if user := appctx.GetUser(ctx); user != nil {
		rec.UserID = user.UserID
		rec.UserName = user.UserName
	}
	if client := appctx.GetClient(ctx); client != nil {
		rec.ClientIP = client.IP
		rec.ClientDevice = client.UserAgent
		rec.Path = client.Path
	}

	wctx := context.WithoutCancel(ctx)

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		i.write(wctx, op, rec)
		return
	}
	i.wg.Add(1)
	i.mu.Unlock()

	go func() {
		defer i.wg.Done()
		i.write(wctx, op, rec)
	}()
}

func (i *Interceptor) write(ctx context.Context, op Op, rec Record) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "audit write panicked", "method", op.Method, "panic", r)
		}
	}()

	tctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	rec.Description = i.describe(tctx, op.Description, rec.Action, rec.Path)
	if err := i.recorder.Record(tctx, rec); err != nil {
		logger.Error(tctx, "audit write failed",
			"method", op.Method,
			"action", rec.Action,
			"error", err,
		)
	}
}

func (i *Interceptor) describe(ctx context.Context, configured string, action Action, path string) string {
	if configured == "" {
		if path == "" || i.menus == nil {
			return ""
		}
		label, err := i.menus.MenuLabel(ctx, path)
		if err != nil {
			logger.Warn(ctx, "menu label lookup failed", "path", path, "error", err)
			return ""
		}
		if label == "" {
			return ""
		}
		return action.Label() + " " + label
	}

	if strings.HasPrefix(configured, "{0}") {
		return strings.ReplaceAll(configured, "{0}", action.Label())
	}
	return configured
}
