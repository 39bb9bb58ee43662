package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marmos91/aliasd/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler records executed commands and can be gated so tests can
// hold the worker while they fill the queue.
type recordingHandler struct {
	mu       sync.Mutex
	executed []Command
	gate     chan struct{}
	active   atomic.Int32
	overlap  atomic.Bool
	closed   atomic.Int32
	panicOn  Op
	errFor   map[Op]error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{errFor: map[Op]error{}}
}

func (h *recordingHandler) Handle(_ context.Context, cmd Command) Result {
	if h.active.Add(1) > 1 {
		h.overlap.Store(true)
	}
	defer h.active.Add(-1)

	if h.gate != nil {
		<-h.gate
	}
	if cmd.Op == h.panicOn {
		panic("connection lost")
	}

	h.mu.Lock()
	h.executed = append(h.executed, cmd)
	h.mu.Unlock()

	return Result{RowsAffected: 1, Err: h.errFor[cmd.Op]}
}

func (h *recordingHandler) Close() error {
	h.closed.Add(1)
	return nil
}

func (h *recordingHandler) commands() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Command(nil), h.executed...)
}

func closeActor(t *testing.T, a *Actor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.Close(ctx)
}

func TestSubmitDeliversResult(t *testing.T) {
	h := newRecordingHandler()
	h.errFor[OpGetAlias] = models.ErrAliasNotFound
	a := New(h, Options{QueueSize: 4})
	defer closeActor(t, a)

	res, err := a.Submit(context.Background(), Command{Op: OpUpsertAlias, Alias: "foo"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	_, err = a.Submit(context.Background(), Command{Op: OpGetAlias, Alias: "foo"})
	assert.ErrorIs(t, err, models.ErrAliasNotFound)
	assert.NoError(t, a.Err(), "command failures are not fatal")
}

func TestFIFOPerSubmitter(t *testing.T) {
	h := newRecordingHandler()
	a := New(h, Options{QueueSize: 8})
	defer closeActor(t, a)

	for i := 0; i < 50; i++ {
		_, err := a.Submit(context.Background(), Command{Op: OpGetAlias, OwnerID: uint(i)})
		require.NoError(t, err)
	}

	cmds := h.commands()
	require.Len(t, cmds, 50)
	for i, cmd := range cmds {
		assert.Equal(t, uint(i), cmd.OwnerID)
	}
}

func TestCommandsNeverOverlap(t *testing.T) {
	h := newRecordingHandler()
	a := New(h, Options{QueueSize: 16})
	defer closeActor(t, a)

	var wg sync.WaitGroup
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, err := a.Submit(context.Background(), Command{Op: OpPing})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.False(t, h.overlap.Load(), "handler must only run on the worker goroutine")
	assert.Len(t, h.commands(), 32*20)
}

func TestCancelledCallerDoesNotCancelCommand(t *testing.T) {
	h := newRecordingHandler()
	h.gate = make(chan struct{})
	a := New(h, Options{QueueSize: 4})
	defer closeActor(t, a)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := a.Submit(ctx, Command{Op: OpUpsertAlias, Alias: "foo"})
		errCh <- err
	}()

	require.Eventually(t, func() bool { return h.active.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(h.gate)
	require.Eventually(t, func() bool { return len(h.commands()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "foo", h.commands()[0].Alias)
}

func TestOnDoneRunsBeforeReply(t *testing.T) {
	a := New(newRecordingHandler(), Options{})
	defer closeActor(t, a)

	var ran atomic.Bool
	_, err := a.Submit(context.Background(), Command{
		Op:     OpUpsertAlias,
		OnDone: func(Result) { ran.Store(true) },
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestOnDoneRunsForAbandonedCommand(t *testing.T) {
	h := newRecordingHandler()
	h.gate = make(chan struct{})
	a := New(h, Options{QueueSize: 4})
	defer closeActor(t, a)

	done := make(chan Result, 1)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := a.Submit(ctx, Command{
			Op:     OpUpsertAlias,
			Alias:  "foo",
			OnDone: func(res Result) { done <- res },
		})
		errCh <- err
	}()

	require.Eventually(t, func() bool { return h.active.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	select {
	case <-done:
		t.Fatal("OnDone ran before the handler returned")
	default:
	}

	close(h.gate)
	select {
	case res := <-done:
		assert.Equal(t, int64(1), res.RowsAffected)
	case <-time.After(time.Second):
		t.Fatal("OnDone never ran for the abandoned command")
	}
}

func TestSubmitWithDoneContext(t *testing.T) {
	h := newRecordingHandler()
	a := New(h, Options{})
	defer closeActor(t, a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Submit(ctx, Command{Op: OpPing})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.commands(), "nothing is enqueued for an already-done caller")
}

func TestCloseDrainsQueue(t *testing.T) {
	h := newRecordingHandler()
	h.gate = make(chan struct{})
	a := New(h, Options{QueueSize: 16})

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Submit(context.Background(), Command{Op: OpUpsertAlias})
			assert.NoError(t, err)
		}()
	}

	// One command is held by the handler, the rest wait in the queue.
	require.Eventually(t, func() bool { return a.Len() == n-1 }, time.Second, time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- a.Close(context.Background()) }()

	// New submissions are refused once Close has started.
	require.Eventually(t, func() bool {
		a.mu.RLock()
		defer a.mu.RUnlock()
		return a.closed
	}, time.Second, time.Millisecond)
	_, err := a.Submit(context.Background(), Command{Op: OpPing})
	assert.ErrorIs(t, err, ErrClosed)

	close(h.gate)
	require.NoError(t, <-closed)
	wg.Wait()

	assert.Len(t, h.commands(), n)
	assert.Equal(t, int32(1), h.closed.Load())

	_, err = a.Submit(context.Background(), Command{Op: OpPing})
	assert.ErrorIs(t, err, ErrActorUnavailable)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newRecordingHandler()
	a := New(h, Options{})

	require.NoError(t, a.Close(context.Background()))
	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, int32(1), h.closed.Load())
}

func TestCloseHonoursContext(t *testing.T) {
	h := newRecordingHandler()
	h.gate = make(chan struct{})
	a := New(h, Options{})

	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return h.active.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Close(ctx), context.DeadlineExceeded)

	close(h.gate)
	require.NoError(t, a.Close(context.Background()))
}

func TestOverflowReject(t *testing.T) {
	h := newRecordingHandler()
	h.gate = make(chan struct{})
	a := New(h, Options{QueueSize: 1, Overflow: OverflowReject})
	defer closeActor(t, a)

	// First command occupies the worker, second fills the queue.
	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return h.active.Load() == 1 }, time.Second, time.Millisecond)
	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return a.Len() == 1 }, time.Second, time.Millisecond)

	_, err := a.Submit(context.Background(), Command{Op: OpPing})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(h.gate)
}

func TestOverflowBlockUntilDeadline(t *testing.T) {
	h := newRecordingHandler()
	h.gate = make(chan struct{})
	a := New(h, Options{QueueSize: 1, Overflow: OverflowBlock})
	defer closeActor(t, a)

	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return h.active.Load() == 1 }, time.Second, time.Millisecond)
	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return a.Len() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.Submit(ctx, Command{Op: OpPing})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(h.gate)
}

func TestOverflowBlockProceedsWhenSpaceFrees(t *testing.T) {
	h := newRecordingHandler()
	h.gate = make(chan struct{})
	a := New(h, Options{QueueSize: 1, Overflow: OverflowBlock})
	defer closeActor(t, a)

	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return h.active.Load() == 1 }, time.Second, time.Millisecond)
	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return a.Len() == 1 }, time.Second, time.Millisecond)

	errCh := make(chan error, 1)
	go func() {
		_, err := a.Submit(context.Background(), Command{Op: OpUpsertAlias})
		errCh <- err
	}()

	close(h.gate)
	assert.NoError(t, <-errCh)
}

func TestCloseReleasesBlockedSenders(t *testing.T) {
	h := newRecordingHandler()
	h.gate = make(chan struct{})
	a := New(h, Options{QueueSize: 1, Overflow: OverflowBlock})

	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return h.active.Load() == 1 }, time.Second, time.Millisecond)
	go func() { _, _ = a.Submit(context.Background(), Command{Op: OpPing}) }()
	require.Eventually(t, func() bool { return a.Len() == 1 }, time.Second, time.Millisecond)

	blocked := make(chan error, 1)
	go func() {
		_, err := a.Submit(context.Background(), Command{Op: OpUpsertAlias})
		blocked <- err
	}()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- a.Close(context.Background()) }()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("sender blocked on a full queue was not released by Close")
	}

	start := time.Now()
	_, err := a.Submit(context.Background(), Command{Op: OpPing})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(h.gate)
	require.NoError(t, <-closed)
	assert.Len(t, h.commands(), 2, "only the commands already enqueued are drained")
}

func TestWorkerPanicSurfacesActorUnavailable(t *testing.T) {
	h := newRecordingHandler()
	h.panicOn = OpDeleteAlias
	h.gate = make(chan struct{})
	a := New(h, Options{QueueSize: 8})
	defer closeActor(t, a)

	first := make(chan error, 1)
	go func() {
		_, err := a.Submit(context.Background(), Command{Op: OpDeleteAlias})
		first <- err
	}()
	require.Eventually(t, func() bool { return h.active.Load() == 1 }, time.Second, time.Millisecond)

	queued := make(chan error, 1)
	go func() {
		_, err := a.Submit(context.Background(), Command{Op: OpGetAlias})
		queued <- err
	}()
	require.Eventually(t, func() bool { return a.Len() == 1 }, time.Second, time.Millisecond)

	close(h.gate)

	assert.ErrorIs(t, <-first, ErrActorUnavailable)
	assert.ErrorIs(t, <-queued, ErrActorUnavailable)

	select {
	case <-a.Dead():
	case <-time.After(time.Second):
		t.Fatal("Dead() not closed after worker panic")
	}
	assert.ErrorIs(t, a.Err(), ErrActorUnavailable)

	_, err := a.Submit(context.Background(), Command{Op: OpPing})
	assert.ErrorIs(t, err, ErrActorUnavailable)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "get_alias", OpGetAlias.String())
	assert.Equal(t, "delete_user", OpDeleteUser.String())
	assert.Equal(t, "unknown", Op(0).String())
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	rejected int
}

func (m *fakeMetrics) ObserveCommand(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[op+"/"+outcome]++
}

func (m *fakeMetrics) SetQueueDepth(int) {}

func (m *fakeMetrics) RecordRejected(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected++
}

func TestMetricsOutcomes(t *testing.T) {
	h := newRecordingHandler()
	h.errFor[OpGetAlias] = models.ErrAliasNotFound
	h.errFor[OpCreateUser] = models.ErrDuplicateUser
	m := &fakeMetrics{outcomes: map[string]int{}}
	a := New(h, Options{Metrics: m})

	_, _ = a.Submit(context.Background(), Command{Op: OpPing})
	_, _ = a.Submit(context.Background(), Command{Op: OpGetAlias})
	_, _ = a.Submit(context.Background(), Command{Op: OpCreateUser})
	require.NoError(t, a.Close(context.Background()))

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, 1, m.outcomes["ping/ok"])
	assert.Equal(t, 1, m.outcomes["get_alias/not_found"])
	assert.Equal(t, 1, m.outcomes["create_user/error"])
}
