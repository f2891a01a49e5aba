// Package autosave implements the optimistic autosave state machine: it
// buffers in-progress field edits per resource, debounces commits, and
// orchestrates the persistence client, conflict resolution and the offline
// queue. Each resource owns exactly one buffer; at most one commit per
// resource is in flight at any time.
package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jtomassoni/mmb-sub000/internal/clock"
	"github.com/jtomassoni/mmb-sub000/internal/diff"
	editorapi "github.com/jtomassoni/mmb-sub000/internal/editor/api"
	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

//go:generate moq -out offline_queue_mock.go . OfflineQueue

// OfflineQueue is the durable store for commits that could not reach the
// server. Implemented by the queue package.
type OfflineQueue interface {
	// Enqueue durably parks one change.
	Enqueue(ctx context.Context, ref models.ResourceRef, payload map[string]any, baseVersion int64) (*models.QueuedChange, error)

	// Len returns the number of queued changes.
	Len(ctx context.Context) (int, error)

	// Replay drains the queue FIFO per resource; returns processed count.
	Replay(ctx context.Context, accessToken string) (int, error)
}

// Config tunes the autosave engine.
type Config struct {
	// DebounceInterval is the inactivity window after the last edit before a
	// commit fires. Rapid successive edits inside the window coalesce into
	// exactly one commit.
	DebounceInterval time.Duration

	// RetryBase is the backoff base: retry N fires after RetryBase * 2^N.
	RetryBase time.Duration

	// MaxRetries bounds in-place retries; past the cap the change set is
	// pushed onto the offline queue and the buffer turns terminal Error.
	MaxRetries int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		DebounceInterval: 2 * time.Second,
		RetryBase:        500 * time.Millisecond,
		MaxRetries:       5,
	}
}

// Manager owns the keyed arena of per-resource autosave buffers.
// Все мутации состояния происходят под одним мьютексом; сетевой вызов
// выполняется с выставленным inFlight-флагом, что гарантирует не более
// одного одновременного коммита на ресурс.
type Manager struct {
	mu      sync.Mutex
	buffers map[string]*buffer

	client edClient
	queue  OfflineQueue
	clk    clock.Clock
	logger *slog.Logger
	cfg    Config

	accessToken string
	subSeq      int
	queueLen    int // cached: bbolt не трогается на каждом снапшоте

	ctx    context.Context
	cancel context.CancelFunc
}

// edClient is the slice of the persistence client the manager needs.
type edClient interface {
	Commit(ctx context.Context, accessToken string, req api.CommitRequest) (*editorapi.CommitResult, error)
}

// buffer holds one resource's ChangeSet and autosave state. Owned
// exclusively by the manager.
type buffer struct {
	ref          models.ResourceRef
	state        models.AutosaveState
	pending      map[string]any // uncommitted field edits
	pendingSince time.Time
	version      int64 // last known server version
	timer        clock.Timer
	inFlight     bool
	retryCount   int
	conflict     *models.ConflictRecord
	lastErr      error
	listeners    map[int]Listener
}

// Snapshot is an immutable view of one buffer's state, delivered to
// subscribed listeners on every transition.
type Snapshot struct {
	Ref           models.ResourceRef
	State         models.AutosaveState
	PendingFields map[string]any
	Version       int64
	RetryCount    int
	Conflict      *models.ConflictRecord
	QueueLen      int
	Err           error
}

// Listener receives state snapshots. Listeners are invoked synchronously on
// every transition; a panicking listener is recovered and logged, never
// propagated. Listeners must not call back into the Manager.
type Listener func(Snapshot)

// Handle identifies one subscription.
type Handle struct {
	key string
	id  int
}

// NewManager creates the autosave manager. The queue may be attached later
// via AttachQueue (the queue's replay hooks point back at the manager).
func NewManager(client edClient, clk clock.Clock, logger *slog.Logger, cfg Config) *Manager {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = DefaultConfig().DebounceInterval
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultConfig().RetryBase
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		buffers: make(map[string]*buffer),
		client:  client,
		clk:     clk,
		logger:  logger,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AttachQueue wires the offline queue in after construction. The backlog
// length is read once here and kept in sync by the enqueue/replay paths.
func (m *Manager) AttachQueue(q OfflineQueue) {
	n, err := q.Len(m.ctx)
	if err != nil {
		n = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = q
	m.queueLen = n
}

// SetAccessToken sets the bearer token used on commits.
func (m *Manager) SetAccessToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = token
}

// Close cancels pending timers and in-flight commits.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.buffers {
		if b.timer != nil {
			b.timer.Stop()
		}
	}
}

// Track seeds a buffer with the resource's known server version, typically
// after an initial fetch. Без базовой версии первый коммит трактуется как
// create (base_version = 0).
func (m *Manager) Track(ref models.ResourceRef, version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bufferLocked(ref)
	b.version = version
}

// Update merges one field edit into the resource's change set and resets the
// debounce timer, coalescing rapid successive edits into one pending commit.
func (m *Manager) Update(ref models.ResourceRef, field string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.bufferLocked(ref)
	if len(b.pending) == 0 {
		b.pendingSince = m.clk.Now()
	}
	b.pending[field] = value

	// Новый edit сбрасывает терминальную ошибку.
	if b.state == models.StateError {
		b.lastErr = nil
		b.retryCount = 0
	}

	switch {
	case b.state == models.StateConflict:
		// Конфликт блокирует авто-коммиты до разрешения; edit буферизуется.
	case b.inFlight:
		// Commit в полёте: follow-up цикл запустится после его завершения.
	default:
		b.state = models.StateDirty
		m.scheduleDebounceLocked(b)
	}

	m.notifyLocked(b)
}

// Flush commits the resource's pending edits immediately, bypassing the
// debounce window. Used by explicit saves and editor shutdown.
func (m *Manager) Flush(ref models.ResourceRef) {
	m.mu.Lock()
	b, ok := m.buffers[ref.Key()]
	if !ok || b.timer == nil {
		m.mu.Unlock()
	} else {
		b.timer.Stop()
		b.timer = nil
		m.mu.Unlock()
	}
	m.commit(ref)
}

// Discard drops the resource's uncommitted edits and returns it to Clean.
func (m *Manager) Discard(ref models.ResourceRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[ref.Key()]
	if !ok {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = make(map[string]any)
	b.conflict = nil
	b.lastErr = nil
	b.retryCount = 0
	if !b.inFlight {
		b.state = models.StateClean
	}
	m.notifyLocked(b)
}

// Resolve applies the caller's decision on a pending conflict and re-enters
// the commit path. LocalWins re-submits local edits over the server state;
// ServerWins adopts the server values (still committed, so the audit diff is
// recorded); Merge commits the supplied payload.
func (m *Manager) Resolve(ref models.ResourceRef, resolution models.Resolution) error {
	m.mu.Lock()

	b, ok := m.buffers[ref.Key()]
	if !ok || b.state != models.StateConflict || b.conflict == nil {
		m.mu.Unlock()
		return fmt.Errorf("no pending conflict for %s", ref)
	}

	rec := b.conflict
	switch {
	case resolution.IsLocal():
		// Локальные правки поверх: более поздние pending-правки побеждают.
		for k, v := range rec.LocalChanges {
			if _, exists := b.pending[k]; !exists {
				b.pending[k] = v
			}
		}
		rec.Resolution = models.ResolutionOverridden

	case resolution.IsServer():
		b.pending = cloneFields(rec.ServerChanges)
		rec.Resolution = models.ResolutionResolved

	default:
		payload, ok := resolution.MergePayload()
		if !ok {
			m.mu.Unlock()
			return fmt.Errorf("merge resolution without payload for %s", ref)
		}
		b.pending = cloneFields(payload)
		rec.Resolution = models.ResolutionResolved
	}

	// Резолюция пересдаётся от актуальной серверной версии.
	b.version = rec.ServerVersion
	b.conflict = nil
	b.state = models.StateDirty
	b.retryCount = 0
	m.notifyLocked(b)
	m.mu.Unlock()

	m.commit(ref)
	return nil
}

// State returns the current snapshot for one resource.
func (m *Manager) State(ref models.ResourceRef) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bufferLocked(ref)
	return m.snapshotLocked(b)
}

// ReplayQueue replays the offline queue. Call when connectivity returns.
func (m *Manager) ReplayQueue(ctx context.Context) (int, error) {
	m.mu.Lock()
	q := m.queue
	token := m.accessToken
	m.mu.Unlock()

	if q == nil {
		return 0, fmt.Errorf("offline queue not attached")
	}
	return q.Replay(ctx, token)
}

// HandleReplayed is the queue hook fired after a queued change reaches the
// server: the buffer adopts the server version and, when nothing else is
// pending, returns to Clean.
func (m *Manager) HandleReplayed(change models.QueuedChange, resp *api.CommitResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queueLen > 0 {
		m.queueLen--
	}
	b, ok := m.buffers[change.Ref.Key()]
	if !ok {
		return
	}
	b.version = resp.Version
	if len(b.pending) == 0 && !b.inFlight && b.state != models.StateConflict {
		b.state = models.StateClean
		b.lastErr = nil
		b.retryCount = 0
	}
	m.notifyLocked(b)
}

// HandleQueueConflict is the queue hook fired when a queued change hits a
// version conflict during replay.
func (m *Manager) HandleQueueConflict(change models.QueuedChange, conflict *api.ConflictBody) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queueLen > 0 {
		m.queueLen--
	}
	b := m.bufferLocked(change.Ref)
	b.state = models.StateConflict
	b.conflict = &models.ConflictRecord{
		Ref:               change.Ref,
		LocalChanges:      cloneFields(change.Payload),
		ServerChanges:     cloneFields(conflict.ServerChanges),
		ConflictingFields: append([]string(nil), conflict.ConflictingFields...),
		ServerVersion:     conflict.ServerVersion,
		Resolution:        models.ResolutionPending,
		DetectedAt:        m.clk.Now(),
	}
	m.notifyLocked(b)
}

// HandleQueuePermanent is the queue hook fired when a queued change is
// dropped after exceeding the retry cap. The failure stays visible on the
// buffer as a terminal error.
func (m *Manager) HandleQueuePermanent(change models.QueuedChange, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queueLen > 0 {
		m.queueLen--
	}
	b := m.bufferLocked(change.Ref)
	b.state = models.StateError
	b.lastErr = err
	m.notifyLocked(b)
}

// bufferLocked returns the buffer for ref, creating a Clean one on demand.
func (m *Manager) bufferLocked(ref models.ResourceRef) *buffer {
	key := ref.Key()
	b, ok := m.buffers[key]
	if !ok {
		b = &buffer{
			ref:       ref,
			state:     models.StateClean,
			pending:   make(map[string]any),
			listeners: make(map[int]Listener),
		}
		m.buffers[key] = b
	}
	return b
}

// scheduleDebounceLocked (re)arms the debounce timer: any outstanding timer
// is cancelled so rapid edits coalesce.
func (m *Manager) scheduleDebounceLocked(b *buffer) {
	if b.timer != nil {
		b.timer.Stop()
	}
	ref := b.ref
	b.timer = m.clk.AfterFunc(m.cfg.DebounceInterval, func() {
		m.commit(ref)
	})
}

// commit runs one commit cycle for the resource. Single-writer discipline:
// the inFlight flag guarantees at most one concurrent commit per resource.
func (m *Manager) commit(ref models.ResourceRef) {
	m.mu.Lock()
	b, ok := m.buffers[ref.Key()]
	if !ok || b.inFlight || b.state == models.StateConflict || len(b.pending) == 0 {
		m.mu.Unlock()
		return
	}

	b.inFlight = true
	b.timer = nil
	b.state = models.StateSaving
	payload := cloneFields(b.pending)
	version := b.version
	token := m.accessToken
	m.notifyLocked(b)
	m.mu.Unlock()

	// Сетевой вызов вне мьютекса.
	result, err := m.client.Commit(m.ctx, token, api.CommitRequest{
		SiteID:      ref.SiteID,
		Kind:        string(ref.Kind),
		ResourceID:  ref.ResourceID,
		Fields:      payload,
		BaseVersion: version,
		Timestamp:   m.clk.Now(),
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	b.inFlight = false

	switch {
	case err == nil && result.Success != nil:
		m.onCommitSuccessLocked(b, payload, result.Success)

	case err == nil && result.Conflict != nil:
		m.onCommitConflictLocked(b, payload, result.Conflict)

	case models.IsOffline(err):
		m.onCommitOfflineLocked(b, payload, version, err)

	case models.IsTransient(err):
		m.onCommitTransientLocked(b, payload, version, err)

	default:
		// Validation/permission: fail fast, никогда не ретраится. Правки
		// остаются видимыми в буфере.
		b.state = models.StateError
		b.lastErr = err
		m.logger.Error("Commit rejected",
			"ref", b.ref, "error", err)
		m.notifyLocked(b)
	}
}

func (m *Manager) onCommitSuccessLocked(b *buffer, payload map[string]any, resp *api.CommitResponse) {
	b.version = resp.Version
	b.retryCount = 0
	b.lastErr = nil

	// Из pending уходят только поля, не изменившиеся за время полёта;
	// правки, пришедшие во время Saving, остаются и порождают follow-up.
	for k, sent := range payload {
		if cur, ok := b.pending[k]; ok && diff.Equal(cur, sent) {
			delete(b.pending, k)
		}
	}

	if len(b.pending) > 0 {
		b.state = models.StateDirty
		m.scheduleDebounceLocked(b)
	} else {
		b.state = models.StateClean
	}

	m.logger.Info("Commit succeeded",
		"ref", b.ref, "version", resp.Version, "audit_id", resp.AuditID)
	m.notifyLocked(b)
}

func (m *Manager) onCommitConflictLocked(b *buffer, payload map[string]any, conflict *api.ConflictBody) {
	b.state = models.StateConflict
	b.conflict = &models.ConflictRecord{
		Ref:               b.ref,
		LocalChanges:      payload,
		ServerChanges:     cloneFields(conflict.ServerChanges),
		ConflictingFields: append([]string(nil), conflict.ConflictingFields...),
		ServerVersion:     conflict.ServerVersion,
		Resolution:        models.ResolutionPending,
		DetectedAt:        m.clk.Now(),
	}
	m.logger.Warn("Commit conflicted",
		"ref", b.ref, "conflicting_fields", conflict.ConflictingFields)
	m.notifyLocked(b)
}

func (m *Manager) onCommitOfflineLocked(b *buffer, payload map[string]any, version int64, err error) {
	// Потеря связи: payload уходит в offline queue вместо ретраев на месте.
	if m.queue != nil {
		if _, qerr := m.queue.Enqueue(m.ctx, b.ref, payload, version); qerr != nil {
			m.logger.Error("Failed to enqueue offline change",
				"ref", b.ref, "error", qerr)
			b.state = models.StateError
			b.lastErr = qerr
			m.notifyLocked(b)
			return
		}
		m.queueLen++
		for k, sent := range payload {
			if cur, ok := b.pending[k]; ok && diff.Equal(cur, sent) {
				delete(b.pending, k)
			}
		}
	}

	b.state = models.StateDirty
	if len(b.pending) > 0 {
		// Правки, пришедшие во время полёта, не должны зависнуть: им нужен
		// свой цикл коммита (скорее всего тоже уйдёт в очередь).
		m.scheduleDebounceLocked(b)
	}
	m.logger.Warn("Offline, change queued for replay", "ref", b.ref, "error", err)
	m.notifyLocked(b)
}

func (m *Manager) onCommitTransientLocked(b *buffer, payload map[string]any, version int64, err error) {
	b.retryCount++

	if b.retryCount > m.cfg.MaxRetries {
		// Кап исчерпан: терминальная ошибка, change set уходит в очередь.
		if m.queue != nil {
			if _, qerr := m.queue.Enqueue(m.ctx, b.ref, payload, version); qerr != nil {
				m.logger.Error("Failed to enqueue change after retry cap",
					"ref", b.ref, "error", qerr)
			} else {
				m.queueLen++
				for k, sent := range payload {
					if cur, ok := b.pending[k]; ok && diff.Equal(cur, sent) {
						delete(b.pending, k)
					}
				}
			}
		}
		b.state = models.StateError
		b.lastErr = &models.PermanentError{Attempts: b.retryCount, Err: err}
		m.logger.Error("Retry cap exceeded",
			"ref", b.ref, "attempts", b.retryCount, "error", err)
		m.notifyLocked(b)
		return
	}

	// Экспоненциальный backoff: base * 2^retryCount.
	delay := m.cfg.RetryBase * (1 << b.retryCount)
	b.state = models.StateDirty
	ref := b.ref
	b.timer = m.clk.AfterFunc(delay, func() {
		m.commit(ref)
	})
	m.logger.Warn("Commit failed, retry scheduled",
		"ref", b.ref, "retry_count", b.retryCount, "delay", delay, "error", err)
	m.notifyLocked(b)
}

// cloneFields copies a field map; values are shared and treated as immutable.
func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
