package autosave

import (
	"github.com/jtomassoni/mmb-sub000/internal/models"
)

// Subscribe registers a listener for one resource's state transitions and
// returns a handle for Unsubscribe. The listener immediately receives the
// current snapshot.
func (m *Manager) Subscribe(ref models.ResourceRef, fn Listener) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.bufferLocked(ref)
	m.subSeq++
	id := m.subSeq
	b.listeners[id] = fn

	m.invokeListener(fn, m.snapshotLocked(b))

	return Handle{key: ref.Key(), id: id}
}

// Unsubscribe removes a previously registered listener. Unknown handles are
// ignored.
func (m *Manager) Unsubscribe(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[h.key]
	if !ok {
		return
	}
	delete(b.listeners, h.id)
}

// notifyLocked broadcasts the buffer's snapshot to its listeners. Caller
// holds m.mu. Ошибки слушателей изолируются per-listener и логируются.
func (m *Manager) notifyLocked(b *buffer) {
	if len(b.listeners) == 0 {
		return
	}
	snap := m.snapshotLocked(b)
	for _, fn := range b.listeners {
		m.invokeListener(fn, snap)
	}
}

// invokeListener runs one listener, recovering panics so a broken listener
// never breaks the edit path.
func (m *Manager) invokeListener(fn Listener, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Autosave listener panicked",
				"ref", snap.Ref, "panic", r)
		}
	}()
	fn(snap)
}

// snapshotLocked builds an immutable snapshot of the buffer. Caller holds m.mu.
func (m *Manager) snapshotLocked(b *buffer) Snapshot {
	snap := Snapshot{
		Ref:           b.ref,
		State:         b.state,
		PendingFields: cloneFields(b.pending),
		Version:       b.version,
		RetryCount:    b.retryCount,
		Err:           b.lastErr,
	}

	if b.conflict != nil {
		rec := *b.conflict
		snap.Conflict = &rec
	}

	if m.queue != nil {
		snap.QueueLen = m.queueLen
	}

	return snap
}
