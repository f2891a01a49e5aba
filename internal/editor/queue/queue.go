// Package queue implements the durable offline queue: a per-resource FIFO of
// commits that could not reach the server. Changes are persisted in BoltDB so
// they survive editor restarts, and replayed in order once connectivity is
// confirmed.
package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	editorapi "github.com/jtomassoni/mmb-sub000/internal/editor/api"
	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

var (
	// bucketQueue stores queued changes keyed by "<resourceKey>/<seq>".
	// BoltDB итерирует ключи в байтовом порядке, поэтому ключи с общим
	// префиксом ресурса образуют FIFO по seq.
	bucketQueue = []byte("offline_queue")
)

// DefaultMaxRetries bounds replay attempts per queued change before it is
// dropped and surfaced as a permanent failure.
const DefaultMaxRetries = 5

// Hooks notify the owner about replay outcomes. All hooks are optional and
// invoked synchronously from Replay.
type Hooks struct {
	// OnReplayed fires after a queued change reaches the server successfully.
	OnReplayed func(change models.QueuedChange, resp *api.CommitResponse)

	// OnConflict fires when a queued change hits a version conflict. The
	// change is removed from the queue; resolution happens in the autosave
	// layer.
	OnConflict func(change models.QueuedChange, conflict *api.ConflictBody)

	// OnPermanent fires when a queued change exceeds the retry cap and is
	// dropped from the queue.
	OnPermanent func(change models.QueuedChange, err error)
}

// Queue is the BoltDB-backed offline queue.
type Queue struct {
	db         *bbolt.DB
	client     editorapi.ClientAPI
	logger     *slog.Logger
	hooks      Hooks
	maxRetries int
}

// New opens (or creates) the queue database at dbPath.
func New(dbPath string, client editorapi.ClientAPI, logger *slog.Logger, hooks Hooks) (*Queue, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketQueue)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize queue bucket: %w", err)
	}

	return &Queue{
		db:         db,
		client:     client,
		logger:     logger,
		hooks:      hooks,
		maxRetries: DefaultMaxRetries,
	}, nil
}

// SetMaxRetries overrides the per-change retry cap. Mainly for tests.
func (q *Queue) SetMaxRetries(n int) {
	q.maxRetries = n
}

// Close closes the underlying database.
func (q *Queue) Close() error {
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}

// Enqueue durably parks a change that could not reach the server.
func (q *Queue) Enqueue(ctx context.Context, ref models.ResourceRef, payload map[string]any, baseVersion int64) (*models.QueuedChange, error) {
	change := &models.QueuedChange{
		ID:          uuid.New().String(),
		Ref:         ref,
		Payload:     payload,
		BaseVersion: baseVersion,
		EnqueuedAt:  time.Now(),
	}

	err := q.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get sequence: %w", err)
		}

		data, err := json.Marshal(change)
		if err != nil {
			return fmt.Errorf("failed to marshal queued change: %w", err)
		}

		return bucket.Put(queueKey(ref, seq), data)
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue transaction failed: %w", err)
	}

	q.logger.Info("Change queued for offline replay",
		"ref", ref, "change_id", change.ID)

	return change, nil
}

// Len returns the number of queued changes.
func (q *Queue) Len(ctx context.Context) (int, error) {
	count := 0
	err := q.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketQueue).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return count, nil
}

// PendingForResource returns the queued changes for one resource in FIFO order.
func (q *Queue) PendingForResource(ctx context.Context, ref models.ResourceRef) ([]models.QueuedChange, error) {
	prefix := []byte(ref.Key() + "/")
	var changes []models.QueuedChange

	err := q.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketQueue).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var change models.QueuedChange
			if err := json.Unmarshal(v, &change); err != nil {
				return fmt.Errorf("failed to unmarshal queued change: %w", err)
			}
			changes = append(changes, change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// Replay drains the queue in FIFO order per resource and returns the number
// of successfully committed changes. Replay is only attempted when the
// server is reachable; a failed ping leaves the queue untouched.
//
// Per resource: success removes the change; a transient failure increments
// its retry count and halts that resource's drain so ordering is preserved;
// exceeding the retry cap drops the change and reports a permanent failure.
func (q *Queue) Replay(ctx context.Context, accessToken string) (int, error) {
	// Connectivity gate.
	if err := q.client.Ping(ctx); err != nil {
		return 0, fmt.Errorf("server unreachable, replay skipped: %w", err)
	}

	type item struct {
		key    []byte
		change models.QueuedChange
	}

	var items []item
	err := q.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			var change models.QueuedChange
			if err := json.Unmarshal(v, &change); err != nil {
				return fmt.Errorf("failed to unmarshal queued change: %w", err)
			}
			key := make([]byte, len(k))
			copy(key, k)
			items = append(items, item{key: key, change: change})
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read queue: %w", err)
	}

	processed := 0
	var toDelete [][]byte
	toUpdate := map[string]models.QueuedChange{}
	// Ресурсы, у которых replay остановлен transient-ошибкой: остальные их
	// записи пропускаем, чтобы не нарушить порядок.
	halted := map[string]bool{}

	for _, it := range items {
		resKey := it.change.Ref.Key()
		if halted[resKey] {
			continue
		}

		result, err := q.client.Commit(ctx, accessToken, api.CommitRequest{
			SiteID:      it.change.Ref.SiteID,
			Kind:        string(it.change.Ref.Kind),
			ResourceID:  it.change.Ref.ResourceID,
			Fields:      it.change.Payload,
			BaseVersion: it.change.BaseVersion,
			Timestamp:   it.change.EnqueuedAt,
		})

		switch {
		case err == nil && result.Success != nil:
			processed++
			toDelete = append(toDelete, it.key)
			q.logger.Info("Queued change replayed",
				"ref", it.change.Ref, "change_id", it.change.ID)
			if q.hooks.OnReplayed != nil {
				q.hooks.OnReplayed(it.change, result.Success)
			}

		case err == nil && result.Conflict != nil:
			// Конфликт разрешается в autosave слое; из очереди запись уходит.
			toDelete = append(toDelete, it.key)
			halted[resKey] = true
			q.logger.Warn("Queued change conflicted during replay",
				"ref", it.change.Ref, "change_id", it.change.ID)
			if q.hooks.OnConflict != nil {
				q.hooks.OnConflict(it.change, result.Conflict)
			}

		case models.IsTransient(err):
			change := it.change
			change.RetryCount++
			if change.RetryCount >= q.maxRetries {
				toDelete = append(toDelete, it.key)
				permErr := &models.PermanentError{Attempts: change.RetryCount, Err: err}
				q.logger.Error("Queued change dropped after retry cap",
					"ref", change.Ref, "change_id", change.ID, "attempts", change.RetryCount)
				if q.hooks.OnPermanent != nil {
					q.hooks.OnPermanent(change, permErr)
				}
			} else {
				toUpdate[string(it.key)] = change
				q.logger.Warn("Queued change replay failed, will retry",
					"ref", change.Ref, "change_id", change.ID, "retry_count", change.RetryCount)
			}
			halted[resKey] = true

		default:
			// Validation/permission ошибки не ретраятся: запись терминально
			// провалена и покидает очередь.
			toDelete = append(toDelete, it.key)
			halted[resKey] = true
			q.logger.Error("Queued change rejected by server",
				"ref", it.change.Ref, "change_id", it.change.ID, "error", err)
			if q.hooks.OnPermanent != nil {
				q.hooks.OnPermanent(it.change, err)
			}
		}
	}

	err = q.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		for _, k := range toDelete {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("failed to delete queued change: %w", err)
			}
		}
		for k, change := range toUpdate {
			data, err := json.Marshal(&change)
			if err != nil {
				return fmt.Errorf("failed to marshal queued change: %w", err)
			}
			if err := bucket.Put([]byte(k), data); err != nil {
				return fmt.Errorf("failed to update queued change: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return processed, fmt.Errorf("replay bookkeeping failed: %w", err)
	}

	return processed, nil
}

// queueKey builds a byte-ordered key: resource key prefix plus a fixed-width
// sequence number.
func queueKey(ref models.ResourceRef, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s/%016x", ref.Key(), seq))
}
