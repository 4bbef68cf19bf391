package session

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker 进程内的勾选状态实现，到期惰性清理。
type MemoryTracker struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*sessionEntry // sessionID:kind -> entry
}

type sessionEntry struct {
	done      map[string]struct{}
	expiresAt time.Time
}

// NewMemoryTracker 创建内存勾选跟踪器。
func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &MemoryTracker{
		ttl:     ttl,
		entries: make(map[string]*sessionEntry),
	}
}

func trackerKey(sessionID string, kind Kind) string {
	return sessionID + ":" + string(kind)
}

// IsDone 查询勾选状态。
func (t *MemoryTracker) IsDone(_ context.Context, sessionID string, kind Kind, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked()
	entry, ok := t.entries[trackerKey(sessionID, kind)]
	if !ok {
		return false, nil
	}
	_, done := entry.done[id]
	return done, nil
}

// MarkDone 勾选完成，刷新会话过期时间。
func (t *MemoryTracker) MarkDone(_ context.Context, sessionID string, kind Kind, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked()
	key := trackerKey(sessionID, kind)
	entry, ok := t.entries[key]
	if !ok {
		entry = &sessionEntry{done: make(map[string]struct{})}
		t.entries[key] = entry
	}
	entry.done[id] = struct{}{}
	entry.expiresAt = time.Now().Add(t.ttl)
	return nil
}

// ClearDone 清除勾选。
func (t *MemoryTracker) ClearDone(_ context.Context, sessionID string, kind Kind, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[trackerKey(sessionID, kind)]
	if !ok {
		return nil
	}
	delete(entry.done, id)
	return nil
}

// pruneLocked 删除已过期的会话集合，调用方需持锁。
func (t *MemoryTracker) pruneLocked() {
	now := time.Now()
	for key, entry := range t.entries {
		if now.After(entry.expiresAt) {
			delete(t.entries, key)
		}
	}
}

var _ Tracker = (*MemoryTracker)(nil)
