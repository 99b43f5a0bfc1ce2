package chatclient

import (
	"sync"
	"time"

	"genielearn-backend/internal/models"

	"github.com/google/uuid"
)

// An optimistic entry is matched against a pushed confirmation when sender and
// content agree and the timestamps fall within this window.
const optimisticMatchWindow = 10 * time.Second

// Entry is one row of the displayed message list. While IsOptimistic is true
// the entry only exists locally: LocalID identifies it and Timestamp is the
// local submit time, to be replaced by the server-assigned values.
type Entry struct {
	models.MessageResponse
	LocalID      string
	IsOptimistic bool
}

// Timeline is the client's single source of display truth: a duplicate-free,
// time-ordered merge of loaded history, optimistic sends and pushed
// confirmations. Each client instance owns exactly one Timeline; nothing else
// mutates it.
type Timeline struct {
	mu      sync.Mutex
	entries []Entry
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Apply reconciles one pushed or loaded message into the list. The rule is
// deterministic: duplicate ids are ignored, a matching optimistic entry is
// replaced in place (list identity preserved), anything else is inserted at
// its timestamp position.
func (t *Timeline) Apply(m models.MessageResponse) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applyLocked(m)
}

func (t *Timeline) applyLocked(m models.MessageResponse) {
	for i := range t.entries {
		if !t.entries[i].IsOptimistic && t.entries[i].ID == m.ID {
			return
		}
	}

	for i := range t.entries {
		e := &t.entries[i]
		if e.IsOptimistic && e.SenderID == m.SenderID && e.Content == m.Content &&
			absDuration(m.Timestamp.Sub(e.Timestamp)) < optimisticMatchWindow {
			t.entries[i] = Entry{MessageResponse: m}
			return
		}
	}

	// Insert preserving ascending timestamp order; pushes normally arrive in
	// send order so this is an append in the common case.
	pos := len(t.entries)
	for pos > 0 && t.entries[pos-1].Timestamp.After(m.Timestamp) {
		pos--
	}
	t.entries = append(t.entries, Entry{})
	copy(t.entries[pos+1:], t.entries[pos:])
	t.entries[pos] = Entry{MessageResponse: m}
}

// AddOptimistic appends a locally fabricated entry for a just-submitted
// message and returns its temporary id.
func (t *Timeline) AddOptimistic(senderID, senderName, content string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	localID := uuid.NewString()
	t.entries = append(t.entries, Entry{
		MessageResponse: models.MessageResponse{
			SenderID:   senderID,
			SenderName: senderName,
			Content:    content,
			Timestamp:  time.Now().UTC(),
		},
		LocalID:      localID,
		IsOptimistic: true,
	})
	return localID
}

// RemoveOptimistic rolls back a failed send. It returns the entry's content so
// the caller can restore the composer.
func (t *Timeline) RemoveOptimistic(localID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].IsOptimistic && t.entries[i].LocalID == localID {
			content := t.entries[i].Content
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return content, true
		}
	}
	return "", false
}

// Entries returns a snapshot of the current list.
func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// DaySection groups consecutive entries sharing a calendar date, for display.
type DaySection struct {
	Date     string
	Messages []Entry
}

// GroupedByDate is a pure projection over the reconciled list; it holds no
// state of its own.
func (t *Timeline) GroupedByDate() []DaySection {
	entries := t.Entries()

	var sections []DaySection
	for _, e := range entries {
		date := e.Timestamp.Format("2006-01-02")
		if len(sections) == 0 || sections[len(sections)-1].Date != date {
			sections = append(sections, DaySection{Date: date})
		}
		last := &sections[len(sections)-1]
		last.Messages = append(last.Messages, e)
	}
	return sections
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
