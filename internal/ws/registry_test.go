package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(groupID, userID string) *Client {
	return &Client{
		id:          userID + "-conn",
		send:        make(chan []byte, sendBufferSize),
		groupID:     groupID,
		userID:      userID,
		displayName: userID,
	}
}

func TestRegistryAddAndConnections(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("g1", "alice")
	b := newTestClient("g1", "bob")
	c := newTestClient("g2", "carol")

	r.Add(a)
	r.Add(b)
	r.Add(c)

	assert.ElementsMatch(t, []*Client{a, b}, r.Connections("g1"))
	assert.ElementsMatch(t, []*Client{c}, r.Connections("g2"))
	assert.Empty(t, r.Connections("g3"))
}

func TestRegistryAddIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("g1", "alice")

	r.Add(a)
	r.Add(a)

	assert.Len(t, r.Connections("g1"), 1)
}

func TestRegistryRemovePrunesEmptyGroup(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("g1", "alice")
	b := newTestClient("g1", "bob")

	r.Add(a)
	r.Add(b)
	r.Remove(a)

	assert.False(t, r.Contains(a))
	assert.True(t, r.Contains(b))
	assert.Equal(t, 1, r.GroupCount())

	r.Remove(b)
	assert.Equal(t, 0, r.GroupCount())
	assert.Empty(t, r.Connections("g1"))
}

func TestRegistryRemoveUnknownClient(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("g1", "alice")

	// Removing a client that was never added must not panic.
	r.Remove(a)
	assert.False(t, r.Contains(a))
}

func TestRegistryConnectionsReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("g1", "alice")
	r.Add(a)

	snapshot := r.Connections("g1")
	r.Remove(a)

	// The snapshot taken before removal is unaffected.
	assert.Len(t, snapshot, 1)
	assert.Empty(t, r.Connections("g1"))
}
