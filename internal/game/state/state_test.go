package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest_Deduplicates(t *testing.T) {
	g := New()
	g.Suggest("anchor", "Alice")
	g.Suggest("anchor", "Bob")
	g.Suggest("anchor", "Alice")

	assert.Equal(t, []string{"Alice", "Bob"}, g.SuggestedWords["anchor"])
}

func TestUnsuggest(t *testing.T) {
	g := New()
	g.Suggest("anchor", "Alice")
	g.Suggest("anchor", "Bob")

	g.Unsuggest("anchor", "Alice")
	assert.Equal(t, []string{"Bob"}, g.SuggestedWords["anchor"])

	// Last suggester gone removes the word entry entirely.
	g.Unsuggest("anchor", "Bob")
	_, ok := g.SuggestedWords["anchor"]
	assert.False(t, ok)

	// Unknown word and absent user are no-ops.
	g.Unsuggest("ghost", "Alice")
	g.Suggest("bridge", "Bob")
	g.Unsuggest("bridge", "Alice")
	assert.Equal(t, []string{"Bob"}, g.SuggestedWords["bridge"])
}

func TestRemoveUserFromSuggestions(t *testing.T) {
	g := New()
	g.Suggest("anchor", "Alice")
	g.Suggest("anchor", "Bob")
	g.Suggest("bridge", "Alice")

	g.RemoveUserFromSuggestions("Alice")

	assert.Equal(t, []string{"Bob"}, g.SuggestedWords["anchor"])
	_, ok := g.SuggestedWords["bridge"]
	assert.False(t, ok, "word with no remaining suggesters is dropped")
}

func TestClone_Independent(t *testing.T) {
	g := New()
	g.SetWords(map[string]Word{
		"anchor": {Word: "anchor", Owner: OwnerGreen},
	})
	g.Suggest("anchor", "Alice")

	cp := g.Clone()
	require.Equal(t, g, cp)

	g.Suggest("anchor", "Bob")
	g.Words["anchor"] = Word{Word: "anchor", Owner: OwnerGreen, Revealed: true}

	assert.Equal(t, []string{"Alice"}, cp.SuggestedWords["anchor"])
	assert.False(t, cp.Words["anchor"].Revealed)
}

func TestCloneMap(t *testing.T) {
	a := New()
	a.Suggest("anchor", "Alice")
	states := map[string]*GameState{"ROOM": a}

	cp := CloneMap(states)
	a.Suggest("anchor", "Bob")

	assert.Equal(t, []string{"Alice"}, cp["ROOM"].SuggestedWords["anchor"])
}
