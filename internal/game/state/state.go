// Package state defines the durable per-room game state: the word board
// and the pending word-suggestion log. This is the payload the game-state
// store persists; membership and roles are runtime-only and live in the
// room registry.
package state

// Owner identifies which side a board word belongs to.
type Owner string

// Board word owners.
const (
	OwnerGreen    Owner = "green"
	OwnerPurple   Owner = "purple"
	OwnerNeutral  Owner = "neutral"
	OwnerAssassin Owner = "assassin"
)

// Word is a single board word and its metadata.
type Word struct {
	Word     string `json:"word"`
	Owner    Owner  `json:"owner"`
	Revealed bool   `json:"revealed"`
}

// GameState holds everything persisted for a single room.
type GameState struct {
	// Words maps each board word to its metadata.
	Words map[string]Word `json:"words"`
	// SuggestedWords maps a board word to the usernames currently
	// suggesting it.
	SuggestedWords map[string][]string `json:"suggestedWords"`
}

// New creates an empty GameState.
func New() *GameState {
	return &GameState{
		Words:          make(map[string]Word),
		SuggestedWords: make(map[string][]string),
	}
}

// SetWords replaces the board with the given word set.
func (g *GameState) SetWords(words map[string]Word) {
	g.Words = make(map[string]Word, len(words))
	for w, meta := range words {
		g.Words[w] = meta
	}
}

// Suggest records username as a suggester of word. Duplicate suggestions
// by the same user are ignored.
//
// Precondition: word and username must be non-empty.
func (g *GameState) Suggest(word, username string) {
	if g.SuggestedWords == nil {
		g.SuggestedWords = make(map[string][]string)
	}
	for _, u := range g.SuggestedWords[word] {
		if u == username {
			return
		}
	}
	g.SuggestedWords[word] = append(g.SuggestedWords[word], username)
}

// Unsuggest removes username from the suggesters of word. Unknown words
// and absent usernames are no-ops.
func (g *GameState) Unsuggest(word, username string) {
	users, ok := g.SuggestedWords[word]
	if !ok {
		return
	}
	g.SuggestedWords[word] = removeString(users, username)
	if len(g.SuggestedWords[word]) == 0 {
		delete(g.SuggestedWords, word)
	}
}

// RemoveUserFromSuggestions purges username from every pending
// suggestion. Called when a user leaves the room so no suggestion is
// attributed to a departed member.
func (g *GameState) RemoveUserFromSuggestions(username string) {
	for word, users := range g.SuggestedWords {
		g.SuggestedWords[word] = removeString(users, username)
		if len(g.SuggestedWords[word]) == 0 {
			delete(g.SuggestedWords, word)
		}
	}
}

// Clone returns a deep copy of the state. Used to snapshot registry
// state synchronously before handing it to an asynchronous save.
func (g *GameState) Clone() *GameState {
	out := &GameState{
		Words:          make(map[string]Word, len(g.Words)),
		SuggestedWords: make(map[string][]string, len(g.SuggestedWords)),
	}
	for w, meta := range g.Words {
		out.Words[w] = meta
	}
	for w, users := range g.SuggestedWords {
		cp := make([]string, len(users))
		copy(cp, users)
		out.SuggestedWords[w] = cp
	}
	return out
}

// CloneMap deep-copies a room-code → state mapping.
func CloneMap(states map[string]*GameState) map[string]*GameState {
	out := make(map[string]*GameState, len(states))
	for code, st := range states {
		out[code] = st.Clone()
	}
	return out
}

func removeString(list []string, s string) []string {
	dst := list[:0]
	for _, v := range list {
		if v != s {
			dst = append(dst, v)
		}
	}
	return dst
}
