// internal/game/view.go
//
// Client-facing projection of a session.

package game

// CardView is the client-facing representation of a card.
// Identity is only included while the card is face up or paired, so a
// client cannot read the board from the payload.
type CardView struct {
	ID       string `json:"id"`
	Identity string `json:"identity,omitempty"`
	FaceUp   bool   `json:"faceUp"`
	Paired   bool   `json:"paired"`
}

// View is State with the deck masked.
type View struct {
	State
	Deck []CardView `json:"deck"`
}

// Public masks the identities of face-down cards.
func (s State) Public() View {
	up := make(map[string]bool, len(s.Flipped))
	for _, id := range s.Flipped {
		up[id] = true
	}
	cards := make([]CardView, len(s.Deck))
	for i, c := range s.Deck {
		cv := CardView{ID: c.ID, Paired: c.Paired, FaceUp: up[c.ID]}
		if cv.FaceUp || cv.Paired {
			cv.Identity = c.Identity
		}
		cards[i] = cv
	}
	v := View{State: s, Deck: cards}
	v.State.Deck = nil
	return v
}
