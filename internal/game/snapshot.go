package game

import (
	"errors"
	"fmt"

	"github.com/choiway/photoguess/internal/photo"
)

// StorageKey is the key a session snapshot is stored under.
const StorageKey = "photo-date-game-storage"

// ErrStaleSnapshot means a snapshot refers to photos that are no longer
// loaded or is otherwise inconsistent.
var ErrStaleSnapshot = errors.New("snapshot does not match loaded photos")

// Snapshot is the persisted form of a game. Photos are stored by id and
// resolved against the loaded pool on Restore.
type Snapshot struct {
	SessionID          string     `json:"sessionId,omitempty"`
	Phase              Phase      `json:"gamePhase"`
	Mode               photo.Mode `json:"gameMode"`
	Players            [2]Player  `json:"players"`
	CurrentPlayerIndex int        `json:"currentPlayerIndex"`
	PhotoIDs           []string   `json:"photoIds"`
	CurrentPhotoIndex  int        `json:"currentPhotoIndex"`
	UsedPhotoIDs       []string   `json:"usedPhotoIds"`
	GuessPhase         Field      `json:"guessPhase"`
	CurrentGuess       Guess      `json:"currentGuess"`
	TurnScore          int        `json:"turnScore"`
	Choices            []Choice   `json:"choices,omitempty"`
	LastGuessCorrect   *bool      `json:"lastGuessCorrect"`
	FeedbackMessage    string     `json:"feedbackMessage"`
	CorrectAnswer      *Answer    `json:"correctAnswer"`
	WinningScore       int        `json:"winningScore"`
	Winner             *Player    `json:"winner"`
	PendingWinner      *Player    `json:"pendingWinner"`
	IsTieBreaker       bool       `json:"isTieBreaker"`
}

// Snapshot captures everything needed to resume the game later.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		SessionID:          g.sessionID,
		Phase:              g.phase,
		Mode:               g.mode,
		Players:            g.players,
		CurrentPlayerIndex: g.current,
		PhotoIDs:           make([]string, len(g.photos)),
		CurrentPhotoIndex:  g.photoIndex,
		UsedPhotoIDs:       g.used.IDs(),
		GuessPhase:         g.field,
		CurrentGuess:       Guess{},
		TurnScore:          g.turnScore,
		Choices:            g.Choices(),
		LastGuessCorrect:   g.lastGuessCorrect,
		FeedbackMessage:    g.feedback,
		CorrectAnswer:      g.correctAnswer,
		WinningScore:       WinningScore,
		Winner:             copyPlayer(g.winner),
		PendingWinner:      copyPlayer(g.pendingWinner),
		IsTieBreaker:       g.isTieBreaker,
	}
	for i, p := range g.photos {
		s.PhotoIDs[i] = p.ID
	}
	for f, v := range g.guess {
		s.CurrentGuess[f] = v
	}
	return s
}

func copyPlayer(p *Player) *Player {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Restore replaces the game's state with s. Photos are looked up by id in
// the loaded pool; if any is missing or s is inconsistent the game is left
// unchanged and the error wraps ErrStaleSnapshot.
func (g *Game) Restore(s Snapshot) error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: mode %q", ErrStaleSnapshot, s.Mode)
	}
	if s.CurrentPlayerIndex != 0 && s.CurrentPlayerIndex != 1 {
		return fmt.Errorf("%w: player index %d", ErrStaleSnapshot, s.CurrentPlayerIndex)
	}
	if s.Players[0].ID != 1 || s.Players[1].ID != 2 {
		return fmt.Errorf("%w: players", ErrStaleSnapshot)
	}

	byID := make(map[string]photo.Photo, len(g.allPhotos))
	for _, p := range g.allPhotos {
		byID[p.ID] = p
	}

	var photos []photo.Photo
	switch s.Phase {
	case PhaseSetup:
	case PhasePlaying, PhaseFeedback, PhaseVictory, PhaseNoPhotos:
		if s.CurrentPhotoIndex < 0 || s.CurrentPhotoIndex >= len(s.PhotoIDs) {
			return fmt.Errorf("%w: photo index %d of %d", ErrStaleSnapshot, s.CurrentPhotoIndex, len(s.PhotoIDs))
		}
		photos = make([]photo.Photo, len(s.PhotoIDs))
		for i, id := range s.PhotoIDs {
			p, ok := byID[id]
			if !ok || !p.Eligible(s.Mode) {
				return fmt.Errorf("%w: photo %q", ErrStaleSnapshot, id)
			}
			photos[i] = p
		}
	default:
		return fmt.Errorf("%w: phase %q", ErrStaleSnapshot, s.Phase)
	}

	field := s.GuessPhase
	if !fieldInMode(field, s.Mode) {
		return fmt.Errorf("%w: guess phase %q", ErrStaleSnapshot, field)
	}
	// A field the photo has no value for would accept an empty guess.
	if s.Phase == PhasePlaying || s.Phase == PhaseFeedback {
		if want, numeric := expected(photos[s.CurrentPhotoIndex], field); !numeric && want.Text == "" {
			return fmt.Errorf("%w: photo %q has no %s", ErrStaleSnapshot, s.PhotoIDs[s.CurrentPhotoIndex], field)
		}
	}

	used := newUsedSet()
	for _, id := range s.UsedPhotoIDs {
		used.Insert(id)
	}

	guess := Guess{}
	for f, v := range s.CurrentGuess {
		guess[f] = v
	}

	g.sessionID = s.SessionID
	g.phase = s.Phase
	g.mode = s.Mode
	g.players = s.Players
	g.current = s.CurrentPlayerIndex
	g.photos = photos
	g.photoIndex = s.CurrentPhotoIndex
	g.used = used
	g.field = field
	g.guess = guess
	g.turnScore = s.TurnScore
	g.choices = append([]Choice(nil), s.Choices...)
	g.lastGuessCorrect = s.LastGuessCorrect
	g.feedback = s.FeedbackMessage
	g.correctAnswer = s.CorrectAnswer
	g.winner = copyPlayer(s.Winner)
	g.pendingWinner = copyPlayer(s.PendingWinner)
	g.isTieBreaker = s.IsTieBreaker
	if s.Phase == PhaseSetup {
		g.photoIndex = 0
	}

	if g.phase == PhasePlaying && len(g.choices) == 0 {
		g.choices = g.choicesFor(g.field)
	}
	return nil
}

func fieldInMode(f Field, m photo.Mode) bool {
	for _, o := range fieldOrder[m] {
		if o == f {
			return true
		}
	}
	return false
}
