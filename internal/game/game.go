// Package game is the two-player turn, scoring and tie-breaker state machine.
//
// A Game is not safe for concurrent use. Each exported method is one
// complete transition, so callers only need to serialize calls.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/choiway/photoguess/internal/metrics"
	"github.com/choiway/photoguess/internal/options"
	"github.com/choiway/photoguess/internal/photo"
)

const (
	// WinningScore ends the game once reached, subject to the tie-breaker.
	WinningScore = 10
	// MinPhotosToStart is the fewest mode-eligible photos a game needs.
	MinPhotosToStart = 3
)

var (
	ErrNotEnoughPhotos = errors.New("not enough photos to start")
	ErrWrongPhase      = errors.New("not allowed in the current game phase")
	ErrInvalidGuess    = errors.New("invalid guess")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownMode     = errors.New("unknown game mode")
)

// Phase is the game's top-level state.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFeedback Phase = "feedback"
	PhaseVictory  Phase = "victory"
	PhaseNoPhotos Phase = "no_photos"
)

type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func defaultName(id int) string {
	return "Player " + strconv.Itoa(id)
}

// Outcome describes what a guess did.
type Outcome struct {
	Correct   bool    `json:"correct"`
	TurnOver  bool    `json:"turnOver"`
	TurnScore int     `json:"turnScore"`
	Message   string  `json:"message"`
	Winner    *Player `json:"winner,omitempty"`
}

// Game owns one pair of players and, once started, one session over a
// shuffled list of photos.
type Game struct {
	Now    func() time.Time
	Logger *slog.Logger

	rng *rand.Rand

	allPhotos []photo.Photo
	countries []string
	states    []string
	cities    []string

	phase   Phase
	mode    photo.Mode
	players [2]Player
	current int

	sessionID  string
	photos     []photo.Photo
	photoIndex int
	used       *usedSet

	field     Field
	guess     Guess
	turnScore int
	choices   []Choice

	lastGuessCorrect *bool
	feedback         string
	correctAnswer    *Answer

	winner        *Player
	pendingWinner *Player
	isTieBreaker  bool
}

// New returns a game in setup with no photos loaded. A nil rng is replaced
// by a randomly seeded one.
func New(rng *rand.Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	g := &Game{
		Now:    time.Now,
		Logger: slog.Default(),
		rng:    rng,
		mode:   photo.ModeDate,
		players: [2]Player{
			{ID: 1, Name: defaultName(1)},
			{ID: 2, Name: defaultName(2)},
		},
	}
	g.clearSession()
	return g
}

func (g *Game) clearSession() {
	g.phase = PhaseSetup
	g.sessionID = ""
	g.photos = nil
	g.photoIndex = 0
	g.used = newUsedSet()
	g.current = 0
	for i := range g.players {
		g.players[i].Score = 0
	}
	g.resetTurn()
	g.field = fieldOrder[g.mode][0]
	g.winner = nil
	g.pendingWinner = nil
	g.isTieBreaker = false
}

func (g *Game) resetTurn() {
	g.guess = Guess{}
	g.turnScore = 0
	g.choices = nil
	g.lastGuessCorrect = nil
	g.feedback = ""
	g.correctAnswer = nil
}

// LoadPhotos replaces the photo pool the next session draws from and the
// location values offered as distractors. A running session keeps its own
// photos.
func (g *Game) LoadPhotos(photos []photo.Photo) {
	g.allPhotos = append([]photo.Photo(nil), photos...)
	g.countries, g.states, g.cities = nil, nil, nil

	seen := make(map[string]bool)
	add := func(dst *[]string, kind, v string) {
		if v == "" || seen[kind+"\x00"+v] {
			return
		}
		seen[kind+"\x00"+v] = true
		*dst = append(*dst, v)
	}
	for _, p := range g.allPhotos {
		if p.Location == nil {
			continue
		}
		add(&g.countries, "country", p.Location.Country)
		add(&g.states, "state", p.Location.State)
		add(&g.cities, "city", p.Location.City)
	}
}

// EligibleCount is how many loaded photos can be played in mode m.
func (g *Game) EligibleCount(m photo.Mode) int {
	n := 0
	for _, p := range g.allPhotos {
		if p.Eligible(m) {
			n++
		}
	}
	return n
}

// SetMode selects the mode for the next game. Only allowed in setup.
func (g *Game) SetMode(m photo.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	if g.phase != PhaseSetup {
		return fmt.Errorf("set mode: %w", ErrWrongPhase)
	}
	g.mode = m
	g.field = fieldOrder[m][0]
	return nil
}

// SetPlayerName renames player id (1 or 2). A blank name restores the
// default.
func (g *Game) SetPlayerName(id int, name string) error {
	if id != 1 && id != 2 {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName(id)
	}
	g.players[id-1].Name = name
	return nil
}

// StartGame begins a session with the active mode's eligible photos in
// random order. When too few photos are eligible it returns an error
// wrapping ErrNotEnoughPhotos and leaves the game untouched.
func (g *Game) StartGame() error {
	switch g.phase {
	case PhaseSetup, PhaseVictory, PhaseNoPhotos:
	default:
		return fmt.Errorf("start game: %w", ErrWrongPhase)
	}

	eligible := photo.Filter(g.allPhotos, g.mode)
	if len(eligible) < MinPhotosToStart {
		return fmt.Errorf("%w: %d %s photos available, need at least %d",
			ErrNotEnoughPhotos, len(eligible), g.mode, MinPhotosToStart)
	}

	g.clearSession()
	options.Shuffle(eligible, g.rng)
	g.photos = eligible
	g.sessionID = uuid.NewString()
	g.phase = PhasePlaying
	g.startTurn()

	g.Logger.Info("game started", "session", g.sessionID, "mode", g.mode, "photos", len(g.photos))
	return nil
}

func (g *Game) startTurn() {
	g.resetTurn()
	g.field = fieldOrder[g.mode][0]
	g.choices = g.choicesFor(g.field)
}

// nextField returns the field after the current one, skipping location
// fields the photo has no value for.
func (g *Game) nextField() (Field, bool) {
	order := fieldOrder[g.mode]
	p := g.photos[g.photoIndex]

	after := false
	for _, f := range order {
		if f == g.field {
			after = true
			continue
		}
		if !after {
			continue
		}
		if want, numeric := expected(p, f); numeric || want.Text != "" {
			return f, true
		}
	}
	return "", false
}

// SubmitGuess checks v against the current field of the current photo.
// A correct guess with fields remaining keeps the turn going; a full match
// or a wrong guess banks the turn score, evaluates victory and ends the
// turn.
func (g *Game) SubmitGuess(v GuessValue) (Outcome, error) {
	if g.phase != PhasePlaying {
		return Outcome{}, fmt.Errorf("submit guess: %w", ErrWrongPhase)
	}

	p := g.photos[g.photoIndex]
	want, numeric := expected(p, g.field)
	if numeric == v.IsText {
		kind := "text"
		if numeric {
			kind = "number"
		}
		return Outcome{}, fmt.Errorf("%w: %s takes a %s", ErrInvalidGuess, g.field, kind)
	}

	correct := matches(v, want)
	metrics.Guesses.WithLabelValues(string(g.mode), strconv.FormatBool(correct)).Inc()
	g.lastGuessCorrect = &correct

	if correct {
		g.guess[g.field] = v
		g.turnScore = turnPoints(len(g.guess))

		if next, ok := g.nextField(); ok {
			g.feedback = continueMessage(g.field, next)
			g.field = next
			g.choices = g.choicesFor(next)
			return Outcome{Correct: true, TurnScore: g.turnScore, Message: g.feedback}, nil
		}

		g.feedback = exactMessage(g.mode, g.turnScore)
	} else {
		g.feedback = wrongMessage(g.turnScore)
	}

	g.players[g.current].Score += g.turnScore
	g.correctAnswer = answerFor(p, g.mode)
	g.choices = nil

	g.winner = g.evaluateVictory()
	if g.winner != nil {
		g.phase = PhaseVictory
		metrics.GamesFinished.WithLabelValues(string(PhaseVictory)).Inc()
		g.Logger.Info("game won", "session", g.sessionID, "winner", g.winner.Name, "score", g.winner.Score)
	} else {
		g.phase = PhaseFeedback
	}

	return Outcome{
		Correct:   correct,
		TurnOver:  true,
		TurnScore: g.turnScore,
		Message:   g.feedback,
		Winner:    g.winner,
	}, nil
}

// EndTurn retires the current photo and hands the next unused one to the
// other player. With no unused photos left the game stops in no_photos.
func (g *Game) EndTurn() error {
	if g.phase != PhaseFeedback {
		return fmt.Errorf("end turn: %w", ErrWrongPhase)
	}

	g.used.Insert(g.photos[g.photoIndex].ID)

	next := -1
	for i := g.photoIndex + 1; i < len(g.photos); i++ {
		if !g.used.Check(g.photos[i].ID) {
			next = i
			break
		}
	}

	if next < 0 {
		g.resetTurn()
		g.phase = PhaseNoPhotos
		metrics.GamesFinished.WithLabelValues(string(PhaseNoPhotos)).Inc()
		g.Logger.Info("out of photos", "session", g.sessionID, "used", g.used.Len())
		return nil
	}

	g.photoIndex = next
	g.current = (g.current + 1) % 2
	g.phase = PhasePlaying
	g.startTurn()
	return nil
}

// ResetGame returns to setup. Loaded photos, the selected mode and player
// names are kept; scores and the session are cleared.
func (g *Game) ResetGame() {
	g.clearSession()
}

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// Mode returns the selected mode.
func (g *Game) Mode() photo.Mode { return g.mode }

// Players returns both players.
func (g *Game) Players() [2]Player { return g.players }

// CurrentPlayerIndex is 0 or 1.
func (g *Game) CurrentPlayerIndex() int { return g.current }

// CurrentPhoto returns the photo being guessed, answer included.
func (g *Game) CurrentPhoto() (photo.Photo, bool) {
	if len(g.photos) == 0 {
		return photo.Photo{}, false
	}
	return g.photos[g.photoIndex], true
}

// Choices returns the values offered for the current field.
func (g *Game) Choices() []Choice {
	return append([]Choice(nil), g.choices...)
}

// PhotoView is what players may see of the current photo.
type PhotoView struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// State is a read-only view of the game for rendering. It never includes
// the current photo's answer before the turn is over.
type State struct {
	SessionID          string     `json:"sessionId,omitempty"`
	Phase              Phase      `json:"phase"`
	Mode               photo.Mode `json:"mode"`
	Players            [2]Player  `json:"players"`
	CurrentPlayerIndex int        `json:"currentPlayerIndex"`
	Photo              *PhotoView `json:"photo,omitempty"`
	PhotosRemaining    int        `json:"photosRemaining"`
	EligiblePhotos     int        `json:"eligiblePhotos"`
	GuessPhase         Field      `json:"guessPhase"`
	CurrentGuess       Guess      `json:"currentGuess"`
	TurnScore          int        `json:"turnScore"`
	Choices            []Choice   `json:"choices,omitempty"`
	LastGuessCorrect   *bool      `json:"lastGuessCorrect"`
	FeedbackMessage    string     `json:"feedbackMessage"`
	CorrectAnswer      *Answer    `json:"correctAnswer,omitempty"`
	FormattedAnswer    string     `json:"formattedAnswer,omitempty"`
	WinningScore       int        `json:"winningScore"`
	Winner             *Player    `json:"winner"`
	PendingWinner      *Player    `json:"pendingWinner"`
	IsTieBreaker       bool       `json:"isTieBreaker"`
}

// State returns the current view.
func (g *Game) State() State {
	s := State{
		SessionID:          g.sessionID,
		Phase:              g.phase,
		Mode:               g.mode,
		Players:            g.players,
		CurrentPlayerIndex: g.current,
		EligiblePhotos:     g.EligibleCount(g.mode),
		GuessPhase:         g.field,
		CurrentGuess:       Guess{},
		TurnScore:          g.turnScore,
		Choices:            g.Choices(),
		LastGuessCorrect:   g.lastGuessCorrect,
		FeedbackMessage:    g.feedback,
		CorrectAnswer:      g.correctAnswer,
		FormattedAnswer:    g.correctAnswer.String(),
		WinningScore:       WinningScore,
		Winner:             g.winner,
		PendingWinner:      g.pendingWinner,
		IsTieBreaker:       g.isTieBreaker,
	}
	for f, v := range g.guess {
		s.CurrentGuess[f] = v
	}
	if p, ok := g.CurrentPhoto(); ok && g.phase != PhaseSetup {
		s.Photo = &PhotoView{ID: p.ID, URL: p.URL}
		s.PhotosRemaining = len(g.photos) - g.photoIndex - 1
	}
	return s
}
