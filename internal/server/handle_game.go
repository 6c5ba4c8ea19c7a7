package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/choiway/photoguess/internal/game"
	"github.com/choiway/photoguess/internal/photo"
)

// writeGameError maps game errors to statuses. Unexpected errors are not
// echoed to the client.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNotEnoughPhotos):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, game.ErrWrongPhase):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidGuess),
		errors.Is(err, game.ErrUnknownMode),
		errors.Is(err, game.ErrUnknownPlayer):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func handleGameState(session *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, session.State())
	}
}

func handleChoices(session *Session) http.HandlerFunc {
	type response struct {
		GuessPhase game.Field    `json:"guessPhase"`
		Choices    []game.Choice `json:"choices"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		s := session.State()
		if s.Phase != game.PhasePlaying {
			writeError(w, http.StatusConflict, "no guess in progress")
			return
		}
		writeJSON(w, http.StatusOK, response{GuessPhase: s.GuessPhase, Choices: s.Choices})
	}
}

func handleSetMode(session *Session) http.HandlerFunc {
	type request struct {
		Mode photo.Mode `json:"mode"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		state, err := session.Do(r.Context(), func(g *game.Game) error {
			return g.SetMode(req.Mode)
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func handleSetPlayerName(session *Session) http.HandlerFunc {
	type request struct {
		Name string `json:"name"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "player id must be 1 or 2")
			return
		}

		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		state, err := session.Do(r.Context(), func(g *game.Game) error {
			return g.SetPlayerName(id, req.Name)
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func handleStart(session *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := session.Do(r.Context(), func(g *game.Game) error {
			return g.StartGame()
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func handleGuess(session *Session) http.HandlerFunc {
	type request struct {
		Value *game.GuessValue `json:"value"`
	}
	type response struct {
		Outcome game.Outcome `json:"outcome"`
		State   game.State   `json:"state"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Value == nil {
			writeError(w, http.StatusBadRequest, "value is required")
			return
		}

		var out game.Outcome
		state, err := session.Do(r.Context(), func(g *game.Game) error {
			var err error
			out, err = g.SubmitGuess(*req.Value)
			return err
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{Outcome: out, State: state})
	}
}

func handleEndTurn(session *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := session.Do(r.Context(), func(g *game.Game) error {
			return g.EndTurn()
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func handleReset(session *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, _ := session.Do(r.Context(), func(g *game.Game) error {
			g.ResetGame()
			return nil
		})
		writeJSON(w, http.StatusOK, state)
	}
}
