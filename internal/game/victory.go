package game

// evaluateVictory runs after the acting player's score has been updated at
// the end of their turn and returns the winner, if any.
//
// Player 0 always moves first, so reaching WinningScore as player 0 only
// arms the tie-breaker: the score is recorded as pendingWinner and player 1
// gets one turn to respond. The response is settled at the end of that turn
// whatever the responder's score is: higher wins, equal clears the
// tie-breaker and play continues in sudden death, lower hands the game to
// pendingWinner. Player 1 reaching WinningScore with nothing pending wins
// outright.
func (g *Game) evaluateVictory() *Player {
	acting := g.players[g.current]

	if g.isTieBreaker && g.pendingWinner != nil {
		return g.settleTieBreaker(acting)
	}

	if acting.Score < WinningScore {
		return nil
	}

	if g.current == 0 {
		pending := acting
		g.pendingWinner = &pending
		g.isTieBreaker = true
		g.Logger.Info("tie-breaker armed", "session", g.sessionID, "pending", pending.Name, "score", pending.Score)
		return nil
	}

	if g.pendingWinner == nil {
		return &acting
	}
	return g.settleTieBreaker(acting)
}

// settleTieBreaker ends the tie-breaker after the responder's turn. It must
// not be gated on the responder reaching WinningScore: finishing below
// pendingWinner, even after a fully correct turn, hands pendingWinner the
// game, and leaving the flags armed would give the responder extra turns.
func (g *Game) settleTieBreaker(responder Player) *Player {
	pending := *g.pendingWinner
	g.pendingWinner = nil
	g.isTieBreaker = false

	switch {
	case responder.Score > pending.Score:
		return &responder
	case responder.Score == pending.Score:
		g.Logger.Info("tie-breaker tied, sudden death", "session", g.sessionID, "score", pending.Score)
		return nil
	default:
		return &pending
	}
}
