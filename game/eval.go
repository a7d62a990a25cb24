package game

// EvaluateNumCards rewards every card a player got rid of.
func EvaluateNumCards(s State, scores []int) {
	gs := s.(*GameState)
	for p := range scores {
		scores[p] = 2 * (NumCards - gs.Hands[p].Count())
	}
}

func init() {
	RegisterEvaluation("num_cards", EvaluateNumCards)
}
