package engine

import (
	"context"

	"github.com/ehrlich-b/dixjudge/internal/cards"
	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// RunRound drives one round of trick play starting from player and
// returns the two teams' round scores. hands is mutated in place: each
// player's hand shrinks by one card per play.
func RunRound(ctx context.Context, t table, hands [4]cards.Hand, player int) (teamScores [2]int, err error) {
	var trick cards.Trick
	var trump cards.Suit
	trumpSet := false

	for len(hands[player]) > 0 {
		playable := cards.PlayableCards(trick, hands[player])

		line, commErr := t.Communicate(ctx, player, wire.QueryCard{})
		if commErr != nil {
			return teamScores, commErr
		}
		played, ok := wire.ParseCardReply(line)
		if !ok || !playable.Contains(played) {
			played = cards.MinForceCard(playable)
		}

		if err := t.Broadcast(ctx, wire.ReplyCard{Player: player, Card: played}); err != nil {
			return teamScores, err
		}

		if !trumpSet {
			trump = played.Suit
			trumpSet = true
		}

		trick = append(trick, played)
		hands[player].Remove(played)
		player = (player + 1) % 4

		if len(trick) == 4 {
			points, offset := cards.ScoreTrick(trick, trump)
			winner := (player + offset) % 4
			teamScores[winner%2] += points
			player = winner
			trick = nil
		}
	}

	return teamScores, nil
}
