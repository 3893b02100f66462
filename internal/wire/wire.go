// Package wire implements the line-delimited text protocol spoken between
// the judge and each seat: card/hand/bid serialization and the small
// command grammar they exchange.
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ehrlich-b/dixjudge/internal/cards"
)

// WriteCard serializes a card as its two-character suit+rank token.
func WriteCard(c cards.Card) string {
	return string(rune(c.Suit)) + string(rune(c.Rank))
}

// ReadCard parses a two-character suit+rank token. An empty string, or one
// naming an unrecognized suit/rank, yields the zero Card with ok=false —
// the engine treats that as invalid input, not a parse panic.
func ReadCard(s string) (c cards.Card, ok bool) {
	if len(s) < 2 {
		return cards.Card{}, false
	}
	c = cards.Card{Suit: cards.Suit(s[0]), Rank: cards.Rank(s[1])}
	if !c.Valid() {
		return cards.Card{}, false
	}
	return c, true
}

// WriteTrick serializes a sequence of cards space-separated, preserving order.
func WriteTrick(t cards.Trick) string {
	toks := make([]string, len(t))
	for i, c := range t {
		toks[i] = WriteCard(c)
	}
	return strings.Join(toks, " ")
}

// ReadTrick parses a space-separated sequence of card tokens, silently
// dropping any token that doesn't parse as a card.
func ReadTrick(s string) cards.Trick {
	var t cards.Trick
	for _, tok := range strings.Fields(s) {
		if c, ok := ReadCard(tok); ok {
			t = append(t, c)
		}
	}
	return t
}

// WriteHand serializes a hand in canonical force-order (no follow, no
// trump), so round-trip test vectors are deterministic regardless of the
// hand's underlying map iteration order.
func WriteHand(h cards.Hand) string {
	return WriteTrick(cards.Trick(h.Sorted(0, 0)))
}

// ReadHand parses a hand from its serialized, space-separated form.
func ReadHand(s string) cards.Hand {
	return cards.NewHand(ReadTrick(s)...)
}

// Command is the sum type of judge<->seat protocol messages.
type Command interface {
	isCommand()
}

type Player struct{ Player int }
type Hand struct{ Hand cards.Hand }
type QueryBid struct{}
type ReplyBid struct {
	Player int
	Bid    int
}
type QueryCard struct{}
type ReplyCard struct {
	Player int
	Card   cards.Card
}
type End struct{}

func (Player) isCommand()    {}
func (Hand) isCommand()      {}
func (QueryBid) isCommand()  {}
func (ReplyBid) isCommand()  {}
func (QueryCard) isCommand() {}
func (ReplyCard) isCommand() {}
func (End) isCommand()       {}

// WriteCommand serializes a command to a single protocol line (without the
// trailing newline — callers append one when framing for a stream).
func WriteCommand(cmd Command) string {
	switch c := cmd.(type) {
	case Player:
		return fmt.Sprintf("player %d", c.Player)
	case Hand:
		return "hand " + WriteHand(c.Hand)
	case QueryBid:
		return "bid ?"
	case ReplyBid:
		return fmt.Sprintf("bid %d %d", c.Player, c.Bid)
	case QueryCard:
		return "card ?"
	case ReplyCard:
		return fmt.Sprintf("card %d %s", c.Player, WriteCard(c.Card))
	case End:
		return "end"
	default:
		panic(fmt.Sprintf("wire: unknown command type %T", cmd))
	}
}

// ParseBidReply parses a bot's raw reply to "bid ?": a single integer
// line. Anything else is invalid input, handled by the engine's
// pass/forced-default fallback rather than by this function.
func ParseBidReply(line string) (bid int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseCardReply parses a bot's raw reply to "card ?": a single card
// token.
func ParseCardReply(line string) (cards.Card, bool) {
	fields := strings.Fields(line)
	if len(fields) != 1 {
		return cards.Card{}, false
	}
	return ReadCard(fields[0])
}

// ReadCommand parses one protocol line back into a Command. It decodes the
// judge's own outgoing command grammar (player/hand/bid ?/bid N V/card ?/
// card N C/end) — useful for tests and tooling that replay a transcript —
// not a bot's raw replies, which use ParseBidReply/ParseCardReply instead.
func ReadCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("wire: empty command")
	}

	switch fields[0] {
	case "player":
		if len(fields) != 2 {
			return nil, fmt.Errorf("wire: malformed player command %q", line)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("wire: malformed player index %q: %w", fields[1], err)
		}
		return Player{Player: n}, nil

	case "hand":
		return Hand{Hand: ReadHand(strings.Join(fields[1:], " "))}, nil

	case "bid":
		if len(fields) == 2 && fields[1] == "?" {
			return QueryBid{}, nil
		}
		if len(fields) == 3 {
			n, err1 := strconv.Atoi(fields[1])
			v, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("wire: malformed bid command %q", line)
			}
			return ReplyBid{Player: n, Bid: v}, nil
		}
		return nil, fmt.Errorf("wire: malformed bid command %q", line)

	case "card":
		if len(fields) == 2 && fields[1] == "?" {
			return QueryCard{}, nil
		}
		if len(fields) == 3 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("wire: malformed card command %q", line)
			}
			c, ok := ReadCard(fields[2])
			if !ok {
				return nil, fmt.Errorf("wire: malformed card token %q", fields[2])
			}
			return ReplyCard{Player: n, Card: c}, nil
		}
		return nil, fmt.Errorf("wire: malformed card command %q", line)

	case "end":
		if len(fields) != 1 {
			return nil, fmt.Errorf("wire: malformed end command %q", line)
		}
		return End{}, nil

	default:
		return nil, fmt.Errorf("wire: invalid command %q", line)
	}
}
