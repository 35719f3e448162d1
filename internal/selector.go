package internal

import (
	"math/rand"
	"regexp"
	"time"
)

// TurnSelector decides which group participants respond to a user
// message. The random source is injectable so tests can seed it.
type TurnSelector struct {
	rng *rand.Rand
}

// NewTurnSelector creates a selector with the given random source; a
// nil source gets a time-seeded one.
func NewTurnSelector(rng *rand.Rand) *TurnSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TurnSelector{rng: rng}
}

// SelectResponders returns the participants that should reply to
// userText, in reply order. An empty result means no responder, which
// is a no-op for the caller, not an error.
//
// When more than one active participant is mentioned by name, all
// mentioned participants respond in mention order and the configured
// strategy is bypassed (except Manual, which never auto-selects).
func (ts *TurnSelector) SelectResponders(roster []Participant, cfg GroupConfig, history []Message, userText string) []Participant {
	active := activeRoster(roster)
	if len(active) == 0 {
		return nil
	}

	if cfg.Strategy != StrategyManual {
		if mentions := MentionedParticipants(userText, active); len(mentions) > 1 {
			return mentions
		}
	}

	switch cfg.Strategy {
	case StrategyManual:
		return nil
	case StrategyList:
		if p, ok := ts.selectList(active, cfg, history); ok {
			return []Participant{p}
		}
	case StrategyPooled:
		if p, ok := ts.selectPooled(active, cfg, history); ok {
			return []Participant{p}
		}
	default: // StrategyNatural
		if p, ok := ts.selectNatural(active, cfg, history, userText); ok {
			return []Participant{p}
		}
	}
	return nil
}

// activeRoster excludes disabled participants, falling back to the full
// roster if that would leave nobody.
func activeRoster(roster []Participant) []Participant {
	var active []Participant
	for _, p := range roster {
		if !p.Disabled {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return roster
	}
	return active
}

// lastCharacterSpeaker returns the participant id of the most recent
// character message in history, or "" if none.
func lastCharacterSpeaker(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == SenderCharacter {
			return history[i].ParticipantID
		}
	}
	return ""
}

// eligible removes the last character speaker unless self-responses are
// allowed or removal would empty the set
func eligible(active []Participant, cfg GroupConfig, history []Message) []Participant {
	if cfg.AllowSelfResponses {
		return active
	}
	last := lastCharacterSpeaker(history)
	if last == "" {
		return active
	}
	var out []Participant
	for _, p := range active {
		if p.ID != last {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return active
	}
	return out
}

// selectNatural picks a name-mentioned participant first, then falls
// back to talkativeness-weighted random selection
func (ts *TurnSelector) selectNatural(active []Participant, cfg GroupConfig, history []Message, userText string) (Participant, bool) {
	pool := eligible(active, cfg, history)
	if len(pool) == 0 {
		return Participant{}, false
	}

	// Earliest textual match wins; roster order breaks ties.
	best := -1
	bestPos := -1
	for i, p := range pool {
		pos := mentionIndex(userText, p.DisplayName)
		if pos < 0 {
			continue
		}
		if best < 0 || pos < bestPos {
			best = i
			bestPos = pos
		}
	}
	if best >= 0 {
		return pool[best], true
	}

	// Independent talkativeness draws, then uniform among those that
	// passed; uniform over the whole pool if nobody did.
	var passed []Participant
	for _, p := range pool {
		if ts.rng.Intn(100) < p.Talkativeness {
			passed = append(passed, p)
		}
	}
	if len(passed) == 0 {
		passed = pool
	}
	return passed[ts.rng.Intn(len(passed))], true
}

// selectList walks the roster round-robin from the slot after the last
// character speaker, skipping excluded slots and wrapping around
func (ts *TurnSelector) selectList(active []Participant, cfg GroupConfig, history []Message) (Participant, bool) {
	last := lastCharacterSpeaker(history)
	start := 0
	if last != "" {
		for i, p := range active {
			if p.ID == last {
				start = i + 1
				break
			}
		}
	}

	for off := 0; off < len(active); off++ {
		p := active[(start+off)%len(active)]
		if p.ID == last && !cfg.AllowSelfResponses && len(active) > 1 {
			continue
		}
		return p, true
	}
	return Participant{}, false
}

// selectPooled prefers participants who have not spoken since the last
// user message; once everyone has, it falls back to uniform selection
// over the eligible set.
func (ts *TurnSelector) selectPooled(active []Participant, cfg GroupConfig, history []Message) (Participant, bool) {
	pool := eligible(active, cfg, history)
	if len(pool) == 0 {
		return Participant{}, false
	}

	spoken := spokenSinceLastUserMessage(history)
	var fresh []Participant
	for _, p := range pool {
		if !spoken[p.ID] {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) > 0 {
		return fresh[ts.rng.Intn(len(fresh))], true
	}
	return pool[ts.rng.Intn(len(pool))], true
}

// spokenSinceLastUserMessage scans history backward collecting the
// participants that already replied to the current user message. The
// backward scan is O(history) per turn, which is fine at conversation
// scale (tens of messages).
func spokenSinceLastUserMessage(history []Message) map[string]bool {
	spoken := make(map[string]bool)
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == SenderUser {
			break
		}
		if history[i].ParticipantID != "" {
			spoken[history[i].ParticipantID] = true
		}
	}
	return spoken
}

// MentionedParticipants returns the participants whose display names
// appear as whole-word, case-insensitive matches in text, ordered by
// mention position
func MentionedParticipants(text string, roster []Participant) []Participant {
	type hit struct {
		p   Participant
		pos int
	}
	var hits []hit
	for _, p := range roster {
		if pos := mentionIndex(text, p.DisplayName); pos >= 0 {
			hits = append(hits, hit{p: p, pos: pos})
		}
	}
	// Insertion sort by position; roster order already breaks ties.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]Participant, len(hits))
	for i, h := range hits {
		out[i] = h.p
	}
	return out
}

// mentionIndex returns the byte offset of the first whole-word,
// case-insensitive occurrence of name in text, or -1
func mentionIndex(text, name string) int {
	if name == "" {
		return -1
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return -1
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}
