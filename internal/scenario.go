package internal

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a YAML-described conversation script: a roster, a
// selection configuration, and a list of user turns with canned
// generator replies. Used by the simulate command and by
// integration-style tests to drive a full orchestrator without a real
// generator.
type Scenario struct {
	Name               string         `yaml:"name,omitempty"`
	Kind               string         `yaml:"kind"` // "individual" or "group"
	Conversation       string         `yaml:"conversation"`
	UserName           string         `yaml:"user_name,omitempty"`
	Strategy           string         `yaml:"strategy,omitempty"`
	AllowSelfResponses bool           `yaml:"allow_self_responses,omitempty"`
	ContextMessages    int            `yaml:"context_messages,omitempty"`
	Seed               int64          `yaml:"seed,omitempty"`
	Roster             []Participant  `yaml:"roster"`
	Turns              []ScenarioTurn `yaml:"turns"`
}

// ScenarioTurn is one scripted user message plus the raw generator
// outputs to hand back, in order, for that turn
type ScenarioTurn struct {
	User    string   `yaml:"user"`
	Replies []string `yaml:"replies,omitempty"`
}

// LoadScenario reads and validates a scenario file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	var scn Scenario
	if err := yaml.Unmarshal(data, &scn); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if scn.Conversation == "" {
		return nil, fmt.Errorf("scenario is missing a conversation id")
	}
	if scn.Kind != "individual" && scn.Kind != "group" {
		return nil, fmt.Errorf("scenario kind must be individual or group, got %q", scn.Kind)
	}
	if _, err := ParseActivationStrategy(scn.Strategy); err != nil {
		return nil, err
	}
	return &scn, nil
}

// Key returns the conversation key the scenario plays into
func (s *Scenario) Key() ConversationKey {
	if s.Kind == "group" {
		return GroupKey(s.Conversation)
	}
	return IndividualKey(s.Conversation)
}

// Config returns the scenario's group configuration
func (s *Scenario) Config() GroupConfig {
	strategy, _ := ParseActivationStrategy(s.Strategy)
	return GroupConfig{Strategy: strategy, AllowSelfResponses: s.AllowSelfResponses}
}

// Settings returns orchestrator settings derived from the scenario
func (s *Scenario) Settings() Settings {
	settings := DefaultSettings()
	if s.UserName != "" {
		settings.UserName = s.UserName
	}
	if s.ContextMessages > 0 {
		settings.ContextMessageCount = s.ContextMessages
	}
	return settings
}

// Run replays the scenario through a fresh store and orchestrator,
// returning the store so callers can inspect or export the resulting
// conversation
func (s *Scenario) Run(mirror TranscriptMirror, notifier Notifier) (*ConversationStore, error) {
	store := NewConversationStore()

	var rng *rand.Rand
	if s.Seed != 0 {
		rng = rand.New(rand.NewSource(s.Seed))
	}
	selector := NewTurnSelector(rng)

	gen := &ScriptGenerator{}
	orch := NewOrchestrator(store, selector, gen, mirror, notifier, s.Settings())
	defer orch.Close()

	key := s.Key()
	for i, turn := range s.Turns {
		gen.Queue(turn.Replies...)
		if _, err := orch.HandleUserMessage(key, turn.User, s.Roster, s.Config()); err != nil {
			return store, fmt.Errorf("turn %d failed: %w", i+1, err)
		}
	}
	return store, nil
}

// ScriptGenerator is a Generator that replays queued outputs in order.
// An empty queue yields an error, which the orchestrator treats as a
// generation failure.
type ScriptGenerator struct {
	queue []string
	// Prompts records the prompt context of every call, for inspection.
	Prompts []string
}

// Queue appends raw outputs to hand back on subsequent Generate calls
func (g *ScriptGenerator) Queue(outputs ...string) {
	g.queue = append(g.queue, outputs...)
}

// Generate pops the next queued output
func (g *ScriptGenerator) Generate(promptContext string) (string, error) {
	g.Prompts = append(g.Prompts, promptContext)
	if len(g.queue) == 0 {
		return "", fmt.Errorf("script exhausted")
	}
	out := g.queue[0]
	g.queue = g.queue[1:]
	return out, nil
}
