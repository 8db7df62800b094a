package dialogue

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/core/model"
	"github.com/agenthands/personapanel/internal/llm"
)

// Request describes the conversation every round of a simulation shares.
type Request struct {
	Context      string
	Participants []model.Participant
	Turns        int
}

func (r Request) validate() error {
	if len(r.Participants) == 0 {
		return fmt.Errorf("%w: a simulation needs at least one participant", model.ErrInvalid)
	}
	if r.Turns < 1 {
		return fmt.Errorf("%w: turn count must be at least 1, got %d", model.ErrInvalid, r.Turns)
	}
	return nil
}

// State is the accumulated dialogue after one or more rounds.
type State struct {
	Content         string
	FinalTurnNumber int
}

// Simulator turns participant descriptions into dialogue, one LLM call per
// round.
type Simulator struct {
	LLM                llm.LLMClient
	DialoguePrompt     string
	ContinuationPrompt string
	Logger             *zap.Logger
}

func NewSimulator(llmClient llm.LLMClient, dialoguePrompt, continuationPrompt string, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		LLM:                llmClient,
		DialoguePrompt:     dialoguePrompt,
		ContinuationPrompt: continuationPrompt,
		Logger:             logger,
	}
}

// Start generates the first round, turns 1..req.Turns.
func (s *Simulator) Start(ctx context.Context, req Request) (State, error) {
	if err := req.validate(); err != nil {
		return State{}, err
	}
	if s.LLM == nil {
		return State{}, model.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(s.DialoguePrompt, req.Context, FormatParticipants(req.Participants), req.Turns, 1)
	content, final, err := s.round(ctx, prompt, 0, req.Turns)
	if err != nil {
		return State{}, err
	}
	return State{Content: content, FinalTurnNumber: final}, nil
}

// Continue asks for req.Turns more turns after prev.FinalTurnNumber, passing
// prev.Content back as context. The new text is appended to prev.Content.
// On error prev is returned unchanged.
func (s *Simulator) Continue(ctx context.Context, req Request, prev State) (State, error) {
	if err := req.validate(); err != nil {
		return prev, err
	}
	if s.LLM == nil {
		return prev, model.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(s.ContinuationPrompt,
		req.Context,
		FormatParticipants(req.Participants),
		prev.Content,
		req.Turns,
		prev.FinalTurnNumber+1,
	)
	content, final, err := s.round(ctx, prompt, prev.FinalTurnNumber, req.Turns)
	if err != nil {
		return prev, err
	}

	combined := content
	if prev.Content != "" {
		combined = prev.Content + "\n" + content
	}
	return State{Content: combined, FinalTurnNumber: final}, nil
}

// Run performs rounds rounds: Start, then Continue. onRound, when set, sees
// the state after each successful round and may abort the run by returning
// an error. On failure the state reached by the last good round is returned.
func (s *Simulator) Run(ctx context.Context, req Request, rounds int, onRound func(round int, st State) error) (State, error) {
	if rounds < 1 {
		return State{}, fmt.Errorf("%w: round count must be at least 1, got %d", model.ErrInvalid, rounds)
	}

	var st State
	for round := 1; round <= rounds; round++ {
		var next State
		var err error
		if round == 1 {
			next, err = s.Start(ctx, req)
		} else {
			next, err = s.Continue(ctx, req, st)
		}
		if err != nil {
			return st, fmt.Errorf("round %d: %w", round, err)
		}
		st = next

		if onRound != nil {
			if err := onRound(round, st); err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

func (s *Simulator) round(ctx context.Context, prompt string, lastTurn, requested int) (string, int, error) {
	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate dialogue: %w", err)
	}

	content, reported, hasReported := parseRound(response)
	if content == "" {
		return "", 0, fmt.Errorf("llm returned an empty dialogue")
	}
	final := resolveFinalTurn(content, reported, hasReported, lastTurn, requested)

	s.Logger.Debug("Dialogue round generated",
		zap.Int("last_turn", lastTurn),
		zap.Int("requested", requested),
		zap.Int("final_turn", final),
		zap.Bool("reported", hasReported))
	return content, final, nil
}

// FormatParticipants renders participants for a prompt, attributes sorted by
// name so prompts are stable.
func FormatParticipants(participants []model.Participant) string {
	var b strings.Builder
	for _, p := range participants {
		fmt.Fprintf(&b, "- %s", p.Name)
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", p.Description)
		}
		b.WriteByte('\n')

		if len(p.Attributes) == 0 {
			continue
		}
		keys := make([]string, 0, len(p.Attributes))
		for k := range p.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, p.Attributes[k])
		}
		fmt.Fprintf(&b, "  Attributes: %s\n", strings.Join(pairs, ", "))
	}
	return b.String()
}
