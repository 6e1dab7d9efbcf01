package llm

import (
	"context"
	"errors"
	"sync"
)

// ScriptedClient returns canned replies per phase for offline runs and tests.
// Replies for a phase are consumed in order; the last one repeats. A phase
// without a script answers with Default, or a malformed error when empty.
type ScriptedClient struct {
	mu      sync.Mutex
	scripts map[string][]Reply
	calls   []Call

	Default string
}

// Reply is one scripted outcome.
type Reply struct {
	Text string
	Err  error
}

// Call records what the client was asked.
type Call struct {
	Phase   string
	Prompt  string
	Options Options
}

func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{scripts: map[string][]Reply{}}
}

// On appends replies for phase and returns the client for chaining.
func (s *ScriptedClient) On(phase string, replies ...Reply) *ScriptedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[phase] = append(s.scripts[phase], replies...)
	return s
}

// Text is a shorthand for a successful Reply.
func Text(s string) Reply { return Reply{Text: s} }

// Fail is a shorthand for a failing Reply.
func Fail(err error) Reply { return Reply{Err: err} }

func (s *ScriptedClient) Name() string { return "Scripted" }
func (s *ScriptedClient) Close() error { return nil }

func (s *ScriptedClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	phase := PhaseFrom(ctx)
	s.mu.Lock()
	s.calls = append(s.calls, Call{Phase: phase, Prompt: prompt, Options: opts})
	var r Reply
	queue := s.scripts[phase]
	switch {
	case len(queue) > 1:
		r = queue[0]
		s.scripts[phase] = queue[1:]
	case len(queue) == 1:
		r = queue[0]
	default:
		r = Reply{Text: s.Default}
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", NewGenerationError(s.Name(), err)
	}
	if r.Err != nil {
		return "", NewGenerationError(s.Name(), r.Err)
	}
	if r.Text == "" {
		return "", Malformed(s.Name(), errors.New("no scripted reply for phase "+phase))
	}
	return r.Text, nil
}

// Calls returns a copy of the recorded calls.
func (s *ScriptedClient) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}
