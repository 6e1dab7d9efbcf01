package conversation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"listingassist/internal/dialogue"
	"listingassist/internal/extraction"
	"listingassist/internal/gateway/entity"
	conversationrepo "listingassist/internal/gateway/repository/conversation"
	mediarepo "listingassist/internal/gateway/repository/media"
	"listingassist/internal/llm"
	"listingassist/internal/product"
)

var (
	ErrNotFound     = conversationrepo.ErrNotFound
	ErrInvalidInput = conversationrepo.ErrInvalidInput
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Deps wires the service. Media and LLM are optional.
type Deps struct {
	Store     conversationrepo.Store
	Media     mediarepo.Store
	LLM       llm.Client
	Extractor *extraction.Extractor
	Selector  *dialogue.Selector
	Logger    *log.Logger
}

// Service runs the listing conversation: extract, analyze gaps, move the
// stage, pick the next question and persist the turns.
type Service struct {
	store     conversationrepo.Store
	media     mediarepo.Store
	llm       llm.Client
	extractor *extraction.Extractor
	selector  *dialogue.Selector
	logger    *log.Logger
}

func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	ex := d.Extractor
	if ex == nil {
		ex = extraction.New(d.LLM, extraction.DefaultConfig(), logger)
	}
	sel := d.Selector
	if sel == nil {
		sel = dialogue.NewSelector(d.LLM, dialogue.WithSelectorLogger(logger))
	}
	return &Service{
		store:     d.Store,
		media:     d.Media,
		llm:       d.LLM,
		extractor: ex,
		selector:  sel,
		logger:    logger,
	}
}

type StartResult struct {
	Question       string         `json:"question"`
	ConversationID string         `json:"conversationId"`
	Stage          dialogue.Stage `json:"stage"`
}

// Start opens a conversation and asks the opening question.
func (s *Service) Start(ctx context.Context, userID, language string) (StartResult, error) {
	uid := entity.NormalizeUserID(userID)
	if uid.IsZero() {
		return StartResult{}, invalid("user_id is required")
	}
	conv, err := s.store.Create(ctx, uid, language)
	if err != nil {
		return StartResult{}, fmt.Errorf("create conversation: %w", err)
	}
	q := s.selector.Next(ctx, dialogue.Request{
		Stage:    conv.Stage,
		Info:     conv.ExtractedInfo,
		Gaps:     product.AnalyzeGaps(conv.ExtractedInfo),
		Language: conv.Language,
	})
	if _, err := s.store.AppendTurn(ctx, conv.ID, entity.Turn{Type: entity.TurnAIQuestion, Content: q.Text, Language: conv.Language}); err != nil {
		return StartResult{}, fmt.Errorf("append question: %w", err)
	}
	s.logger.Printf("conversation: started id=%s user=%s language=%s", conv.ID, uid, conv.Language)
	return StartResult{Question: q.Text, ConversationID: conv.ID, Stage: conv.Stage}, nil
}

// Attachment is an optional binary input sent with a reply.
type Attachment struct {
	Data     []byte
	MIMEType string
}

type SubmitInput struct {
	ConversationID string
	Utterance      string
	Audio          *Attachment
	Image          *Attachment
}

type SubmitResult struct {
	NextQuestion    string                `json:"nextQuestion"`
	UpdatedInfo     product.Info          `json:"updatedInfo"`
	Confidence      product.ConfidenceMap `json:"confidence"`
	MissingFields   []string              `json:"missingFields"`
	Stage           dialogue.Stage        `json:"stage"`
	IsComplete      bool                  `json:"isComplete"`
	CompletionScore int                   `json:"completionScore"`
	Degraded        bool                  `json:"degraded,omitempty"`
}

// Submit processes one artisan reply.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	id := strings.TrimSpace(in.ConversationID)
	utterance := strings.TrimSpace(in.Utterance)
	if id == "" {
		return SubmitResult{}, invalid("conversation_id is required")
	}
	if utterance == "" {
		return SubmitResult{}, invalid("utterance is required")
	}
	conv, err := s.load(ctx, id)
	if err != nil {
		return SubmitResult{}, err
	}
	if conv.Status != entity.StatusInProgress {
		return SubmitResult{}, invalid("conversation %s is %s", id, conv.Status)
	}

	started := time.Now()
	audioURL := s.storeAudio(ctx, conv.ID, in.Audio)

	req := extraction.Request{
		Prior:           conv.ExtractedInfo,
		PriorConfidence: conv.Confidence,
		Utterance:       utterance,
		PriorUtterances: conv.Responses(),
		Language:        conv.Language,
	}
	if in.Image != nil && len(in.Image.Data) > 0 {
		req.Image = &llm.Image{Data: in.Image.Data, MIMEType: in.Image.MIMEType}
	}
	res := s.extractor.Extract(ctx, req)
	conf := product.MergeConfidence(conv.Confidence, res.Confidence)
	overall := conf.Overall()

	if _, err := s.store.AppendTurn(ctx, id, entity.Turn{
		Type:           entity.TurnUserResponse,
		Content:        utterance,
		Language:       conv.Language,
		ProcessingTime: time.Since(started).Milliseconds(),
		Confidence:     &overall,
		AudioURL:       audioURL,
	}); err != nil {
		return SubmitResult{}, fmt.Errorf("append response: %w", err)
	}
	if err := s.store.UpdateExtractedInfo(ctx, id, res.Info, conf); err != nil {
		return SubmitResult{}, fmt.Errorf("update extracted info: %w", err)
	}

	cfg := s.extractor.Config()
	gaps := product.AnalyzeGaps(res.Info)
	next := dialogue.NextStage(conv.Stage, gaps, res.Info)
	focus := ""
	if next.Terminal() {
		if weak, ok := product.WeakestCritical(res.Info, conf, cfg.RequiredThreshold); ok {
			next, focus = dialogue.StageFinalDetails, weak
		}
	}
	out := SubmitResult{
		UpdatedInfo:     res.Info,
		Confidence:      conf,
		MissingFields:   product.MissingFields(conf, cfg.MissingThreshold),
		Stage:           next,
		CompletionScore: product.CompletionScore(res.Info, conf),
		Degraded:        res.Degraded,
	}

	if next.Terminal() {
		summary := s.summarize(ctx, res.Info, conv.Language)
		if err := s.store.Complete(ctx, id, summary, res.Info); err != nil {
			return SubmitResult{}, fmt.Errorf("complete conversation: %w", err)
		}
		closing := s.selector.Templated(dialogue.Request{Stage: dialogue.StageSummary, Info: res.Info})
		if _, err := s.store.AppendTurn(ctx, id, entity.Turn{Type: entity.TurnAIQuestion, Content: closing.Text, Language: conv.Language}); err != nil {
			return SubmitResult{}, fmt.Errorf("append closing: %w", err)
		}
		out.NextQuestion = closing.Text
		out.IsComplete = true
		s.logger.Printf("conversation: completed id=%s score=%d", id, out.CompletionScore)
		return out, nil
	}

	if next != conv.Stage {
		if err := s.store.UpdateStage(ctx, id, next); err != nil {
			return SubmitResult{}, fmt.Errorf("update stage: %w", err)
		}
	}
	q := s.selector.Next(ctx, dialogue.Request{
		Stage:         next,
		Info:          res.Info,
		Gaps:          gaps,
		LastUtterance: utterance,
		Language:      conv.Language,
		History:       conv.Questions(),
		Focus:         focus,
	})
	if _, err := s.store.AppendTurn(ctx, id, entity.Turn{Type: entity.TurnAIQuestion, Content: q.Text, Language: conv.Language}); err != nil {
		return SubmitResult{}, fmt.Errorf("append question: %w", err)
	}
	out.NextQuestion = q.Text
	s.logger.Printf("conversation: submit id=%s stage=%s->%s source=%s focus=%s degraded=%t elapsed=%s",
		id, conv.Stage, next, q.Source, focus, res.Degraded, time.Since(started).Round(time.Millisecond))
	return out, nil
}

type SummaryResult struct {
	Summary         string       `json:"summary"`
	Info            product.Info `json:"info"`
	CompletionScore int          `json:"completionScore"`
}

// Summary returns the stored summary of a completed conversation, or a
// freshly generated one for a conversation still in progress.
func (s *Service) Summary(ctx context.Context, id string) (SummaryResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SummaryResult{}, invalid("conversation_id is required")
	}
	conv, err := s.load(ctx, id)
	if err != nil {
		return SummaryResult{}, err
	}
	summary := conv.Summary
	if summary == "" {
		summary = s.summarize(ctx, conv.ExtractedInfo, conv.Language)
	}
	return SummaryResult{
		Summary:         summary,
		Info:            conv.ExtractedInfo,
		CompletionScore: product.CompletionScore(conv.ExtractedInfo, conv.Confidence),
	}, nil
}

// Complete finishes a conversation with whatever information is known.
// Completing twice is a no-op.
func (s *Service) Complete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("conversation_id is required")
	}
	conv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if conv.Status == entity.StatusCompleted {
		return nil
	}
	summary := s.summarize(ctx, conv.ExtractedInfo, conv.Language)
	if err := s.store.Complete(ctx, id, summary, conv.ExtractedInfo); err != nil {
		return fmt.Errorf("complete conversation: %w", err)
	}
	s.logger.Printf("conversation: completed by request id=%s", id)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (entity.Conversation, error) {
	conv, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return entity.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	if !ok {
		return entity.Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return conv, nil
}

// storeAudio uploads the clip and returns its URL, or "" when there is no
// clip, no media store, or the upload failed.
func (s *Service) storeAudio(ctx context.Context, conversationID string, audio *Attachment) string {
	if audio == nil || len(audio.Data) == 0 {
		return ""
	}
	if s.media == nil {
		s.logger.Printf("conversation: audio dropped id=%s reason=no media store", conversationID)
		return ""
	}
	name := "audio/" + uuid.New().String() + audioExtension(audio.MIMEType)
	url, err := s.media.Put(ctx, conversationID, name, audio.Data, audio.MIMEType)
	if err != nil {
		s.logger.Printf("conversation: audio upload failed id=%s err=%v", conversationID, err)
		return ""
	}
	return url
}

func audioExtension(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	switch mt {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	}
	return ".bin"
}
