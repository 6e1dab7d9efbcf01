package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	conversationsvc "listingassist/internal/gateway/service/conversation"
)

const ConversationServiceName = "conversation.v1.ConversationService"

const (
	StartProcedure    = "/" + ConversationServiceName + "/Start"
	SubmitProcedure   = "/" + ConversationServiceName + "/Submit"
	SummaryProcedure  = "/" + ConversationServiceName + "/Summary"
	CompleteProcedure = "/" + ConversationServiceName + "/Complete"
)

// ConversationService is what the handlers need from the service layer.
type ConversationService interface {
	Start(ctx context.Context, userID, language string) (conversationsvc.StartResult, error)
	Submit(ctx context.Context, in conversationsvc.SubmitInput) (conversationsvc.SubmitResult, error)
	Summary(ctx context.Context, id string) (conversationsvc.SummaryResult, error)
	Complete(ctx context.Context, id string) error
}

type StartRequest struct {
	UserID   string `json:"userId"`
	Language string `json:"language,omitempty"`
}

// SubmitRequest carries one reply. Audio and Image are base64 in JSON.
type SubmitRequest struct {
	ConversationID string `json:"conversationId"`
	Utterance      string `json:"utterance"`
	Audio          []byte `json:"audio,omitempty"`
	AudioMIMEType  string `json:"audioMimeType,omitempty"`
	Image          []byte `json:"image,omitempty"`
	ImageMIMEType  string `json:"imageMimeType,omitempty"`
}

func (r SubmitRequest) input() conversationsvc.SubmitInput {
	in := conversationsvc.SubmitInput{ConversationID: r.ConversationID, Utterance: r.Utterance}
	if len(r.Audio) > 0 {
		in.Audio = &conversationsvc.Attachment{Data: r.Audio, MIMEType: r.AudioMIMEType}
	}
	if len(r.Image) > 0 {
		in.Image = &conversationsvc.Attachment{Data: r.Image, MIMEType: r.ImageMIMEType}
	}
	return in
}

type ConversationRequest struct {
	ConversationID string `json:"conversationId"`
}

type CompleteResponse struct {
	ConversationID string `json:"conversationId"`
	Completed      bool   `json:"completed"`
}

// ConversationHandler serves the conversation API over connect unary calls.
type ConversationHandler struct {
	svc ConversationService
}

func NewConversationHandler(svc ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

func (h *ConversationHandler) Start(ctx context.Context, req *connect.Request[StartRequest]) (*connect.Response[conversationsvc.StartResult], error) {
	out, err := h.svc.Start(ctx, req.Msg.UserID, req.Msg.Language)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&out), nil
}

func (h *ConversationHandler) Submit(ctx context.Context, req *connect.Request[SubmitRequest]) (*connect.Response[conversationsvc.SubmitResult], error) {
	out, err := h.svc.Submit(ctx, req.Msg.input())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&out), nil
}

func (h *ConversationHandler) Summary(ctx context.Context, req *connect.Request[ConversationRequest]) (*connect.Response[conversationsvc.SummaryResult], error) {
	out, err := h.svc.Summary(ctx, req.Msg.ConversationID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&out), nil
}

func (h *ConversationHandler) Complete(ctx context.Context, req *connect.Request[ConversationRequest]) (*connect.Response[CompleteResponse], error) {
	if err := h.svc.Complete(ctx, req.Msg.ConversationID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CompleteResponse{ConversationID: req.Msg.ConversationID, Completed: true}), nil
}

// Register mounts the unary procedures and the websocket endpoint on mux.
func (h *ConversationHandler) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{CodecOption()}, opts...)
	mux.Handle(StartProcedure, connect.NewUnaryHandler(StartProcedure, h.Start, opts...))
	mux.Handle(SubmitProcedure, connect.NewUnaryHandler(SubmitProcedure, h.Submit, opts...))
	mux.Handle(SummaryProcedure, connect.NewUnaryHandler(SummaryProcedure, h.Summary, opts...))
	mux.Handle(CompleteProcedure, connect.NewUnaryHandler(CompleteProcedure, h.Complete, opts...))
	mux.HandleFunc("/ws/conversation", h.HandleConversationWS)
}
