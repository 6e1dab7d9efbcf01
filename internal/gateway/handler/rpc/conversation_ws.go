package rpc

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	conversationsvc "listingassist/internal/gateway/service/conversation"
)

const (
	conversationWSWriteWait = 10 * time.Second
	conversationWSPongWait  = 60 * time.Second
	conversationWSPingEvery = (conversationWSPongWait * 9) / 10
)

var conversationWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type conversationWSInbound struct {
	Type          string `json:"type"`
	Utterance     string `json:"utterance,omitempty"`
	Audio         []byte `json:"audio,omitempty"`
	AudioMIMEType string `json:"audioMimeType,omitempty"`
	Image         []byte `json:"image,omitempty"`
	ImageMIMEType string `json:"imageMimeType,omitempty"`
}

type conversationWSOutbound struct {
	Type           string                        `json:"type"`
	ConversationID string                        `json:"conversationId,omitempty"`
	Result         *conversationsvc.SubmitResult `json:"result,omitempty"`
	Code           string                        `json:"code,omitempty"`
	Message        string                        `json:"message,omitempty"`
}

// HandleConversationWS streams replies for one conversation. Each "submit"
// frame is answered with "next_question" or, on the last turn, "completed".
func (h *ConversationHandler) HandleConversationWS(w http.ResponseWriter, r *http.Request) {
	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if conversationID == "" {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}

	conn, err := conversationWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(conversationWSPongWait)); err != nil {
		log.Printf("conversation ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(conversationWSPongWait))
	})

	writeCh := make(chan conversationWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(conversationWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(conversationWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(conversationWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in conversationWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(conversationWSPongWait)); err != nil {
			cancel()
			<-writerDone
			return
		}

		switch msgType := strings.ToLower(strings.TrimSpace(in.Type)); msgType {
		case "ping":
			pushConversationWS(writeCh, conversationWSOutbound{Type: "pong"})
		case "submit":
			req := SubmitRequest{
				ConversationID: conversationID,
				Utterance:      in.Utterance,
				Audio:          in.Audio,
				AudioMIMEType:  in.AudioMIMEType,
				Image:          in.Image,
				ImageMIMEType:  in.ImageMIMEType,
			}
			out, err := h.svc.Submit(ctx, req.input())
			if err != nil {
				pushConversationWS(writeCh, conversationWSOutbound{
					Type:           "error",
					ConversationID: conversationID,
					Code:           wsCode(err),
					Message:        err.Error(),
				})
				continue
			}
			kind := "next_question"
			if out.IsComplete {
				kind = "completed"
			}
			pushConversationWS(writeCh, conversationWSOutbound{
				Type:           kind,
				ConversationID: conversationID,
				Result:         &out,
			})
		case "":
			pushConversationWS(writeCh, conversationWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "type is required",
			})
		default:
			pushConversationWS(writeCh, conversationWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + msgType,
			})
		}
	}
}

// pushConversationWS never blocks; when the buffer is full the oldest
// pending frame is dropped.
func pushConversationWS(writeCh chan conversationWSOutbound, out conversationWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
