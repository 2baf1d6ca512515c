package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"olympiad-quiz-service/internal/app"
	"olympiad-quiz-service/internal/domain"
)

// WSHandler drives a live quiz session over a websocket: the client sends
// navigation and answer commands, the server pushes state changes, including
// ones triggered by background revalidation and the mock timer.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type revalidatePayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type submittedPayload struct {
	Result   domain.QuizResult `json:"result"`
	Unlocked []domain.BadgeID  `json:"unlockedBadges"`
}

type revalidatedPayload struct {
	Question domain.Question  `json:"question"`
	Changed  bool             `json:"changed"`
	Unlocked []domain.BadgeID `json:"unlockedBadges"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a live
// quiz session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	session, err := h.service.Session(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "event", Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: session.Snapshot()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid select payload")
				continue
			}
			if err := session.SelectAnswer(payload.Option); err != nil {
				send <- errorMessage(err.Error())
			}
		case "advance":
			if err := session.Advance(); err != nil {
				send <- errorMessage(err.Error())
			}
		case "jump":
			var payload jumpPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid jump payload")
				continue
			}
			if err := session.JumpTo(payload.Index); err != nil {
				send <- errorMessage(err.Error())
			}
		case "submit":
			result, unlocked, err := h.service.Submit(r.Context(), sessionID)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "submitted", Payload: submittedPayload{
				Result:   result,
				Unlocked: unlocked,
			}}
		case "revalidate":
			var payload revalidatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid revalidate payload")
				continue
			}
			question, changed, unlocked, err := h.service.RevalidateQuestion(r.Context(), sessionID, payload.Index)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "revalidated", Payload: revalidatedPayload{
				Question: question,
				Changed:  changed,
				Unlocked: unlocked,
			}}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
