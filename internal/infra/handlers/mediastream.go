package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agent-suite/internal/domain/entities"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/registry"

	"github.com/gorilla/websocket"
)

const mediaStreamReadTimeout = 90 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// twilioStreamMsg is one frame of the telephony media-stream protocol.
type twilioStreamMsg struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid,omitempty"`
	Start     *struct {
		StreamSid        string            `json:"streamSid"`
		CallSid          string            `json:"callSid"`
		CustomParameters map[string]string `json:"customParameters,omitempty"`
		MediaFormat      struct {
			Encoding   string `json:"encoding"`
			SampleRate int    `json:"sampleRate"`
		} `json:"mediaFormat"`
	} `json:"start,omitempty"`
	Media *struct {
		Payload string `json:"payload"`
	} `json:"media,omitempty"`
}

// MediaStreamHandler terminates the telephony provider's bidirectional
// audio WebSocket. It tracks the session against the call registry; the
// spoken-turn pipeline runs over the speech-recognition webhook, not
// this stream.
type MediaStreamHandler struct {
	Logger   *logger.Logger
	Registry registry.CallRegistry
	Memory   Iservices.IMemoryService
}

func NewMediaStreamHandler(log *logger.Logger, reg registry.CallRegistry, memory Iservices.IMemoryService) *MediaStreamHandler {
	return &MediaStreamHandler{Logger: log, Registry: reg, Memory: memory}
}

func (mh *MediaStreamHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		mh.Logger.Error(fmt.Sprintf("Media stream upgrade failed: %v", err))
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(mediaStreamReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(mediaStreamReadTimeout))
		return nil
	})

	var callSid, streamSid string
	customerID := "unknown"
	mediaFrames := 0

	for {
		conn.SetReadDeadline(time.Now().Add(mediaStreamReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				mh.Logger.Error(fmt.Sprintf("Media stream read error: %v", err))
			}
			break
		}

		var msg twilioStreamMsg
		if err := json.Unmarshal(message, &msg); err != nil {
			mh.Logger.Warn(fmt.Sprintf("Unparsable media stream frame: %v", err))
			continue
		}

		switch msg.Event {
		case "connected":
			mh.Logger.Info("Media stream protocol connected")

		case "start":
			if msg.Start == nil {
				continue
			}
			callSid = msg.Start.CallSid
			streamSid = msg.Start.StreamSid
			if id := msg.Start.CustomParameters["customerId"]; id != "" {
				customerID = id
			}
			mh.Logger.Info(fmt.Sprintf("Media stream started: streamSid=%s callSid=%s customer=%s encoding=%s rate=%d",
				streamSid, callSid, customerID, msg.Start.MediaFormat.Encoding, msg.Start.MediaFormat.SampleRate))

			if err := mh.Registry.UpdateStatus(r.Context(), callSid, entities.CallStatusInProgress); err != nil {
				mh.Logger.Error(fmt.Sprintf("Failed to mark call %s in progress: %v", callSid, err))
			}

			context := mh.Memory.BuildCustomerContext(r.Context(), customerID)
			mh.Logger.Debug(fmt.Sprintf("Customer context loaded for %s (%d bytes)", customerID, len(context)))

		case "media":
			mediaFrames++

		case "stop":
			mh.Logger.Info(fmt.Sprintf("Media stream stopped: callSid=%s frames=%d", callSid, mediaFrames))
			if customerID != "unknown" {
				err := mh.Memory.Add(r.Context(),
					fmt.Sprintf("Customer called support on %s.", time.Now().Format("2006-01-02 15:04")),
					customerID,
					map[string]any{"stream_sid": streamSid, "call_type": "support"},
				)
				if err != nil {
					mh.Logger.Error(fmt.Sprintf("Failed to store call memory for %s: %v", customerID, err))
				}
			}
			return
		}
	}
}
