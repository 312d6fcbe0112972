package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-relay/api"
	"chat-relay/domain/chat"
	"chat-relay/gateway"
)

type testChatScenarioSuite struct {
	BaseHTTPSuite
}

func TestChatScenarioSuite(t *testing.T) {
	suite.Run(t, &testChatScenarioSuite{})
}

func (s *testChatScenarioSuite) TestFullChatFlow() {
	var (
		aliceToken string
		bobToken   string
		alice      api.UserResponse
		sentText   = fmt.Sprintf("hello from e2e at %d", time.Now().UnixNano())
	)

	// --- STEP 0: ACCOUNTS ---
	s.Run("Step 0: Signup two accounts", func() {
		s.Step(s.T(), "Creating alice and bob")
		aliceToken, alice = s.Signup(s.T(), "alice")
		bobToken, _ = s.Signup(s.T(), "bob")
	})

	// --- STEP 1: AUTH GATE ---
	s.Run("Step 1: Reject an unauthenticated websocket", func() {
		s.Step(s.T(), "Dialing without a token")
		wsURL := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws"}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
		if err != nil {
			// Some servers refuse the upgrade outright; that also counts.
			return
		}
		defer conn.Close()

		// The handshake succeeded, so the rejection must arrive as a close frame.
		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
		_, _, err = conn.ReadMessage()
		s.Require().Error(err, "Unauthenticated socket was allowed to stay open")
		s.Require().True(websocket.IsCloseError(err, websocket.ClosePolicyViolation),
			"Expected a policy-violation close, got: %v", err)
	})

	// --- STEP 2: BROADCAST ---
	s.Run("Step 2: Alice sends, both sessions receive", func() {
		s.Dial(s.T(), "Alice session", aliceToken, func(aliceConn *websocket.Conn) {
			s.Dial(s.T(), "Bob session", bobToken, func(bobConn *websocket.Conn) {
				s.SendText(aliceConn, sentText)

				for name, conn := range map[string]*websocket.Conn{"alice": aliceConn, "bob": bobConn} {
					frame := s.ReadFrame(conn)
					s.Require().Equal(gateway.EventNewMessage, frame.Event, "wrong event for "+name)

					var msg chat.Message
					s.Require().NoError(json.Unmarshal(frame.Data, &msg))
					s.Require().Equal(sentText, msg.Text)
					s.Require().Equal(alice.ID, msg.SenderID)
					s.Require().NotEmpty(msg.ID, "broadcast message missing its store ID")
				}
			})
		})
	})

	// --- STEP 3: EMPTY MESSAGE ACK ---
	s.Run("Step 3: Whitespace payload gets an error ack, no broadcast", func() {
		s.Dial(s.T(), "Alice session", aliceToken, func(conn *websocket.Conn) {
			s.SendText(conn, "   \t ")

			frame := s.ReadFrame(conn)
			s.Require().Equal(gateway.EventError, frame.Event)

			var ack gateway.ErrorData
			s.Require().NoError(json.Unmarshal(frame.Data, &ack))
			s.Require().Equal(gateway.CodeEmptyMessage, ack.Code)
		})
	})

	// --- STEP 4: HISTORY ---
	s.Run("Step 4: Message visible in persisted history", func() {
		s.Step(s.T(), "Fetching recent history")
		s.Eventually(func() bool {
			var page api.MessagesResponse
			status := s.GetJSON(s.T(), "/api/chat/messages?limit=50", aliceToken, &page)
			if status != http.StatusOK {
				return false
			}
			for _, msg := range page.Messages {
				if msg.Text == sentText {
					return true
				}
			}
			return false
		}, 10*time.Second, time.Second, "Sent message never appeared in history")
	})
}
