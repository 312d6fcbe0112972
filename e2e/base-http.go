package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-relay/api"
	"chat-relay/gateway"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests.
// Suites skip entirely when SERVER_ADDR is unset so the package stays
// inert under a plain `go test ./...`.
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end-to-end suite")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header for a scenario step in logs.
func (s *BaseHTTPSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// PostJSON sends a JSON body and decodes the JSON response into out.
// It returns the HTTP status code and logs bodies when E2E_DEBUG_JSON is on.
func (s *BaseHTTPSuite) PostJSON(t *testing.T, path string, body any, out any) int {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	start := time.Now()
	resp, err := s.client.Post(
		fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path),
		"application/json", bytes.NewReader(payload))
	s.Require().NoError(err, "Failed to reach server at "+s.Config.ServerAddr)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "POST %s [%d] in %v", path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		fmt.Fprintln(&logBuilder, "\nREQUEST:")
		fmt.Fprintln(&logBuilder, string(payload))
		fmt.Fprintln(&logBuilder, "RESPONSE:")
		fmt.Fprintln(&logBuilder, string(raw))
	}
	t.Log(logBuilder.String())

	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

// GetJSON performs an authenticated GET and decodes the response into out.
func (s *BaseHTTPSuite) GetJSON(t *testing.T, path, token string, out any) int {
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path), nil)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "GET %s [%d] in %v", path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		fmt.Fprintln(&logBuilder, "\nRESPONSE:")
		fmt.Fprintln(&logBuilder, string(raw))
	}
	t.Log(logBuilder.String())

	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

// Signup creates a throwaway account and returns its token. Usernames get a
// nanosecond suffix so reruns against a persistent server never collide.
func (s *BaseHTTPSuite) Signup(t *testing.T, username string) (string, api.UserResponse) {
	unique := fmt.Sprintf("%s-%d", username, time.Now().UnixNano())
	var auth api.AuthResponse
	status := s.PostJSON(t, "/api/auth/signup", map[string]string{
		"username": unique,
		"email":    unique + "@e2e.local",
		"password": "Correct-Horse-42!",
	}, &auth)
	s.Require().Equal(http.StatusCreated, status)
	s.Require().True(auth.Success)
	s.Require().NotEmpty(auth.Token)
	return auth.Token, auth.User
}

// Dial opens an authenticated websocket session within a contextual test step.
func (s *BaseHTTPSuite) Dial(t *testing.T, name, token string, fn func(conn *websocket.Conn)) {
	s.Step(t, name)

	wsURL := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws",
		RawQuery: "token=" + url.QueryEscape(token)}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	s.Require().NoError(err, "Failed to open websocket to "+s.Config.ServerAddr)
	defer conn.Close()

	fn(conn)
}

// ReadFrame reads one envelope off the socket with a deadline.
func (s *BaseHTTPSuite) ReadFrame(conn *websocket.Conn) gateway.Envelope {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var envelope gateway.Envelope
	s.Require().NoError(conn.ReadJSON(&envelope))
	return envelope
}

// SendText publishes one chat message over the socket.
func (s *BaseHTTPSuite) SendText(conn *websocket.Conn, text string) {
	payload, err := json.Marshal(gateway.SendMessageData{Text: text})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(gateway.Envelope{
		Event: gateway.EventSendMessage,
		Data:  payload,
	}))
}
