package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"

	"chat-relay/domain/chat"
	"chat-relay/gateway"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:5000"`
	Email         string `env:"CHAT_EMAIL"`
	Password      string `env:"CHAT_PASSWORD"`
	// CHAT_TOKEN skips the login step when an identity token is already available.
	Token        string `env:"CHAT_TOKEN"`
	HistoryLimit int    `env:"CHAT_HISTORY_LIMIT,default=20"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the client lifecycle: login, history display, then a live
// websocket session until Ctrl+C or server close.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Obtain an identity token, logging in if none was provided.
	token := config.Token
	if token == "" {
		if config.Email == "" || config.Password == "" {
			return exitConfig, fmt.Errorf("set CHAT_TOKEN, or CHAT_EMAIL and CHAT_PASSWORD")
		}
		var err error
		token, err = login(config.ServerAddress, config.Email, config.Password)
		if err != nil {
			return exitRuntime, err
		}
	}

	// 4. Print recent history before going live.
	if err := printHistory(config.ServerAddress, token, config.HistoryLimit); err != nil {
		return exitRuntime, err
	}

	// 5. Open the websocket session.
	wsURL := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws",
		RawQuery: "token=" + url.QueryEscape(token)}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	// Defer ensures the connection is closed even if the read loop fails later.
	defer func() {
		_ = conn.Close()
	}()

	color.Green.Printf(">>> Connected to %s! Type a message and press Enter (Ctrl+C to quit)...\n",
		config.ServerAddress)

	// 6. Reception loop in the background.
	done := make(chan error, 1)
	go func() {
		for {
			var envelope gateway.Envelope
			if err := conn.ReadJSON(&envelope); err != nil {
				done <- err
				return
			}
			render(envelope)
		}
	}()

	// 7. Stdin send loop.
	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		close(input)
	}()

	for {
		select {
		case <-ctx.Done():
			color.Yellow.Println("Stopping client...")
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return exitOK, nil
		case err := <-done:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case line, ok := <-input:
			if !ok {
				return exitOK, nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			payload, err := json.Marshal(gateway.SendMessageData{Text: line})
			if err != nil {
				return exitRuntime, err
			}
			frame := gateway.Envelope{Event: gateway.EventSendMessage, Data: payload}
			if err := conn.WriteJSON(frame); err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

// render prints one incoming frame to the terminal.
func render(envelope gateway.Envelope) {
	switch envelope.Event {
	case gateway.EventNewMessage:
		var msg chat.Message
		if err := json.Unmarshal(envelope.Data, &msg); err != nil {
			color.Red.Printf("bad frame: %v\n", err)
			return
		}
		fmt.Printf("[%s] %s: %s\n",
			msg.CreatedAt.Local().Format(time.TimeOnly),
			color.Cyan.Render(msg.SenderName),
			msg.Text)
	case gateway.EventError:
		var data gateway.ErrorData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			color.Red.Printf("bad frame: %v\n", err)
			return
		}
		color.Red.Printf("!! %s: %s\n", data.Code, data.Message)
	default:
		color.Yellow.Printf("?? unknown event %q\n", envelope.Event)
	}
}

// login exchanges credentials for an identity token via the HTTP API.
func login(serverAddress, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/auth/login", serverAddress),
		"application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("login response unreadable: %w", err)
	}
	return auth.Token, nil
}

// printHistory fetches the most recent messages and renders them as a table.
func printHistory(serverAddress, token string, limit int) error {
	endpoint := fmt.Sprintf("http://%s/api/chat/messages?limit=%d", serverAddress, limit)
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history rejected with status %d", resp.StatusCode)
	}

	var page struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return fmt.Errorf("history response unreadable: %w", err)
	}

	if len(page.Messages) == 0 {
		color.Yellow.Println("No messages yet.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Author", "Lang", "Message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, msg := range page.Messages {
		table.Append([]string{
			msg.CreatedAt.Local().Format("15:04:05"),
			msg.SenderName,
			msg.Lang,
			msg.Text,
		})
	}
	table.Render()
	return nil
}
