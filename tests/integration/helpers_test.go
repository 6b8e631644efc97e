//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"
)

type session struct {
	ID           string
	DisplayName  string
	UserType     string
	IsGuest      bool
	AccessToken  string
	RefreshToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func decodeSession(t *testing.T, resp *http.Response) session {
	t.Helper()

	var out struct {
		UserID       string `json:"user_id"`
		DisplayName  string `json:"display_name"`
		UserType     string `json:"user_type"`
		IsGuest      bool   `json:"is_guest"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode session response failed: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatalf("empty access token in session response")
	}

	return session{
		ID:           out.UserID,
		DisplayName:  out.DisplayName,
		UserType:     out.UserType,
		IsGuest:      out.IsGuest,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
}

func createGuest(t *testing.T, baseURL, displayName string) session {
	t.Helper()

	payload := map[string]string{
		"display_name": fmt.Sprintf("%s-%d", displayName, time.Now().UnixNano()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal guest payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/guest", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create guest request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected guest response status: %d", resp.StatusCode)
	}
	return decodeSession(t, resp)
}

func createRegisteredUser(t *testing.T, baseURL, email, password string) session {
	t.Helper()

	payload := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": "IntegrationUser",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal register payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/register", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("unexpected register response status: %d, error: %v", resp.StatusCode, errResp)
	}
	return decodeSession(t, resp)
}

func loginUser(t *testing.T, baseURL, email, password string) session {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal login payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/login", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("unexpected login response status: %d, error: %v", resp.StatusCode, errResp)
	}
	return decodeSession(t, resp)
}

func makeAuthenticatedRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// createQuiz stores a quiz with questionCount questions whose correct
// option is always index 0, and returns the quiz id.
func createQuiz(t *testing.T, baseURL, token, title string, questionCount int) string {
	t.Helper()

	questions := make([]map[string]interface{}, questionCount)
	for i := range questions {
		questions[i] = map[string]interface{}{
			"text":         fmt.Sprintf("Question %d?", i+1),
			"options":      []string{"Right", "Wrong", "Also wrong", "Still wrong"},
			"correctIndex": 0,
		}
	}
	payload := map[string]interface{}{
		"title":     title,
		"questions": questions,
	}

	resp := makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/quizzes", baseURL), token, payload)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("unexpected create quiz response status: %d, error: %v", resp.StatusCode, errResp)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode quiz response failed: %v", err)
	}
	if out.ID == "" {
		t.Fatal("quiz id is empty")
	}
	return out.ID
}

// dialRoomWS opens a room socket. An empty token dials anonymously.
func dialRoomWS(t *testing.T, wsBase, token string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(wsBase)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func sendRoomMessage(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", msgType, err)
	}
	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(wsmsg.Message{Type: msgType, Payload: data}); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// waitForMessage reads until a message of the wanted type arrives,
// discarding interleaved broadcasts.
func waitForMessage(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(timeout))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read ws message failed while waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("timeout waiting for %s", msgType)
	return wsmsg.Message{}
}

func decodePayload(t *testing.T, msg wsmsg.Message, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(msg.Payload, out); err != nil {
		t.Fatalf("decode %s payload failed: %v", msg.Type, err)
	}
}
