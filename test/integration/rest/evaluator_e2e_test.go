//go:build integration

package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Test configuration
var (
	baseURL     = getEnvOrDefault("KIN_TEST_URL", "http://localhost:8300")
	testTimeout = 15 * time.Second
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newTestClient() *http.Client {
	return &http.Client{
		Timeout: testTimeout,
	}
}

// skipIfUnavailable skips the test unless GET /healthz answers
func skipIfUnavailable(t *testing.T) {
	t.Helper()
	resp, err := newTestClient().Get(baseURL + "/healthz")
	if err != nil {
		t.Skipf("kin serve not reachable at %s: %v", baseURL, err)
	}
	resp.Body.Close()
}

type evaluateResponse struct {
	RunID     string                 `json:"run_id"`
	Variables map[string]interface{} `json:"variables"`
	Cached    bool                   `json:"cached"`
}

type errorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

func postEvaluate(t *testing.T, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := newTestClient().Post(baseURL+"/v1/evaluate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/evaluate: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestEvaluate_Source(t *testing.T) {
	skipIfUnavailable(t)

	resp, body := postEvaluate(t, `{
		"source": "Q1=SQRT(P1*P1+P2*P2)\nIF(Q1>4)\n  M1=1\nELSE\n  M1=2\nENDIF",
		"variables": {"p1": 3, "P2": 4}
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var result evaluateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Variables["Q1"] != 5.0 {
		t.Errorf("Q1 = %v, want 5", result.Variables["Q1"])
	}
	if result.Variables["M1"] != 1.0 {
		t.Errorf("M1 = %v, want 1", result.Variables["M1"])
	}
}

func TestEvaluate_SecondCallIsCached(t *testing.T) {
	skipIfUnavailable(t)

	body := `{"program": ["P7=P7+7 ; cached run"]}`
	postEvaluate(t, body)
	resp, raw := postEvaluate(t, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, raw)
	}
	var result evaluateResponse
	json.Unmarshal(raw, &result)
	if !result.Cached {
		t.Error("second evaluation of the same program should hit the cache")
	}
}

func TestEvaluate_ErrorStatus(t *testing.T) {
	skipIfUnavailable(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"lex error", `{"program": ["DISPLAY 1"]}`, http.StatusBadRequest, "LEX_ERROR"},
		{"ambiguous branch", `{"program": ["IF(Q1>1)", "P1=1", "ENDIF"], "variables": {"Q1": [0, 2]}}`, http.StatusUnprocessableEntity, "RUNTIME_ERROR"},
		{"bad variable", `{"program": ["P1=1"], "variables": {"X1": 1}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"invalid json", `{"program":`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := postEvaluate(t, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, raw)
			}
			var e errorResponse
			if err := json.Unmarshal(raw, &e); err != nil {
				t.Fatalf("invalid error JSON: %v", err)
			}
			if e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestWebSocket_Evaluate(t *testing.T) {
	skipIfUnavailable(t)

	u, _ := url.Parse(baseURL)
	u.Scheme = "ws"
	u.Path = "/v1/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := map[string]interface{}{
		"type": "evaluate",
		"id":   "1",
		"payload": map[string]interface{}{
			"program":   []string{"Q2=ABS(Q1)"},
			"variables": map[string]interface{}{"Q1": []float64{-1, 2}},
		},
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply struct {
		Type    string           `json:"type"`
		ID      string           `json:"id"`
		Payload evaluateResponse `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(testTimeout))
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != "result" || reply.ID != "1" {
		t.Fatalf("reply = %+v", reply)
	}
	q2, ok := reply.Payload.Variables["Q2"].([]interface{})
	if !ok || len(q2) != 2 || q2[0] != 1.0 || q2[1] != 2.0 {
		t.Errorf("Q2 = %v, want [1 2]", reply.Payload.Variables["Q2"])
	}
}
