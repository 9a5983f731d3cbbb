package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

// Simplified DTOs for the script
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type sessionData struct {
	SessionID string `json:"session_id"`
}

type chatData struct {
	Response string `json:"response"`
	Metadata struct {
		Strategy  string `json:"strategy"`
		Generator string `json:"selected_model"`
	} `json:"metadata"`
	SearchUsed      bool   `json:"search_used"`
	CalendarEventID string `json:"calendar_event_id"`
	FailureID       string `json:"failure_id"`
}

var (
	baseURL = getEnv("SIM_BASE_URL", "http://localhost:3000/api")
	token   = os.Getenv("SIM_TOKEN")
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Oreza conversation simulation (%s)\n", baseURL)

	resp, body, err := sendRequest("POST", "/session/v1", nil)
	if err != nil {
		color.Red("Failed to create session: %v", err)
		os.Exit(1)
	}
	var session envelope[sessionData]
	if err := json.Unmarshal(body, &session); err != nil || !session.Success {
		color.Red("Failed to create session: %s %s", resp.Status, string(body))
		os.Exit(1)
	}
	color.Green("Session: %s", session.Data.SessionID)

	turns := []string{
		"こんにちは、Goの勉強を始めたばかりです",
		"goroutineの使い方を教えてください",
		"違う、チャネルの話が聞きたかった",
		"明日14時に会議の予定を入れて",
	}

	for _, text := range turns {
		color.Yellow("\nUSER: %s", text)

		start := time.Now()
		resp, body, err := sendRequest("POST", "/chat/v1", map[string]string{
			"session_id": session.Data.SessionID,
			"message":    text,
		})
		elapsed := time.Since(start)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}

		var chat envelope[chatData]
		if err := json.Unmarshal(body, &chat); err != nil || !chat.Success {
			color.Red("%s: %s", resp.Status, string(body))
			continue
		}
		color.White("AI (%s via %s, %v): %s", chat.Data.Metadata.Generator, chat.Data.Metadata.Strategy, elapsed.Round(time.Millisecond), chat.Data.Response)
		if chat.Data.SearchUsed {
			color.Blue("  search grounding used")
		}
		if chat.Data.CalendarEventID != "" {
			color.Blue("  calendar event: %s", chat.Data.CalendarEventID)
		}
		if chat.Data.FailureID != "" {
			color.Magenta("  failure recorded: %s", chat.Data.FailureID)
		}
	}

	color.Yellow("\nSession memory")
	_, body, err = sendRequest("GET", "/session/v1/"+session.Data.SessionID+"/memory", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
