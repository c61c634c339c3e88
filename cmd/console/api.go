package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mwhitlock/silvertongue/pkg/chat"
)

// ErrorResponse mirrors the api's error body. Code is set for
// game-rule rejections (game_won, hint_limit and so on).
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// apiError keeps the code so the UI can react to specific rejections.
type apiError struct {
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return e.Message
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func decodeOrError(body []byte, statusCode int, v any) error {
	if statusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", statusCode, string(body))
		}
		return &apiError{Code: errorResp.Code, Message: errorResp.Error}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func getProgress(client *http.Client, baseURL string) (*chat.ProgressResponse, error) {
	resp, err := client.Get(baseURL + "/v1/session")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var progress chat.ProgressResponse
	if err := decodeOrError(body, resp.StatusCode, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func resetSession(client *http.Client, baseURL string) (*chat.ProgressResponse, error) {
	resp, err := client.Post(baseURL+"/v1/session/reset", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var progress chat.ProgressResponse
	if err := decodeOrError(body, resp.StatusCode, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func requestHint(client *http.Client, baseURL string) (*chat.HintResponse, error) {
	resp, err := client.Post(baseURL+"/v1/hint", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var hint chat.HintResponse
	if err := decodeOrError(body, resp.StatusCode, &hint); err != nil {
		return nil, err
	}
	return &hint, nil
}

func sendChat(client *http.Client, baseURL, message string) (*chat.TurnResponse, error) {
	jsonData, err := json.Marshal(chat.ChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/chat", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var turn chat.TurnResponse
	if err := decodeOrError(body, resp.StatusCode, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}
