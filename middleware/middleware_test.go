// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/rankem/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
		write      bool
	}{
		{"implicit OK", http.StatusOK, "ok", false},
		{"Created", http.StatusCreated, `{"game_id":"ABC123"}`, true},
		{"NoContent", http.StatusNoContent, "", true},
		{"Conflict", http.StatusConflict, `{"error":"Conflict"}`, true},
		{"InternalError", http.StatusInternalServerError, "error", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if tc.write {
					w.WriteHeader(tc.statusCode)
				}
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/games/ABC123/rankings", nil)
			req.SetPathValue("id", "ABC123")
			w := httptest.NewRecorder()

			handler(w, req)

			if !called {
				t.Fatal("Expected handler to be called")
			}
			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "created game",
			statusCode: http.StatusCreated,
			data:       models.CreateGameResponse{GameID: "ABC123", AdminKey: "key456"},
			expected:   `{"game_id":"ABC123","admin_key":"key456"}`,
		},
		{
			name:       "submission",
			statusCode: http.StatusOK,
			data:       models.SubmitRankingsResponse{Status: "ok", Message: "Rankings updated", ParticipantID: "alice"},
			expected:   `{"status":"ok","message":"Rankings updated","participant_id":"alice"}`,
		},
		{
			name:       "ranking entry",
			statusCode: http.StatusOK,
			data:       models.RankingEntry{Item: "Pizza", Points: 7, Increase: true},
			expected:   `{"item":"Pizza","points":7,"increase":true,"decrease":false}`,
		},
		{
			name:       "error without message",
			statusCode: http.StatusInternalServerError,
			data:       models.ErrorResponse{Error: "Internal Server Error"},
			expected:   `{"error":"Internal Server Error"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			if body := strings.TrimSpace(w.Body.String()); body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		statusCode    int
		message       string
		expectedError string
	}{
		{http.StatusBadRequest, "unknown category: Speed", "Bad Request"},
		{http.StatusUnauthorized, "Invalid admin key", "Unauthorized"},
		{http.StatusNotFound, "Game not found", "Not Found"},
		{http.StatusConflict, "You have already voted in this game!", "Conflict"},
		{http.StatusServiceUnavailable, "Game is busy, please try again", "Service Unavailable"},
	}

	for _, tc := range testCases {
		t.Run(tc.expectedError, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponse(w, tc.statusCode, tc.message)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tc.expectedError || resp.Message != tc.message {
				t.Errorf("Unexpected error response: %+v", resp)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("rankings", func(t *testing.T) {
		body := `{"rankings":{"Taste":["Sushi","Pizza"]},"identity":"alice","is_editing":true,"previous_rankings":{"Taste":["Pizza"]}}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.SubmitRankingsRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if got := parsed.Rankings["Taste"]; len(got) != 2 || got[0] != "Sushi" {
			t.Errorf("Unexpected rankings %v", parsed.Rankings)
		}
		if parsed.Identity != "alice" || !parsed.IsEditing || len(parsed.PreviousRankings["Taste"]) != 1 {
			t.Errorf("Unexpected request %+v", parsed)
		}
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		body := `{"title":"Lunch","items":["A"],"categories":["Taste"],"unknown_field":1}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.CreateGameRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Title != "Lunch" || parsed.VotingMode != "" {
			t.Errorf("Unexpected request %+v", parsed)
		}
	})

	for name, body := range map[string]string{
		"invalid JSON": `{invalid json}`,
		"empty body":   "",
		"wrong type":   `{"rankings":["A","B"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(body))
			var parsed models.SubmitRankingsRequest
			if err := ParseJSONBody(req, &parsed); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	t.Run("body is consumed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"Lunch"}`))

		var parsed models.UpdateTitleRequest
		_ = ParseJSONBody(req, &parsed)

		remaining, _ := io.ReadAll(req.Body)
		if len(remaining) > 0 {
			t.Error("Expected body to be consumed")
		}
	})
}

func TestCORS(t *testing.T) {
	corsHandler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	}))

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/games/ABC123/title", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "" {
			t.Errorf("Expected empty 200 preflight, got %d %q", w.Code, w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}

		headers := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"Content-Type", "X-Admin-Key"} {
			if !strings.Contains(headers, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
		methods := w.Header().Get("Access-Control-Allow-Methods")
		for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
			if !strings.Contains(methods, m) {
				t.Errorf("Expected %s in allowed methods", m)
			}
		}
	})

	t.Run("passes through", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/games/popular", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"}, "127.0.0.1:1", "203.0.113.195"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "192.168.1.100", "X-Real-IP": "203.0.113.50"}, "10.0.0.1:1", "192.168.1.100"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.50"}, "10.0.0.1:1", "203.0.113.50"},
		{"remote with port", nil, "192.168.1.50:54321", "192.168.1.50"},
		{"remote without port", nil, "192.168.1.50", "192.168.1.50"},
		{"ipv6 forwarded", map[string]string{"X-Forwarded-For": "2001:db8::1"}, "127.0.0.1:1", "2001:db8::1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req); got != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, got)
			}
		})
	}
}
