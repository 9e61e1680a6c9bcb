// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/danielhkuo/rankem/aggregator"
	"github.com/danielhkuo/rankem/models"
	"github.com/danielhkuo/rankem/store"
	"github.com/danielhkuo/rankem/testutil"
)

func newVotingHandler(t *testing.T) (*VotingHandler, *store.SQLStore, *aggregator.Aggregator) {
	t.Helper()
	repo := testutil.SetupTestStore(t)
	agg := aggregator.New(repo, nil, nil)
	return NewVotingHandler(agg, testutil.GetTestConfig()), repo, agg
}

func postRankings(h *VotingHandler, gameID string, body interface{}) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/games/"+gameID+"/rankings", body, map[string]string{
		"User-Agent":      "rankem-test",
		"X-Forwarded-For": "203.0.113.7",
	})
	req.SetPathValue("id", gameID)
	w := httptest.NewRecorder()
	h.SubmitRankings(w, req)
	return w
}

func TestSubmitRankings(t *testing.T) {
	handler, repo, agg := newVotingHandler(t)
	cfg := testutil.GetTestConfig()
	gameID, _ := testutil.CreateTestGame(t, repo, cfg, models.ModePublic, []string{"Red", "Blue"}, []string{"Color"})

	w := postRankings(handler, gameID, models.SubmitRankingsRequest{
		Rankings: models.Rankings{"Color": {"Red", "Blue"}},
		Identity: "alice",
	})
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitRankingsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Status != "ok" || resp.Message != "Rankings posted" || resp.ParticipantID != "alice" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	results, err := agg.FetchResults(context.Background(), gameID)
	if err != nil {
		t.Fatal(err)
	}
	if results.VotesCount != 1 {
		t.Errorf("Expected 1 vote, got %d", results.VotesCount)
	}
	ranking := results.Categories[0].Ranking
	if ranking[0].Item != "Red" || ranking[0].Points != 2 || ranking[1].Item != "Blue" || ranking[1].Points != 1 {
		t.Errorf("Unexpected ranking: %+v", ranking)
	}
}

func TestSubmitRankings_EditAndDuplicate(t *testing.T) {
	handler, repo, _ := newVotingHandler(t)
	cfg := testutil.GetTestConfig()
	gameID, _ := testutil.CreateTestGame(t, repo, cfg, models.ModePublic, []string{"A", "B"}, []string{"X"})

	first := models.Rankings{"X": {"A", "B"}}
	w := postRankings(handler, gameID, models.SubmitRankingsRequest{Rankings: first, Identity: "bob"})
	testutil.AssertStatus(t, w, http.StatusCreated)

	t.Run("duplicate", func(t *testing.T) {
		w := postRankings(handler, gameID, models.SubmitRankingsRequest{Rankings: first, Identity: "bob"})
		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Message != "You have already voted in this game!" {
			t.Errorf("Unexpected message %q", resp.Message)
		}
	})

	t.Run("edit", func(t *testing.T) {
		w := postRankings(handler, gameID, models.SubmitRankingsRequest{
			Rankings:         models.Rankings{"X": {"B", "A"}},
			Identity:         "bob",
			IsEditing:        true,
			PreviousRankings: first,
		})
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.SubmitRankingsResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Message != "Rankings updated" {
			t.Errorf("Unexpected message %q", resp.Message)
		}
	})

	game, _ := repo.FindGameByID(context.Background(), gameID)
	if game.VotesCount != 1 {
		t.Errorf("Expected vote count to stay 1, got %d", game.VotesCount)
	}
}

func TestSubmitRankings_Errors(t *testing.T) {
	handler, repo, _ := newVotingHandler(t)
	cfg := testutil.GetTestConfig()
	gameID, _ := testutil.CreateTestGame(t, repo, cfg, models.ModePublic, []string{"A", "B"}, []string{"X"})
	restricted, _ := testutil.CreateTestGame(t, repo, cfg, models.ModeRestrictive, []string{"Ann", "Bob"}, []string{"X"})

	tests := []struct {
		name           string
		gameID         string
		body           interface{}
		expectedStatus int
	}{
		{"unknown game", "0X0X0X", models.SubmitRankingsRequest{Rankings: models.Rankings{"X": {"A"}}}, http.StatusNotFound},
		{"empty rankings", gameID, models.SubmitRankingsRequest{}, http.StatusBadRequest},
		{"unknown category", gameID, models.SubmitRankingsRequest{Rankings: models.Rankings{"X": {"A"}, "Y": {"A"}}}, http.StatusBadRequest},
		{"unknown item", gameID, models.SubmitRankingsRequest{Rankings: models.Rankings{"X": {"Z"}}}, http.StatusBadRequest},
		{"restrictive outsider", restricted, models.SubmitRankingsRequest{Rankings: models.Rankings{"X": {"Ann"}}, Identity: "Eve"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postRankings(handler, tt.gameID, tt.body)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/games/"+gameID+"/rankings", strings.NewReader("{"))
		req.SetPathValue("id", gameID)
		w := httptest.NewRecorder()
		handler.SubmitRankings(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestSubmitRankings_StoresHashedMetadata(t *testing.T) {
	handler, repo, _ := newVotingHandler(t)
	cfg := testutil.GetTestConfig()
	gameID, _ := testutil.CreateTestGame(t, repo, cfg, models.ModePublic, []string{"A"}, []string{"X"})

	w := postRankings(handler, gameID, models.SubmitRankingsRequest{Rankings: models.Rankings{"X": {"A"}}})
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitRankingsResponse
	testutil.AssertJSON(t, w, &resp)
	if !strings.HasPrefix(resp.ParticipantID, models.AnonymousPrefix) {
		t.Errorf("Expected anonymous participant, got %q", resp.ParticipantID)
	}

	game, _ := repo.FindGameByID(context.Background(), gameID)
	if !game.HasParticipant(resp.ParticipantID) {
		t.Errorf("Participant %q not recorded", resp.ParticipantID)
	}
}

func TestTruncateUserAgent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"short", "rankem-test", 11},
		{"exact", strings.Repeat("a", maxUserAgentLength), maxUserAgentLength},
		{"ascii overflow", strings.Repeat("a", maxUserAgentLength+10), maxUserAgentLength},
		{"rune across limit", strings.Repeat("a", maxUserAgentLength-1) + "é", maxUserAgentLength - 1},
		{"four byte runes", strings.Repeat("😀", 200), maxUserAgentLength},
		{"three byte runes", strings.Repeat("日", 200), maxUserAgentLength - maxUserAgentLength%3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateUserAgent(tt.input)
			if len(got) != tt.expected {
				t.Errorf("expected %d bytes, got %d", tt.expected, len(got))
			}
			if !utf8.ValidString(got) {
				t.Errorf("expected valid UTF-8, got %q", got)
			}
			if !strings.HasPrefix(tt.input, got) {
				t.Errorf("expected a prefix of the input, got %q", got)
			}
		})
	}
}
