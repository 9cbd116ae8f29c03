// Copyright 2025 Convo Helper Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/your-org/convo-helper/internal/config"
	"github.com/your-org/convo-helper/internal/weaviate"
	"go.uber.org/zap"
)

type stubProvider struct {
	conn config.ConnectionConfig
}

func (p *stubProvider) Get() config.ConnectionConfig { return p.conn }

func (p *stubProvider) Refresh(ctx context.Context) config.ConnectionConfig { return p.conn }

type stubSearcher struct {
	result *weaviate.QueryResult
	err    error
	calls  int
}

func (s *stubSearcher) QueryWithGeneration(ctx context.Context, conn config.ConnectionConfig, prompt string, opts weaviate.QueryOptions) (*weaviate.QueryResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubCompleter struct {
	text  string
	err   error
	calls int
}

func (c *stubCompleter) Complete(ctx context.Context, apiKey, model, prompt string) (string, error) {
	c.calls++
	return c.text, c.err
}

func secretsProvider() *stubProvider {
	return &stubProvider{conn: config.ConnectionConfig{
		EndpointURL:  "http://localhost:8080",
		SearchAPIKey: "search-key",
		ModelAPIKey:  "model-key",
		Timeout:      5 * time.Second,
	}}
}

func testOptions() Options {
	return Options{
		ClassName:         "Filip",
		TargetVector:      "replying_to_vector",
		Limit:             4,
		DistanceThreshold: 0.75,
		CompletionModel:   "gpt-4o",
	}
}

func TestSuggestReplySuccess(t *testing.T) {
	searcher := &stubSearcher{result: &weaviate.QueryResult{
		Records: []weaviate.Record{
			{ID: "rec1", Properties: weaviate.RecordProperties{MyReply: "Hi, sure thing!"}, Distance: 0.2},
		},
		Generated: `{"answer": "Hi Anna, sure thing!", "source": "rec1", "justification": "reused phrasing"}`,
	}}

	o := NewOrchestrator(secretsProvider(), searcher, nil, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if outcome.Err != "" {
		t.Errorf("Expected no error, got %q", outcome.Err)
	}
	if outcome.UsedFallback {
		t.Error("Expected live result, not fallback")
	}
	if outcome.Reply == nil || outcome.Reply.Answer != "Hi Anna, sure thing!" {
		t.Errorf("Unexpected reply: %+v", outcome.Reply)
	}
	if len(outcome.Matches) != 1 || outcome.Matches[0].ID != "rec1" {
		t.Errorf("Unexpected matches: %+v", outcome.Matches)
	}
}

func TestSuggestReplyForceFallback(t *testing.T) {
	searcher := &stubSearcher{}
	opts := testOptions()
	opts.ForceFallback = true

	o := NewOrchestrator(secretsProvider(), searcher, nil, opts, zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if searcher.calls != 0 {
		t.Error("Expected no outbound call when live calls are disabled")
	}
	if !outcome.UsedFallback {
		t.Error("Expected fallback flagged")
	}
	if outcome.Err != "" {
		t.Errorf("Expected no error message for forced fallback, got %q", outcome.Err)
	}
	if outcome.Reply == nil || len(outcome.Matches) != 3 {
		t.Errorf("Expected full demo content, got reply=%+v matches=%d", outcome.Reply, len(outcome.Matches))
	}
}

func TestSuggestReplyMissingSecrets(t *testing.T) {
	provider := &stubProvider{conn: config.ConnectionConfig{
		EndpointURL: "http://localhost:8080",
		Timeout:     5 * time.Second,
	}}
	searcher := &stubSearcher{}

	o := NewOrchestrator(provider, searcher, nil, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if searcher.calls != 0 {
		t.Error("Expected no outbound call without secrets")
	}
	if !outcome.UsedFallback {
		t.Error("Expected fallback for missing secrets")
	}
	if outcome.Err == "" {
		t.Error("Expected a configuration message alongside the fallback")
	}
	if outcome.Reply == nil {
		t.Error("Expected demo reply alongside the message")
	}
}

func TestSuggestReplyTimeout(t *testing.T) {
	searcher := &stubSearcher{err: context.DeadlineExceeded}

	o := NewOrchestrator(secretsProvider(), searcher, nil, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if !outcome.UsedFallback {
		t.Error("Expected fallback on timeout")
	}
	if outcome.Err != timeoutMessage {
		t.Errorf("Expected timeout message, got %q", outcome.Err)
	}
	if outcome.Reply == nil || len(outcome.Matches) != 3 {
		t.Error("Expected demo content alongside the timeout message")
	}
}

func TestSuggestReplyNetworkFailureIsSilent(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("dial tcp: connection refused")}

	o := NewOrchestrator(secretsProvider(), searcher, nil, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if !outcome.UsedFallback {
		t.Error("Expected fallback on network failure")
	}
	// The demo-mode notice already tells the story; no extra error banner.
	if outcome.Err != "" {
		t.Errorf("Expected no error message for network failure, got %q", outcome.Err)
	}
}

func TestSuggestReplyUpstreamStatusSurfacesMessage(t *testing.T) {
	searcher := &stubSearcher{err: &weaviate.StatusError{StatusCode: 500, Body: "boom"}}

	o := NewOrchestrator(secretsProvider(), searcher, nil, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if !outcome.UsedFallback {
		t.Error("Expected fallback on upstream failure")
	}
	if outcome.Err != "API request failed with status 500" {
		t.Errorf("Unexpected error message: %q", outcome.Err)
	}
}

func TestSuggestReplyNoMatches(t *testing.T) {
	searcher := &stubSearcher{result: &weaviate.QueryResult{}}

	o := NewOrchestrator(secretsProvider(), searcher, nil, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if outcome.Err != "" {
		t.Errorf("Expected no error for empty result set, got %q", outcome.Err)
	}
	if outcome.UsedFallback {
		t.Error("Expected no fallback for empty result set")
	}
	if outcome.Reply != nil {
		t.Errorf("Expected no reply for empty result set, got %+v", outcome.Reply)
	}
	if outcome.Matches == nil || len(outcome.Matches) != 0 {
		t.Errorf("Expected empty non-nil matches, got %+v", outcome.Matches)
	}
}

func TestSuggestReplyDirectCompletion(t *testing.T) {
	searcher := &stubSearcher{result: &weaviate.QueryResult{
		Records: []weaviate.Record{
			{ID: "rec1", Properties: weaviate.RecordProperties{MyReply: "Prior reply text"}, Distance: 0.3},
		},
	}}
	completer := &stubCompleter{text: `{"answer": "Completed directly", "source": "rec1", "justification": "j"}`}

	o := NewOrchestrator(secretsProvider(), searcher, completer, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if completer.calls != 1 {
		t.Errorf("Expected one direct completion call, got %d", completer.calls)
	}
	if outcome.Reply == nil || outcome.Reply.Answer != "Completed directly" {
		t.Errorf("Unexpected reply: %+v", outcome.Reply)
	}
	if outcome.UsedFallback {
		t.Error("Expected live result, not fallback")
	}
}

func TestSuggestReplyDirectCompletionFailureYieldsPlaceholder(t *testing.T) {
	searcher := &stubSearcher{result: &weaviate.QueryResult{
		Records: []weaviate.Record{
			{ID: "rec1", Properties: weaviate.RecordProperties{MyReply: "Prior reply text"}, Distance: 0.3},
		},
	}}
	completer := &stubCompleter{err: errors.New("completion unavailable")}

	o := NewOrchestrator(secretsProvider(), searcher, completer, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if outcome.Reply == nil || outcome.Reply.Answer != PlaceholderAnswer {
		t.Errorf("Expected placeholder reply, got %+v", outcome.Reply)
	}
	if len(outcome.Matches) != 1 {
		t.Errorf("Expected the matched records kept, got %d", len(outcome.Matches))
	}
	if outcome.Err != "" {
		t.Errorf("Expected best-effort completion failure without an error banner, got %q", outcome.Err)
	}
}

func TestSuggestReplyNilCompleter(t *testing.T) {
	searcher := &stubSearcher{result: &weaviate.QueryResult{
		Records: []weaviate.Record{
			{ID: "rec1", Properties: weaviate.RecordProperties{MyReply: "Prior reply text"}, Distance: 0.3},
		},
	}}

	o := NewOrchestrator(secretsProvider(), searcher, nil, testOptions(), zap.NewNop())
	outcome := o.SuggestReply(context.Background(), "Can you help me?")

	if outcome.Reply == nil || outcome.Reply.Answer != PlaceholderAnswer {
		t.Errorf("Expected placeholder without a completer, got %+v", outcome.Reply)
	}
}

func TestSuggestReplyAlwaysDisplayable(t *testing.T) {
	cases := []*stubSearcher{
		{err: errors.New("arbitrary failure")},
		{result: &weaviate.QueryResult{Generated: "plain text, no JSON"}},
		{result: &weaviate.QueryResult{}},
	}

	for i, searcher := range cases {
		o := NewOrchestrator(secretsProvider(), searcher, nil, testOptions(), zap.NewNop())
		outcome := o.SuggestReply(context.Background(), "input")

		// Every path yields displayable state: a reply, matches, a message,
		// or the explicit empty result set.
		if outcome.Reply == nil && outcome.Matches == nil && outcome.Err == "" {
			t.Errorf("Case %d: outcome carries nothing displayable: %+v", i, outcome)
		}
	}
}
