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

	"github.com/your-org/convo-helper/internal/config"
	"github.com/your-org/convo-helper/internal/weaviate"
	"go.uber.org/zap"
)

// ConnectionProvider supplies and refreshes the cached connection config
type ConnectionProvider interface {
	Get() config.ConnectionConfig
	Refresh(ctx context.Context) config.ConnectionConfig
}

// Searcher issues one retrieval+generation call against the vector-search
// service
type Searcher interface {
	QueryWithGeneration(ctx context.Context, conn config.ConnectionConfig, prompt string, opts weaviate.QueryOptions) (*weaviate.QueryResult, error)
}

// Completer produces a chat completion directly against the generation
// provider; used only when the vendor returned matches without generation
// text
type Completer interface {
	Complete(ctx context.Context, apiKey, model, prompt string) (string, error)
}

// Options tunes the orchestrator's single outbound call
type Options struct {
	ClassName         string
	TargetVector      string
	Limit             int
	DistanceThreshold float64
	Category          string
	CompletionModel   string
	ForceFallback     bool
}

// OptionsFromConfig derives orchestrator options from the loaded config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ClassName:         cfg.Weaviate.ClassName,
		TargetVector:      cfg.Weaviate.TargetVector,
		Limit:             cfg.Suggestion.Limit,
		DistanceThreshold: cfg.Suggestion.DistanceThreshold,
		Category:          cfg.Suggestion.Category,
		CompletionModel:   cfg.Suggestion.CompletionModel,
		ForceFallback:     cfg.Suggestion.ForceFallback,
	}
}

// Orchestrator runs one suggestion request end to end: refresh config,
// build the prompt, call the service under the configured deadline,
// interpret the result, and degrade to demo content on failure. One logical
// attempt per call; the user re-triggers by resubmitting.
type Orchestrator struct {
	provider  ConnectionProvider
	searcher  Searcher
	completer Completer
	opts      Options
	logger    *zap.Logger
}

// NewOrchestrator creates a suggestion orchestrator. completer may be nil,
// which disables the direct-completion path.
func NewOrchestrator(provider ConnectionProvider, searcher Searcher, completer Completer, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provider:  provider,
		searcher:  searcher,
		completer: completer,
		opts:      opts,
		logger:    logger,
	}
}

// SuggestReply produces a reply suggestion for one inbound email. It always
// returns an Outcome, never an error: every failure mode maps to an Outcome
// carrying fallback content, a message, or both.
func (o *Orchestrator) SuggestReply(ctx context.Context, inboundEmail string) Outcome {
	o.logger.Info("Getting response suggestion",
		zap.Int("email_length", len(inboundEmail)))

	if o.opts.ForceFallback {
		o.logger.Info("Live calls disabled, serving demo data")
		reply, matches := GenerateFallback(inboundEmail)
		return Outcome{Reply: reply, Matches: matches, UsedFallback: true}
	}

	conn := o.provider.Refresh(ctx)

	if !conn.HasSecrets() {
		o.logger.Warn("Missing Weaviate or OpenAI API keys after refresh, serving demo data")
		reply, matches := GenerateFallback(inboundEmail)
		return Outcome{Reply: reply, Matches: matches, Err: configurationMessage, UsedFallback: true}
	}

	prompt := BuildPrompt(inboundEmail)

	callCtx, cancel := context.WithTimeout(ctx, conn.Timeout)
	defer cancel()

	result, err := o.searcher.QueryWithGeneration(callCtx, conn, prompt, weaviate.QueryOptions{
		ClassName:         o.opts.ClassName,
		TargetVector:      o.opts.TargetVector,
		Limit:             o.opts.Limit,
		DistanceThreshold: o.opts.DistanceThreshold,
		Category:          o.opts.Category,
	})
	if err != nil {
		return o.failureOutcome(inboundEmail, err)
	}

	matches := make([]HistoricalMatch, 0, len(result.Records))
	for _, rec := range result.Records {
		matches = append(matches, matchFromRecord(rec))
	}

	// Zero matches with no generation text signals "no relevant history
	// found": a valid outcome, not a failure.
	if len(matches) == 0 && result.Generated == "" {
		o.logger.Info("No relevant historical records found")
		return Outcome{Matches: matches}
	}

	generated := result.Generated
	if generated == "" {
		generated = o.completeDirectly(ctx, conn, inboundEmail, matches)
	}

	reply := ParseReply(generated)

	o.logger.Info("Suggestion produced",
		zap.Int("match_count", len(matches)),
		zap.Bool("had_generation", result.Generated != ""))

	return Outcome{Reply: reply, Matches: matches}
}

// failureOutcome classifies an outbound-call failure and shapes the
// degraded outcome. Timeout and network failures fall back silently apart
// from the notice; other failures surface their message alongside the
// fallback content so the user never sees a blank screen.
func (o *Orchestrator) failureOutcome(inboundEmail string, err error) Outcome {
	classified := Classify(err)

	o.logger.Error("Suggestion request failed",
		zap.String("error_code", string(classified.Code)),
		zap.Error(err))

	reply, matches := GenerateFallback(inboundEmail)

	switch classified.Code {
	case CodeNetwork:
		// The notice covers the user-facing story; the cause stays in logs.
		return Outcome{Reply: reply, Matches: matches, UsedFallback: true}
	default:
		return Outcome{Reply: reply, Matches: matches, Err: classified.Message, UsedFallback: true}
	}
}

// completeDirectly asks the generation provider for a completion over the
// matched replies when the vendor returned none inline. Best-effort: any
// failure here degrades to the parse chain's placeholder.
func (o *Orchestrator) completeDirectly(ctx context.Context, conn config.ConnectionConfig, inboundEmail string, matches []HistoricalMatch) string {
	if o.completer == nil || len(matches) == 0 {
		return ""
	}

	o.logger.Info("Vendor returned no generation text, trying direct completion",
		zap.String("model", o.opts.CompletionModel))

	callCtx, cancel := context.WithTimeout(ctx, conn.Timeout)
	defer cancel()

	generated, err := o.completer.Complete(callCtx, conn.ModelAPIKey, o.opts.CompletionModel, BuildCompletionPrompt(inboundEmail, matches))
	if err != nil {
		o.logger.Warn("Direct completion failed, using placeholder", zap.Error(err))
		return ""
	}
	return generated
}
