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

package config

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ModelKeyName is the additional-keys entry holding the generation
// provider's credential in the credential store.
const ModelKeyName = "openai_key"

// ConnectionConfig holds the resolved connection parameters for one outbound
// suggestion request. Constructed once per process and refreshed on demand;
// every field is independently replaceable.
type ConnectionConfig struct {
	EndpointURL  string
	SearchAPIKey string
	ModelAPIKey  string
	Timeout      time.Duration
}

// CredentialSource looks up a stored credential for a named service. A miss
// is reported through found=false, never through an error; lookup failures
// are handled (and logged) behind this interface.
type CredentialSource interface {
	Lookup(ctx context.Context, serviceName string) (apiKey string, additionalKeys map[string]string, found bool)
}

// Provider owns the process-wide connection configuration cache. The cache
// is populated lazily from static configuration (with empty secrets when the
// config carries none) and overwritten best-effort by Refresh. Concurrent
// refreshes are coalesced so at most one credential lookup is in flight.
type Provider struct {
	cfg    *Config
	source CredentialSource
	logger *zap.Logger

	mu     sync.RWMutex
	cached ConnectionConfig
	loaded bool

	refreshGroup singleflight.Group
}

// NewProvider creates a connection-config provider. source may be nil, in
// which case Refresh keeps whatever the static configuration supplied.
func NewProvider(cfg *Config, source CredentialSource, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		source: source,
		logger: logger,
	}
}

// Get returns the current cached connection configuration, populating it
// from static configuration on first call.
func (p *Provider) Get() ConnectionConfig {
	p.mu.RLock()
	if p.loaded {
		defer p.mu.RUnlock()
		return p.cached
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		p.cached = p.fromStatic()
		p.loaded = true
	}
	return p.cached
}

// Refresh attempts to overwrite the cached secrets from the credential
// store. On a miss or lookup failure the prior cached values stay in place;
// Refresh never fails. Concurrent callers share a single in-flight lookup.
func (p *Provider) Refresh(ctx context.Context) ConnectionConfig {
	result, _, _ := p.refreshGroup.Do("refresh", func() (interface{}, error) {
		return p.refresh(ctx), nil
	})
	return result.(ConnectionConfig)
}

func (p *Provider) refresh(ctx context.Context) ConnectionConfig {
	current := p.Get()

	if p.source == nil {
		return current
	}

	serviceName := p.cfg.Credentials.ServiceName
	apiKey, additionalKeys, found := p.source.Lookup(ctx, serviceName)
	if !found {
		p.logger.Warn("No stored credentials for service, keeping cached configuration",
			zap.String("service_name", serviceName))
		return current
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if apiKey != "" {
		p.cached.SearchAPIKey = apiKey
	}
	if modelKey := additionalKeys[ModelKeyName]; modelKey != "" {
		p.cached.ModelAPIKey = modelKey
	}

	p.logger.Info("Connection configuration refreshed from credential store",
		zap.String("service_name", serviceName),
		zap.Bool("has_search_key", p.cached.SearchAPIKey != ""),
		zap.Bool("has_model_key", p.cached.ModelAPIKey != ""))

	return p.cached
}

// fromStatic builds the initial connection config from the loaded file/env
// configuration. Callers must hold p.mu or be the sole accessor.
func (p *Provider) fromStatic() ConnectionConfig {
	return ConnectionConfig{
		EndpointURL:  p.cfg.Weaviate.URL,
		SearchAPIKey: p.cfg.Weaviate.APIKey,
		ModelAPIKey:  p.cfg.Weaviate.OpenAIKey,
		Timeout:      time.Duration(p.cfg.Suggestion.TimeoutMs) * time.Millisecond,
	}
}

// HasSecrets reports whether both required keys are present.
func (c ConnectionConfig) HasSecrets() bool {
	return c.SearchAPIKey != "" && c.ModelAPIKey != ""
}
