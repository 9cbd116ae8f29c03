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

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManagerCheck(t *testing.T) {
	manager := NewManager("webui", "1.0.0", zap.NewNop())

	manager.AddCheckerFunc("healthy", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Timestamp: time.Now()}
	})
	manager.AddCheckerFunc("unhealthy", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy, Error: "service is down", Timestamp: time.Now()}
	})

	result := manager.Check(context.Background())

	if result.Status != StatusUnhealthy {
		t.Errorf("Expected overall status unhealthy, got %s", result.Status)
	}
	if result.Service != "webui" {
		t.Errorf("Expected service webui, got %s", result.Service)
	}
	if result.Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %s", result.Version)
	}
	if len(result.Dependencies) != 2 {
		t.Errorf("Expected 2 dependencies, got %d", len(result.Dependencies))
	}
	if result.Dependencies["unhealthy"].Error != "service is down" {
		t.Errorf("Expected error message kept, got %s", result.Dependencies["unhealthy"].Error)
	}
}

func TestManagerCheckAllHealthy(t *testing.T) {
	manager := NewManager("webui", "1.0.0", zap.NewNop())

	manager.AddCheckerFunc("weaviate", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Timestamp: time.Now()}
	})
	manager.AddCheckerFunc("credentials", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Timestamp: time.Now()}
	})

	result := manager.Check(context.Background())

	if result.Status != StatusHealthy {
		t.Errorf("Expected overall status healthy, got %s", result.Status)
	}
}

func TestHTTPHandler(t *testing.T) {
	manager := NewManager("webui", "1.0.0", zap.NewNop())
	manager.AddCheckerFunc("dep", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Timestamp: time.Now()}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	manager.HTTPHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("Expected healthy status in body, got %s", resp.Status)
	}
}

func TestHTTPHandlerUnhealthy(t *testing.T) {
	manager := NewManager("webui", "1.0.0", zap.NewNop())
	manager.AddCheckerFunc("dep", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy, Error: "down", Timestamp: time.Now()}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	manager.HTTPHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

func TestHTTPHandlerMethodNotAllowed(t *testing.T) {
	manager := NewManager("webui", "1.0.0", zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	manager.HTTPHandler()(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestExternalServiceChecker(t *testing.T) {
	checker := ExternalServiceChecker("weaviate", func(ctx context.Context) error {
		return nil
	})

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", result.Status)
	}
	if result.Metadata["service"] != "weaviate" {
		t.Errorf("Expected service metadata, got %v", result.Metadata)
	}
}

func TestExternalServiceCheckerFailure(t *testing.T) {
	checker := ExternalServiceChecker("weaviate", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", result.Status)
	}
	if result.Error == "" {
		t.Error("Expected error message set")
	}
}
