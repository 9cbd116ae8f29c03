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

package credentials

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "credentials.db")
	store, err := NewStore(dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return store
}

func TestStorePutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Put(ctx, Credential{
		ServiceName:    "weaviate",
		APIKey:         "wv-key",
		AdditionalKeys: map[string]string{"openai_key": "sk-key"},
	})
	if err != nil {
		t.Fatalf("Failed to put credential: %v", err)
	}

	cred, err := store.Get(ctx, "weaviate")
	if err != nil {
		t.Fatalf("Failed to get credential: %v", err)
	}
	if cred == nil {
		t.Fatal("Expected credential, got nil")
	}
	if cred.APIKey != "wv-key" {
		t.Errorf("Expected API key wv-key, got %s", cred.APIKey)
	}
	if cred.AdditionalKeys["openai_key"] != "sk-key" {
		t.Errorf("Expected additional key, got %+v", cred.AdditionalKeys)
	}
	if cred.CreatedAt.IsZero() || cred.UpdatedAt.IsZero() {
		t.Error("Expected timestamps populated")
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	cred, err := store.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Expected no error for missing row, got %v", err)
	}
	if cred != nil {
		t.Errorf("Expected nil for missing row, got %+v", cred)
	}
}

func TestStorePutUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, Credential{ServiceName: "weaviate", APIKey: "old-key"}); err != nil {
		t.Fatalf("Failed to put initial credential: %v", err)
	}
	if err := store.Put(ctx, Credential{
		ServiceName:    "weaviate",
		APIKey:         "new-key",
		AdditionalKeys: map[string]string{"openai_key": "sk-new"},
	}); err != nil {
		t.Fatalf("Failed to overwrite credential: %v", err)
	}

	cred, err := store.Get(ctx, "weaviate")
	if err != nil {
		t.Fatalf("Failed to get credential: %v", err)
	}
	if cred.APIKey != "new-key" {
		t.Errorf("Expected overwritten key, got %s", cred.APIKey)
	}
	if cred.AdditionalKeys["openai_key"] != "sk-new" {
		t.Errorf("Expected overwritten additional keys, got %+v", cred.AdditionalKeys)
	}
}

func TestStoreLookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, Credential{
		ServiceName:    "weaviate",
		APIKey:         "wv-key",
		AdditionalKeys: map[string]string{"openai_key": "sk-key"},
	}); err != nil {
		t.Fatalf("Failed to put credential: %v", err)
	}

	apiKey, additional, found := store.Lookup(ctx, "weaviate")
	if !found {
		t.Fatal("Expected lookup hit")
	}
	if apiKey != "wv-key" {
		t.Errorf("Expected wv-key, got %s", apiKey)
	}
	if additional["openai_key"] != "sk-key" {
		t.Errorf("Expected additional keys, got %+v", additional)
	}
}

func TestStoreLookupMiss(t *testing.T) {
	store := newTestStore(t)

	_, _, found := store.Lookup(context.Background(), "nonexistent")
	if found {
		t.Error("Expected lookup miss for absent service")
	}
}

func TestStorePing(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Expected ping to succeed: %v", err)
	}
}
