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

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/your-org/convo-helper/internal/config"
	"github.com/your-org/convo-helper/internal/credentials"
	"go.uber.org/zap"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage stored service credentials",
	}
	cmd.AddCommand(newCredentialsSetCmd())
	cmd.AddCommand(newCredentialsGetCmd())
	return cmd
}

func newCredentialsSetCmd() *cobra.Command {
	var service, apiKey, openAIKey string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store credentials for a service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			store, err := credentials.NewStore(cfg.Credentials.DBPath, zap.NewNop())
			if err != nil {
				return fmt.Errorf("failed to open credential store: %w", err)
			}
			defer func() { _ = store.Close() }()

			additional := map[string]string{}
			if openAIKey != "" {
				additional[config.ModelKeyName] = openAIKey
			}

			if err := store.Put(context.Background(), credentials.Credential{
				ServiceName:    service,
				APIKey:         apiKey,
				AdditionalKeys: additional,
			}); err != nil {
				return err
			}

			fmt.Printf("Stored credentials for %s\n", service)
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "weaviate", "service name")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "primary API key")
	cmd.Flags().StringVar(&openAIKey, "openai-key", "", "generation provider API key")
	_ = cmd.MarkFlagRequired("api-key")

	return cmd
}

func newCredentialsGetCmd() *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show stored credentials for a service (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			store, err := credentials.NewStore(cfg.Credentials.DBPath, zap.NewNop())
			if err != nil {
				return fmt.Errorf("failed to open credential store: %w", err)
			}
			defer func() { _ = store.Close() }()

			cred, err := store.Get(context.Background(), service)
			if err != nil {
				return err
			}
			if cred == nil {
				fmt.Printf("No credentials stored for %s\n", service)
				return nil
			}

			fmt.Printf("service: %s\n", cred.ServiceName)
			fmt.Printf("api_key: %s\n", mask(cred.APIKey))
			for name, value := range cred.AdditionalKeys {
				fmt.Printf("%s: %s\n", name, mask(value))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "weaviate", "service name")

	return cmd
}

func mask(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}
