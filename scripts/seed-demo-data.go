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

// Seeds a local Weaviate instance with demo historical emails so the web UI
// has something to retrieve against. Run with: go run scripts/seed-demo-data.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultWeaviateURL = "http://localhost:8080"
	className          = "Filip"
	readyAttempts      = 10
)

type historicalEmail struct {
	ReplyingTo  string `json:"replying_to"`
	MyReply     string `json:"my_reply"`
	Category    string `json:"category"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Date        string `json:"date"`
}

type weaviateObject struct {
	Class      string          `json:"class"`
	Properties historicalEmail `json:"properties"`
}

func main() {
	weaviateURL := os.Getenv("WEAVIATE_URL")
	if weaviateURL == "" {
		weaviateURL = defaultWeaviateURL
	}
	apiKey := os.Getenv("WEAVIATE_API_KEY")
	openAIKey := os.Getenv("OPENAI_API_KEY")

	log.Printf("Seeding demo emails into %s class %s", weaviateURL, className)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := waitUntilReady(ctx, weaviateURL, apiKey); err != nil {
		log.Fatalf("Weaviate not ready: %v", err)
	}

	emails := demoEmails()
	for i, email := range emails {
		if err := insertObject(ctx, weaviateURL, apiKey, openAIKey, email); err != nil {
			log.Fatalf("Failed to insert email %d: %v", i+1, err)
		}
	}

	log.Printf("Seeded %d demo emails", len(emails))
}

// waitUntilReady polls the readiness endpoint with a growing delay
func waitUntilReady(ctx context.Context, baseURL, apiKey string) error {
	delay := 500 * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= readyAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			strings.TrimSuffix(baseURL, "/")+"/v1/.well-known/ready", http.NoBody)
		if err != nil {
			return err
		}
		if apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		}

		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			lastErr = fmt.Errorf("readiness returned status %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		log.Printf("Waiting for Weaviate (attempt %d/%d)", attempt, readyAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay < 8*time.Second {
			delay *= 2
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", readyAttempts, lastErr)
}

func insertObject(ctx context.Context, baseURL, apiKey, openAIKey string, email historicalEmail) error {
	payload, err := json.Marshal(weaviateObject{Class: className, Properties: email})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(baseURL, "/")+"/v1/objects", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if openAIKey != "" {
		req.Header.Set("X-OpenAI-Api-Key", openAIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("insert returned status %d", resp.StatusCode)
	}
	return nil
}

func demoEmails() []historicalEmail {
	return []historicalEmail{
		{
			ReplyingTo:  "Hi, does your product support exporting reports to PDF? We need this for our monthly reviews.",
			MyReply:     "Hi John, thanks for your question about our product features. Yes, you can export any report to PDF from the report toolbar. I'd be happy to schedule a quick demo to show you how it works. Let me know what time works best for you!",
			Category:    "Having question or objection",
			SenderName:  "John Carter",
			SenderEmail: "john.carter@example.com",
			Date:        "2024-01-12",
		},
		{
			ReplyingTo:  "Your premium plan seems expensive compared to competitors. Are there any hidden fees?",
			MyReply:     "Hello Sarah, I understand your concern about pricing. Our premium plan does include all the features you mentioned, and there are no hidden fees. I've attached a detailed comparison sheet for your reference. Feel free to reach out if you have any other questions!",
			Category:    "Having question or objection",
			SenderName:  "Sarah Mills",
			SenderEmail: "sarah.mills@example.com",
			Date:        "2024-02-03",
		},
		{
			ReplyingTo:  "Can your platform integrate with the CRM we already use?",
			MyReply:     "Hi Michael, regarding your question about integration capabilities - yes, our platform can integrate with the software you're currently using. We use standard APIs for most integrations, and I'm happy to connect you with our technical team to discuss the specific requirements for your setup.",
			Category:    "Having question or objection",
			SenderName:  "Michael Reyes",
			SenderEmail: "michael.reyes@example.com",
			Date:        "2024-02-18",
		},
		{
			ReplyingTo:  "I'd like to cancel my subscription. The tool is great but we no longer need it.",
			MyReply:     "Hi Laura, sorry to see you go! I've processed the cancellation effective at the end of your current billing period, so you keep access until then. If your needs change down the road, your data stays exportable for 90 days. Thanks for being with us!",
			Category:    "Cancellation request",
			SenderName:  "Laura Chen",
			SenderEmail: "laura.chen@example.com",
			Date:        "2024-03-05",
		},
		{
			ReplyingTo:  "The dashboard has been loading very slowly since yesterday. Is something wrong?",
			MyReply:     "Hi Tom, thanks for flagging this. We had a degraded database node yesterday afternoon which slowed down dashboard queries; it was replaced around 6pm and load times are back to normal. If you still see slowness on your end, send me the workspace name and I'll dig in right away.",
			Category:    "Reporting a problem",
			SenderName:  "Tom Novak",
			SenderEmail: "tom.novak@example.com",
			Date:        "2024-03-22",
		},
	}
}
