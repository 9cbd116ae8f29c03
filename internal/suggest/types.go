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

// Package suggest implements the suggestion orchestrator: it assembles the
// reply-drafting prompt, issues one bounded retrieval+generation call,
// recovers a structured reply from the semi-structured result, and degrades
// to deterministic demo content when the live dependency fails.
package suggest

import "github.com/your-org/convo-helper/internal/weaviate"

// SuggestedReply is the draft the agent can send, with its provenance
type SuggestedReply struct {
	Answer        string `json:"answer"`
	Source        string `json:"source"`
	Justification string `json:"justification"`
}

// MatchProperties holds the display fields of one historical thread. Every
// field may be empty; the upstream schema drifted and the UI blanks what is
// missing.
type MatchProperties struct {
	ReplyingTo  string `json:"replying_to,omitempty"`
	MyReply     string `json:"my_reply"`
	Category    string `json:"category"`
	SenderName  string `json:"sender_name,omitempty"`
	SenderEmail string `json:"sender_email,omitempty"`
	Date        string `json:"date,omitempty"`
}

// HistoricalMatch is one retrieved historical thread with its vector-space
// distance (lower is more similar)
type HistoricalMatch struct {
	ID         string          `json:"id"`
	Properties MatchProperties `json:"properties"`
	Distance   float64         `json:"distance"`
}

// Outcome is the orchestrator's return value. Reply and Matches may both be
// empty without Err being set; that is the valid "no relevant history found"
// state, distinct from a failure.
type Outcome struct {
	Reply        *SuggestedReply   `json:"response"`
	Matches      []HistoricalMatch `json:"historical_emails"`
	Err          string            `json:"error,omitempty"`
	UsedFallback bool              `json:"using_mock_data"`
}

// matchFromRecord shapes one vendor record into the display model
func matchFromRecord(rec weaviate.Record) HistoricalMatch {
	return HistoricalMatch{
		ID: rec.ID,
		Properties: MatchProperties{
			ReplyingTo:  rec.Properties.ReplyingTo,
			MyReply:     rec.Properties.MyReply,
			Category:    rec.Properties.Category,
			SenderName:  rec.Properties.SenderName,
			SenderEmail: rec.Properties.SenderEmail,
			Date:        rec.Properties.Date,
		},
		Distance: rec.Distance,
	}
}
