package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/your-org/convo-helper/internal/config"
	"go.uber.org/zap"
)

// Client wraps the Weaviate managed GraphQL API. One request performs both
// the nearest-neighbor retrieval and the grouped generation over the matched
// set; the wire format is dictated entirely by the vendor.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Weaviate client. Timeouts are carried per request
// through the context, not the HTTP client.
func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// QueryOptions tunes one retrieval+generation request
type QueryOptions struct {
	ClassName         string
	TargetVector      string
	Limit             int
	DistanceThreshold float64
	Category          string
}

// RecordProperties holds the per-record fields returned by the vendor. The
// schema changed across the system's life, so every field is optional and
// decodes to the empty string when absent.
type RecordProperties struct {
	ReplyingTo  string `json:"replying_to"`
	MyReply     string `json:"my_reply"`
	Category    string `json:"category"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Date        string `json:"date"`
}

// Record is one matched historical record with its vector-space distance
type Record struct {
	ID         string           `json:"id"`
	Properties RecordProperties `json:"properties"`
	Distance   float64          `json:"distance"`
}

// QueryResult is the decoded outcome of one query+generate call. Generated
// is empty when the vendor returned no generation text.
type QueryResult struct {
	Records   []Record
	Generated string
}

// StatusError reports a non-2xx response from the vendor
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

// GraphQLError reports an error entry in an otherwise-200 GraphQL response
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("GraphQL query failed: %s", strings.Join(e.Messages, "; "))
}

// graphQLRequest is the POST body for /v1/graphql
type graphQLRequest struct {
	Query string `json:"query"`
}

// graphQLResponse mirrors the vendor's nested response shape. Pointers keep
// every property optional.
type graphQLResponse struct {
	Data struct {
		Get map[string][]graphQLRecord `json:"Get"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type graphQLRecord struct {
	ReplyingTo  *string `json:"replying_to"`
	MyReply     *string `json:"my_reply"`
	Category    *string `json:"category"`
	SenderName  *string `json:"sender_name"`
	SenderEmail *string `json:"sender_email"`
	Date        *string `json:"date"`
	Additional  struct {
		ID       string   `json:"id"`
		Distance *float64 `json:"distance"`
		Generate *struct {
			GroupedResult *string `json:"groupedResult"`
			SingleResult  *string `json:"singleResult"`
			Error         *string `json:"error"`
		} `json:"generate"`
	} `json:"_additional"`
}

// QueryWithGeneration issues one retrieval+generation call against the
// configured endpoint. The prompt is embedded in the GraphQL query with full
// string escaping; the caller bounds the call through ctx.
func (c *Client) QueryWithGeneration(ctx context.Context, conn config.ConnectionConfig, prompt string, opts QueryOptions) (*QueryResult, error) {
	query := BuildQuery(prompt, opts)

	payload, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(conn.EndpointURL, "/") + "/v1/graphql"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+conn.SearchAPIKey)
	req.Header.Set("X-OpenAI-Api-Key", conn.ModelAPIKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Querying Weaviate GraphQL endpoint",
		zap.String("class", opts.ClassName),
		zap.Int("limit", opts.Limit),
		zap.Float64("distance_threshold", opts.DistanceThreshold))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded graphQLResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(decoded.Errors) > 0 {
		messages := make([]string, len(decoded.Errors))
		for i, e := range decoded.Errors {
			messages[i] = e.Message
		}
		return nil, &GraphQLError{Messages: messages}
	}

	return c.shapeResult(decoded, opts.ClassName), nil
}

// shapeResult converts the vendor payload into the uniform display model,
// substituting defaults for every missing optional property.
func (c *Client) shapeResult(decoded graphQLResponse, className string) *QueryResult {
	result := &QueryResult{}

	for _, rec := range decoded.Data.Get[className] {
		record := Record{
			ID: rec.Additional.ID,
			Properties: RecordProperties{
				ReplyingTo:  deref(rec.ReplyingTo),
				MyReply:     deref(rec.MyReply),
				Category:    deref(rec.Category),
				SenderName:  deref(rec.SenderName),
				SenderEmail: deref(rec.SenderEmail),
				Date:        deref(rec.Date),
			},
		}
		if rec.Additional.Distance != nil {
			record.Distance = *rec.Additional.Distance
		}

		if gen := rec.Additional.Generate; gen != nil && result.Generated == "" {
			// The vendor moved the generation text between these two paths
			// across schema revisions; accept either.
			if gen.GroupedResult != nil && *gen.GroupedResult != "" {
				result.Generated = *gen.GroupedResult
			} else if gen.SingleResult != nil && *gen.SingleResult != "" {
				result.Generated = *gen.SingleResult
			}
			if gen.Error != nil && *gen.Error != "" {
				c.logger.Warn("Generation reported a per-record error",
					zap.String("record_id", rec.Additional.ID),
					zap.String("error", *gen.Error))
			}
		}

		result.Records = append(result.Records, record)
	}

	return result
}

// Ready checks the vendor's readiness endpoint
func (c *Client) Ready(ctx context.Context, conn config.ConnectionConfig) error {
	url := strings.TrimSuffix(conn.EndpointURL, "/") + "/v1/.well-known/ready"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create readiness request: %w", err)
	}
	if conn.SearchAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+conn.SearchAPIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to check Weaviate readiness: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Weaviate readiness check failed with status %d", resp.StatusCode)
	}

	return nil
}

// BuildQuery renders the GraphQL query for one retrieval+generation request.
// The prompt (which embeds raw user text) goes through EscapeString so quote
// and control characters cannot break out of the query string literal.
func BuildQuery(prompt string, opts QueryOptions) string {
	var b strings.Builder

	b.WriteString("{\n  Get {\n    ")
	b.WriteString(opts.ClassName)
	b.WriteString("(\n      nearText: {\n        concepts: [\"")
	b.WriteString(EscapeString(prompt))
	b.WriteString("\"]\n")
	if opts.TargetVector != "" {
		b.WriteString("        targetVectors: [\"")
		b.WriteString(EscapeString(opts.TargetVector))
		b.WriteString("\"]\n")
	}
	if opts.DistanceThreshold > 0 {
		fmt.Fprintf(&b, "        distance: %g\n", opts.DistanceThreshold)
	}
	b.WriteString("      }\n")
	if opts.Category != "" {
		b.WriteString("      where: {path: [\"category\"], operator: Equal, valueText: \"")
		b.WriteString(EscapeString(opts.Category))
		b.WriteString("\"}\n")
	}
	fmt.Fprintf(&b, "      limit: %d\n", opts.Limit)
	b.WriteString("    ) {\n")
	b.WriteString("      replying_to\n      my_reply\n      category\n      sender_name\n      sender_email\n      date\n")
	b.WriteString("      _additional {\n        id\n        distance\n        generate(\n          groupedTask: \"")
	b.WriteString(EscapeString(prompt))
	b.WriteString("\"\n        ) {\n          groupedResult\n          error\n        }\n      }\n    }\n  }\n}")

	return b.String()
}

// EscapeString escapes a value for embedding inside a quoted GraphQL string
// literal. GraphQL string escapes coincide with JSON's, so the JSON encoder
// does the work.
func EscapeString(s string) string {
	encoded, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string cannot fail; keep the raw value if it
		// somehow does.
		return s
	}
	return string(encoded[1 : len(encoded)-1])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
