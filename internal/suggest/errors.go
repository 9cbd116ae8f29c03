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
	"net"
	"net/url"
	"strings"

	"github.com/your-org/convo-helper/internal/weaviate"
)

// ErrorCode classifies a suggestion failure for routing and display
type ErrorCode string

const (
	// CodeConfiguration means required secrets were missing after refresh
	CodeConfiguration ErrorCode = "CONFIGURATION"
	// CodeTimeout means the outbound call did not complete within the deadline
	CodeTimeout ErrorCode = "TIMEOUT"
	// CodeNetwork means the call could not reach the service at all
	CodeNetwork ErrorCode = "NETWORK"
	// CodeUpstreamStatus means the service answered with a non-2xx status
	CodeUpstreamStatus ErrorCode = "UPSTREAM_STATUS"
	// CodeParse means the generation payload was not recoverable JSON
	CodeParse ErrorCode = "PARSE"
	// CodeInternal covers everything else
	CodeInternal ErrorCode = "INTERNAL"
)

// Error is a classified suggestion failure with a user-facing message
type Error struct {
	Code     ErrorCode
	Message  string
	Internal error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Internal
}

const (
	timeoutMessage       = "The AI took too long to respond. Please try again with a simpler query."
	configurationMessage = "Missing Weaviate or OpenAI API keys. Showing demo data instead."
)

// Classify maps an outbound-call failure onto the error taxonomy. Order
// matters: a timed-out call often surfaces wrapped in a *url.Error, so the
// timeout check runs before the network check.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	if isTimeout(err) {
		return &Error{Code: CodeTimeout, Message: timeoutMessage, Internal: err}
	}

	var statusErr *weaviate.StatusError
	if errors.As(err, &statusErr) {
		return &Error{Code: CodeUpstreamStatus, Message: statusErr.Error(), Internal: err}
	}

	if isNetwork(err) {
		return &Error{Code: CodeNetwork, Message: "Could not reach the suggestion service, using demo data instead", Internal: err}
	}

	return &Error{Code: CodeInternal, Message: err.Error(), Internal: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetwork(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	// Browser-era deployments reported cross-origin rejections through
	// message text only; keep the same last-resort match.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network")
}
