package suggest

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the generation task for one inbound email. The model
// is instructed to reuse past phrasing verbatim where possible and to answer
// with a JSON object carrying answer, source, and justification. Escaping
// for the outbound request body happens at the transport layer, not here.
func BuildPrompt(inboundEmail string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Based on the following examples of my previous communication, reply to this email: '%s'\n\n", inboundEmail)

	b.WriteString(`Do it by adjusting the examples of my previous communication. Focus on mimicking my communication style, phrases, and tone of voice.

Don't paraphrase my sentences if not needed. Avoid words that are typical for AI-generated content (e.g, enhance, additionally, moreover, essential, dazzling, dive into, foster, etc.)

Return an answer in a following format:
{
"answer": Your proposition of the reply I should send to a customer as a string,
"source": most similar email used for the response,
"justification": provide your thought process behind making changes to the email suggested, compared to "used_emails" list. As stated previously, avoid paraphrases and every paraphrase should have a solid justification.
}`)

	return b.String()
}

// BuildCompletionPrompt renders the prompt for the direct chat-completion
// path, used when the vendor returned matched records but no generation
// text. The matched replies stand in for the grouped context the vendor
// would have supplied.
func BuildCompletionPrompt(inboundEmail string, matches []HistoricalMatch) string {
	var b strings.Builder

	b.WriteString("--- Examples of my previous communication ---\n")
	for i, match := range matches {
		if match.Properties.MyReply == "" {
			continue
		}
		fmt.Fprintf(&b, "Example %d: %s\n\n", i+1, match.Properties.MyReply)
	}
	b.WriteString("\n")
	b.WriteString(BuildPrompt(inboundEmail))

	return b.String()
}
