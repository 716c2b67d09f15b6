/*-------------------------------------------------------------------------
 *
 * classifier.go
 *    Rule-first, LLM-fallback error classification
 *
 * Maps failure messages onto a closed category set. Ordered regex
 * rules are tried first and win with full confidence; unmatched
 * messages go to the model with surrounding context; anything still
 * unmapped lands in AGENT_LOGIC with low confidence rather than
 * erroring.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/judge/classifier.go
 *
 *-------------------------------------------------------------------------
 */

package judge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/neurondb/NeuronEval/internal/metrics"
)

/* Closed error categories */
const (
	CategorySQLGeneration    = "SQL_GENERATION"
	CategoryContextRetrieval = "CONTEXT_RETRIEVAL"
	CategoryDataError        = "DATA_ERROR"
	CategoryIntegration      = "INTEGRATION"
	CategoryAgentLogic       = "AGENT_LOGIC"
)

/* Classification methods */
const (
	MethodRule = "rule"
	MethodLLM  = "llm"
)

/* Classification is one classified failure */
type Classification struct {
	Category   string
	Severity   string
	Confidence float64
	Method     string
	Signature  string
}

/* ClassifyContext carries the surrounding failure context handed to
 * the model fallback */
type ClassifyContext struct {
	Query    string
	Response string
	Logs     string
}

type classifierRule struct {
	pattern  *regexp.Regexp
	category string
	severity string
}

/* Rules are ordered; the first match wins. More specific SQL and
 * schema patterns come before the broad transport ones. */
var classifierRules = []classifierRule{
	{regexp.MustCompile(`(?i)syntax error`), CategorySQLGeneration, "high"},
	{regexp.MustCompile(`(?i)could not parse`), CategorySQLGeneration, "high"},
	{regexp.MustCompile(`(?i)unexpected token`), CategorySQLGeneration, "high"},
	{regexp.MustCompile(`(?i)invalid sql`), CategorySQLGeneration, "high"},
	{regexp.MustCompile(`(?i)(relation|column|schema|table)\s+'?[\w\.]*'?\s+does not exist`), CategoryContextRetrieval, "high"},
	{regexp.MustCompile(`(?i)does not exist`), CategoryContextRetrieval, "medium"},
	{regexp.MustCompile(`(?i)no such (table|column)`), CategoryContextRetrieval, "high"},
	{regexp.MustCompile(`(?i)connection refused`), CategoryIntegration, "high"},
	{regexp.MustCompile(`(?i)timeout`), CategoryIntegration, "medium"},
	{regexp.MustCompile(`(?i)(503|service unavailable)`), CategoryIntegration, "medium"},
	{regexp.MustCompile(`(?i)max retries exceeded`), CategoryIntegration, "medium"},
	{regexp.MustCompile(`(?i)no rows returned`), CategoryDataError, "low"},
	{regexp.MustCompile(`(?i)empty result`), CategoryDataError, "low"},
	{regexp.MustCompile(`(?i)(incorrect|wrong) join`), CategoryAgentLogic, "medium"},
	{regexp.MustCompile(`(?i)missing filter`), CategoryAgentLogic, "medium"},
}

var validCategories = map[string]struct{}{
	CategorySQLGeneration:    {},
	CategoryContextRetrieval: {},
	CategoryDataError:        {},
	CategoryIntegration:      {},
	CategoryAgentLogic:       {},
}

const classifierSystemPrompt = `You are an error triage assistant for a SQL agent platform. Classify the failure into exactly one category:
SQL_GENERATION (the agent emitted broken SQL),
CONTEXT_RETRIEVAL (the SQL references tables/columns that do not exist),
DATA_ERROR (the query ran but the data was missing or empty),
INTEGRATION (transport, timeout, or upstream service failure),
AGENT_LOGIC (the SQL ran but answered the wrong question).

Respond with a single line: CATEGORY: <name>`

/* Classifier maps failure messages onto the closed category set */
type Classifier struct {
	client ChatClient
	model  string
}

func NewClassifier(client ChatClient, model string) *Classifier {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Classifier{client: client, model: model}
}

/* Classify categorizes a failure message. Rule matches return with
 * confidence 1.0; the LLM fallback returns 0.7; an unmapped message
 * defaults to AGENT_LOGIC with 0.3. */
func (c *Classifier) Classify(ctx context.Context, errorMessage string, classifyCtx ClassifyContext) Classification {
	msg := strings.TrimSpace(errorMessage)
	signature := ErrorSignature(msg)

	for _, rule := range classifierRules {
		if rule.pattern.MatchString(msg) {
			cls := Classification{
				Category:   rule.category,
				Severity:   rule.severity,
				Confidence: 1.0,
				Method:     MethodRule,
				Signature:  signature,
			}
			metrics.RecordErrorClassified(cls.Category, cls.Method)
			return cls
		}
	}

	if cls, ok := c.classifyWithLLM(ctx, msg, classifyCtx); ok {
		cls.Signature = signature
		metrics.RecordErrorClassified(cls.Category, cls.Method)
		return cls
	}

	cls := Classification{
		Category:   CategoryAgentLogic,
		Severity:   "low",
		Confidence: 0.3,
		Method:     MethodRule,
		Signature:  signature,
	}
	metrics.RecordErrorClassified(cls.Category, cls.Method)
	return cls
}

func (c *Classifier) classifyWithLLM(ctx context.Context, msg string, classifyCtx ClassifyContext) (Classification, bool) {
	if c.client == nil {
		return Classification{}, false
	}

	userPrompt := fmt.Sprintf("Error: %s\n\nQuery: %s\nAgent response: %s\nLogs: %s",
		msg, classifyCtx.Query, classifyCtx.Response, classifyCtx.Logs)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.0,
		MaxTokens:   20,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		metrics.RecordLLMCall("classifier", "error", time.Since(start))
		metrics.WarnWithContext(ctx, "LLM error classification failed", map[string]interface{}{
			"error": err.Error(),
		})
		return Classification{}, false
	}
	metrics.RecordLLMCall("classifier", "success", time.Since(start))

	if len(resp.Choices) == 0 {
		return Classification{}, false
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimSpace(strings.TrimPrefix(content, "CATEGORY:"))
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return Classification{}, false
	}
	category := strings.ToUpper(strings.Trim(fields[0], ".,"))

	if _, ok := validCategories[category]; !ok {
		return Classification{}, false
	}

	return Classification{
		Category:   category,
		Severity:   "medium",
		Confidence: 0.7,
		Method:     MethodLLM,
	}, true
}

/* ErrorSignature collapses a message to a stable dedup key: digits
 * and quoted literals are masked so repeated occurrences of the same
 * failure shape hash identically */
func ErrorSignature(message string) string {
	s := strings.ToLower(strings.TrimSpace(message))
	s = regexp.MustCompile(`'[^']*'`).ReplaceAllString(s, "'?'")
	s = regexp.MustCompile(`\d+`).ReplaceAllString(s, "N")
	s = regexp.MustCompile(`\s+`).ReplaceAllString(s, " ")

	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
