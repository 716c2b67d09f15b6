/*-------------------------------------------------------------------------
 *
 * judge.go
 *    LLM-as-judge SQL correctness evaluation
 *
 * Asks a chat model whether the generated SQL answers the user's
 * question, comparing against the ground truth. Responses follow a
 * fixed VERDICT/CONFIDENCE/REASONING line protocol. An unreachable or
 * unparseable model degrades to an unavailable verdict; the evaluator
 * then weights this layer at zero rather than failing the evaluation.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/judge/judge.go
 *
 *-------------------------------------------------------------------------
 */

package judge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/neurondb/NeuronEval/internal/metrics"
	"github.com/neurondb/NeuronEval/internal/reliability"
)

/* ChatClient is the model dependency of the judge */
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

/* Verdict is the judge's decision for one evaluation */
type Verdict struct {
	Verdict    string
	Confidence float64
	Reasoning  string

	/* Available is false when the model could not be consulted; the
	 * caller must treat the layer as missing, not as FAIL */
	Available bool

	RawResponse string
}

const judgeSystemPrompt = `You are an expert SQL evaluator. Your task is to determine if the generated SQL query correctly answers the user's question.

Evaluation Criteria:
1. **Correctness**: Does the SQL query retrieve the right data to answer the question?
2. **Completeness**: Does it include all necessary components (filters, aggregations, etc.)?
3. **Logic**: Are the table joins, WHERE conditions, and GROUP BY clauses correct?

Compare the generated SQL with the ground truth SQL. Consider them equivalent if they produce the same result, even if syntax differs slightly.
Refine your judgment:
- **PASS** if the generated SQL uses a VIEW instead of complex JOINs. This is a valid logic optimization.
- **PASS** if the generated SQL answers the core intent of the question, even if aggregation or sorting is slightly different.
- **PASS** if the SQL uses different column aliases or table aliases.
- **IGNORE** additional ORDER BY clauses unless the user asked for a specific order.
- **IGNORE** NULLIF or safety checks (e.g. division by zero protection).
- **IGNORE** extra columns in the SELECT clause if the core answer is present.
- **IGNORE** case mismatches in string literals.

**FAIL ONLY IF**:
- The SQL is syntactically invalid.
- The SQL queries the wrong table or wrong column.
- The SQL returns completely unrelated data.

Return your evaluation in this exact format:
VERDICT: [PASS/FAIL]
CONFIDENCE: [0.0-1.0]
REASONING: [Brief explanation of your decision]`

type Judge struct {
	client  ChatClient
	model   string
	breaker *reliability.CircuitBreaker
}

func NewJudge(client ChatClient, model string) *Judge {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Judge{
		client:  client,
		model:   model,
		breaker: reliability.NewCircuitBreaker("llm_judge", 5, 30*time.Second),
	}
}

/* Evaluate asks the model for a verdict. A nil client, an open
 * circuit, or a transport failure all yield Available=false. */
func (j *Judge) Evaluate(ctx context.Context, userQuery, generatedSQL, groundTruthSQL, agentType string) Verdict {
	if j.client == nil {
		return Verdict{Verdict: "FAIL", Reasoning: "LLM judge not configured"}
	}

	userPrompt := fmt.Sprintf(`User Query: "%s"

Generated SQL:
%s

Ground Truth SQL:
%s

Agent Type: %s

Evaluate if the generated SQL correctly answers the user query.`, userQuery, generatedSQL, groundTruthSQL, agentType)

	start := time.Now()
	var resp openai.ChatCompletionResponse

	err := j.breaker.Execute(ctx, func() error {
		var callErr error
		resp, callErr = j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       j.model,
			Temperature: 0.0,
			MaxTokens:   300,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: judgeSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		return callErr
	})
	if err != nil {
		metrics.RecordLLMCall("judge", "error", time.Since(start))
		metrics.WarnWithContext(ctx, "LLM judge call failed", map[string]interface{}{
			"model": j.model,
			"error": err.Error(),
		})
		return Verdict{Verdict: "FAIL", Reasoning: fmt.Sprintf("judge unavailable: %v", err)}
	}

	metrics.RecordLLMCall("judge", "success", time.Since(start))

	if len(resp.Choices) == 0 {
		return Verdict{Verdict: "FAIL", Reasoning: "judge returned no choices"}
	}

	return parseVerdict(resp.Choices[0].Message.Content)
}

/* parseVerdict reads the VERDICT/CONFIDENCE/REASONING line protocol.
 * Unknown verdict tokens degrade to FAIL; an unparseable confidence
 * falls back to 0.5; missing reasoning keeps the raw response. */
func parseVerdict(response string) Verdict {
	v := Verdict{
		Verdict:     "FAIL",
		Confidence:  0.5,
		Available:   true,
		RawResponse: response,
	}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "VERDICT:"):
			token := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "VERDICT:")))
			if token == "PASS" || token == "FAIL" {
				v.Verdict = token
			}
		case strings.HasPrefix(line, "CONFIDENCE:"):
			token := strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:"))
			if f, err := strconv.ParseFloat(token, 64); err == nil && f >= 0.0 && f <= 1.0 {
				v.Confidence = f
			}
		case strings.HasPrefix(line, "REASONING:"):
			v.Reasoning = strings.TrimSpace(strings.TrimPrefix(line, "REASONING:"))
		}
	}

	if v.Reasoning == "" {
		v.Reasoning = response
	}

	return v
}

/* Score converts a verdict into the judge layer's score. The verdict
 * is binary; the model's confidence feeds the evaluation-level
 * confidence, not this score. */
func (v Verdict) Score() float64 {
	if v.Available && v.Verdict == "PASS" {
		return 1.0
	}
	return 0.0
}
