package ollama

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/time/rate"
)

var firstIntRe = regexp.MustCompile(`-?\d+`)

// Judge scores a passage's relevance to a question on a 0-10 scale using the
// generation model. Calls are rate limited because reranking fires one call
// per candidate.
type Judge struct {
	client  *Client
	limiter *rate.Limiter
}

func NewJudge(client *Client, callsPerSecond float64) *Judge {
	if callsPerSecond <= 0 {
		callsPerSecond = 8
	}
	return &Judge{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1),
	}
}

func (j *Judge) Score(ctx context.Context, question, passage string) (int, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("judge rate limit: %w", err)
	}

	respText, err := j.client.generateText(ctx, "judge", buildJudgePrompt(question, passage))
	if err != nil {
		return 0, err
	}
	return parseJudgeScore(respText)
}

// parseJudgeScore takes the first integer in the reply, tolerating models
// that pad the number with prose, and clamps it to the 0-10 scale.
func parseJudgeScore(raw string) (int, error) {
	match := firstIntRe.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no score in judge reply: %q", raw)
	}
	score, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("parse judge score %q: %w", match, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}
