// Package llm wraps the Gemini API for the two language-model tasks the
// orchestrator needs: generating a question bank and grading spoken answers.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// Client is a Gemini-backed grader and question generator. It implements
// interview.Grader.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. model defaults to gemini-2.0-flash.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Score grades a candidate's answer on the 0-10 scale. The model is asked for
// a bare number; anything else fails parsing and the caller applies its
// neutral-default policy.
func (c *Client) Score(ctx context.Context, question, answer string) (int, error) {
	prompt := fmt.Sprintf(`Rate this technical interview answer on a scale of 1-10, where:
1-3 = Poor (incorrect, incomplete, or demonstrates lack of understanding)
4-6 = Average (partially correct, basic understanding)
7-8 = Good (mostly correct, good understanding)
9-10 = Excellent (comprehensive, demonstrates deep understanding)

Question: %s

Answer: %s

Respond with only a number from 1-10, nothing else.`, question, answer)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return 0, fmt.Errorf("gemini score request: %w", err)
	}
	score, err := ParseScore(resp.Text())
	if err != nil {
		return 0, fmt.Errorf("parse score: %w", err)
	}
	return score, nil
}

// GenerateQuestions asks the model for a bank of up to 50 interview questions
// for the given language and focus area. Fails when the model produces fewer
// than MinGeneratedQuestions usable lines.
func (c *Client) GenerateQuestions(ctx context.Context, language, focus string) ([]string, error) {
	prompt := fmt.Sprintf(`Generate exactly 50 technical interview questions for the %s programming language.

Focus on: %s

Requirements:
- Mix of theory, practical coding, and problem-solving questions
- Appropriate difficulty for technical interviews
- Clear, concise questions that can be answered verbally
- Cover fundamentals, advanced concepts, and real-world scenarios
- No code blocks in questions, just descriptive questions

Return as a numbered list of exactly 50 questions.`, language, focus)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini generate request: %w", err)
	}
	questions := ParseQuestionList(resp.Text())
	if len(questions) < MinGeneratedQuestions {
		return nil, fmt.Errorf("only %d usable questions generated, need at least %d", len(questions), MinGeneratedQuestions)
	}
	return questions, nil
}
