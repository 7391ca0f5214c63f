package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assessment-service/internal/models"
)

// Client talks to an OpenAI-compatible chat-completions API and implements
// all five content collaborators. Calls are synchronous; callers decide what
// a failure means (static fallback vs. hard error).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // LLM responses are slow
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" && c.apiKey != "none" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}

// stripFences removes a markdown code fence around a JSON payload, which
// several providers add despite instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func formatOptions(options []models.Option) string {
	var b strings.Builder
	for _, opt := range options {
		fmt.Fprintf(&b, "%s. %s\n", strings.ToUpper(opt.ID), opt.Text)
	}
	return b.String()
}

// --- Question generation ---

type generatedQuestion struct {
	ID          string          `json:"question_id"`
	Question    string          `json:"question"`
	Options     []models.Option `json:"options"`
	Correct     string          `json:"correct_answer"`
	Explanation string          `json:"explanation"`
	Hints       []models.Hint   `json:"hints"`
	ConceptID   string          `json:"concept_id"`
}

func (c *Client) GenerateQuestions(ctx context.Context, concepts []models.Concept, documentText string, count int) ([]models.Question, error) {
	var conceptList strings.Builder
	for _, concept := range concepts {
		fmt.Fprintf(&conceptList, "- %s (%s): %s\n", concept.Name, concept.ID, concept.Definition)
	}

	system := "You are an assessment designer. You write multiple-choice questions that test real understanding, with plausible distractors and graduated hints."
	prompt := fmt.Sprintf(`Generate %d multiple-choice questions from these concepts.

Concepts:
%s
Document context:
%s

Return a JSON array. Each element:
{
  "question_id": "q1",
  "question": "...",
  "options": [{"id": "a", "text": "..."}, {"id": "b", "text": "..."}, {"id": "c", "text": "..."}, {"id": "d", "text": "..."}],
  "correct_answer": "b",
  "explanation": "...",
  "hints": [{"level": 1, "text": "subtle nudge"}, {"level": 2, "text": "moderate"}, {"level": 3, "text": "near-explicit"}],
  "concept_id": "the id of the concept this question tests"
}

Requirements: exactly 4 options per question, exactly one correct, concept_id must be one of the ids above.`,
		count, conceptList.String(), truncate(documentText, 1500))

	raw, err := c.chat(ctx, system, prompt, 0.7, 4096)
	if err != nil {
		return nil, err
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &generated); err != nil {
		return nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}

	questions := make([]models.Question, len(generated))
	for i, g := range generated {
		id := g.ID
		if id == "" {
			id = fmt.Sprintf("q%d", i+1)
		}
		questions[i] = models.Question{
			ID:            id,
			Text:          g.Question,
			Options:       g.Options,
			CorrectOption: g.Correct,
			Explanation:   g.Explanation,
			Hints:         g.Hints,
			ConceptID:     g.ConceptID,
		}
	}
	return questions, nil
}

// --- Socratic hint generation ---

var hintLevelInstructions = map[int]string{
	1: "Level 1 (subtle): question their assumptions gently, do not reveal the answer.",
	2: "Level 2 (moderate): explain why their answer is incorrect and eliminate one or two wrong options.",
	3: "Level 3 (explicit): point directly at the correct reasoning, leaving minimal discovery work.",
}

func (c *Client) GenerateHint(ctx context.Context, question *models.Question, selectedOption string, level int, documentContext string) (*SocraticHint, error) {
	selected := question.Option(selectedOption)
	correct := question.Option(question.CorrectOption)
	if selected == nil || correct == nil {
		return nil, fmt.Errorf("option %q not found on question %s", selectedOption, question.ID)
	}

	system := "You are a Socratic teaching expert. You help learners discover why their answer is wrong through questioning, not direct answers."
	prompt := fmt.Sprintf(`A student answered incorrectly. Generate a Socratic hint for their specific wrong answer.

Question: %s

Options:
%s
Student's answer: %s. %s
Correct answer: %s (reveal directly only at level 3)

%s

Document context:
%s

Return JSON:
{
  "wrong_answer_reasoning": "2-3 sentences on why their selection is incorrect",
  "socratic_questions": ["question referencing their selected option", "question hinting at what to consider", "question guiding toward correct reasoning"],
  "guiding_questions": ["key concept to recall", "relationship they are missing"]
}`,
		question.Text, formatOptions(question.Options),
		strings.ToUpper(selected.ID), selected.Text, correct.Text,
		hintLevelInstructions[level], truncate(documentContext, 500))

	raw, err := c.chat(ctx, system, prompt, 0.5, 1024)
	if err != nil {
		return nil, err
	}

	var hint SocraticHint
	if err := json.Unmarshal([]byte(stripFences(raw)), &hint); err != nil {
		return nil, fmt.Errorf("failed to parse generated hint: %w", err)
	}
	return &hint, nil
}

// --- Checkpoint generation ---

type generatedCheckpoint struct {
	ID                string        `json:"checkpoint_id"`
	Order             int           `json:"order"`
	Title             string        `json:"title"`
	SocraticQuestion  string        `json:"socratic_question"`
	ExpectedInsight   string        `json:"expected_insight"`
	FollowUpQuestions []string      `json:"follow_up_questions"`
	Hints             []models.Hint `json:"hints"`
	MasteryCriteria   string        `json:"mastery_criteria"`
}

func (c *Client) GenerateCheckpoints(ctx context.Context, concept models.Concept, documentContext string, count int) ([]models.Checkpoint, error) {
	system := "You are a Socratic teaching expert. You create progressive learning checkpoints that guide learners to discover understanding themselves."
	prompt := fmt.Sprintf(`Generate %d progressive Socratic checkpoints for this concept.

Concept: %s
Definition: %s

Document context:
%s

Return a JSON array. Each element:
{
  "checkpoint_id": "cp1",
  "order": 1,
  "title": "Foundation Understanding",
  "socratic_question": "open-ended question",
  "expected_insight": "what the learner should grasp",
  "follow_up_questions": ["...", "..."],
  "hints": [{"level": 1, "text": "..."}, {"level": 2, "text": "..."}, {"level": 3, "text": "..."}],
  "mastery_criteria": "specific and measurable"
}

Requirements: exactly %d checkpoints, ordered foundation -> connections -> deeper insight, each building on the previous. Questions must be open-ended.`,
		count, concept.Name, concept.Definition, truncate(documentContext, 1500), count)

	raw, err := c.chat(ctx, system, prompt, 0.7, 2048)
	if err != nil {
		return nil, err
	}

	var generated []generatedCheckpoint
	if err := json.Unmarshal([]byte(stripFences(raw)), &generated); err != nil {
		return nil, fmt.Errorf("failed to parse generated checkpoints: %w", err)
	}

	checkpoints := make([]models.Checkpoint, len(generated))
	for i, g := range generated {
		id := g.ID
		if id == "" {
			id = fmt.Sprintf("cp%d", i+1)
		}
		checkpoints[i] = models.Checkpoint{
			ID:                id,
			Order:             g.Order,
			Title:             g.Title,
			SocraticQuestion:  g.SocraticQuestion,
			ExpectedInsight:   g.ExpectedInsight,
			FollowUpQuestions: g.FollowUpQuestions,
			Hints:             g.Hints,
			MasteryCriteria:   g.MasteryCriteria,
		}
	}
	return checkpoints, nil
}

// --- Response analysis ---

type analyzedResponse struct {
	UnderstandingLevel string `json:"understanding_level"`
	Reasoning          string `json:"reasoning"`
	ShouldAdvance      bool   `json:"should_advance"`
	SuggestedFollowUp  string `json:"suggested_follow_up"`
}

func (c *Client) AnalyzeResponse(ctx context.Context, checkpoint *models.Checkpoint, userResponse string, attemptCount int, history []models.ConversationTurn) (*ResponseAnalysis, error) {
	var conversation strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&conversation, "Q: %s\nA: %s\n", turn.Question, turn.Answer)
	}

	system := "You are analyzing a learner's response to a Socratic question. Determine whether they have grasped the key insight, are partially there, or are still struggling."
	prompt := fmt.Sprintf(`Analyze this learner's response.

Checkpoint: %s
Socratic question: %s
Expected insight: %s
Attempt count: %d

Conversation so far:
%s
Latest response: %s

Return JSON:
{
  "understanding_level": "none|partial|good|mastery",
  "reasoning": "brief assessment",
  "should_advance": true,
  "suggested_follow_up": "next question to ask, or empty if advancing"
}

should_advance is true only for "good" or "mastery".`,
		checkpoint.Title, checkpoint.SocraticQuestion, checkpoint.ExpectedInsight,
		attemptCount, conversation.String(), userResponse)

	raw, err := c.chat(ctx, system, prompt, 0.3, 512)
	if err != nil {
		return nil, err
	}

	var analyzed analyzedResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &analyzed); err != nil {
		return nil, fmt.Errorf("failed to parse response analysis: %w", err)
	}

	level := UnderstandingLevel(analyzed.UnderstandingLevel)
	switch level {
	case UnderstandingNone, UnderstandingPartial, UnderstandingGood, UnderstandingMastery:
	default:
		level = UnderstandingPartial
	}

	return &ResponseAnalysis{
		UnderstandingLevel: level,
		ShouldAdvance:      analyzed.ShouldAdvance,
		FollowUp:           analyzed.SuggestedFollowUp,
		Reasoning:          analyzed.Reasoning,
	}, nil
}

// --- Encouragement ---

func (c *Client) Encouragement(ctx context.Context, checkpointCompleted bool, level UnderstandingLevel) (string, error) {
	system := "You write one short, warm sentence of feedback for a learner. No preamble, no quotes."
	prompt := fmt.Sprintf("Checkpoint completed: %v. Understanding level: %s. Write the feedback sentence.", checkpointCompleted, level)

	raw, err := c.chat(ctx, system, prompt, 0.7, 100)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
