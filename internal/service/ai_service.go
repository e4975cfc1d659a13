package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/skillpath-labs/skillpath-api/internal/models"
	"github.com/skillpath-labs/skillpath-api/pkg/config"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
)

// AIService is a stateless pass-through to an Azure OpenAI
// chat-completions deployment. It owns prompt construction and response
// cleanup; it stores nothing.
type AIService struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	limits    config.PromptLimitsConfig
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewAIService constructs the upstream client with a keep-alive
// transport.
func NewAIService(cfg config.OpenAIConfig, limits config.PromptLimitsConfig, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AIService{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   cfg.Endpoint + cfg.ModelURL,
		apiKey:    cfg.APIKey,
		limits:    limits,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateIndustries asks the model for a list of industries suited for
// skill assessment.
func (s *AIService) GenerateIndustries(ctx context.Context) (json.RawMessage, error) {
	prompt := fmt.Sprintf(`Generate a JSON array of %d industries relevant for skill assessment and upskilling.
Ensure the industries span diverse sectors like technology, healthcare, finance, education, and retail.
Do not include any greetings, commentary, or extra text.

Example:
["<industry #1>", "<industry #2>", "<industry #3>"]`, s.limits.Industries)

	return s.complete(ctx, prompt, 300)
}

// GenerateJobRoles asks for high-demand roles and levels in an industry.
func (s *AIService) GenerateJobRoles(ctx context.Context, req models.JobRolesRequest) (json.RawMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job roles payload")
	}

	prompt := fmt.Sprintf(`Generate a JSON array of %d high-demand job roles in the %s sector, with their respective career levels.
Include only roles relevant to modern career opportunities in this field. Avoid any greetings or commentary.

Example:
[{"role": "<role>", "levels": ["<level #1>", "<level #2>", "<level #3>"]}]`, s.limits.RolesAndLevels, req.Industry)

	return s.complete(ctx, prompt, 300)
}

// GenerateSkillset asks for the essential skills behind a role.
func (s *AIService) GenerateSkillset(ctx context.Context, req models.SkillsetRequest) (json.RawMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid skillset payload")
	}

	prompt := fmt.Sprintf(`Generate a JSON object with a list of %d essential skills for the role "%s" at the "%s" level in the "%s" industry.
Include both technical and soft skills, reflecting today's industry demands. Avoid greetings or extra words.

Example:
{"skillsNeeded": ["<skill #1>", "<skill #2>", "<skill #3>"]}`, s.limits.Skillsets, req.Role, req.Level, req.Industry)

	return s.complete(ctx, prompt, 500)
}

// GenerateQuiz builds a multiple-choice quiz; the advanced variant
// focuses on the caller's learning path.
func (s *AIService) GenerateQuiz(ctx context.Context, req models.QuizRequest, advanced bool) (json.RawMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}

	focus := ""
	if advanced && len(req.LearningPath) > 0 {
		focus = fmt.Sprintf("\n- Learning Path: %s", string(req.LearningPath))
	}

	prompt := fmt.Sprintf(`Generate a %d-question advanced-level multiple-choice quiz based on the following inputs:
- Industry: %s
- Role: %s
- Level: %s
- Skillset: %s%s

Focus the quiz on the areas highlighted above, addressing knowledge gaps and challenging understanding of real-world scenarios.
Return the results in a JSON array format with no extra words.

Example:
[{"question": "<question>", "options": ["A. <choice A>", "B. <choice B>", "C. <choice C>", "D. <choice D>"], "correctAnswer": "<letter of correct answer>"}]`,
		s.limits.QuizQuestions, req.Industry, req.Role, req.Level, string(req.Skillset), focus)

	return s.complete(ctx, prompt, 1500)
}

// EvaluateQuiz scores the quiz locally, then asks the model for a SWOT
// analysis of the result.
func (s *AIService) EvaluateQuiz(ctx context.Context, req models.EvaluateQuizRequest, advanced bool) (*models.QuizEvaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}

	score := 0
	feedback := make([]models.QuizFeedback, 0, len(req.QuizData))
	var correct, incorrect []string
	for i, item := range req.QuizData {
		var answer string
		if i < len(req.UserAnswers) {
			answer = req.UserAnswers[i]
		}
		isCorrect := answer == item.CorrectAnswer
		if isCorrect {
			score++
			correct = append(correct, item.Question)
		} else {
			incorrect = append(incorrect, item.Question)
		}

		message := "Correct!"
		if !isCorrect {
			message = fmt.Sprintf("Incorrect. The correct answer is '%s'.", item.CorrectAnswer)
		}

		feedback = append(feedback, models.QuizFeedback{
			Question:      item.Question,
			Options:       item.Options,
			CorrectAnswer: item.CorrectAnswer,
			UserAnswer:    answer,
			IsCorrect:     isCorrect,
			Feedback:      message,
		})
	}

	evaluation := &models.QuizEvaluation{
		TotalQuestions: len(req.QuizData),
		Score:          fmt.Sprintf("%d/%d", score, len(req.QuizData)),
		Feedback:       feedback,
	}

	prompt := s.swotPrompt(req, advanced, correct, incorrect)
	raw, err := s.complete(ctx, prompt, 2000)
	if err != nil {
		// Scoring stands on its own; surface the upstream failure.
		return nil, err
	}

	var swot struct {
		SWOTAnalysis models.SWOTAnalysis `json:"swotAnalysis"`
	}
	if err := json.Unmarshal(raw, &swot); err != nil {
		s.logger.Warn("model returned unexpected swot shape", zap.Error(err))
	}
	evaluation.SWOTAnalysis = swot.SWOTAnalysis

	return evaluation, nil
}

// GeneratePlatforms asks for learning platforms tailored to the role.
func (s *AIService) GeneratePlatforms(ctx context.Context, req models.PlatformsRequest) (json.RawMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid platforms payload")
	}

	prompt := fmt.Sprintf(`You are tasked with recommending online learning platforms tailored to specific industries and roles.
Based on the input:
- Industry: %s
- Role: %s
- Level: %s
- Subscription Preference: %s (either "free" or "paid")
Provide a list of platforms offering courses, tutorials, certifications, or learning content tailored to the given role,
prioritizing materials specific to the skills the role requires. Limit the list to %d platforms.
Respond only in the following JSON array format:
["<platform #1>", "<platform #2>", "<platform #3>"]`,
		req.Industry, req.Role, req.Level, req.Subscription, s.limits.Platforms)

	return s.complete(ctx, prompt, 500)
}

// GenerateLearningPath asks for a personalized weekly study plan.
func (s *AIService) GenerateLearningPath(ctx context.Context, req models.LearningPathRequest) (json.RawMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid learning path payload")
	}

	prompt := fmt.Sprintf(`You are tasked with creating a personalized learning path for a user based on their details:
- Industry: %s
- Role: %s
- Score: %s
- SWOT Analysis: %s
- Skill Level: %s
- Time Available per Week: %d hours
- Duration: %d weeks
- Preferred Platforms: %s

Create a detailed learning path with up to %d recommendations. For each recommendation include the course, platform,
estimated duration in weeks, a completion milestone, and a weekly plan whose tasks fit within the user's available
time. Align recommendations with the areas of improvement identified in the SWOT analysis.

Return the response in the following JSON structure with no extra words:
{"learningPath": {"recommendations": [{"course": "...", "platform": "...", "duration": "X weeks", "milestone": "...", "weeklyPlan": [{"week": 1, "tasks": ["..."]}]}]}}`,
		req.Industry, req.Role, req.Score, string(req.SWOTAnalysis), req.SkillLevel,
		req.TimeAvailablePerWeek, req.DurationInWeeks, string(req.Platforms), s.limits.Recommendations)

	return s.complete(ctx, prompt, 1500)
}

func (s *AIService) swotPrompt(req models.EvaluateQuizRequest, advanced bool, correct, incorrect []string) string {
	correctJSON, _ := json.Marshal(correct)
	incorrectJSON, _ := json.Marshal(incorrect)

	context := fmt.Sprintf(`User's Performance:
- Correctly Answered Questions: %s
- Incorrectly Answered Questions: %s`, correctJSON, incorrectJSON)
	if advanced && len(req.LearningPath) > 0 {
		context = fmt.Sprintf(`The user has been focused on the following learning path: %s.
Analyze the user's performance in light of these learning areas.
%s`, string(req.LearningPath), context)
	}

	return fmt.Sprintf(`You are a professional quiz evaluator tasked with performing a SWOT analysis of the user's performance:
- Strengths: areas where the user consistently demonstrated proficiency.
- Weaknesses: topics or concepts the user struggled with.
- Opportunities: specific areas for improvement or further development.
- Threats: critical knowledge gaps that may hinder progress.

%s

Provide actionable insights to guide the user's continued learning journey.
Please return a response in the following JSON format, without any extra words such as greetings:
{"swotAnalysis": {"strengths": [], "weaknesses": [], "opportunities": [], "threats": []}}`, context)
}

// complete performs one chat completion and returns the cleaned JSON
// content of the first choice.
func (s *AIService) complete(ctx context.Context, prompt string, maxTokens int) (json.RawMessage, error) {
	payload, err := json.Marshal(chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		TopP:        0.95,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode completion request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build completion request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	s.metrics.ObserveUpstreamRequest(time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "model endpoint unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read model response")
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("model endpoint returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, appErrors.Clone(appErrors.ErrInternal, "model endpoint returned an error")
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode model response")
	}
	if len(parsed.Choices) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInternal, "model returned no choices")
	}

	content := stripFences(parsed.Choices[0].Message.Content)
	if !json.Valid([]byte(content)) {
		s.logger.Error("model returned non-JSON content", zap.String("content", content))
		return nil, appErrors.Clone(appErrors.ErrInternal, "model returned malformed content")
	}

	return json.RawMessage(content), nil
}

// stripFences removes markdown code fences the model wraps JSON in.
func stripFences(content string) string {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}
