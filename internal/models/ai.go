package models

import "encoding/json"

// JobRolesRequest asks for in-demand roles within an industry.
type JobRolesRequest struct {
	Industry string `json:"industry" validate:"required"`
}

// SkillsetRequest asks for the skills behind a role at a level.
type SkillsetRequest struct {
	Industry string `json:"industry" validate:"required"`
	Role     string `json:"role" validate:"required"`
	Level    string `json:"level" validate:"required"`
}

// QuizRequest asks for a multiple-choice quiz. LearningPath is only set
// for the advanced variant.
type QuizRequest struct {
	Industry     string          `json:"industry" validate:"required"`
	Role         string          `json:"role" validate:"required"`
	Level        string          `json:"level" validate:"required"`
	Skillset     json.RawMessage `json:"skillset" validate:"required"`
	LearningPath json.RawMessage `json:"learningPath,omitempty"`
}

// QuizItem is one generated multiple-choice question.
type QuizItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// EvaluateQuizRequest scores a completed quiz.
type EvaluateQuizRequest struct {
	UserAnswers  []string        `json:"userAnswers" validate:"required"`
	QuizData     []QuizItem      `json:"quizData" validate:"required,min=1"`
	LearningPath json.RawMessage `json:"learningPath,omitempty"`
}

// QuizFeedback is the per-question outcome of an evaluation.
type QuizFeedback struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	UserAnswer    string   `json:"userAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
	Feedback      string   `json:"feedback"`
}

// SWOTAnalysis is the model-produced performance breakdown.
type SWOTAnalysis struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// QuizEvaluation combines local scoring with the SWOT analysis.
type QuizEvaluation struct {
	TotalQuestions int            `json:"totalQuestions"`
	Score          string         `json:"score"`
	Feedback       []QuizFeedback `json:"feedback"`
	SWOTAnalysis   SWOTAnalysis   `json:"swotAnalysis"`
}

// PlatformsRequest asks for learning platform recommendations.
type PlatformsRequest struct {
	Industry     string `json:"industry" validate:"required"`
	Role         string `json:"role" validate:"required"`
	Level        string `json:"level" validate:"required"`
	Subscription string `json:"subscription" validate:"required,oneof=free paid"`
}

// LearningPathRequest asks for a personalized study plan.
type LearningPathRequest struct {
	Score                string          `json:"score" validate:"required"`
	Industry             string          `json:"industry" validate:"required"`
	Role                 string          `json:"role" validate:"required"`
	SWOTAnalysis         json.RawMessage `json:"swotAnalysis" validate:"required"`
	Platforms            json.RawMessage `json:"platforms" validate:"required"`
	SkillLevel           string          `json:"skillLevel" validate:"required"`
	TimeAvailablePerWeek int             `json:"timeAvailablePerWeek" validate:"required,min=1"`
	DurationInWeeks      int             `json:"durationInWeeks" validate:"required,min=1"`
}

// WeeklyPlan is one week of a learning-path recommendation.
type WeeklyPlan struct {
	Week  int      `json:"week"`
	Tasks []string `json:"tasks"`
}

// Recommendation is a single course suggestion within a learning path.
type Recommendation struct {
	Course     string       `json:"course"`
	Platform   string       `json:"platform"`
	Duration   string       `json:"duration"`
	Milestone  string       `json:"milestone"`
	WeeklyPlan []WeeklyPlan `json:"weeklyPlan"`
}

// LearningPath is the structured study plan returned by the model and
// accepted by the PDF exporter.
type LearningPath struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// LearningPathDocument is the envelope the model responds with.
type LearningPathDocument struct {
	LearningPath LearningPath `json:"learningPath"`
}
