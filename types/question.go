package types

import "time"

// Question is a student-asked question attached to a module.
type Question struct {
	ID          int    `json:"id" db:"id"`
	StudentID   string `json:"studentId" db:"student_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	ModuleID    int    `json:"moduleId" db:"module_id"`
	Topic       string `json:"topic" db:"topic"`

	// Tags are free-form labels used for filtering and search.
	Tags []string `json:"tags" db:"tags"`

	// DifficultyLevel is one of Easy, Medium, Hard.
	DifficultyLevel string `json:"difficultyLevel" db:"difficulty_level"`

	// UrgencyLevel is Normal or Urgent.
	UrgencyLevel string `json:"urgencyLevel" db:"urgency_level"`

	Views        int  `json:"views" db:"views"`
	Upvotes      int  `json:"upvotes" db:"upvotes"`
	AnswersCount int  `json:"answersCount" db:"answers_count"`
	IsResolved   bool `json:"isResolved" db:"is_resolved"`

	// LastAnsweredAt is nil until the first answer arrives.
	LastAnsweredAt *time.Time `json:"lastAnsweredAt" db:"last_answered_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Answer is a helper's answer to a question.
type Answer struct {
	ID         int    `json:"id" db:"id"`
	QuestionID int    `json:"questionId" db:"question_id"`
	HelperID   string `json:"helperId" db:"helper_id"`
	Content    string `json:"content" db:"content"`

	// IsConceptBased and IsAssignmentSolution are integrity flags: answers
	// should explain concepts rather than hand over assignment solutions.
	IsConceptBased       bool `json:"isConceptBased" db:"is_concept_based"`
	IsAssignmentSolution bool `json:"isAssignmentSolution" db:"is_assignment_solution"`

	Upvotes      int `json:"upvotes" db:"upvotes"`
	Downvotes    int `json:"downvotes" db:"downvotes"`
	IsAccepted   bool `json:"isAccepted" db:"is_accepted"`
	HelpfulScore int `json:"helpfulScore" db:"helpful_score"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
