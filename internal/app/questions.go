package app

import (
	"context"
	"errors"
	"log"

	"trivia-quiz/internal/domain"
)

// DefaultQuestionCount is the number of questions per quiz.
const DefaultQuestionCount = 5

var errEmptyFetch = errors.New("question source returned no questions")

// QuestionFetcher is the external question source (e.g. Open Trivia DB).
type QuestionFetcher interface {
	Fetch(ctx context.Context, req domain.FetchRequest) domain.FetchResult
}

// QuestionProvider turns a fetch result into a usable question sequence,
// substituting the fallback set whenever the fetch fails.
type QuestionProvider struct {
	fetcher QuestionFetcher
}

func NewQuestionProvider(fetcher QuestionFetcher) *QuestionProvider {
	return &QuestionProvider{fetcher: fetcher}
}

// Questions always returns a non-empty sequence.
func (p *QuestionProvider) Questions(ctx context.Context, req domain.FetchRequest) []domain.Question {
	if p.fetcher == nil {
		log.Printf("questions: source=fallback reason=no fetcher configured")
		return FallbackQuestions()
	}
	result := p.fetcher.Fetch(ctx, req)
	if result.OK() {
		log.Printf("questions: source=opentdb count=%d", len(result.Questions))
		return result.Questions
	}
	err := result.Err
	if err == nil {
		err = errEmptyFetch
	}
	log.Printf("questions: source=fallback reason=%v", err)
	return FallbackQuestions()
}

type fallbackQuestion struct {
	prompt     string
	correct    string
	incorrect  []string
	category   string
	difficulty string
}

var fallbackSet = []fallbackQuestion{
	{"What is the capital of France?", "Paris", []string{"Berlin", "Madrid", "Rome"}, "Geography", "easy"},
	{"Which planet is known as the Red Planet?", "Mars", []string{"Venus", "Jupiter", "Saturn"}, "Science", "easy"},
	{"Who painted the Mona Lisa?", "Leonardo da Vinci", []string{"Pablo Picasso", "Vincent van Gogh", "Michelangelo"}, "Art", "medium"},
	{"What is the largest mammal in the world?", "Blue Whale", []string{"Elephant", "Giraffe", "Hippopotamus"}, "Science", "easy"},
	{"Which year did World War II end?", "1945", []string{"1943", "1944", "1946"}, "History", "medium"},
}

// FallbackQuestions returns a fresh copy of the locally authored question set.
func FallbackQuestions() []domain.Question {
	questions := make([]domain.Question, 0, len(fallbackSet))
	for _, q := range fallbackSet {
		questions = append(questions, domain.Question{
			Prompt:        q.prompt,
			CorrectAnswer: q.correct,
			Options:       domain.ShuffleOptions(q.correct, q.incorrect),
			Category:      q.category,
			Difficulty:    q.difficulty,
		})
	}
	return questions
}
