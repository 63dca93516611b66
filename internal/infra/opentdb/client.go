package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trivia-quiz/internal/domain"
)

// DefaultBaseURL is the public Open Trivia Database endpoint.
const DefaultBaseURL = "https://opentdb.com"

// Client talks to the Open Trivia Database.
//
//	GET {base}/api.php?amount=N&type=multiple&encode=url3986[&category=C][&difficulty=D]
//	GET {base}/api_category.php
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type questionsResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []rawQuestion `json:"results"`
}

type rawQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type categoriesResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// Fetch loads multiple-choice questions. Any transport, HTTP or API-level
// failure is reported through the result, wrapped in domain.ErrUpstream.
func (c *Client) Fetch(ctx context.Context, req domain.FetchRequest) domain.FetchResult {
	amount := req.Amount
	if amount <= 0 {
		amount = 5
	}
	params := url.Values{}
	params.Set("amount", strconv.Itoa(amount))
	params.Set("type", "multiple")
	params.Set("encode", "url3986")
	if req.Category != "" {
		params.Set("category", req.Category)
	}
	if req.Difficulty != "" {
		params.Set("difficulty", req.Difficulty)
	}

	var body questionsResponse
	if err := c.getJSON(ctx, "/api.php?"+params.Encode(), &body); err != nil {
		return domain.FetchFailed(err)
	}
	if body.ResponseCode != 0 {
		return domain.FetchFailed(fmt.Errorf("%w: response_code=%d", domain.ErrUpstream, body.ResponseCode))
	}
	if len(body.Results) == 0 {
		return domain.FetchFailed(fmt.Errorf("%w: empty result set", domain.ErrUpstream))
	}

	questions := make([]domain.Question, 0, len(body.Results))
	for _, raw := range body.Results {
		q, err := decodeQuestion(raw)
		if err != nil {
			return domain.FetchFailed(fmt.Errorf("%w: %v", domain.ErrUpstream, err))
		}
		questions = append(questions, q)
	}
	return domain.Fetched(questions)
}

// Categories lists the available categories. An empty list counts as a failure.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var body categoriesResponse
	if err := c.getJSON(ctx, "/api_category.php", &body); err != nil {
		return nil, err
	}
	if len(body.TriviaCategories) == 0 {
		return nil, fmt.Errorf("%w: empty category list", domain.ErrUpstream)
	}
	return body.TriviaCategories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: http status %d", domain.ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode body: %v", domain.ErrUpstream, err)
	}
	return nil
}

func decodeQuestion(raw rawQuestion) (domain.Question, error) {
	prompt, err := unescape(raw.Question)
	if err != nil {
		return domain.Question{}, err
	}
	correct, err := unescape(raw.CorrectAnswer)
	if err != nil {
		return domain.Question{}, err
	}
	incorrect := make([]string, 0, len(raw.IncorrectAnswers))
	for _, ans := range raw.IncorrectAnswers {
		decoded, err := unescape(ans)
		if err != nil {
			return domain.Question{}, err
		}
		incorrect = append(incorrect, decoded)
	}
	category, err := unescape(raw.Category)
	if err != nil {
		return domain.Question{}, err
	}
	difficulty, err := unescape(raw.Difficulty)
	if err != nil {
		return domain.Question{}, err
	}

	return domain.Question{
		Prompt:        prompt,
		CorrectAnswer: correct,
		Options:       domain.ShuffleOptions(correct, incorrect),
		Category:      category,
		Difficulty:    difficulty,
	}, nil
}

// unescape reverses url3986 encoding. PathUnescape keeps a literal '+' intact.
func unescape(s string) (string, error) {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("decode %q: %w", s, err)
	}
	return decoded, nil
}
