package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

// SessionCookie names the cookie that carries the visitor's session id.
const SessionCookie = "quiz_session"

const nameRequiredMessage = "Please enter your name to start the quiz!"

// WebHandler serves the HTML quiz flow.
type WebHandler struct {
	service      *app.QuizService
	categories   *app.CategoryCatalog
	views        *renderer
	cookieSecure bool
}

func NewWebHandler(service *app.QuizService, categories *app.CategoryCatalog, cookieSecure bool) (*WebHandler, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &WebHandler{
		service:      service,
		categories:   categories,
		views:        views,
		cookieSecure: cookieSecure,
	}, nil
}

type quizFormData struct {
	Message    string
	Username   string
	Categories []domain.Category
}

type categoriesPayload struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// Register mounts the quiz routes on the router.
func (h *WebHandler) Register(r *mux.Router) {
	r.HandleFunc("/", h.Home).Methods(http.MethodGet)
	r.HandleFunc("/quiz", h.QuizForm).Methods(http.MethodGet)
	r.HandleFunc("/quiz", h.StartQuiz).Methods(http.MethodPost)
	r.HandleFunc("/question", h.Question).Methods(http.MethodGet)
	r.HandleFunc("/question", h.Answer).Methods(http.MethodPost)
	r.HandleFunc("/result", h.Result).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", h.Leaderboard).Methods(http.MethodGet)
	r.HandleFunc("/api/categories", h.Categories).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
}

func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, http.StatusOK, pageHome, nil)
}

// QuizForm shows the start form, or resumes a quiz already under way.
func (h *WebHandler) QuizForm(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	switch state {
	case app.StateInProgress:
		http.Redirect(w, r, "/question", http.StatusSeeOther)
		return
	case app.StateCompleted:
		http.Redirect(w, r, "/result", http.StatusSeeOther)
		return
	}
	h.views.render(w, http.StatusOK, pageQuiz, quizFormData{Categories: h.categories.List(r.Context())})
}

func (h *WebHandler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	fresh := id == ""
	if fresh {
		id = uuid.NewString()
	}

	_, err := h.service.Start(r.Context(), id, app.StartRequest{
		Username:   r.PostFormValue("username"),
		Category:   r.PostFormValue("category"),
		Difficulty: r.PostFormValue("difficulty"),
	})
	if errors.Is(err, domain.ErrNameRequired) {
		h.views.render(w, http.StatusBadRequest, pageQuiz, quizFormData{
			Message:    nameRequiredMessage,
			Categories: h.categories.List(r.Context()),
		})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if fresh {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, "/question", http.StatusSeeOther)
}

func (h *WebHandler) Question(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CurrentQuestion(r.Context(), sessionID(r))
	switch {
	case errors.Is(err, domain.ErrNoActiveQuiz):
		http.Redirect(w, r, "/quiz", http.StatusSeeOther)
	case errors.Is(err, domain.ErrQuizCompleted):
		http.Redirect(w, r, "/result", http.StatusSeeOther)
	case err != nil:
		h.fail(w, r, err)
	default:
		h.views.render(w, http.StatusOK, pageQuestion, view)
	}
}

func (h *WebHandler) Answer(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.SubmitAnswer(r.Context(), sessionID(r), r.PostFormValue("answer"))
	switch {
	case errors.Is(err, domain.ErrNoActiveQuiz):
		http.Redirect(w, r, "/quiz", http.StatusSeeOther)
	case errors.Is(err, domain.ErrQuizCompleted):
		http.Redirect(w, r, "/result", http.StatusSeeOther)
	case err != nil:
		h.fail(w, r, err)
	case outcome.Completed:
		http.Redirect(w, r, "/result", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/question", http.StatusSeeOther)
	}
}

// Result finalizes a completed quiz. Anything short of completion goes back to the start.
func (h *WebHandler) Result(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Finalize(r.Context(), sessionID(r))
	switch {
	case errors.Is(err, domain.ErrNoActiveQuiz), errors.Is(err, domain.ErrQuizInProgress):
		http.Redirect(w, r, "/quiz", http.StatusSeeOther)
	case err != nil:
		h.fail(w, r, err)
	default:
		h.views.render(w, http.StatusOK, pageResult, result)
	}
}

func (h *WebHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.views.render(w, http.StatusOK, pageLeaderboard, lb)
}

func (h *WebHandler) Categories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(categoriesPayload{TriviaCategories: h.categories.List(r.Context())}); err != nil {
		log.Printf("categories: encode: %v", err)
	}
}

func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, http.StatusNotFound, pageNotFound, nil)
}

// ServerError renders the generic error page.
func (h *WebHandler) ServerError(w http.ResponseWriter, _ *http.Request) {
	h.views.render(w, http.StatusInternalServerError, pageServerError, nil)
}

func (h *WebHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	h.ServerError(w, r)
}

func sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}
