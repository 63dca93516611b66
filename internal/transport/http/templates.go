package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageHome        = "home.html"
	pageQuiz        = "quiz.html"
	pageQuestion    = "question.html"
	pageResult      = "result.html"
	pageLeaderboard = "leaderboard.html"
	pageNotFound    = "404.html"
	pageServerError = "500.html"
)

var pages = []string{pageHome, pageQuiz, pageQuestion, pageResult, pageLeaderboard, pageNotFound, pageServerError}

// renderer holds one template set per page, each layered on base.html.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// render buffers the page so a template failure never leaves a partial response.
func (r *renderer) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := r.pages[page]
	if !ok {
		log.Printf("render: unknown page %s", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		log.Printf("render %s: %v", page, err)
		if page != pageServerError {
			r.render(w, http.StatusInternalServerError, pageServerError, nil)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
