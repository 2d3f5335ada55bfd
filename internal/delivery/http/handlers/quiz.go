package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/apierr"
	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/service"
)

type QuizHandler struct {
	quizzes QuizService
}

func NewQuizHandler(quizzes QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

type sessionView struct {
	*entities.QuizSession
	Score float64 `json:"score"`
}

func viewSession(s *entities.QuizSession) *sessionView {
	if s == nil {
		return nil
	}
	return &sessionView{QuizSession: s, Score: s.Score()}
}

// POST /quizzes
// body: { "mode": "new" | "review" | "mixed", "kind": "vocabulary", "length": 10 }, all optional
func (h *QuizHandler) Start(c *gin.Context) {
	var req service.StartQuizRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.BadRequest(c, err)
			return
		}
	}

	view, err := h.quizzes.Start(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": viewSession(view.Session), "question": view.Question})
}

// GET /quizzes/:id
func (h *QuizHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}

	view, err := h.quizzes.Current(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": viewSession(view.Session), "question": view.Question})
}

// POST /quizzes/:id/answer
// body: { "selected_index": 2 } or { "answer": "あいまい" }
func (h *QuizHandler) Answer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	var req service.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	res, err := h.quizzes.Answer(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"correct":        res.Correct,
		"correct_answer": res.CorrectAnswer,
		"correct_index":  res.CorrectIndex,
		"review":         res.Review,
		"session":        viewSession(res.Session),
		"next":           res.Next,
	})
}

// GET /quizzes?limit=
func (h *QuizHandler) History(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}

	sessions, err := h.quizzes.History(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	out := make([]*sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, viewSession(s))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}
