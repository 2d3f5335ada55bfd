package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/apierr"
	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
)

type FlashcardHandler struct {
	flashcards FlashcardService
}

func NewFlashcardHandler(flashcards FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcards: flashcards}
}

type stateView struct {
	IntervalDays   int       `json:"interval_days"`
	EasinessFactor float64   `json:"easiness_factor"`
	NextReviewAt   string    `json:"next_review_at"`
	MasteryLevel   srs.Level `json:"mastery_level"`
	CorrectCount   int       `json:"correct_count"`
	IncorrectCount int       `json:"incorrect_count"`
}

type cardView struct {
	Item  entities.StudyItem `json:"item"`
	State *stateView         `json:"state,omitempty"` // nil for new cards
}

func newStateView(s *entities.ReviewState) *stateView {
	return &stateView{
		IntervalDays:   s.IntervalDays,
		EasinessFactor: s.EasinessFactor,
		NextReviewAt:   s.NextReviewAt.Format(time.DateOnly),
		MasteryLevel:   s.MasteryLevel,
		CorrectCount:   s.CorrectCount,
		IncorrectCount: s.IncorrectCount,
	}
}

// GET /flashcards/due?kind=&limit=
func (h *FlashcardHandler) Due(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}

	cards, err := h.flashcards.DueCards(c.Request.Context(), middleware.UserID(c), entities.ItemKind(c.Query("kind")), limit)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	out := make([]cardView, 0, len(cards))
	for _, p := range cards {
		v := cardView{Item: p.Item}
		if p.State != nil {
			v.State = newStateView(p.State)
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"cards": out})
}

type reviewRequest struct {
	ItemID       int64 `json:"item_id" binding:"required"`
	Known        *bool `json:"known"`
	Quality      *int  `json:"quality"`
	FlagMastered bool  `json:"flag_mastered"`
}

// POST /flashcards/review
// body: { "item_id": 1, "known": true } or { "item_id": 1, "quality": 0..5 }
func (h *FlashcardHandler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	res, err := h.flashcards.Review(c.Request.Context(), entities.ReviewEvent{
		UserID:       middleware.UserID(c),
		ItemID:       req.ItemID,
		Known:        req.Known,
		Quality:      req.Quality,
		FlagMastered: req.FlagMastered,
	})
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": res})
}
