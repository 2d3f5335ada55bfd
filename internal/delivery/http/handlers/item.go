package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/apierr"
	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/service"
)

type ItemHandler struct {
	items      ItemService
	generation GenerationService
}

func NewItemHandler(items ItemService, generation GenerationService) *ItemHandler {
	return &ItemHandler{items: items, generation: generation}
}

type itemRequest struct {
	Kind       entities.ItemKind `json:"kind"`
	Expression string            `json:"expression"`
	Reading    string            `json:"reading"`
	Meaning    string            `json:"meaning"`
	Example    string            `json:"example"`
	JLPTLevel  int               `json:"jlpt_level"`
	Tags       []string          `json:"tags"`
}

func (r itemRequest) toItem() *entities.StudyItem {
	return &entities.StudyItem{
		Kind:       r.Kind,
		Expression: r.Expression,
		Reading:    r.Reading,
		Meaning:    r.Meaning,
		Example:    r.Example,
		JLPTLevel:  r.JLPTLevel,
		Tags:       r.Tags,
	}
}

// GET /items?kind=&tag=&q=&limit=&offset=
func (h *ItemHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}

	page, err := h.items.List(c.Request.Context(), middleware.UserID(c), entities.ItemFilter{
		Kind:   entities.ItemKind(c.Query("kind")),
		Tag:    c.Query("tag"),
		Search: c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}

	item, err := h.items.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// POST /items
func (h *ItemHandler) Create(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	item := req.toItem()
	if err := h.items.Create(c.Request.Context(), middleware.UserID(c), item); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	item := req.toItem()
	item.ID = id
	if err := h.items.Update(c.Request.Context(), middleware.UserID(c), item); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DELETE /items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	if err := h.items.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /items/:id/generate
// body: { "kind": "examples" | "questions", "count": 3 }
func (h *ItemHandler) Generate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	content, err := h.generation.Generate(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"content": content})
}

// GET /items/:id/generated
func (h *ItemHandler) ListGenerated(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}

	content, err := h.generation.List(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}
