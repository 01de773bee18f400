package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"algotracker/internal/api/middleware"
	"algotracker/internal/api/respond"
	"algotracker/internal/model"
	"algotracker/internal/pkg/apperr"
	"algotracker/internal/pkg/metrics"
	"algotracker/internal/store"

	"github.com/gin-gonic/gin"
)

// ProblemStore persists problems.
type ProblemStore interface {
	Create(ctx context.Context, p *model.Problem) error
	List(ctx context.Context, f store.ProblemFilter) ([]model.Problem, error)
	Get(ctx context.Context, id string) (*model.Problem, error)
	Update(ctx context.Context, id string, changes map[string]interface{}) error
	SoftDelete(ctx context.Context, id, deletedBy string) error
}

// Deduper suppresses repeated problem submissions.
type Deduper interface {
	Claim(ctx context.Context, link string) (bool, error)
	Release(ctx context.Context, link string) error
}

// createProblemRequest is the create payload.
type createProblemRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty" binding:"required"`
	Pattern     []string `json:"pattern" binding:"required,min=1"`
	Companies   []string `json:"companies"`
	Link        string   `json:"link" binding:"required"`
	Status      string   `json:"status"`
	Solution    string   `json:"solution"`
	Favourite   bool     `json:"favourite"`
}

// updateProblemRequest carries only the fields to change.
type updateProblemRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Difficulty  *string   `json:"difficulty"`
	Pattern     *[]string `json:"pattern"`
	Companies   *[]string `json:"companies"`
	Link        *string   `json:"link"`
	Status      *string   `json:"status"`
	Solution    *string   `json:"solution"`
	Favourite   *bool     `json:"favourite"`
}

func (s *Server) handleCreateProblem(c *gin.Context) {
	var req createProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "title, difficulty, pattern and link are required")
		return
	}
	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	if !model.ValidDifficulty(difficulty) {
		respond.BadRequest(c, "difficulty must be one of easy, medium, hard")
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = model.StatusNew
	}
	if !model.ValidStatus(status) {
		respond.BadRequest(c, "status must be one of new, attempting, attempted")
		return
	}
	pattern := cleanList(req.Pattern)
	if len(pattern) == 0 {
		respond.BadRequest(c, "at least one pattern is required")
		return
	}

	link := strings.TrimSpace(req.Link)
	dup, err := s.deduper.Claim(c.Request.Context(), link)
	if err != nil {
		s.logger.Error("dedup check failed", slog.String("error", err.Error()), slog.String("link", link))
	} else if dup {
		s.logger.Info("problem deduplicated", slog.String("link", link))
		metrics.ProblemDuplicatePreventedTotal.Inc()
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "skipped_duplicate"})
		return
	}

	accountID := middleware.AccountID(c)
	p := model.Problem{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Difficulty:  difficulty,
		Pattern:     pattern,
		Companies:   cleanList(req.Companies),
		Link:        link,
		Status:      status,
		Solution:    req.Solution,
		Favourite:   req.Favourite,
		CreatedBy:   accountID,
		UpdatedBy:   accountID,
	}
	if err := s.problems.Create(c.Request.Context(), &p); err != nil {
		if relErr := s.deduper.Release(c.Request.Context(), link); relErr != nil {
			s.logger.Warn("dedup release failed", slog.String("error", relErr.Error()))
		}
		respond.Error(c, s.logger, apperr.Transient("create problem failed", err))
		return
	}

	respond.OK(c, http.StatusCreated, "Problem created successfully", gin.H{"problem": p})
}

func (s *Server) handleListProblems(c *gin.Context) {
	fav, ok := respond.QueryBool(c, "favourite")
	if !ok {
		respond.BadRequest(c, "invalid favourite filter")
		return
	}
	filter := store.ProblemFilter{
		Difficulty: strings.ToLower(c.Query("difficulty")),
		Status:     strings.ToLower(c.Query("status")),
		Favourite:  fav,
	}
	if filter.Difficulty != "" && !model.ValidDifficulty(filter.Difficulty) {
		respond.BadRequest(c, "invalid difficulty filter")
		return
	}
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		respond.BadRequest(c, "invalid status filter")
		return
	}

	problems, err := s.problems.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, s.logger, apperr.Transient("list problems failed", err))
		return
	}
	if problems == nil {
		problems = []model.Problem{}
	}
	respond.OK(c, http.StatusOK, "", gin.H{"problems": problems, "count": len(problems)})
}

func (s *Server) handleGetProblem(c *gin.Context) {
	p, err := s.problems.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, s.logger, problemError(err, "get problem failed"))
		return
	}
	respond.OK(c, http.StatusOK, "", gin.H{"problem": p})
}

func (s *Server) handleUpdateProblem(c *gin.Context) {
	var req updateProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}

	changes := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respond.BadRequest(c, "title cannot be empty")
			return
		}
		changes["title"] = title
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Difficulty != nil {
		d := strings.ToLower(strings.TrimSpace(*req.Difficulty))
		if !model.ValidDifficulty(d) {
			respond.BadRequest(c, "difficulty must be one of easy, medium, hard")
			return
		}
		changes["difficulty"] = d
	}
	if req.Pattern != nil {
		pattern := cleanList(*req.Pattern)
		if len(pattern) == 0 {
			respond.BadRequest(c, "at least one pattern is required")
			return
		}
		changes["pattern"] = model.StringList(pattern)
	}
	if req.Companies != nil {
		changes["companies"] = model.StringList(cleanList(*req.Companies))
	}
	if req.Link != nil {
		link := strings.TrimSpace(*req.Link)
		if link == "" {
			respond.BadRequest(c, "link cannot be empty")
			return
		}
		changes["link"] = link
	}
	if req.Status != nil {
		st := strings.ToLower(strings.TrimSpace(*req.Status))
		if !model.ValidStatus(st) {
			respond.BadRequest(c, "status must be one of new, attempting, attempted")
			return
		}
		changes["status"] = st
	}
	if req.Solution != nil {
		changes["solution"] = *req.Solution
	}
	if req.Favourite != nil {
		changes["favourite"] = *req.Favourite
	}
	if len(changes) == 0 {
		respond.BadRequest(c, "no fields to update")
		return
	}
	changes["updated_by"] = middleware.AccountID(c)

	id := c.Param("id")
	if err := s.problems.Update(c.Request.Context(), id, changes); err != nil {
		respond.Error(c, s.logger, problemError(err, "update problem failed"))
		return
	}
	p, err := s.problems.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, s.logger, problemError(err, "get problem failed"))
		return
	}
	respond.OK(c, http.StatusOK, "Problem updated successfully", gin.H{"problem": p})
}

func (s *Server) handleDeleteProblem(c *gin.Context) {
	id := c.Param("id")
	p, err := s.problems.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, s.logger, problemError(err, "get problem failed"))
		return
	}
	if err := s.problems.SoftDelete(c.Request.Context(), id, middleware.AccountID(c)); err != nil {
		respond.Error(c, s.logger, problemError(err, "delete problem failed"))
		return
	}
	if err := s.deduper.Release(c.Request.Context(), p.Link); err != nil {
		s.logger.Warn("dedup release failed", slog.String("error", err.Error()), slog.String("link", p.Link))
	}
	respond.OK(c, http.StatusOK, "Problem deleted successfully", gin.H{"deleted": id})
}

func problemError(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Problem not found")
	}
	return apperr.Transient(msg, err)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
