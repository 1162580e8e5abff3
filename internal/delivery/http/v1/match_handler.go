package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-training-marketplace/internal/delivery/http/response"
	"go-training-marketplace/internal/domain"
	"go-training-marketplace/pkg/apperror"
)

type MatchHandler struct {
	matchUC  domain.MatchUsecase
	previewK int
}

func NewMatchHandler(rg *gin.RouterGroup, matchUC domain.MatchUsecase, previewK int) {
	handler := &MatchHandler{matchUC: matchUC, previewK: previewK}

	rg.POST("/match", handler.Match)

	sessions := rg.Group("/match/sessions")
	{
		sessions.POST("", handler.OpenSession)
		sessions.PUT("/:id/requirement", handler.UpdateRequirement)
		sessions.GET("/:id/results", handler.Poll)
		sessions.DELETE("/:id", handler.CloseSession)
	}
}

// RequirementRequest carries the editable requirement fields. Enum fields
// arrive as free strings and are parsed case-insensitively; the server
// never trusts caller-supplied shapes.
type RequirementRequest struct {
	Sector            string   `json:"sector"`
	TrainingType      string   `json:"training_type"`
	PreferredLanguage string   `json:"preferred_language"`
	Format            string   `json:"format"`
	ExperienceLevel   string   `json:"experience_level"`
	Urgency           string   `json:"urgency"`
	TeamSize          *int     `json:"team_size"`
	BudgetPerHour     *float64 `json:"budget_per_hour"`
}

func (r RequirementRequest) toDomain() (domain.Requirement, error) {
	req := domain.Requirement{
		Sector:        r.Sector,
		TrainingType:  r.TrainingType,
		TeamSize:      r.TeamSize,
		BudgetPerHour: r.BudgetPerHour,
	}

	if r.PreferredLanguage != "" {
		lang, err := domain.ParseLanguage(r.PreferredLanguage)
		if err != nil {
			return req, apperror.BadRequest("Preferred language must be one of: english, arabic, bilingual")
		}
		req.PreferredLanguage = &lang
	}
	if r.Format != "" {
		format, err := domain.ParseFormat(r.Format)
		if err != nil {
			return req, apperror.BadRequest("Delivery format must be one of: online, in_person, hybrid")
		}
		req.Format = &format
	}
	if r.ExperienceLevel != "" {
		level, err := domain.ParseExperienceLevel(r.ExperienceLevel)
		if err != nil {
			return req, apperror.BadRequest("Experience level must be one of: entry, junior, intermediate, senior, expert")
		}
		req.ExperienceLevel = &level
	}
	if r.Urgency != "" {
		urgency, err := domain.ParseUrgency(r.Urgency)
		if err != nil {
			return req, apperror.BadRequest("Urgency must be one of: flexible, soon, immediate")
		}
		req.Urgency = &urgency
	}

	return req, nil
}

type MatchRequest struct {
	RequirementRequest
	K *int `json:"k"`
}

// Match godoc
// @Summary      Match professionals to a requirement
// @Description  Score and rank available professionals for a training requirement
// @Tags         matching
// @Accept       json
// @Produce      json
// @Param        requirement  body      MatchRequest  true  "Requirement JSON"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /match [post]
func (h *MatchHandler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	requirement, err := req.toDomain()
	if err != nil {
		c.Error(err)
		return
	}

	k := h.previewK
	if req.K != nil {
		k = *req.K
	}

	result, err := h.matchUC.Match(c, requirement, k)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Match results", result)
}

// OpenSession godoc
// @Summary      Open a real-time match session
// @Description  Start a session that recomputes matches as the requirement is edited
// @Tags         matching
// @Accept       json
// @Produce      json
// @Param        requirement  body      RequirementRequest  true  "Initial requirement JSON"
// @Success      201  {object}  response.Response
// @Router       /match/sessions [post]
func (h *MatchHandler) OpenSession(c *gin.Context) {
	var req RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	requirement, err := req.toDomain()
	if err != nil {
		c.Error(err)
		return
	}

	snap, err := h.matchUC.OpenSession(c, requirement)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Match session opened", snap)
}

// UpdateRequirement godoc
// @Summary      Update a session's requirement
// @Description  Replace the requirement; recomputation triggers only on fingerprint change
// @Tags         matching
// @Accept       json
// @Produce      json
// @Param        id           path      string              true  "Session ID"
// @Param        requirement  body      RequirementRequest  true  "Requirement JSON"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /match/sessions/{id}/requirement [put]
func (h *MatchHandler) UpdateRequirement(c *gin.Context) {
	var req RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	requirement, err := req.toDomain()
	if err != nil {
		c.Error(err)
		return
	}

	snap, err := h.matchUC.UpdateRequirement(c, c.Param("id"), requirement)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Requirement updated", snap)
}

// Poll godoc
// @Summary      Poll session results
// @Description  Return the session's current state and ranked results
// @Tags         matching
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /match/sessions/{id}/results [get]
func (h *MatchHandler) Poll(c *gin.Context) {
	snap, err := h.matchUC.Poll(c, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Session results", snap)
}

// CloseSession godoc
// @Summary      Close a match session
// @Description  Abandon the session and cancel in-flight computation
// @Tags         matching
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /match/sessions/{id} [delete]
func (h *MatchHandler) CloseSession(c *gin.Context) {
	if err := h.matchUC.CloseSession(c, c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Match session closed", nil)
}
