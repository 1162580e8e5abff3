package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-training-marketplace/internal/delivery/http/response"
	"go-training-marketplace/internal/domain"
	"go-training-marketplace/pkg/apperror"
)

type JobHandler struct {
	jobUC domain.JobUsecase
}

func NewJobHandler(rg *gin.RouterGroup, jobUC domain.JobUsecase) {
	handler := &JobHandler{jobUC: jobUC}

	jobs := rg.Group("/jobs")
	{
		jobs.GET("/open", handler.ListOpen)
		jobs.GET("/:id", handler.GetDetails)
		jobs.POST("", handler.Create)
		jobs.POST("/:id/transition", handler.Transition)
		jobs.POST("/:id/duplicate", handler.Duplicate)
		jobs.DELETE("/:id", handler.Delete)
	}
}

type CreateJobRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description" binding:"required"`
	Sector       string     `json:"sector" binding:"required"`
	TrainingType string     `json:"training_type" binding:"required"`
	Status       string     `json:"status" binding:"omitempty,oneof=draft open"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

type TransitionRequest struct {
	TargetStatus     string `json:"target_status" binding:"required"`
	ExpectedRevision int64  `json:"expected_revision" binding:"required,gte=1"`
}

type DeleteJobRequest struct {
	ExpectedRevision int64 `json:"expected_revision" binding:"required,gte=1"`
}

// companyID resolves the authenticated owner forwarded by the company CRUD
// collaborator. Authentication itself happens upstream.
func companyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-Company-ID"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(apperror.Unauthorized("Missing or invalid company identity"))
		return 0, false
	}
	return id, true
}

// Create godoc
// @Summary      Create a job posting
// @Description  Create a new training job posting (starts as draft or open)
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job  body      CreateJobRequest  true  "Job JSON"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	owner, ok := companyID(c)
	if !ok {
		return
	}

	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	status := domain.StatusOpen
	if req.Status != "" {
		status = domain.JobStatus(req.Status)
	}

	job := &domain.JobPosting{
		Title:        req.Title,
		Description:  req.Description,
		Sector:       req.Sector,
		TrainingType: req.TrainingType,
		Status:       status,
		ExpiresAt:    req.ExpiresAt,
	}

	if err := h.jobUC.CreateJob(c, owner, job); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Job created", job)
}

// ListOpen godoc
// @Summary      List open jobs
// @Description  Get live postings only; expired jobs are filtered at read time
// @Tags         jobs
// @Produce      json
// @Param        page       query     int  false  "Page number"
// @Param        page_size  query     int  false  "Page size"
// @Success      200        {object}  response.Response
// @Router       /jobs/open [get]
func (h *JobHandler) ListOpen(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	jobs, total, err := h.jobUC.ListOpenJobs(c, page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Open job list", gin.H{
		"jobs":      jobs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetDetails godoc
// @Summary      Get job details
// @Description  Get a posting with its effective (lazily expired) status
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.BadRequest("Invalid ID format"))
		return
	}

	job, err := h.jobUC.GetJob(c, id)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Job details", job)
}

// Transition godoc
// @Summary      Change job status
// @Description  Move a posting through the lifecycle state machine with an optimistic revision check
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id          path      int                true  "Job ID"
// @Param        transition  body      TransitionRequest  true  "Transition JSON"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /jobs/{id}/transition [post]
func (h *JobHandler) Transition(c *gin.Context) {
	owner, ok := companyID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.BadRequest("Invalid ID format"))
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	target, err := domain.ParseJobStatus(req.TargetStatus)
	if err != nil {
		c.Error(apperror.BadRequest("Unknown target status"))
		return
	}

	job, err := h.jobUC.Transition(c, owner, id, target, req.ExpectedRevision)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Job status updated", job)
}

// Duplicate godoc
// @Summary      Duplicate a job posting
// @Description  Derive a fresh open posting with copied content and a suffixed title
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      201  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id}/duplicate [post]
func (h *JobHandler) Duplicate(c *gin.Context) {
	owner, ok := companyID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.BadRequest("Invalid ID format"))
		return
	}

	job, err := h.jobUC.Duplicate(c, owner, id)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Job duplicated", job)
}

// Delete godoc
// @Summary      Archive a job posting
// @Description  Transition to deleted; applications are retained and the outcome reports whether any existed
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id      path      int               true  "Job ID"
// @Param        delete  body      DeleteJobRequest  true  "Delete JSON"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /jobs/{id} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	owner, ok := companyID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperror.BadRequest("Invalid ID format"))
		return
	}

	var req DeleteJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	outcome, err := h.jobUC.Delete(c, owner, id, req.ExpectedRevision)
	if err != nil {
		c.Error(err)
		return
	}

	message := "Job archived"
	if outcome.HadApplications {
		message = "Job archived; existing applications were kept"
	}
	response.Success(c, http.StatusOK, message, outcome)
}
