package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"marketplace/internal/auth"
	"marketplace/internal/logger"
	"marketplace/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type Service interface {
	Register(ctx context.Context, username, password, role string) (models.User, error)
	Login(ctx context.Context, username, password string) (models.User, error)
	CurrentUser(ctx context.Context, ident models.Identity) (models.User, error)
	Contractors(ctx context.Context) ([]models.User, error)

	CreateJob(ctx context.Context, ident models.Identity, req models.NewJob) (models.Job, error)
	ClientJobs(ctx context.Context, ident models.Identity) ([]models.ClientJob, error)
	AcceptBid(ctx context.Context, ident models.Identity, jobId, bidId int64) (models.Job, error)
	ReviewJob(ctx context.Context, ident models.Identity, jobId int64, decision models.JobStatus, message string) (models.Job, error)

	OpenJobs(ctx context.Context, ident models.Identity) ([]models.OpenJob, error)
	ContractorJobs(ctx context.Context, ident models.Identity) ([]models.ContractorJob, error)
	Invitations(ctx context.Context, ident models.Identity) ([]models.Job, error)
	SubmitBid(ctx context.Context, ident models.Identity, jobId int64, req models.NewBid) (models.Bid, error)
	AcceptInvitation(ctx context.Context, ident models.Identity, jobId int64) (models.Job, error)
	DeclineInvitation(ctx context.Context, ident models.Identity, jobId int64) (models.Job, error)
	UploadDeliverable(ctx context.Context, ident models.Identity, jobId int64, upload models.Upload) (models.ResultFile, error)

	JobDetail(ctx context.Context, ident models.Identity, jobId int64) (models.JobDetail, error)
	History(ctx context.Context, ident models.Identity) ([]models.JobEvent, error)
}

type Sessions interface {
	Issue(w http.ResponseWriter, ident models.Identity) error
	Clear(w http.ResponseWriter)
}

type Controller struct {
	service   Service
	sessions  Sessions
	maxUpload int64
	log       *logrus.Entry
}

func NewController(service Service, sessions Sessions, maxUpload int64) *Controller {
	return &Controller{
		service:   service,
		sessions:  sessions,
		maxUpload: maxUpload,
		log:       logger.NewSublogger("controller"),
	}
}

// GET /api/ping
func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

//// Users

// POST /api/register
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	if !c.parseForm(w, r) {
		return
	}

	user, err := c.service.Register(r.Context(), strings.TrimSpace(r.FormValue("username")), r.FormValue("password"), r.FormValue("role"))
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.Header().Set("Location", "/api/login")
	c.marshalResponseStatus(w, http.StatusCreated, user)
}

// POST /api/login
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	if !c.parseForm(w, r) {
		return
	}

	user, err := c.service.Login(r.Context(), strings.TrimSpace(r.FormValue("username")), r.FormValue("password"))
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	err = c.sessions.Issue(w, user.Identity())
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, user.Identity())
}

// POST /api/logout
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	c.sessions.Clear(w)
	c.marshalResponse(w, StatusResponse{Status: "logged out"})
}

// GET /api/me
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}

	user, err := c.service.CurrentUser(r.Context(), ident)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, user)
}

// GET /api/contractors
func (c *Controller) Contractors(w http.ResponseWriter, r *http.Request) {
	users, err := c.service.Contractors(r.Context())
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, users)
}

//// Client actions

// POST /api/jobs
func (c *Controller) CreateJob(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok || !c.parseForm(w, r) {
		return
	}

	req, err := ParseNewJobReq(r.Form)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := c.service.CreateJob(r.Context(), ident, req)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.Header().Set("Location", jobLocation(job.Id))
	c.marshalResponseStatus(w, http.StatusCreated, job)
}

// GET /api/client/jobs
func (c *Controller) ClientJobs(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}

	jobs, err := c.service.ClientJobs(r.Context(), ident)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, jobs)
}

// POST /api/jobs/{jobId}/bids/{bidId}/accept
func (c *Controller) AcceptBid(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok {
		return
	}
	bidId, ok := c.pathId(w, r, "bidId")
	if !ok {
		return
	}

	job, err := c.service.AcceptBid(r.Context(), ident, jobId, bidId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.Header().Set("Location", jobLocation(job.Id))
	c.marshalResponse(w, job)
}

// POST /api/jobs/{jobId}/review
func (c *Controller) ReviewJob(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok || !c.parseForm(w, r) {
		return
	}

	decision, message, err := ParseReviewReq(r.Form)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := c.service.ReviewJob(r.Context(), ident, jobId, decision, message)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.Header().Set("Location", jobLocation(job.Id))
	c.marshalResponse(w, job)
}

//// Contractor actions

// GET /api/contractor/jobs
func (c *Controller) OpenJobs(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}

	jobs, err := c.service.OpenJobs(r.Context(), ident)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, jobs)
}

// GET /api/contractor/my-jobs
func (c *Controller) ContractorJobs(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}

	jobs, err := c.service.ContractorJobs(r.Context(), ident)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, jobs)
}

// GET /api/contractor/invitations
func (c *Controller) Invitations(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}

	jobs, err := c.service.Invitations(r.Context(), ident)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, jobs)
}

// POST /api/jobs/{jobId}/bids
func (c *Controller) SubmitBid(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok || !c.parseForm(w, r) {
		return
	}

	req, err := ParseBidReq(r.Form)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	upload, closeFile, err := c.formFile(r, "proposal_file")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	defer closeFile()
	req.Proposal = upload

	bid, err := c.service.SubmitBid(r.Context(), ident, jobId, req)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.Header().Set("Location", jobLocation(jobId))
	c.marshalResponse(w, bid)
}

// POST /api/jobs/{jobId}/invitation/accept
func (c *Controller) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	c.answerInvitation(w, r, c.service.AcceptInvitation)
}

// POST /api/jobs/{jobId}/invitation/decline
func (c *Controller) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	c.answerInvitation(w, r, c.service.DeclineInvitation)
}

func (c *Controller) answerInvitation(w http.ResponseWriter, r *http.Request, answer func(context.Context, models.Identity, int64) (models.Job, error)) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok {
		return
	}

	job, err := answer(r.Context(), ident, jobId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.Header().Set("Location", jobLocation(job.Id))
	c.marshalResponse(w, job)
}

// POST /api/jobs/{jobId}/deliverables
func (c *Controller) UploadDeliverable(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok || !c.parseForm(w, r) {
		return
	}

	upload, closeFile, err := c.formFile(r, "report_file")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	defer closeFile()
	if upload == nil {
		c.errorResponse(w, http.StatusBadRequest, "field 'report_file' is required")
		return
	}

	file, err := c.service.UploadDeliverable(r.Context(), ident, jobId, *upload)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	w.Header().Set("Location", jobLocation(jobId))
	c.marshalResponseStatus(w, http.StatusCreated, file)
}

//// Shared

// GET /api/jobs/{jobId}
func (c *Controller) JobDetail(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}
	jobId, ok := c.pathId(w, r, "jobId")
	if !ok {
		return
	}

	detail, err := c.service.JobDetail(r.Context(), ident, jobId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, detail)
}

// GET /api/history
func (c *Controller) History(w http.ResponseWriter, r *http.Request) {
	ident, ok := c.identity(w, r)
	if !ok {
		return
	}

	events, err := c.service.History(r.Context(), ident)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, events)
}

//// Service

func jobLocation(id int64) string {
	return "/api/jobs/" + strconv.FormatInt(id, 10)
}

func (c *Controller) identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		c.errorResponse(w, http.StatusUnauthorized, "login required")
	}
	return ident, ok
}

func (c *Controller) pathId(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	s := chi.URLParam(r, key)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		c.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid value of '%s': %s", key, s))
		return 0, false
	}
	return id, true
}

// parseForm accepts both urlencoded and multipart bodies.
func (c *Controller) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUpload)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(c.maxUpload)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.errorResponse(w, http.StatusRequestEntityTooLarge, "request body is too large")
			return false
		}
		c.errorResponse(w, http.StatusBadRequest, "could not parse form: "+err.Error())
		return false
	}
	return true
}

// formFile returns nil when the field was not sent.
func (c *Controller) formFile(r *http.Request, key string) (*models.Upload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}

	file, header, err := r.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, fmt.Errorf("could not read '%s': %w", key, err)
	}
	if header.Filename == "" {
		file.Close()
		return nil, func() {}, nil
	}

	return &models.Upload{Filename: header.Filename, Content: file}, closer(file), nil
}

func closer(f multipart.File) func() {
	return func() { f.Close() }
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	data, err := json.Marshal(models.ErrorResponse{Reason: text})
	if err != nil {
		c.log.WithError(err).Error("Could not marshal error response")
		return
	}

	_, err = w.Write(data)
	if err != nil {
		c.log.WithError(err).Error("Could not write error response")
		return
	}
}

func (c *Controller) serviceErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotActionable):
		c.errorResponse(w, http.StatusForbidden, models.Reason(err))
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrStateConflict):
		c.errorResponse(w, http.StatusBadRequest, models.Reason(err))
	case errors.Is(err, models.ErrNotFound):
		c.errorResponse(w, http.StatusNotFound, models.Reason(err))
	case errors.Is(err, models.ErrAccessDenied):
		c.errorResponse(w, http.StatusForbidden, models.Reason(err))
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrBadCredentials):
		c.errorResponse(w, http.StatusUnauthorized, models.Reason(err))
	default:
		c.log.WithError(err).Error("Request failed")
		c.errorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

func (c *Controller) marshalResponse(w http.ResponseWriter, data any) {
	c.marshalResponseStatus(w, http.StatusOK, data)
}

func (c *Controller) marshalResponseStatus(w http.ResponseWriter, status int, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(d)
	if err != nil {
		c.log.WithError(err).Error("Could not write response data")
	}
}
