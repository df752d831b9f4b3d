package helpdesk

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/allears/helpdesk/pkg/hd/config"
	"github.com/allears/helpdesk/pkg/hd/logger"
	"github.com/allears/helpdesk/pkg/hd/middleware"
	hdrender "github.com/allears/helpdesk/pkg/hd/render"
	"github.com/allears/helpdesk/pkg/hd/validation"
	"github.com/google/uuid"
)

const (
	// multipartMemory is held in memory before multipart parts spill to temp files.
	multipartMemory = 8 << 20
	// maxSubmitBody bounds the whole request: two files plus the text fields.
	maxSubmitBody = MaxAttachments*MaxAttachmentSize + 1<<20
	maxStateBody  = 64 << 10
)

// Handler serves the intake form, the submission endpoint and the gate API.
type Handler struct {
	service     Service
	validator   *Validator
	templatesFS fs.FS
	cfg         *config.Config
	log         logger.Logger
	limiter     *rateLimiter
}

// NewHandler creates a new helpdesk handler.
func NewHandler(service Service, templatesFS fs.FS, cfg *config.Config, log logger.Logger) *Handler {
	return &Handler{
		service:     service,
		validator:   NewValidator(),
		templatesFS: templatesFS,
		cfg:         cfg,
		log:         log,
		limiter:     newRateLimiter(cfg.Limits.Max(), cfg.Limits.Window()),
	}
}

// Start initializes the helpdesk handler.
func (h *Handler) Start(ctx context.Context) error {
	h.log.Infof("Helpdesk handler started (submit limit %d per %s)", h.limiter.limit, h.limiter.window)
	return nil
}

// RegisterRoutes registers the helpdesk routes on the main router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	h.log.Info("Registering helpdesk routes")

	r.Get("/", h.HandleIndex)
	r.Get("/success/{id}", h.HandleSuccess)
	r.Get("/healthz", h.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(h.corsMiddleware())
		r.Options("/submit", noContent)
		r.With(h.rateLimitMiddleware).Post("/submit", h.HandleSubmit)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.corsMiddleware())
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/guidance", h.HandleGuidance)
		r.Options("/form-state", noContent)
		r.Post("/form-state", h.HandleFormState)
	})
}

func noContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

type pageData struct {
	Title                string
	SupportEmail         string
	Roles                []Role
	Issues               []Issue
	MinDescriptionLength int
	MaxDescriptionLength int
	MaxAttachments       int
	MaxFileSizeMB        int
	Projection           Projection
	Submission           *Submission
	Message              string
	Errors               validation.ValidationErrors
}

func (h *Handler) newPageData(title string) pageData {
	return pageData{
		Title:                title,
		SupportEmail:         h.cfg.Mail.SupportEmail,
		Roles:                Roles,
		Issues:               Issues,
		MinDescriptionLength: MinDescriptionLength,
		MaxDescriptionLength: MaxDescriptionLength,
		MaxAttachments:       MaxAttachments,
		MaxFileSizeMB:        MaxAttachmentSize >> 20,
	}
}

// HandleIndex renders the intake form in its initial state.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := h.newPageData("AllEars Helpdesk")
	data.Projection = Project(StateEmpty, FormState{}, NoAction())
	h.renderPage(w, r, http.StatusOK, "index", data)
}

type submitResponse struct {
	Success bool                        `json:"success"`
	ID      string                      `json:"id,omitempty"`
	Message string                      `json:"message,omitempty"`
	Errors  validation.ValidationErrors `json:"errors,omitempty"`
}

// HandleSubmit validates, persists and notifies one ticket.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondMessage(w, r, http.StatusRequestEntityTooLarge, "Upload is too large. Each file may be at most 5MB.")
			return
		}
		h.log.Debugf("Cannot parse submission: %v", err)
		h.respondMessage(w, r, http.StatusBadRequest, "Invalid form data.")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in := InputFromRequest(r)
	if errs := h.validator.Validate(&in); errs.HasErrors() {
		h.respondValidation(w, r, errs)
		return
	}

	files, err := ReadAttachments(r.MultipartForm)
	if err != nil {
		var uploadErr *UploadError
		if !errors.As(err, &uploadErr) {
			h.respondMessage(w, r, http.StatusBadRequest, "The attached file could not be read.")
			return
		}
		status := http.StatusBadRequest
		if errors.Is(err, ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.log.Infof("Rejected upload: %v", err)
		h.respondValidationStatus(w, r, status, validation.NewSingleError(uploadErr.Field, uploadErr.Message()))
		return
	}

	meta := RequestMeta{
		Address:   middleware.GetClientAddress(r.Context()),
		UserAgent: r.UserAgent(),
	}
	if meta.Address == "" {
		meta.Address = middleware.ExtractIP(r, h.cfg.Server.TrustedProxies)
	}

	sub, err := h.service.Submit(r.Context(), in, files, meta)
	if err != nil {
		h.log.Errorf("Cannot save submission: %v", err)
		h.respondMessage(w, r, http.StatusInternalServerError,
			"Failed to submit ticket. Please try again or email "+h.cfg.Mail.SupportEmail+".")
		return
	}

	if middleware.WantsJSON(r) {
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, submitResponse{Success: true, ID: sub.ID.String()})
		return
	}
	http.Redirect(w, r, "/success/"+sub.ID.String(), http.StatusSeeOther)
}

// HandleSuccess renders the confirmation page from the stored record.
func (h *Handler) HandleSuccess(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderNotFound(w, r)
		return
	}

	sub, err := h.service.GetSubmission(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		h.renderNotFound(w, r)
		return
	}
	if err != nil {
		h.log.Errorf("Cannot load submission %s: %v", id, err)
		h.respondMessage(w, r, http.StatusInternalServerError, "The ticket could not be loaded.")
		return
	}

	data := h.newPageData("Ticket submitted")
	data.Submission = sub
	h.renderPage(w, r, http.StatusOK, "success", data)
}

// HandleGuidance returns the guidance for a role and issue pair.
func (h *Handler) HandleGuidance(w http.ResponseWriter, r *http.Request) {
	var errs validation.ValidationErrors
	role, ok := ParseRole(r.URL.Query().Get("role"))
	if !ok {
		errs.Add("role", "is not a known role")
	}
	issue, ok := ParseIssue(r.URL.Query().Get("issue"))
	if !ok {
		errs.Add("issue", "is not a known issue category")
	}
	if errs.HasErrors() {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, submitResponse{Errors: errs})
		return
	}

	render.JSON(w, r, GuidanceEntry{
		Role:   role,
		Issue:  issue,
		Action: h.service.Table().Lookup(role, issue),
	})
}

// HandleFormState evaluates a form snapshot through the step gate.
func (h *Handler) HandleFormState(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxStateBody)

	var form FormState
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, submitResponse{Message: "invalid form state"})
		return
	}

	var errs validation.ValidationErrors
	if form.Role != "" {
		role, ok := ParseRole(string(form.Role))
		if !ok {
			errs.Add("role", "is not a known role")
		}
		form.Role = role
	}
	if form.Issue != "" {
		issue, ok := ParseIssue(string(form.Issue))
		if !ok {
			errs.Add("issue", "is not a known issue category")
		}
		form.Issue = issue
	}
	if errs.HasErrors() {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, submitResponse{Errors: errs})
		return
	}

	render.JSON(w, r, Evaluate(h.service.Table(), form))
}

// HandleHealth reports liveness, including database reachability.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.log.Errorf("Health check failed: %v", err)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "unavailable"})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// --- Response helpers ---

func (h *Handler) respondValidation(w http.ResponseWriter, r *http.Request, errs validation.ValidationErrors) {
	h.respondValidationStatus(w, r, http.StatusBadRequest, errs)
}

func (h *Handler) respondValidationStatus(w http.ResponseWriter, r *http.Request, status int, errs validation.ValidationErrors) {
	const msg = "Please correct the highlighted fields."
	h.log.Infof("Rejected submission, invalid fields: %s", strings.Join(errs.Fields(), ", "))
	if middleware.WantsJSON(r) {
		render.Status(r, status)
		render.JSON(w, r, submitResponse{Message: msg, Errors: errs})
		return
	}
	data := h.newPageData("Please check your ticket")
	data.Message = msg
	data.Errors = errs
	h.renderPage(w, r, status, "error", data)
}

func (h *Handler) respondMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if middleware.WantsJSON(r) {
		render.Status(r, status)
		render.JSON(w, r, submitResponse{Message: msg})
		return
	}
	data := h.newPageData(http.StatusText(status))
	data.Message = msg
	h.renderPage(w, r, status, "error", data)
}

func (h *Handler) renderNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusNotFound, "not_found", h.newPageData("Ticket not found"))
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, templateName string, data pageData) {
	tmpl, err := template.New("").Funcs(hdrender.FuncMap()).ParseFS(h.templatesFS,
		"assets/templates/base.html",
		"assets/templates/"+templateName+".html",
	)
	if err != nil {
		h.log.Errorf("Template parse error for %s: %v", templateName, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		h.log.Errorf("Template execute error for %s: %v", templateName, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
