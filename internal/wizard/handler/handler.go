// Package handler exposes the wizard over HTTP. Each step is a GET that
// renders the reconciled view and a POST that validates, persists, and
// redirects per the navigation decision.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/render"
	"breachnotice/internal/wizard/reconcile"
	"breachnotice/internal/wizard/service"
	dErrors "breachnotice/pkg/domain-errors"
	"breachnotice/pkg/requestcontext"
)

// Service is the wizard orchestration contract the handler depends on.
type Service interface {
	LoadBasicDetails(ctx context.Context, id uuid.UUID, username string) (*service.BasicDetailsView, error)
	SaveBasicDetails(ctx context.Context, id uuid.UUID, username string, input service.BasicDetailsInput) (*service.BasicDetailsView, *service.SaveOutcome, error)

	LoadWarningType(ctx context.Context, id uuid.UUID, username string) (*service.WarningTypeView, error)
	SaveWarningType(ctx context.Context, id uuid.UUID, username string, input service.WarningTypeInput) (*service.WarningTypeView, *service.SaveOutcome, error)

	LoadWarningDetails(ctx context.Context, id uuid.UUID, username string) (*service.WarningDetailsView, error)
	SaveWarningDetails(ctx context.Context, id uuid.UUID, username string, input service.WarningDetailsInput) (*service.WarningDetailsView, *service.SaveOutcome, error)

	LoadNextAppointment(ctx context.Context, id uuid.UUID, username string) (*service.NextAppointmentView, error)
	SaveNextAppointment(ctx context.Context, id uuid.UUID, username string, input service.NextAppointmentInput) (*service.NextAppointmentView, *service.SaveOutcome, error)

	LoadCheckYourReport(ctx context.Context, id uuid.UUID, username string) (*service.CheckYourReportView, error)
	Publish(ctx context.Context, id uuid.UUID, username string) (*service.CheckYourReportView, *service.SaveOutcome, error)

	LoadConfirmDelete(ctx context.Context, id uuid.UUID, username string) (*service.ConfirmDeleteView, error)
	DeleteNotice(ctx context.Context, id uuid.UUID, username, action string) (*service.ConfirmDeleteView, *service.SaveOutcome, error)

	LoadAddRequirement(ctx context.Context, id uuid.UUID, username string, contactID int64) (*service.AddRequirementView, error)
	SaveAddRequirement(ctx context.Context, id uuid.UUID, username string, input service.AddRequirementInput) (*service.AddRequirementView, *service.SaveOutcome, error)

	LoadTerminal(ctx context.Context, id uuid.UUID, username string) (*service.TerminalView, error)
}

// Handler serves the wizard routes.
type Handler struct {
	service    Service
	renderer   render.Renderer
	logger     *slog.Logger
	signOutURL string
}

// NewHandler constructs the wizard handler.
func NewHandler(svc Service, renderer render.Renderer, logger *slog.Logger, signOutURL string) *Handler {
	return &Handler{service: svc, renderer: renderer, logger: logger, signOutURL: signOutURL}
}

// Register mounts the wizard routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/basic-details/{id}", func(r chi.Router) {
		r.Get("/", h.getBasicDetails)
		r.Post("/", h.postBasicDetails)
	})
	r.Route("/warning-type/{id}", func(r chi.Router) {
		r.Get("/", h.getWarningType)
		r.Post("/", h.postWarningType)
	})
	r.Route("/warning-details/{id}", func(r chi.Router) {
		r.Get("/", h.getWarningDetails)
		r.Post("/", h.postWarningDetails)
	})
	r.Route("/next-appointment/{id}", func(r chi.Router) {
		r.Get("/", h.getNextAppointment)
		r.Post("/", h.postNextAppointment)
	})
	r.Route("/check-your-report/{id}", func(r chi.Router) {
		r.Get("/", h.getCheckYourReport)
		r.Post("/", h.postCheckYourReport)
	})
	r.Route("/confirm-delete/{id}", func(r chi.Router) {
		r.Get("/", h.getConfirmDelete)
		r.Post("/", h.postConfirmDelete)
	})
	r.Route("/add-requirement/{id}", func(r chi.Router) {
		r.Get("/", h.getAddRequirement)
		r.Post("/", h.postAddRequirement)
	})
	r.Get("/report-completed/{id}", h.getReportCompleted)
	r.Get("/report-deleted/{id}", h.getReportDeleted)
	r.Get("/pdf/{id}", h.getPDF)
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the document id in the address is not valid")
		return uuid.Nil, false
	}
	return id, true
}

// fail maps a classified service error onto the response taxonomy: auth
// failures sign the user out, actionable problems get the detailed error
// page, everything else gets the generic one.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnauthorized:
		http.Redirect(w, r, h.signOutURL, http.StatusFound)
	case dErrors.CodeNotFound:
		h.renderer.ErrorPage(w, http.StatusNotFound, render.PageDetailedError, err.Error())
	case dErrors.CodeBadRequest:
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, err.Error())
	case dErrors.CodeUnavailable:
		h.logger.ErrorContext(r.Context(), "dependency unavailable", "error", err.Error())
		h.renderer.ErrorPage(w, http.StatusServiceUnavailable, render.PageGenericError, "the service is temporarily unavailable")
	default:
		h.logger.ErrorContext(r.Context(), "unhandled error", "error", err.Error())
		h.renderer.ErrorPage(w, http.StatusInternalServerError, render.PageGenericError, "something went wrong")
	}
}

// stopped handles a gate decision that halts the step. Returns true when the
// response has been written.
func (h *Handler) stopped(w http.ResponseWriter, r *http.Request, id uuid.UUID, decision access.Decision) bool {
	switch decision.Outcome {
	case access.OutcomeRestricted:
		h.renderer.Page(w, http.StatusOK, render.PageLimitedAccess, map[string]string{"message": decision.Message})
		return true
	case access.OutcomeCompleted:
		http.Redirect(w, r, "/report-completed/"+id.String(), http.StatusFound)
		return true
	case access.OutcomeDeleted:
		http.Redirect(w, r, "/report-deleted/"+id.String(), http.StatusFound)
		return true
	}
	return false
}

// navigate acts on a step's routing decision.
func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, id uuid.UUID, nav service.Navigation) {
	if nav.Kind == service.NavClose {
		h.renderer.Page(w, http.StatusOK, render.PageCloseWindow, nil)
		return
	}
	step := nav.Step
	if !step.IsValid() {
		step = models.StepCheckYourReport
	}
	http.Redirect(w, r, "/"+string(step)+"/"+id.String(), http.StatusFound)
}

func (h *Handler) getBasicDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	view, err := h.service.LoadBasicDetails(r.Context(), id, requestcontext.Username(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.stopped(w, r, id, view.Decision) {
		return
	}
	h.renderer.Page(w, http.StatusOK, string(models.StepBasicDetails), view)
}

func (h *Handler) postBasicDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the submitted form could not be read")
		return
	}
	input := service.BasicDetailsInput{
		Action:          r.PostFormValue("action"),
		ReturnTo:        r.URL.Query().Get("returnTo"),
		DateOfLetter:    r.PostFormValue("dateOfLetter"),
		OfficeReference: r.PostFormValue("officeReference"),
		PostalAddressID: r.PostFormValue("offenderAddressSelectOne"),
		ReplyAddressID:  r.PostFormValue("replyAddressSelectOne"),
	}
	view, outcome, err := h.service.SaveBasicDetails(r.Context(), id, requestcontext.Username(r.Context()), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view != nil && h.stopped(w, r, id, view.Decision) {
		return
	}
	if outcome.Errors.Has() || (view != nil && view.Degraded) {
		h.renderer.Page(w, statusForRerender(outcome), string(models.StepBasicDetails), view)
		return
	}
	h.navigate(w, r, id, outcome.Navigation)
}

func (h *Handler) getWarningType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	view, err := h.service.LoadWarningType(r.Context(), id, requestcontext.Username(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.stopped(w, r, id, view.Decision) {
		return
	}
	h.renderer.Page(w, http.StatusOK, string(models.StepWarningType), view)
}

func (h *Handler) postWarningType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the submitted form could not be read")
		return
	}
	input := service.WarningTypeInput{
		Action:               r.PostFormValue("action"),
		ReturnTo:             r.URL.Query().Get("returnTo"),
		WarningType:          r.PostFormValue("warningType"),
		SentenceType:         r.PostFormValue("sentenceType"),
		ResponseRequiredDate: r.PostFormValue("responseRequiredByDate"),
	}
	view, outcome, err := h.service.SaveWarningType(r.Context(), id, requestcontext.Username(r.Context()), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view != nil && h.stopped(w, r, id, view.Decision) {
		return
	}
	if outcome.Errors.Has() || (view != nil && view.Degraded) {
		h.renderer.Page(w, statusForRerender(outcome), string(models.StepWarningType), view)
		return
	}
	h.navigate(w, r, id, outcome.Navigation)
}

func (h *Handler) getWarningDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	view, err := h.service.LoadWarningDetails(r.Context(), id, requestcontext.Username(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.stopped(w, r, id, view.Decision) {
		return
	}
	h.renderer.Page(w, http.StatusOK, string(models.StepWarningDetails), view)
}

func (h *Handler) postWarningDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the submitted form could not be read")
		return
	}
	input := service.WarningDetailsInput{
		Action:                 r.PostFormValue("action"),
		ReturnTo:               r.URL.Query().Get("returnTo"),
		FailuresBeingEnforced:  r.PostForm["failuresBeingEnforced"],
		ConditionBeingEnforced: r.PostFormValue("conditionBeingEnforced"),
		FurtherReasonDetails:   r.PostFormValue("furtherReasonDetails"),
		Form:                   r.PostForm,
	}
	view, outcome, err := h.service.SaveWarningDetails(r.Context(), id, requestcontext.Username(r.Context()), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view != nil && h.stopped(w, r, id, view.Decision) {
		return
	}
	if outcome.Errors.Has() || (view != nil && view.Degraded) {
		h.renderer.Page(w, statusForRerender(outcome), string(models.StepWarningDetails), view)
		return
	}
	h.navigate(w, r, id, outcome.Navigation)
}

func (h *Handler) getNextAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	view, err := h.service.LoadNextAppointment(r.Context(), id, requestcontext.Username(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.stopped(w, r, id, view.Decision) {
		return
	}
	h.renderer.Page(w, http.StatusOK, string(models.StepNextAppointment), view)
}

func (h *Handler) postNextAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the submitted form could not be read")
		return
	}
	input := service.NextAppointmentInput{
		Action:          r.PostFormValue("action"),
		ReturnTo:        r.URL.Query().Get("returnTo"),
		AppointmentType: r.PostFormValue("appointmentType"),
		Location:        r.PostFormValue("appointmentLocation"),
		AppointmentDate: r.PostFormValue("appointmentDate"),
		OfficerName:     r.PostFormValue("officerName"),
		ContactNumber:   r.PostFormValue("contactNumber"),
	}
	view, outcome, err := h.service.SaveNextAppointment(r.Context(), id, requestcontext.Username(r.Context()), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view != nil && h.stopped(w, r, id, view.Decision) {
		return
	}
	if outcome.Errors.Has() {
		h.renderer.Page(w, statusForRerender(outcome), string(models.StepNextAppointment), view)
		return
	}
	h.navigate(w, r, id, outcome.Navigation)
}

func (h *Handler) getCheckYourReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	view, err := h.service.LoadCheckYourReport(r.Context(), id, requestcontext.Username(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.stopped(w, r, id, view.Decision) {
		return
	}
	h.renderer.Page(w, http.StatusOK, string(models.StepCheckYourReport), view)
}

func (h *Handler) postCheckYourReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	view, outcome, err := h.service.Publish(r.Context(), id, requestcontext.Username(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view != nil && h.stopped(w, r, id, view.Decision) {
		return
	}
	if outcome.Errors.Has() {
		h.renderer.Page(w, statusForRerender(outcome), string(models.StepCheckYourReport), view)
		return
	}
	http.Redirect(w, r, "/report-completed/"+id.String(), http.StatusFound)
}

func (h *Handler) getConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	view, err := h.service.LoadConfirmDelete(r.Context(), id, requestcontext.Username(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.stopped(w, r, id, view.Decision) {
		return
	}
	h.renderer.Page(w, http.StatusOK, "confirm-delete", view)
}

func (h *Handler) postConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the submitted form could not be read")
		return
	}
	view, outcome, err := h.service.DeleteNotice(r.Context(), id, requestcontext.Username(r.Context()), r.PostFormValue("action"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view != nil && h.stopped(w, r, id, view.Decision) {
		return
	}
	if outcome.Navigation.Kind == service.NavCancel {
		h.navigate(w, r, id, outcome.Navigation)
		return
	}
	http.Redirect(w, r, "/report-deleted/"+id.String(), http.StatusFound)
}

func (h *Handler) getAddRequirement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	contactID, err := reconcile.ParseRemoteID(r.URL.Query().Get("contactId"))
	if err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the contact id in the address is not valid")
		return
	}
	view, err := h.service.LoadAddRequirement(r.Context(), id, requestcontext.Username(r.Context()), contactID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.stopped(w, r, id, view.Decision) {
		return
	}
	h.renderer.Page(w, http.StatusOK, "add-requirement", view)
}

func (h *Handler) postAddRequirement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the submitted form could not be read")
		return
	}
	contactID, err := reconcile.ParseRemoteID(r.PostFormValue("contactId"))
	if err != nil {
		h.renderer.ErrorPage(w, http.StatusBadRequest, render.PageDetailedError, "the contact id in the form is not valid")
		return
	}
	input := service.AddRequirementInput{
		Action:         r.PostFormValue("action"),
		ContactID:      contactID,
		RequirementIDs: r.PostForm["requirementsBeingEnforced"],
		Form:           r.PostForm,
	}
	view, outcome, err := h.service.SaveAddRequirement(r.Context(), id, requestcontext.Username(r.Context()), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view != nil && h.stopped(w, r, id, view.Decision) {
		return
	}
	if outcome.Errors.Has() || (view != nil && view.Degraded) {
		h.renderer.Page(w, statusForRerender(outcome), "add-requirement", view)
		return
	}
	h.navigate(w, r, id, outcome.Navigation)
}

func (h *Handler) getReportCompleted(w http.ResponseWriter, r *http.Request) {
	h.terminalPage(w, r, "report-completed")
}

func (h *Handler) getReportDeleted(w http.ResponseWriter, r *http.Request) {
	h.terminalPage(w, r, "report-deleted")
}

func (h *Handler) terminalPage(w http.ResponseWriter, r *http.Request, page string) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	view, err := h.service.LoadTerminal(r.Context(), id, requestcontext.Username(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view.Restricted {
		h.renderer.Page(w, http.StatusOK, render.PageLimitedAccess, map[string]string{"message": view.Message})
		return
	}
	h.renderer.Page(w, http.StatusOK, page, view)
}

// getPDF is a stub; document rendering is owned by a separate service.
func (h *Handler) getPDF(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.documentID(w, r); !ok {
		return
	}
	h.renderer.ErrorPage(w, http.StatusNotImplemented, render.PageGenericError, "document rendering is not available from this service")
}

// statusForRerender keeps validation re-renders distinguishable from clean
// page loads; degraded re-renders stay 200 because the user can continue.
func statusForRerender(outcome *service.SaveOutcome) int {
	if outcome.Errors.Has() {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}
