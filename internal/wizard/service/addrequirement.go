package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/refdata"
	"breachnotice/internal/wizard/reconcile"
	"breachnotice/internal/wizard/validate"
	dErrors "breachnotice/pkg/domain-errors"
)

// The add-requirement template submits a rejection reason dropdown per
// requirement, keyed by the remote requirement id in the field name.
const rejectionReasonPrefix = "rejectionReason_"

// AddRequirementView is the state for the add-requirement page: every
// supervision requirement on the sentence, annotated with whether it is
// linked to the contact being edited.
type AddRequirementView struct {
	Document        *models.BreachNotice
	Decision        access.Decision
	ContactID       int64
	Requirements    []models.CheckItem
	Degraded        bool
	DegradedMessage string
	Errors          validate.Errors
}

// AddRequirementInput is the parsed add-requirement form submission.
type AddRequirementInput struct {
	Action         string
	ContactID      int64
	RequirementIDs []string
	Form           url.Values
}

// LoadAddRequirement builds the GET view for one contact.
func (s *Service) LoadAddRequirement(ctx context.Context, id uuid.UUID, username string, contactID int64) (*AddRequirementView, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, err
	}
	view := &AddRequirementView{Document: doc, Decision: decision, ContactID: contactID}
	if decision.Stop() {
		return view, nil
	}
	if err := s.requireContact(ctx, doc.ID, contactID); err != nil {
		return nil, err
	}

	remote, err := s.gateway.GetRequirements(ctx, doc.CRN, doc.ID)
	if err != nil {
		if refdata.IsTransient(err) {
			s.noteGatewayFailure(ctx, "requirements", err)
			view.Degraded = true
			view.DegradedMessage = DegradedMessage
			return view, nil
		}
		return nil, classifyGateway(err)
	}

	linked, err := s.linkedRequirements(ctx, doc.ID, contactID)
	if err != nil {
		return nil, err
	}
	view.Requirements = reconcile.MergeRequirements(remote.Requirements, linked, remote.RejectionReasons)
	return view, nil
}

// SaveAddRequirement reconciles the requirement selection for one contact:
// the contact's links are replaced wholesale with the submitted set, missing
// requirement records are created, and records no link references anymore are
// pruned from the document.
func (s *Service) SaveAddRequirement(ctx context.Context, id uuid.UUID, username string, input AddRequirementInput) (*AddRequirementView, *SaveOutcome, error) {
	if input.Action == ActionCancel {
		return nil, &SaveOutcome{Navigation: Navigation{Kind: NavCancel, Step: models.StepWarningDetails}}, nil
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, nil, err
	}
	view := &AddRequirementView{Document: doc, Decision: decision, ContactID: input.ContactID}
	if decision.Stop() {
		return view, &SaveOutcome{}, nil
	}
	if err := s.requireContact(ctx, doc.ID, input.ContactID); err != nil {
		return nil, nil, err
	}

	remote, err := s.gateway.GetRequirements(ctx, doc.CRN, doc.ID)
	if err != nil {
		if refdata.IsTransient(err) {
			s.noteGatewayFailure(ctx, "requirements", err)
			view.Degraded = true
			view.DegradedMessage = DegradedMessage
			return view, &SaveOutcome{}, nil
		}
		return nil, nil, classifyGateway(err)
	}

	remoteByID := make(map[int64]refdata.SupervisionRequirement, len(remote.Requirements))
	for _, r := range remote.Requirements {
		remoteByID[r.ID] = r
	}

	var errs validate.Errors
	submittedIDs, parseErr := reconcile.ParseRemoteIDs(input.RequirementIDs)
	if parseErr != nil {
		errs.Add("requirementsBeingEnforced", "has an invalid requirement id")
	}
	for _, rid := range submittedIDs {
		if _, ok := remoteByID[rid]; !ok {
			errs.Add("requirementsBeingEnforced", "is not a requirement on this sentence")
			break
		}
	}
	reasons := parseRejectionReasons(input.Form, &errs)

	if errs.Has() {
		s.metrics.IncrementValidationFailure("add-requirement")
		linked, lerr := s.linkedRequirements(ctx, doc.ID, input.ContactID)
		if lerr != nil {
			return nil, nil, lerr
		}
		view.Requirements = reconcile.MergeRequirements(remote.Requirements, linked, remote.RejectionReasons)
		view.Errors = errs
		return view, &SaveOutcome{Errors: errs}, nil
	}

	saved, err := s.store.ListRequirements(ctx, doc.ID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list saved requirements")
	}
	savedByRemote := make(map[int64]*models.Requirement, len(saved))
	for _, r := range saved {
		savedByRemote[r.RemoteID] = r
	}

	for _, rid := range submittedIDs {
		rr := remoteByID[rid]
		existing, ok := savedByRemote[rid]
		if !ok {
			req, err := models.NewRequirement(doc.ID, rid, rr.TypeDescription)
			if err != nil {
				return nil, nil, err
			}
			req.TypeCode = rr.TypeCode
			req.SubTypeCode = rr.SubTypeCode
			req.SubTypeDescription = rr.SubTypeDescription
			req.RejectionReason = reasons[rid]
			if err := s.store.CreateRequirement(ctx, req); err != nil {
				return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create requirement")
			}
			savedByRemote[rid] = req
			continue
		}
		if reason, submitted := reasons[rid]; submitted && existing.RejectionReason != reason {
			existing.RejectionReason = reason
			if err := s.store.UpdateRequirement(ctx, existing); err != nil {
				return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update requirement")
			}
		}
	}

	// Replace this contact's links wholesale with the submitted set.
	if _, err := s.store.BatchDeleteLinks(ctx, doc.ID, []int64{input.ContactID}); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to clear requirement links")
	}
	links := make([]*models.ContactRequirementLink, 0, len(submittedIDs))
	for _, rid := range submittedIDs {
		link, err := models.NewContactRequirementLink(doc.ID, input.ContactID, rid)
		if err != nil {
			return nil, nil, err
		}
		links = append(links, link)
	}
	if applied, err := s.store.BatchCreateLinks(ctx, links); err != nil {
		s.logger.ErrorContext(ctx, "requirement link batch failed partway",
			"document_id", doc.ID,
			"applied", applied,
			"total", len(links),
			"error", err.Error(),
		)
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to link requirements")
	}

	if err := s.pruneUnlinkedRequirements(ctx, doc.ID, savedByRemote); err != nil {
		return nil, nil, err
	}

	return view, &SaveOutcome{Navigation: Navigation{Kind: NavNext, Step: models.StepWarningDetails}}, nil
}

// requireContact verifies the contact being edited is cited on the document.
func (s *Service) requireContact(ctx context.Context, documentID uuid.UUID, contactID int64) error {
	contacts, err := s.store.ListContacts(ctx, documentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list saved contacts")
	}
	for _, c := range contacts {
		if c.RemoteID == contactID {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeBadRequest, "contact is not cited on this notice")
}

// linkedRequirements returns the requirement records linked to one contact.
func (s *Service) linkedRequirements(ctx context.Context, documentID uuid.UUID, contactID int64) ([]*models.Requirement, error) {
	links, err := s.store.ListLinks(ctx, documentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list requirement links")
	}
	wanted := make(map[int64]bool)
	for _, l := range links {
		if l.RemoteContactID == contactID {
			wanted[l.RemoteRequirementID] = true
		}
	}
	saved, err := s.store.ListRequirements(ctx, documentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list saved requirements")
	}
	linked := make([]*models.Requirement, 0, len(wanted))
	for _, r := range saved {
		if wanted[r.RemoteID] {
			linked = append(linked, r)
		}
	}
	return linked, nil
}

// pruneUnlinkedRequirements deletes requirement records no link references.
func (s *Service) pruneUnlinkedRequirements(ctx context.Context, documentID uuid.UUID, savedByRemote map[int64]*models.Requirement) error {
	links, err := s.store.ListLinks(ctx, documentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list requirement links")
	}
	referenced := make(map[int64]bool, len(links))
	for _, l := range links {
		referenced[l.RemoteRequirementID] = true
	}
	for rid := range savedByRemote {
		if referenced[rid] {
			continue
		}
		if err := s.store.DeleteRequirement(ctx, documentID, rid); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to prune requirement")
		}
	}
	return nil
}

func parseRejectionReasons(form url.Values, errs *validate.Errors) map[int64]string {
	reasons := make(map[int64]string)
	for name, values := range form {
		suffix, ok := strings.CutPrefix(name, rejectionReasonPrefix)
		if !ok || len(values) == 0 {
			continue
		}
		id, err := reconcile.ParseRemoteID(suffix)
		if err != nil {
			errs.Add(name, "has an invalid requirement id")
			continue
		}
		if values[0] != reconcile.PleaseSelect {
			reasons[id] = values[0]
		}
	}
	return reasons
}
