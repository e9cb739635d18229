package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"breachnotice/internal/notice/models"
	"breachnotice/pkg/platform/sentinel"
)

// PostgresStore persists breach notices in PostgreSQL. This store is pure
// I/O—document state rules (publish, completeness, step flags) belong in the
// models and the wizard service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed document store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

const documentColumns = `
	id, crn, title_and_full_name, offender_address, reply_address,
	date_of_letter, office_reference,
	warning_type_code, warning_type_description,
	sentence_type_code, sentence_type_description, response_required_date,
	condition_being_enforced, further_reason_details, failure_summary,
	appointment_type, appointment_location, appointment_date_time,
	officer_name, contact_number,
	basic_details_saved, warning_type_saved, warning_details_saved,
	next_appointment_saved, completed_date, deleted_date
`

func scanDocument(row *sql.Row) (*models.BreachNotice, error) {
	var doc models.BreachNotice
	var offenderAddr, replyAddr sql.NullString
	err := row.Scan(
		&doc.ID, &doc.CRN, &doc.TitleAndFullName, &offenderAddr, &replyAddr,
		&doc.DateOfLetter, &doc.OfficeReference,
		&doc.WarningTypeCode, &doc.WarningTypeDescription,
		&doc.SentenceTypeCode, &doc.SentenceTypeDescription, &doc.ResponseRequiredDate,
		&doc.ConditionBeingEnforced, &doc.FurtherReasonDetails, &doc.FailureSummary,
		&doc.AppointmentType, &doc.AppointmentLocation, &doc.AppointmentDateTime,
		&doc.OfficerName, &doc.ContactNumber,
		&doc.BasicDetailsSaved, &doc.WarningTypeSaved, &doc.WarningDetailsSaved,
		&doc.NextAppointmentSaved, &doc.CompletedDate, &doc.DeletedDate,
	)
	if err != nil {
		return nil, err
	}
	if doc.OffenderAddress, err = decodeAddress(offenderAddr); err != nil {
		return nil, err
	}
	if doc.ReplyAddress, err = decodeAddress(replyAddr); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Seed inserts a document directly, mirroring the external creation that
// happens before the wizard is reached. Used by fixtures and tests.
func (s *PostgresStore) Seed(ctx context.Context, doc *models.BreachNotice) error {
	query := `
		INSERT INTO breach_notices (id, crn, completed_date, deleted_date)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, doc.ID, doc.CRN, doc.CompletedDate, doc.DeletedDate); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("seed document: %w", err)
	}
	if doc.TitleAndFullName != "" || doc.BasicDetailsSaved || doc.WarningTypeSaved ||
		doc.WarningDetailsSaved || doc.NextAppointmentSaved {
		return s.Update(ctx, doc)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.BreachNotice, error) {
	query := `SELECT ` + documentColumns + ` FROM breach_notices WHERE id = $1`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Update(ctx context.Context, doc *models.BreachNotice) error {
	offenderAddr, err := encodeAddress(doc.OffenderAddress)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	replyAddr, err := encodeAddress(doc.ReplyAddress)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	query := `
		UPDATE breach_notices SET
			title_and_full_name = $2, offender_address = $3, reply_address = $4,
			date_of_letter = $5, office_reference = $6,
			warning_type_code = $7, warning_type_description = $8,
			sentence_type_code = $9, sentence_type_description = $10,
			response_required_date = $11,
			condition_being_enforced = $12, further_reason_details = $13,
			failure_summary = $14,
			appointment_type = $15, appointment_location = $16,
			appointment_date_time = $17, officer_name = $18, contact_number = $19,
			basic_details_saved = $20, warning_type_saved = $21,
			warning_details_saved = $22, next_appointment_saved = $23,
			completed_date = $24, deleted_date = $25
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		doc.ID, doc.TitleAndFullName, offenderAddr, replyAddr,
		doc.DateOfLetter, doc.OfficeReference,
		doc.WarningTypeCode, doc.WarningTypeDescription,
		doc.SentenceTypeCode, doc.SentenceTypeDescription,
		doc.ResponseRequiredDate,
		doc.ConditionBeingEnforced, doc.FurtherReasonDetails, doc.FailureSummary,
		doc.AppointmentType, doc.AppointmentLocation,
		doc.AppointmentDateTime, doc.OfficerName, doc.ContactNumber,
		doc.BasicDetailsSaved, doc.WarningTypeSaved,
		doc.WarningDetailsSaved, doc.NextAppointmentSaved,
		doc.CompletedDate, doc.DeletedDate,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRowAffected(result, doc.ID)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM breach_notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRowAffected(result, id)
}

func (s *PostgresStore) ListContacts(ctx context.Context, documentID uuid.UUID) ([]*models.Contact, error) {
	query := `
		SELECT id, document_id, remote_id, contact_date_time, type_code,
		       type_description, outcome_description, failure_reason, whole_sentence
		FROM breach_notice_contacts
		WHERE document_id = $1
		ORDER BY remote_id
	`
	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.RemoteID, &c.ContactDateTime,
			&c.TypeCode, &c.TypeDescription, &c.OutcomeDescription,
			&c.FailureReason, &c.WholeSentence); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

func (s *PostgresStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO breach_notice_contacts
			(id, document_id, remote_id, contact_date_time, type_code,
			 type_description, outcome_description, failure_reason, whole_sentence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		contact.ID, contact.DocumentID, contact.RemoteID, contact.ContactDateTime,
		contact.TypeCode, contact.TypeDescription, contact.OutcomeDescription,
		contact.FailureReason, contact.WholeSentence,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("contact for remote id %d: %w", contact.RemoteID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateContact(ctx context.Context, contact *models.Contact) error {
	query := `
		UPDATE breach_notice_contacts
		SET contact_date_time = $3, type_code = $4, type_description = $5,
		    outcome_description = $6, failure_reason = $7, whole_sentence = $8
		WHERE document_id = $1 AND remote_id = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		contact.DocumentID, contact.RemoteID, contact.ContactDateTime,
		contact.TypeCode, contact.TypeDescription, contact.OutcomeDescription,
		contact.FailureReason, contact.WholeSentence,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return requireRowAffected(result, contact.DocumentID)
}

func (s *PostgresStore) DeleteContact(ctx context.Context, documentID uuid.UUID, remoteID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM breach_notice_contacts WHERE document_id = $1 AND remote_id = $2`,
		documentID, remoteID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return requireRowAffected(result, documentID)
}

func (s *PostgresStore) ListRequirements(ctx context.Context, documentID uuid.UUID) ([]*models.Requirement, error) {
	query := `
		SELECT id, document_id, remote_id, type_code, type_description,
		       sub_type_code, sub_type_description, rejection_reason
		FROM breach_notice_requirements
		WHERE document_id = $1
		ORDER BY remote_id
	`
	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	var requirements []*models.Requirement
	for rows.Next() {
		var r models.Requirement
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.RemoteID, &r.TypeCode,
			&r.TypeDescription, &r.SubTypeCode, &r.SubTypeDescription,
			&r.RejectionReason); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		requirements = append(requirements, &r)
	}
	return requirements, rows.Err()
}

func (s *PostgresStore) CreateRequirement(ctx context.Context, requirement *models.Requirement) error {
	query := `
		INSERT INTO breach_notice_requirements
			(id, document_id, remote_id, type_code, type_description,
			 sub_type_code, sub_type_description, rejection_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		requirement.ID, requirement.DocumentID, requirement.RemoteID,
		requirement.TypeCode, requirement.TypeDescription,
		requirement.SubTypeCode, requirement.SubTypeDescription,
		requirement.RejectionReason,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("requirement for remote id %d: %w", requirement.RemoteID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create requirement: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateRequirement(ctx context.Context, requirement *models.Requirement) error {
	query := `
		UPDATE breach_notice_requirements
		SET type_code = $3, type_description = $4, sub_type_code = $5,
		    sub_type_description = $6, rejection_reason = $7
		WHERE document_id = $1 AND remote_id = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		requirement.DocumentID, requirement.RemoteID,
		requirement.TypeCode, requirement.TypeDescription,
		requirement.SubTypeCode, requirement.SubTypeDescription,
		requirement.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	return requireRowAffected(result, requirement.DocumentID)
}

func (s *PostgresStore) DeleteRequirement(ctx context.Context, documentID uuid.UUID, remoteID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM breach_notice_requirements WHERE document_id = $1 AND remote_id = $2`,
		documentID, remoteID)
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	return requireRowAffected(result, documentID)
}

func (s *PostgresStore) ListLinks(ctx context.Context, documentID uuid.UUID) ([]*models.ContactRequirementLink, error) {
	query := `
		SELECT id, document_id, remote_contact_id, remote_requirement_id
		FROM breach_notice_contact_requirements
		WHERE document_id = $1
		ORDER BY remote_contact_id, remote_requirement_id
	`
	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []*models.ContactRequirementLink
	for rows.Next() {
		var l models.ContactRequirementLink
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.RemoteContactID, &l.RemoteRequirementID); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

// BatchCreateLinks issues one insert per link, sequentially, matching the
// external service's call-per-record contract. Not transactional.
func (s *PostgresStore) BatchCreateLinks(ctx context.Context, links []*models.ContactRequirementLink) (int, error) {
	query := `
		INSERT INTO breach_notice_contact_requirements
			(id, document_id, remote_contact_id, remote_requirement_id)
		VALUES ($1, $2, $3, $4)
	`
	applied := 0
	for _, l := range links {
		if _, err := s.db.ExecContext(ctx, query, l.ID, l.DocumentID, l.RemoteContactID, l.RemoteRequirementID); err != nil {
			return applied, fmt.Errorf("create link: %w", err)
		}
		applied++
	}
	return applied, nil
}

// BatchDeleteLinks removes all links for the given remote contact ids,
// sequentially. Not transactional.
func (s *PostgresStore) BatchDeleteLinks(ctx context.Context, documentID uuid.UUID, remoteContactIDs []int64) (int, error) {
	applied := 0
	for _, remoteID := range remoteContactIDs {
		result, err := s.db.ExecContext(ctx,
			`DELETE FROM breach_notice_contact_requirements WHERE document_id = $1 AND remote_contact_id = $2`,
			documentID, remoteID)
		if err != nil {
			return applied, fmt.Errorf("delete link: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return applied, fmt.Errorf("delete link: %w", err)
		}
		applied += int(n)
	}
	return applied, nil
}

func (s *PostgresStore) RecalculateFailureSummary(ctx context.Context, documentID uuid.UUID) error {
	contacts, err := s.ListContacts(ctx, documentID)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE breach_notices SET failure_summary = $2 WHERE id = $1`,
		documentID, SummarizeFailures(contacts))
	if err != nil {
		return fmt.Errorf("recalculate failure summary: %w", err)
	}
	return requireRowAffected(result, documentID)
}

func requireRowAffected(result sql.Result, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
