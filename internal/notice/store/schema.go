package store

// Schema holds the DDL for the postgres document store. Applied by the
// integration test container and by deployment tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS breach_notices (
	id UUID PRIMARY KEY,
	crn TEXT NOT NULL,
	title_and_full_name TEXT NOT NULL DEFAULT '',
	offender_address JSONB,
	reply_address JSONB,
	date_of_letter TIMESTAMPTZ,
	office_reference TEXT NOT NULL DEFAULT '',
	warning_type_code TEXT NOT NULL DEFAULT '',
	warning_type_description TEXT NOT NULL DEFAULT '',
	sentence_type_code TEXT NOT NULL DEFAULT '',
	sentence_type_description TEXT NOT NULL DEFAULT '',
	response_required_date TIMESTAMPTZ,
	condition_being_enforced TEXT NOT NULL DEFAULT '',
	further_reason_details TEXT NOT NULL DEFAULT '',
	failure_summary TEXT NOT NULL DEFAULT '',
	appointment_type TEXT NOT NULL DEFAULT '',
	appointment_location TEXT NOT NULL DEFAULT '',
	appointment_date_time TIMESTAMPTZ,
	officer_name TEXT NOT NULL DEFAULT '',
	contact_number TEXT NOT NULL DEFAULT '',
	basic_details_saved BOOLEAN NOT NULL DEFAULT FALSE,
	warning_type_saved BOOLEAN NOT NULL DEFAULT FALSE,
	warning_details_saved BOOLEAN NOT NULL DEFAULT FALSE,
	next_appointment_saved BOOLEAN NOT NULL DEFAULT FALSE,
	completed_date TIMESTAMPTZ,
	deleted_date TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS breach_notice_contacts (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES breach_notices (id) ON DELETE CASCADE,
	remote_id BIGINT NOT NULL,
	contact_date_time TIMESTAMPTZ NOT NULL DEFAULT now(),
	type_code TEXT NOT NULL DEFAULT '',
	type_description TEXT NOT NULL DEFAULT '',
	outcome_description TEXT NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT '',
	whole_sentence BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (document_id, remote_id)
);

CREATE TABLE IF NOT EXISTS breach_notice_requirements (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES breach_notices (id) ON DELETE CASCADE,
	remote_id BIGINT NOT NULL,
	type_code TEXT NOT NULL DEFAULT '',
	type_description TEXT NOT NULL DEFAULT '',
	sub_type_code TEXT NOT NULL DEFAULT '',
	sub_type_description TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT '',
	UNIQUE (document_id, remote_id)
);

CREATE TABLE IF NOT EXISTS breach_notice_contact_requirements (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES breach_notices (id) ON DELETE CASCADE,
	remote_contact_id BIGINT NOT NULL,
	remote_requirement_id BIGINT NOT NULL
);
`
