//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"breachnotice/internal/notice/models"
	"breachnotice/pkg/platform/sentinel"
	"breachnotice/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *containers.PostgresContainer
	store     *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.container = containers.NewPostgresContainer(s.T(), Schema)
	s.store = NewPostgres(s.container.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.container.TruncateTables(context.Background(),
		"breach_notice_contact_requirements",
		"breach_notice_requirements",
		"breach_notice_contacts",
		"breach_notices",
	)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedNotice() *models.BreachNotice {
	doc, err := models.NewBreachNotice(uuid.New(), "X123456")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Seed(context.Background(), doc))
	return doc
}

func (s *PostgresStoreSuite) TestGetUnknownDocument() {
	_, err := s.store.Get(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDocumentRoundTrip() {
	ctx := context.Background()
	doc := s.seedNotice()

	letter := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	doc.TitleAndFullName = "Mr Sam Archer"
	doc.OffenderAddress = &models.Address{RemoteID: 100, Number: "12", Street: "High Street", TownCity: "Sheffield", Postcode: "S1 2AB"}
	doc.ReplyAddress = &models.Address{RemoteID: 200, BuildingName: "Probation House", TownCity: "Sheffield"}
	doc.DateOfLetter = &letter
	doc.OfficeReference = "REF-001"
	doc.WarningTypeCode = "FW"
	doc.WarningTypeDescription = "First Warning"
	doc.MarkStepSaved(models.StepBasicDetails)
	s.Require().NoError(s.store.Update(ctx, doc))

	reloaded, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal("Mr Sam Archer", reloaded.TitleAndFullName)
	s.Equal("REF-001", reloaded.OfficeReference)
	s.True(reloaded.BasicDetailsSaved)
	s.Require().NotNil(reloaded.OffenderAddress)
	s.Equal(int64(100), reloaded.OffenderAddress.RemoteID)
	s.Equal("High Street", reloaded.OffenderAddress.Street)
	s.Require().NotNil(reloaded.ReplyAddress)
	s.Equal("Probation House", reloaded.ReplyAddress.BuildingName)
	s.Require().NotNil(reloaded.DateOfLetter)
	s.True(letter.Equal(*reloaded.DateOfLetter))
}

func (s *PostgresStoreSuite) TestSeedDuplicateConflicts() {
	ctx := context.Background()
	doc := s.seedNotice()

	err := s.store.Seed(ctx, doc)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestContactLifecycle() {
	ctx := context.Background()
	doc := s.seedNotice()

	contact, err := models.NewContact(doc.ID, 1, "Planned Appointment")
	s.Require().NoError(err)
	contact.ContactDateTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	contact.FailureReason = "FTC"
	contact.WholeSentence = true
	s.Require().NoError(s.store.CreateContact(ctx, contact))

	// The unique constraint enforces one record per remote id per document.
	dup, err := models.NewContact(doc.ID, 1, "Planned Appointment")
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateContact(ctx, dup), sentinel.ErrConflict)

	contact.FailureReason = "FTA"
	s.Require().NoError(s.store.UpdateContact(ctx, contact))

	contacts, err := s.store.ListContacts(ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(contacts, 1)
	s.Equal("FTA", contacts[0].FailureReason)
	s.True(contacts[0].WholeSentence)

	s.Require().NoError(s.store.DeleteContact(ctx, doc.ID, 1))
	s.ErrorIs(s.store.DeleteContact(ctx, doc.ID, 1), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLinkBatches() {
	ctx := context.Background()
	doc := s.seedNotice()

	mk := func(contactID, requirementID int64) *models.ContactRequirementLink {
		l, err := models.NewContactRequirementLink(doc.ID, contactID, requirementID)
		s.Require().NoError(err)
		return l
	}

	applied, err := s.store.BatchCreateLinks(ctx, []*models.ContactRequirementLink{
		mk(1, 10), mk(1, 11), mk(2, 10),
	})
	s.Require().NoError(err)
	s.Equal(3, applied)

	applied, err = s.store.BatchDeleteLinks(ctx, doc.ID, []int64{1})
	s.Require().NoError(err)
	s.Equal(2, applied)

	links, err := s.store.ListLinks(ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(links, 1)
	s.Equal(int64(2), links[0].RemoteContactID)
}

func (s *PostgresStoreSuite) TestRecalculateFailureSummary() {
	ctx := context.Background()
	doc := s.seedNotice()

	c1, err := models.NewContact(doc.ID, 1, "Planned Appointment")
	s.Require().NoError(err)
	c1.ContactDateTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	c1.WholeSentence = true
	s.Require().NoError(s.store.CreateContact(ctx, c1))

	s.Require().NoError(s.store.RecalculateFailureSummary(ctx, doc.ID))

	reloaded, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal("all failures apply to the whole sentence", reloaded.FailureSummary)
}

func (s *PostgresStoreSuite) TestDeleteCascades() {
	ctx := context.Background()
	doc := s.seedNotice()

	contact, err := models.NewContact(doc.ID, 1, "Planned Appointment")
	s.Require().NoError(err)
	contact.ContactDateTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.CreateContact(ctx, contact))

	link, err := models.NewContactRequirementLink(doc.ID, 1, 10)
	s.Require().NoError(err)
	_, err = s.store.BatchCreateLinks(ctx, []*models.ContactRequirementLink{link})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(ctx, doc.ID))

	_, err = s.store.Get(ctx, doc.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	contacts, err := s.store.ListContacts(ctx, doc.ID)
	s.Require().NoError(err)
	s.Empty(contacts)
}
