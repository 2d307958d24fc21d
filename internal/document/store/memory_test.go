package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dirmodels "docutrack/internal/directory/models"
	dirstore "docutrack/internal/directory/store"
	"docutrack/internal/document/models"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
)

type InMemoryDocumentsSuite struct {
	suite.Suite
	ctx    context.Context
	store  *InMemoryDocuments
	users  *dirstore.InMemoryUsers
	sender *dirmodels.User
}

func TestInMemoryDocumentsSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDocumentsSuite))
}

func (s *InMemoryDocumentsSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = dirstore.NewInMemoryUsers()
	s.store = NewInMemoryDocuments(s.users)
	s.sender = &dirmodels.User{ID: id.UserID(uuid.New()), Name: "Richard", Office: "Cashier Section", Role: dirmodels.RoleStaff}
	s.Require().NoError(s.users.Create(s.ctx, s.sender))
}

func (s *InMemoryDocumentsSuite) newDoc(tracking string) *models.Document {
	doc, err := models.NewDocument(id.DocumentID(uuid.New()), tracking, models.Draft{
		Title:           "Purchase request",
		RecipientOffice: "Records Section",
	}, s.sender, "h-1", time.Now())
	s.Require().NoError(err)
	return doc
}

func (s *InMemoryDocumentsSuite) TestCreateAndFind() {
	doc := s.newDoc("TDC-2026-10-00001")
	s.Require().NoError(s.store.Create(s.ctx, doc))

	s.Run("by id", func() {
		got, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(doc.TrackingNumber, got.TrackingNumber)
	})

	s.Run("by tracking number is exact", func() {
		got, err := s.store.FindByTrackingNumber(s.ctx, "TDC-2026-10-00001")
		s.Require().NoError(err)
		s.Equal(doc.ID, got.ID)

		_, err = s.store.FindByTrackingNumber(s.ctx, "tdc-2026-10-00001")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("tracking number collision", func() {
		s.ErrorIs(s.store.Create(s.ctx, s.newDoc("TDC-2026-10-00001")), sentinel.ErrAlreadyUsed)
	})

	s.Run("stored value is isolated from caller", func() {
		doc.Title = "Changed after create"
		got, _ := s.store.FindByID(s.ctx, doc.ID)
		s.Equal("Purchase request", got.Title)
	})
}

func (s *InMemoryDocumentsSuite) TestReplace() {
	doc := s.newDoc("TDC-2026-10-00002")
	s.Require().NoError(s.store.Create(s.ctx, doc))

	next := doc.Clone()
	next.Status = models.StatusSent
	next.TrackingNumber = "TDC-OTHER"
	s.Require().NoError(s.store.Replace(s.ctx, next))

	got, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSent, got.Status)
	s.Equal("TDC-2026-10-00002", got.TrackingNumber)

	s.ErrorIs(s.store.Replace(s.ctx, s.newDoc("TDC-2026-10-00003")), sentinel.ErrNotFound)
}

func (s *InMemoryDocumentsSuite) TestClearSender() {
	a := s.newDoc("TDC-2026-10-00004")
	b := s.newDoc("TDC-2026-10-00005")
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	n, err := s.store.ClearSender(s.ctx, s.sender.ID)
	s.Require().NoError(err)
	s.Equal(2, n)

	got, _ := s.store.FindByID(s.ctx, a.ID)
	s.Nil(got.Sender)
	s.Equal(models.UnknownSenderName, got.SenderName())
	latest, ok := got.History.Latest()
	s.Require().True(ok)
	s.Equal("Richard", latest.User.Name, "history keeps the recorded actor")

	n, _ = s.store.ClearSender(s.ctx, s.sender.ID)
	s.Zero(n)
}

func (s *InMemoryDocumentsSuite) TestSenderIsCurrentUserRecord() {
	doc := s.newDoc("TDC-2026-10-00006")
	s.Require().NoError(s.store.Create(s.ctx, doc))

	moved := *s.sender
	moved.Name = "Richard Cruz"
	moved.Office = "HR Section"
	s.Require().NoError(s.users.Update(s.ctx, &moved))

	s.Run("reads follow profile and office changes", func() {
		got, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Require().NotNil(got.Sender)
		s.Equal("Richard Cruz", got.Sender.Name)
		s.Equal("HR Section", got.Sender.Office)

		list, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal("Richard Cruz", list[0].SenderName())

		latest, _ := got.History.Latest()
		s.Equal("Cashier Section", latest.Office, "history keeps the office at the time")
	})

	s.Run("deleted sender reads as nil", func() {
		s.Require().NoError(s.users.Delete(s.ctx, s.sender.ID))
		got, err := s.store.FindByTrackingNumber(s.ctx, doc.TrackingNumber)
		s.Require().NoError(err)
		s.Nil(got.Sender)
		s.Equal(models.UnknownSenderName, got.SenderName())
	})
}
