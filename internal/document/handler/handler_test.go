package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	dirmodels "docutrack/internal/directory/models"
	dirseed "docutrack/internal/directory/seed"
	dirservice "docutrack/internal/directory/service"
	dirstore "docutrack/internal/directory/store"
	"docutrack/internal/document/lifecycle"
	"docutrack/internal/document/models"
	"docutrack/internal/document/service"
	docstore "docutrack/internal/document/store"
	notifservice "docutrack/internal/notification/service"
	notifstore "docutrack/internal/notification/store"
	"docutrack/internal/session/actor"
	"docutrack/pkg/platform/middleware/admin"
	"docutrack/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router        http.Handler
	directory     *dirservice.Service
	notifications *notifstore.InMemoryNotifications
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	users := dirstore.NewInMemoryUsers()
	offices := dirstore.NewInMemoryOffices()
	s.Require().NoError(dirseed.Defaults(ctx, offices, users, logger))

	docs := docstore.NewInMemoryDocuments(users)
	directory := dirservice.New(users, offices, docs, dirservice.WithLogger(logger))
	s.directory = directory
	s.notifications = notifstore.NewInMemoryNotifications()
	notifier := notifservice.New(s.notifications, directory, notifservice.WithLogger(logger))
	documents := service.New(docs, directory,
		service.WithLogger(logger),
		service.WithNotifier(notifier),
		service.WithEngine(lifecycle.NewEngine("Records Section")),
	)

	guards := actor.Guards{
		Authenticated: actor.Require(directory, logger),
		Guest:         actor.Optional(directory, logger),
		SuperAdmin:    admin.RequirePrivilege(actor.IsSuperAdmin, logger),
	}
	r := chi.NewRouter()
	New(documents, logger, guards).Register(r)
	s.router = r
}

func (s *HandlerSuite) as(req *http.Request, name string) *http.Request {
	return testutil.WithUserID(req, dirseed.UserID(name).String())
}

func (s *HandlerSuite) createDraft() *models.Document {
	req := s.as(testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", map[string]string{
		"title":            "Request for reimbursement",
		"description":      "short",
		"recipient_office": "SGOD Section",
	}), "Richard")
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[models.Document](s.T(), rr)
}

func (s *HandlerSuite) act(doc *models.Document, who string, body map[string]string) *httptest.ResponseRecorder {
	req := s.as(testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/"+doc.ID.String()+"/actions", body), who)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) TestCreateAndGet() {
	doc := s.createDraft()
	s.Equal(models.StatusDraft, doc.Status)
	s.Equal("General", doc.Category)
	s.Equal(1, doc.History.Len())

	s.Run("sender sees the draft with send offered", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/documents/"+doc.ID.String()), "Richard"))
		testutil.AssertStatusOK(s.T(), rr)
		detail := testutil.UnmarshalResponse[service.Detail](s.T(), rr)
		s.Equal([]lifecycle.Action{lifecycle.ActionSend}, detail.Actions)
	})

	s.Run("other offices do not see drafts", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/documents/"+doc.ID.String()), "Daisy"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id is a bad request", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/documents/not-an-id"), "Richard"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("session is required", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/documents"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("unknown recipient office is rejected", func() {
		req := s.as(testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", map[string]string{
			"title": "Memo", "recipient_office": "Nowhere",
		}), "Richard")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *HandlerSuite) TestEditDraft() {
	doc := s.createDraft()
	path := "/documents/" + doc.ID.String()

	rr := testutil.DoRequest(s.router, s.as(testutil.NewJSONRequest(s.T(), http.MethodPatch, path, map[string]string{
		"title": "Updated memo", "recipient_office": "HR Section", "priority": "High",
	}), "Richard"))
	testutil.AssertStatusOK(s.T(), rr)
	updated := testutil.UnmarshalResponse[models.Document](s.T(), rr)
	s.Equal("Updated memo", updated.Title)
	s.Equal("HR Section", updated.RecipientOffice)
	s.Equal(doc.UpdatedAt, updated.UpdatedAt)

	rr = testutil.DoRequest(s.router, s.as(testutil.NewJSONRequest(s.T(), http.MethodPatch, path, map[string]string{
		"title": "Hijack", "recipient_office": "HR Section",
	}), "Josh"))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}

func (s *HandlerSuite) TestSendTrackAndReceive() {
	doc := s.createDraft()

	rr := s.act(doc, "Richard", map[string]string{"action": "send", "remarks": "urgent"})
	testutil.AssertStatusOK(s.T(), rr)
	sent := testutil.UnmarshalResponse[service.Detail](s.T(), rr)
	s.Equal(models.StatusSent, sent.Document.Status)
	latest, _ := sent.Document.History.Latest()
	s.Equal("Sent to SGOD Section - urgent", latest.Remarks)

	s.Run("repeating send is not permitted", func() {
		rr := s.act(doc, "Richard", map[string]string{"action": "send"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "not_permitted")
	})

	s.Run("guest lookup never receives", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/track/"+doc.TrackingNumber))
		testutil.AssertStatusOK(s.T(), rr)
		res := testutil.UnmarshalResponse[service.TrackResult](s.T(), rr)
		s.False(res.AutoReceived)
		s.Equal(models.StatusSent, res.Document.Status)
		s.Empty(res.Actions)
	})

	s.Run("recipient lookup auto-receives and notifies the sender", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/track/"+doc.TrackingNumber), "Daisy"))
		testutil.AssertStatusOK(s.T(), rr)
		res := testutil.UnmarshalResponse[service.TrackResult](s.T(), rr)
		s.True(res.AutoReceived)
		s.Equal(models.StatusReceived, res.Document.Status)
		latest, _ := res.Document.History.Latest()
		s.Contains(latest.Remarks, "Received via QR Scan/Manual Track from")

		own, err := s.notifications.ListByUser(context.Background(), dirseed.UserID("Richard"))
		s.Require().NoError(err)
		s.Require().Len(own, 1)
		s.Contains(own[0].Message, "was received by Daisy at SGOD Section")
	})

	s.Run("unknown tracking number is not found", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/track/TDC-1999-01-00000"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("forward to own office is an invalid target", func() {
		rr := s.act(doc, "Daisy", map[string]string{"action": "forward", "target_office": "SGOD Section"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_target")
	})

	s.Run("forward targets exclude the actor's office", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/documents/"+doc.ID.String()+"/forward-targets"), "Daisy"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ForwardTargetsResponse](s.T(), rr)
		s.Len(resp.Offices, len(dirseed.Offices)-1)
		s.NotContains(resp.Offices, "SGOD Section")
	})

	s.Run("dashboard counts the received document", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/dashboard"), "Daisy"))
		testutil.AssertStatusOK(s.T(), rr)
		dash := testutil.UnmarshalResponse[service.Dashboard](s.T(), rr)
		s.Equal(1, dash.Received)
		s.Equal(1, dash.ForApproval)
		s.Len(dash.Recent, 1)
	})
}

func (s *HandlerSuite) TestListSearch() {
	s.createDraft()

	rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/documents?q=REIMBURSE"), "Richard"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Len(testutil.UnmarshalResponse[ListResponse](s.T(), rr).Documents, 1)

	rr = testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/documents?q=payroll"), "Richard"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Empty(testutil.UnmarshalResponse[ListResponse](s.T(), rr).Documents)
}

func (s *HandlerSuite) TestActivityLog() {
	doc := s.createDraft()
	testutil.AssertStatusOK(s.T(), s.act(doc, "Richard", map[string]string{"action": "send"}))

	s.Run("super admin sees every entry", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/admin/activity"), "System Administrator"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ActivityResponse](s.T(), rr)
		s.Require().Len(resp.Entries, 2)
		s.Equal(models.ActionSent, resp.Entries[0].Entry.Action)
		s.Equal(doc.TrackingNumber, resp.Entries[0].TrackingNumber)
	})

	s.Run("other roles are forbidden", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/admin/activity"), "Josh"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *HandlerSuite) TestSenderChangesFollowTheDocument() {
	ctx := context.Background()
	doc := s.createDraft()
	testutil.AssertStatusOK(s.T(), s.act(doc, "Richard", map[string]string{"action": "send"}))
	testutil.AssertStatusOK(s.T(), s.act(doc, "Daisy", map[string]string{"action": "receive"}))

	superAdmin, err := s.directory.GetUser(ctx, dirseed.UserID("System Administrator"))
	s.Require().NoError(err)
	name, office := "Richard Cruz", "HR Section"
	_, err = s.directory.UpdateUser(ctx, superAdmin, dirseed.UserID("Richard"), &dirmodels.UpdateUserRequest{Name: &name, Office: &office})
	s.Require().NoError(err)

	s.Run("return to sender routes to the sender's current office", func() {
		rr := s.act(doc, "Daisy", map[string]string{"action": "return_to_sender"})
		testutil.AssertStatusOK(s.T(), rr)
		detail := testutil.UnmarshalResponse[service.Detail](s.T(), rr)
		s.Equal(models.StatusForwarded, detail.Document.Status)
		s.Equal("HR Section", detail.Document.RecipientOffice)
		latest, _ := detail.Document.History.Latest()
		s.Equal("Returned to Sender (HR Section)", latest.Remarks)
	})

	s.Run("search matches the sender's current name", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/documents?q=cruz"), "Richard"))
		testutil.AssertStatusOK(s.T(), rr)
		docs := testutil.UnmarshalResponse[ListResponse](s.T(), rr).Documents
		s.Require().Len(docs, 1)
		s.Equal("Richard Cruz", docs[0].SenderName())
	})

	s.Run("sender receives it back at the new office", func() {
		rr := s.act(doc, "Richard", map[string]string{"action": "receive"})
		testutil.AssertStatusOK(s.T(), rr)
		s.Equal(models.StatusReceived, testutil.UnmarshalResponse[service.Detail](s.T(), rr).Document.Status)
	})
}
