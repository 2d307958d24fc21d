package policy

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dirmodels "docutrack/internal/directory/models"
	docmodels "docutrack/internal/document/models"
	id "docutrack/pkg/domain"
)

type PolicySuite struct {
	suite.Suite
	policy *Policy
	now    time.Time
	sender *dirmodels.User
	sgod   []*dirmodels.User
	users  []*dirmodels.User
}

func TestPolicySuite(t *testing.T) {
	suite.Run(t, new(PolicySuite))
}

func (s *PolicySuite) SetupTest() {
	s.policy = New()
	s.now = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	s.sender = user("Richard", "Cashier Section")
	s.sgod = []*dirmodels.User{
		user("Daisy", "SGOD Section"),
		user("Dan", "SGOD Section"),
		user("Dora", "SGOD Section"),
	}
	s.users = append([]*dirmodels.User{s.sender, user("Hana", "HR Section")}, s.sgod...)
}

func user(name, office string) *dirmodels.User {
	return &dirmodels.User{ID: id.UserID(uuid.New()), Name: name, Office: office, Role: dirmodels.RoleStaff}
}

func (s *PolicySuite) doc(status docmodels.Status, recipient string) *docmodels.Document {
	return &docmodels.Document{
		ID:              id.DocumentID(uuid.New()),
		Title:           "Request for reimbursement of travel expenses",
		Status:          status,
		Sender:          s.sender.Snapshot(),
		RecipientOffice: recipient,
	}
}

func (s *PolicySuite) TestRecipientOfficeRule() {
	s.Run("sent notifies every office member", func() {
		got := s.policy.For(s.doc(docmodels.StatusSent, "SGOD Section"), docmodels.StatusDraft, s.sender, s.users, s.now)
		s.Len(got, len(s.sgod))
		for i, n := range got {
			s.Equal(s.sgod[i].ID, n.UserID)
			s.Equal(`Document "Request for reimbursement of t..." was sent to your office by Richard (Cashier Section).`, n.Message)
			s.False(n.Read)
			s.Equal(s.now, n.CreatedAt)
			s.Require().NotNil(n.DocumentID)
		}
	})

	s.Run("acting member of the office is excluded", func() {
		actor := s.sgod[0]
		got := s.policy.For(s.doc(docmodels.StatusForwarded, "SGOD Section"), docmodels.StatusReceived, actor, s.users, s.now)
		s.Len(got, len(s.sgod)-1)
		for _, n := range got {
			s.NotEqual(actor.ID, n.UserID)
		}
	})

	s.Run("office with no members notifies nobody", func() {
		got := s.policy.For(s.doc(docmodels.StatusSent, "Accounting Section"), docmodels.StatusDraft, s.sender, s.users, s.now)
		s.Empty(got)
	})
}

func (s *PolicySuite) TestSenderProgressRule() {
	actor := s.sgod[0]
	cases := []struct {
		status  docmodels.Status
		message string
	}{
		{docmodels.StatusReceived, `Your document "Request for reimbursement of t..." was received by Daisy at SGOD Section.`},
		{docmodels.StatusApproved, `Your document "Request for reimbursement of t..." was approved by Daisy.`},
		{docmodels.StatusCompleted, `Your document "Request for reimbursement of t..." has been marked as completed.`},
		{docmodels.StatusDisapproved, `Your document "Request for reimbursement of t..." was disapproved by Daisy.`},
	}
	for _, tc := range cases {
		s.Run(string(tc.status), func() {
			got := s.policy.For(s.doc(tc.status, "SGOD Section"), docmodels.StatusSent, actor, s.users, s.now)
			s.Require().Len(got, 1)
			s.Equal(s.sender.ID, got[0].UserID)
			s.Equal(tc.message, got[0].Message)
		})
	}

	s.Run("sender acting on own document is not notified", func() {
		got := s.policy.For(s.doc(docmodels.StatusCompleted, "Cashier Section"), docmodels.StatusReleased, s.sender, s.users, s.now)
		s.Empty(got)
	})

	s.Run("cleared sender is not notified", func() {
		doc := s.doc(docmodels.StatusApproved, "SGOD Section")
		doc.Sender = nil
		s.Empty(s.policy.For(doc, docmodels.StatusReceived, actor, s.users, s.now))
	})

	s.Run("released does not notify the sender", func() {
		s.Empty(s.policy.For(s.doc(docmodels.StatusReleased, "SGOD Section"), docmodels.StatusApproved, actor, s.users, s.now))
	})
}

func (s *PolicySuite) TestReturnToSenderReachesSenderOffice() {
	actor := s.sgod[0]
	doc := s.doc(docmodels.StatusForwarded, "Cashier Section")
	got := s.policy.For(doc, docmodels.StatusReceived, actor, s.users, s.now)
	// The sender is the only member of the target office, so rule A reaches
	// them and rule B does not apply to Forwarded.
	s.Require().Len(got, 1)
	s.Equal(s.sender.ID, got[0].UserID)
}

func (s *PolicySuite) TestNoOpGuard() {
	for _, status := range docmodels.Statuses() {
		s.Empty(s.policy.For(s.doc(status, "SGOD Section"), status, s.sgod[0], s.users, s.now), "status %s", status)
	}
	s.Empty(s.policy.For(s.doc(docmodels.StatusSent, "SGOD Section"), docmodels.StatusDraft, nil, s.users, s.now))
}

func (s *PolicySuite) TestDeterministicIDs() {
	fixed := id.NotificationID(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	p := New(WithIDs(func() id.NotificationID { return fixed }))
	got := p.For(s.doc(docmodels.StatusSent, "SGOD Section"), docmodels.StatusDraft, s.sender, s.users, s.now)
	for _, n := range got {
		s.Equal(fixed, n.ID)
	}
}

func (s *PolicySuite) TestTruncate() {
	s.Equal("short", truncate("short"))
	s.Equal(strings.Repeat("a", titleLimit), truncate(strings.Repeat("a", titleLimit)))
	s.Len([]rune(truncate("ÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁÁ")), titleLimit)
}
