package lifecycle

import (
	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/document/models"
)

// route describes what a transition does to the recipient office.
type route int

const (
	routeKeep route = iota
	routeTarget
	routeSender
)

// transition is the effect of an action, independent of who performs it.
type transition struct {
	to          models.Status
	route       route
	label       models.HistoryAction
	needsSender bool
}

var transitions = map[Action]transition{
	ActionSend:           {to: models.StatusSent, label: models.ActionSent},
	ActionReceive:        {to: models.StatusReceived, label: models.ActionReceived},
	ActionForward:        {to: models.StatusForwarded, route: routeTarget, label: models.ActionForwarded},
	ActionApprove:        {to: models.StatusApproved, label: models.ActionApproved},
	ActionComplete:       {to: models.StatusCompleted, label: models.ActionCompleted},
	ActionReturnToSender: {to: models.StatusForwarded, route: routeSender, label: models.ActionReturnedToSender, needsSender: true},
	ActionCancel:         {to: models.StatusDisapproved, label: models.ActionCancelled},
	ActionRelease:        {to: models.StatusReleased, label: models.ActionReleased},
	ActionFinish:         {to: models.StatusCompleted, label: models.ActionTransactionFinished},
}

// subject is the (document, actor) pair a rule is evaluated against.
type subject struct {
	doc   *models.Document
	actor *dirmodels.User
	hub   string
}

func (s subject) isSender() bool    { return s.doc.IsSentBy(s.actor.ID) }
func (s subject) holds() bool       { return s.doc.LastOffice() == s.actor.Office }
func (s subject) inHub() bool       { return s.actor.Office == s.hub }
func (s subject) atRecipient() bool { return s.actor.Office == s.doc.RecipientOffice }
func (s subject) isAdmin() bool     { return s.actor.Role == dirmodels.RoleAdmin }

// ActorClass names the relationship between the actor and the document that
// selected a rule.
type ActorClass string

const (
	ClassNone      ActorClass = ""
	ClassSender    ActorClass = "sender"
	ClassRecipient ActorClass = "recipient"
	ClassHub       ActorClass = "hub"
	ClassHolder    ActorClass = "holder"
	ClassAdmin     ActorClass = "admin"
)

// offer is one action a rule makes available, with the system remark that
// goes on the history entry.
type offer struct {
	action Action
	remark func(s subject, target string) string
}

type rule struct {
	status  models.Status
	class   ActorClass
	matches func(s subject) bool
	offers  []offer
}

// rules is evaluated first match per status. Order matters for Received: a
// holder in the hub office gets the hub actions even when they are also the
// sender, and a sender holding the document may only forward it.
var rules = []rule{
	{
		status:  models.StatusDraft,
		class:   ClassSender,
		matches: subject.isSender,
		offers:  []offer{{ActionSend, remarkSent}},
	},
	{
		status:  models.StatusSent,
		class:   ClassRecipient,
		matches: func(s subject) bool { return s.isAdmin() || s.atRecipient() },
		offers:  []offer{{ActionReceive, remarkReceived}},
	},
	{
		status:  models.StatusReceived,
		class:   ClassHub,
		matches: func(s subject) bool { return s.holds() && s.inHub() },
		offers: []offer{
			{ActionForward, remarkForwarded},
			{ActionApprove, fixed("Directly approved by Admin")},
			{ActionComplete, fixed("Transaction ended by Admin")},
		},
	},
	{
		status:  models.StatusReceived,
		class:   ClassSender,
		matches: func(s subject) bool { return s.holds() && s.isSender() },
		offers:  []offer{{ActionForward, remarkForwarded}},
	},
	{
		status:  models.StatusReceived,
		class:   ClassHolder,
		matches: subject.holds,
		offers: []offer{
			{ActionApprove, fixed("")},
			{ActionReturnToSender, remarkReturned},
			{ActionCancel, fixed("")},
		},
	},
	{
		status:  models.StatusForwarded,
		class:   ClassRecipient,
		matches: subject.atRecipient,
		offers:  []offer{{ActionReceive, remarkReceived}},
	},
	{
		status:  models.StatusApproved,
		class:   ClassAdmin,
		matches: subject.isAdmin,
		offers: []offer{
			{ActionComplete, fixed("Transaction Ended")},
			{ActionRelease, fixed("Marked for release")},
		},
	},
	{
		status:  models.StatusReleased,
		class:   ClassSender,
		matches: subject.isSender,
		offers:  []offer{{ActionFinish, fixed("Released document received by sender.")}},
	},
}

// match returns the first rule applying to s, or nil.
func match(s subject) *rule {
	for i := range rules {
		r := &rules[i]
		if r.status == s.doc.Status && r.matches(s) {
			return r
		}
	}
	return nil
}

func fixed(text string) func(subject, string) string {
	return func(subject, string) string { return text }
}

func remarkSent(s subject, _ string) string {
	return "Sent to " + s.doc.RecipientOffice
}

func remarkReceived(s subject, _ string) string {
	origin := ReceiveOrigin(s.doc)
	if origin == "" {
		origin = "the previous office"
	}
	return "Received from " + origin
}

func remarkForwarded(_ subject, target string) string {
	return "Forwarded to " + target
}

func remarkReturned(s subject, _ string) string {
	return "Returned to Sender (" + s.doc.Sender.Office + ")"
}

// ReceiveOrigin is the office a document is being received from: the office
// on the latest history entry, else the sender's office, else empty.
func ReceiveOrigin(doc *models.Document) string {
	if office := doc.LastOffice(); office != "" {
		return office
	}
	if doc.Sender != nil {
		return doc.Sender.Office
	}
	return ""
}
