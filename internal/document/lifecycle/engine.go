// Package lifecycle decides which status transitions an actor may perform on a
// document and builds the resulting snapshot.
//
// The engine is pure: it performs no I/O, holds no actor state, and never
// mutates the document it is given. Every call takes the actor explicitly.
package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/document/models"
	dErrors "docutrack/pkg/domain-errors"
)

// DefaultHubOffice is the routing hub when none is configured.
const DefaultHubOffice = "Records Section"

// Engine evaluates the transition rules against a configurable hub office.
// The hub office may forward a received document onward or resolve it
// directly.
type Engine struct {
	hubOffice string
	entryID   func(at time.Time) string
}

type Option func(*Engine)

// WithEntryIDs overrides how history entry IDs are generated.
func WithEntryIDs(fn func(at time.Time) string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.entryID = fn
		}
	}
}

func NewEngine(hubOffice string, opts ...Option) *Engine {
	hubOffice = strings.TrimSpace(hubOffice)
	if hubOffice == "" {
		hubOffice = DefaultHubOffice
	}
	e := &Engine{hubOffice: hubOffice, entryID: defaultEntryID}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultEntryID(at time.Time) string {
	return "h-" + strconv.FormatInt(at.UnixNano(), 10)
}

func (e *Engine) HubOffice() string {
	return e.hubOffice
}

// NewEntryID returns a history entry ID for an entry recorded at.
func (e *Engine) NewEntryID(at time.Time) string {
	return e.entryID(at)
}

// Request is an actor's attempt to perform an action.
type Request struct {
	Action Action
	// TargetOffice is required for forward and ignored otherwise.
	TargetOffice string
	// Remarks are free text from the actor, appended to the system remark.
	Remarks string
	// SystemRemark replaces the rule's default remark when set.
	SystemRemark string
	At           time.Time
}

// Available returns the actions offered to actor for doc. A nil actor, or a
// (status, actor) pair no rule covers, yields an empty set.
func (e *Engine) Available(doc *models.Document, actor *dirmodels.User) []Action {
	if doc == nil || actor == nil {
		return nil
	}
	s := subject{doc: doc, actor: actor, hub: e.hubOffice}
	r := match(s)
	if r == nil {
		return nil
	}
	out := make([]Action, 0, len(r.offers))
	for _, o := range r.offers {
		if transitions[o.action].needsSender && doc.Sender == nil {
			continue
		}
		out = append(out, o.action)
	}
	return out
}

// Classify reports which rule class applies to actor for doc.
func (e *Engine) Classify(doc *models.Document, actor *dirmodels.User) ActorClass {
	if doc == nil || actor == nil {
		return ClassNone
	}
	r := match(subject{doc: doc, actor: actor, hub: e.hubOffice})
	if r == nil {
		return ClassNone
	}
	return r.class
}

// Offers reports whether action is currently available to actor.
func (e *Engine) Offers(doc *models.Document, actor *dirmodels.User, action Action) bool {
	for _, a := range e.Available(doc, actor) {
		if a == action {
			return true
		}
	}
	return false
}

// Apply performs req on doc and returns the replacement document. The input is
// never modified. The new history entry is prepended and becomes the source
// of UpdatedAt.
func (e *Engine) Apply(doc *models.Document, actor *dirmodels.User, req Request) (*models.Document, error) {
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "document is required")
	}
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeNotPermitted, "no actor in session")
	}
	s := subject{doc: doc, actor: actor, hub: e.hubOffice}
	o, ok := e.find(s, req.Action)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotPermitted,
			fmt.Sprintf("action %q is not available on a %s document", req.Action, doc.Status))
	}
	t := transitions[req.Action]

	target := strings.TrimSpace(req.TargetOffice)
	recipient := doc.RecipientOffice
	switch t.route {
	case routeTarget:
		if err := ValidateTarget(target, actor); err != nil {
			return nil, err
		}
		recipient = target
	case routeSender:
		recipient = doc.Sender.Office
	}

	remark := o.remark(s, target)
	if req.SystemRemark != "" {
		remark = req.SystemRemark
	}

	at := req.At
	if at.IsZero() {
		at = time.Now()
	}
	entry := models.HistoryEntry{
		ID:        e.entryID(at),
		Timestamp: at,
		Action:    t.label,
		User:      *actor.Snapshot(),
		Office:    actor.Office,
		Remarks:   joinRemarks(remark, req.Remarks),
	}

	next := doc.Clone()
	next.Status = t.to
	next.RecipientOffice = recipient
	next.History = next.History.Prepend(entry)
	next.UpdatedAt = entry.Timestamp
	return next, nil
}

func (e *Engine) find(s subject, action Action) (offer, bool) {
	r := match(s)
	if r == nil {
		return offer{}, false
	}
	for _, o := range r.offers {
		if o.action != action {
			continue
		}
		if transitions[action].needsSender && s.doc.Sender == nil {
			return offer{}, false
		}
		return o, true
	}
	return offer{}, false
}

// ValidateTarget rejects an empty forward target or the actor's own office.
func ValidateTarget(target string, actor *dirmodels.User) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return dErrors.New(dErrors.CodeInvalidTarget, "a target office is required")
	}
	if actor != nil && target == actor.Office {
		return dErrors.New(dErrors.CodeInvalidTarget, "cannot forward to your own office")
	}
	return nil
}

// ForwardTargets is the forward picklist: every office except the actor's own.
func ForwardTargets(offices []string, actor *dirmodels.User) []string {
	out := make([]string, 0, len(offices))
	for _, office := range offices {
		if actor != nil && office == actor.Office {
			continue
		}
		out = append(out, office)
	}
	return out
}

// TrackingReceiveRemark is the system remark for a receive triggered by a
// tracking-number lookup.
func TrackingReceiveRemark(doc *models.Document) string {
	origin := ReceiveOrigin(doc)
	if origin == "" {
		origin = "previous office"
	}
	return "Received via QR Scan/Manual Track from " + origin + "."
}

func joinRemarks(system, user string) string {
	user = strings.TrimSpace(user)
	switch {
	case system == "":
		return user
	case user == "":
		return system
	default:
		return system + " - " + user
	}
}
