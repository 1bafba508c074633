// Package engine maps (session state, role, inbound text) to the next session,
// the entity to persist, and the reply to send back.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmehdipour/parcel-relay/internal/rating"
	"github.com/jmehdipour/parcel-relay/internal/util"
	"github.com/jmehdipour/parcel-relay/internal/validate"
)

// Lookup is the read access a transition may need. Implementations are bound to
// the transaction of the current turn.
type Lookup interface {
	SearchTrips(ctx context.Context, q model.TripQuery) ([]model.TripMatch, error)
	CarriersByName(ctx context.Context, prefix string) ([]model.User, error)
	ParcelByReference(ctx context.Context, ref string) (*model.ParcelRequest, error)
}

type Kind string

const (
	KindOK         Kind = "ok"
	KindWelcome    Kind = "welcome"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindAmbiguous  Kind = "ambiguous"
)

// Input is one inbound turn. Session is ignored when Fresh is set.
type Input struct {
	User    model.User
	Session model.Session
	Fresh   bool // no stored session, or the stored one expired
	Text    string
	Now     time.Time
}

// Outcome is the result of a turn. At most one of Trip, Parcel, Rating is set.
type Outcome struct {
	Kind     Kind
	Session  model.Session
	Reply    string
	Register string // carrier name to persist; also promotes the user to carrier
	Trip     *model.Trip
	Parcel   *model.ParcelRequest
	Rating   *model.Rating
}

type stepFunc func(ctx context.Context, t *turn) error

// Engine is the conversation state machine. It holds no per-user state.
type Engine struct {
	table  map[model.State]stepFunc
	newRef func() string
}

func New() *Engine {
	e := &Engine{newRef: util.Reference}
	e.table = map[model.State]stepFunc{
		model.StateMenu: menuStep,

		model.StateRegisterName:       registerNameStep,
		model.StatePublishDate:        dateStep(model.StatePublishOrigin, replyAskOrigin),
		model.StatePublishOrigin:      cityStep(originSlot, model.StatePublishDestination, replyAskDestination),
		model.StatePublishDestination: cityStep(destinationSlot, model.StatePublishDescription, replyAskTripDesc),
		model.StatePublishDescription: publishStep,

		model.StateSearchDate:        dateStep(model.StateSearchOrigin, replyAskOrigin),
		model.StateSearchOrigin:      cityStep(originSlot, model.StateSearchDestination, replyAskDestination),
		model.StateSearchDestination: searchStep,

		model.StateParcelDescription: parcelDescriptionStep,
		model.StateParcelDate:        dateStep(model.StateParcelDestination, replyAskDestination),
		model.StateParcelDestination: e.parcelStep,

		model.StateTrackReference: trackStep,
	}
	return e
}

// WithReferenceFunc overrides the parcel reference generator.
func (e *Engine) WithReferenceFunc(fn func() string) *Engine {
	e.newRef = fn
	return e
}

var resetTokens = map[string]struct{}{
	"menu":    {},
	"bonjour": {},
	"salut":   {},
	"hello":   {},
	"hi":      {},
}

// IsReset reports whether text is the global reset token (or a greeting alias).
func IsReset(text string) bool {
	_, ok := resetTokens[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

type turn struct {
	in     Input
	lookup Lookup
	out    Outcome
}

// Step runs one turn. Returned errors are lookup (store) failures only;
// user mistakes are reported through Outcome.Kind.
func (e *Engine) Step(ctx context.Context, lookup Lookup, in Input) (Outcome, error) {
	t := &turn{in: in, lookup: lookup}
	t.out.Kind = KindOK
	t.out.Session = in.Session
	t.out.Session.UserID = in.User.ID
	if in.Fresh {
		t.out.Session.Reset()
	}

	text := strings.TrimSpace(in.Text)

	// reset overrides everything else
	if IsReset(text) {
		t.reset(replyMenu)
		return t.out, nil
	}

	if rating.IsCommand(text) {
		if err := rateStep(ctx, t, text); err != nil {
			return Outcome{}, err
		}
		return t.out, nil
	}

	if in.Fresh {
		t.out.Kind = KindWelcome
		t.reset(replyMenu)
		return t.out, nil
	}

	step, ok := e.table[t.out.Session.State]
	if !ok {
		t.out.Kind = KindWelcome
		t.reset(replyMenu)
		return t.out, nil
	}

	t.in.Text = text
	if err := step(ctx, t); err != nil {
		return Outcome{}, err
	}
	return t.out, nil
}

func (t *turn) reset(reply string) {
	t.out.Session.Reset()
	t.out.Reply = reply
}

func (t *turn) advance(next model.State, reply string) {
	t.out.Session.State = next
	t.out.Reply = reply
}

func (t *turn) reject(reply string) {
	t.out.Kind = KindValidation
	t.out.Reply = reply
}

func menuStep(ctx context.Context, t *turn) error {
	switch {
	case validate.Choice(t.in.Text, "1"):
		t.out.Session.Scratch = model.Draft{}
		t.advance(model.StateSearchDate, replyAskSearchDate)
	case validate.Choice(t.in.Text, "2"):
		t.out.Session.Scratch = model.Draft{}
		if t.in.User.IsCarrier() {
			t.advance(model.StatePublishDate, replyAskPublishDate)
		} else {
			t.advance(model.StateRegisterName, replyAskName)
		}
	case validate.Choice(t.in.Text, "3"):
		t.out.Session.Scratch = model.Draft{}
		t.advance(model.StateParcelDescription, replyAskParcelDesc)
	case validate.Choice(strings.ToLower(t.in.Text), "4", "track", "suivre"):
		t.out.Session.Scratch = model.Draft{}
		t.advance(model.StateTrackReference, replyAskReference)
	default:
		if ref, ok := trackShortcut(t.in.Text); ok {
			t.out.Session.Scratch = model.Draft{}
			t.in.Text = ref
			return trackStep(ctx, t)
		}
		t.reject(replyInvalidChoice)
	}
	return nil
}

// trackShortcut extracts the reference from "track <ref>" or "suivre <ref>".
func trackShortcut(text string) (string, bool) {
	verb, ref, ok := strings.Cut(text, " ")
	if !ok {
		return "", false
	}
	switch strings.ToLower(verb) {
	case "track", "suivre":
		ref = strings.TrimSpace(ref)
		return ref, ref != "" && !strings.ContainsAny(ref, " \t")
	}
	return "", false
}

func registerNameStep(_ context.Context, t *turn) error {
	name, ok := validate.Text(t.in.Text)
	if !ok {
		t.reject(replyEmpty)
		return nil
	}
	name = validate.TitleCase(name)
	t.out.Register = name
	t.advance(model.StatePublishDate, replyRegistered(name))
	return nil
}

func dateStep(next model.State, prompt string) stepFunc {
	return func(_ context.Context, t *turn) error {
		d, ok := validate.Date(t.in.Text)
		if !ok {
			t.reject(replyBadDate)
			return nil
		}
		t.out.Session.Scratch.Date = d.Format(model.DateLayout)
		t.advance(next, prompt)
		return nil
	}
}

type slot func(d *model.Draft) *string

func originSlot(d *model.Draft) *string      { return &d.Origin }
func destinationSlot(d *model.Draft) *string { return &d.Destination }

func cityStep(field slot, next model.State, prompt string) stepFunc {
	return func(_ context.Context, t *turn) error {
		city, ok := validate.Text(t.in.Text)
		if !ok {
			t.reject(replyEmpty)
			return nil
		}
		*field(&t.out.Session.Scratch) = validate.TitleCase(city)
		t.advance(next, prompt)
		return nil
	}
}

func parcelDescriptionStep(_ context.Context, t *turn) error {
	desc, ok := validate.Text(t.in.Text)
	if !ok {
		t.reject(replyEmpty)
		return nil
	}
	t.out.Session.Scratch.Description = desc
	t.advance(model.StateParcelDate, replyAskParcelDate)
	return nil
}

// draftDate reads back the date slot. A missing or corrupt slot means the draft
// was not written by this flow, so the session restarts from the menu.
func (t *turn) draftDate() (time.Time, bool) {
	d, ok := validate.Date(t.out.Session.Scratch.Date)
	if !ok {
		t.out.Kind = KindValidation
		t.reset(replyLostDraft)
	}
	return d, ok
}

func publishStep(_ context.Context, t *turn) error {
	desc, ok := validate.Text(t.in.Text)
	if !ok {
		t.reject(replyEmpty)
		return nil
	}
	draft := t.out.Session.Scratch
	date, ok := t.draftDate()
	if !ok {
		return nil
	}
	if draft.Origin == "" || draft.Destination == "" {
		t.out.Kind = KindValidation
		t.reset(replyLostDraft)
		return nil
	}

	trip := model.Trip{
		CarrierID:   t.in.User.ID,
		Date:        date,
		Origin:      draft.Origin,
		Destination: draft.Destination,
		Description: desc,
		CreatedAt:   t.in.Now,
	}
	t.out.Trip = &trip
	t.reset(replyTripPublished(trip))
	return nil
}

func searchStep(ctx context.Context, t *turn) error {
	dest, ok := validate.Text(t.in.Text)
	if !ok {
		t.reject(replyEmpty)
		return nil
	}
	date, ok := t.draftDate()
	if !ok {
		return nil
	}

	q := model.TripQuery{
		Date:        date,
		Origin:      t.out.Session.Scratch.Origin,
		Destination: validate.TitleCase(dest),
	}
	matches, err := t.lookup.SearchTrips(ctx, q)
	if err != nil {
		return fmt.Errorf("search trips: %w", err)
	}

	if len(matches) == 0 {
		t.out.Kind = KindNotFound
		t.reset(replyNoTrips(q))
		return nil
	}
	t.reset(replyTrips(q, matches))
	return nil
}

func (e *Engine) parcelStep(_ context.Context, t *turn) error {
	dest, ok := validate.Text(t.in.Text)
	if !ok {
		t.reject(replyEmpty)
		return nil
	}
	draft := t.out.Session.Scratch
	date, ok := t.draftDate()
	if !ok {
		return nil
	}
	if draft.Description == "" {
		t.out.Kind = KindValidation
		t.reset(replyLostDraft)
		return nil
	}

	p := model.ParcelRequest{
		Reference:   e.newRef(),
		UserID:      t.in.User.ID,
		Description: draft.Description,
		Date:        date,
		Destination: validate.TitleCase(dest),
		Status:      model.ParcelPending,
		CreatedAt:   t.in.Now,
	}
	t.out.Parcel = &p
	t.reset(replyParcelCreated(p))
	return nil
}

func trackStep(ctx context.Context, t *turn) error {
	ref, ok := validate.Text(t.in.Text)
	if !ok {
		t.reject(replyEmpty)
		return nil
	}
	ref = strings.ToUpper(ref)

	p, err := t.lookup.ParcelByReference(ctx, ref)
	if err != nil {
		return fmt.Errorf("parcel by reference: %w", err)
	}
	if p == nil {
		t.out.Kind = KindNotFound
		t.reset(replyParcelNotFound(ref))
		return nil
	}
	t.reset(replyParcelStatus(*p))
	return nil
}

// rateStep records a rating without touching the session state.
func rateStep(ctx context.Context, t *turn, text string) error {
	cmd, err := rating.Parse(text)
	if err != nil {
		t.out.Kind = KindValidation
		t.out.Reply = replyRatingFormat
		return nil
	}

	candidates, err := t.lookup.CarriersByName(ctx, strings.ToLower(cmd.Name))
	if err != nil {
		return fmt.Errorf("carriers by name: %w", err)
	}

	carrier, res := rating.Resolve(cmd.Name, candidates)
	switch res {
	case rating.NotFound:
		t.out.Kind = KindNotFound
		t.out.Reply = replyCarrierNotFound(cmd.Name)
		return nil
	case rating.Ambiguous:
		t.out.Kind = KindAmbiguous
		t.out.Reply = replyCarrierAmbiguous(cmd.Name)
		return nil
	}

	t.out.Rating = &model.Rating{
		CarrierID: carrier.ID,
		Score:     cmd.Score,
		Comment:   cmd.Comment,
		CreatedAt: t.in.Now,
	}
	t.out.Reply = replyRated(carrier.DisplayName(), cmd.Score)
	return nil
}

