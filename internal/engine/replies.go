package engine

import (
	"fmt"
	"strings"

	"github.com/jmehdipour/parcel-relay/internal/model"
)

const (
	replyMenu = "Welcome to Parcel Relay!\n" +
		"1. Find a carrier\n" +
		"2. Become a carrier / publish a trip\n" +
		"3. Send a parcel\n" +
		"4. Track a parcel (or: track <reference>)\n" +
		"To rate a carrier: note <name> <comment> <1-5>\n" +
		"Type menu at any time to start over."

	replyInvalidChoice = "Invalid choice. Reply 1, 2, 3 or 4, or type menu."
	replyBadDate       = "Bad format. Please use YYYY-MM-DD (e.g. 2025-06-01)."
	replyEmpty         = "This field cannot be empty. Please try again."
	replyLostDraft     = "Your previous answers were lost. Let's start over.\n\n" + replyMenu

	replyAskName        = "Enter your full name (carrier)."
	replyAskPublishDate = "What is your departure date? (YYYY-MM-DD)"
	replyAskOrigin      = "Departure city?"
	replyAskDestination = "Destination city?"
	replyAskTripDesc    = "Describe your trip (space available, accepted parcels, price...)."

	replyAskSearchDate = "On which date should the parcel leave? (YYYY-MM-DD)"

	replyAskParcelDesc = "Describe your parcel (content, size, weight)."
	replyAskParcelDate = "Desired shipping date? (YYYY-MM-DD)"

	replyAskReference = "Enter your tracking reference (e.g. AX01HZK3QF)."

	replyRatingFormat = "Format error. Use: note <name> <comment> <score 1-5>"
)

func replyRegistered(name string) string {
	return fmt.Sprintf("Thanks %s, you are now registered as a carrier.\n%s", name, replyAskPublishDate)
}

func replyTripPublished(t model.Trip) string {
	return fmt.Sprintf("Thanks! Your trip %s → %s on %s is published. You will be notified of parcels.",
		t.Origin, t.Destination, t.Date.Format(model.DateLayout))
}

func replyParcelCreated(p model.ParcelRequest) string {
	return fmt.Sprintf("Your request is recorded with reference %s. Carriers going to %s on %s will contact you.",
		p.Reference, p.Destination, p.Date.Format(model.DateLayout))
}

func replyParcelStatus(p model.ParcelRequest) string {
	return fmt.Sprintf("Parcel %s to %s on %s: %s.",
		p.Reference, p.Destination, p.Date.Format(model.DateLayout), p.Status)
}

func replyParcelNotFound(ref string) string {
	return fmt.Sprintf("No parcel found with reference %s. Type menu to start over.", ref)
}

func replyNoTrips(q model.TripQuery) string {
	return fmt.Sprintf("No carrier found on %s from %s to %s. Type menu to start over.",
		q.Date.Format(model.DateLayout), q.Origin, q.Destination)
}

func replyTrips(q model.TripQuery, matches []model.TripMatch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Carriers on %s from %s to %s:\n", q.Date.Format(model.DateLayout), q.Origin, q.Destination)
	for i, m := range matches {
		s := m.Summary()
		fmt.Fprintf(&sb, "%d. %s (%s) - %s - rating: %s", i+1, m.Carrier(), m.CarrierAddress, m.Description, s.Display())
		if s.LastComment != "" {
			fmt.Fprintf(&sb, " - %q", s.LastComment)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Contact the carrier directly. To rate them later: note <name> <comment> <1-5>")
	return sb.String()
}

func replyRated(name string, score int) string {
	return fmt.Sprintf("Thanks! Your rating %d/5 for %s is recorded.", score, name)
}

func replyCarrierNotFound(name string) string {
	return fmt.Sprintf("No carrier named %q was found.", name)
}

func replyCarrierAmbiguous(name string) string {
	return fmt.Sprintf("Several carriers match %q. Please type the full name.", name)
}
