// Package alert delivers missed-deadline notifications to a runner's
// contacts.
//
// Everything here is best-effort: correctness of the safety feature
// depends on attempting delivery, not guaranteeing it. Individual send
// failures are logged and swallowed so one unreachable contact never
// stops delivery to the rest.
package alert

import (
	"context"
	"fmt"

	"github.com/saferunner/saferunner/internal/directory"
	"github.com/saferunner/saferunner/internal/logging"
	"github.com/saferunner/saferunner/internal/session"
)

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendCoordinates(ctx context.Context, chatID int64, lat, lon float64) error
}

// NameResolver looks up a user-facing display name for a chat id.
type NameResolver interface {
	DisplayName(ctx context.Context, chatID int64) (string, error)
}

// Notifier fans a missed-deadline alert out to the owner's authorized,
// non-blacklisted contacts.
type Notifier struct {
	msgr  Messenger
	names NameResolver
	dir   *directory.Directory
}

// NewNotifier creates a fan-out notifier. names may be nil, in which
// case alerts fall back to a generic owner reference.
func NewNotifier(msgr Messenger, names NameResolver, dir *directory.Directory) *Notifier {
	return &Notifier{msgr: msgr, names: names, dir: dir}
}

// DeadlineMissed implements session.Alerter.
//
// The contact set is resolved now, not at scheduling time, so list edits
// made after the session was armed are honored. The final summary
// reports the size of the resolved set before blacklist filtering.
func (n *Notifier) DeadlineMissed(ctx context.Context, p session.DeadlinePayload) {
	owner := p.OwnerID

	n.send(ctx, owner,
		"End time reached and no completion recorded. Notifying your contacts now.")

	contacts := n.dir.ListContacts(owner)
	if len(contacts) == 0 {
		n.send(ctx, owner, "No authorized contacts found. Use /link to add some.")
		return
	}

	alertText := fmt.Sprintf(
		"Safety alert for %s\nThey did not check in as completed by their planned end time.",
		n.ownerName(ctx, owner))

	for _, contact := range contacts {
		if n.dir.IsBlacklisted(contact, owner) {
			logging.Debug("skipping blacklisted contact",
				logging.Int64("owner", owner), logging.Int64("contact", contact))
			continue
		}
		n.alertContact(ctx, contact, alertText, p.Location)
	}

	n.send(ctx, owner, fmt.Sprintf("Attempted to notify %d contact(s).", len(contacts)))
}

// alertContact delivers the alert text plus, when a location was
// reported, a coordinates pin or the free-text description.
func (n *Notifier) alertContact(ctx context.Context, contact int64, text string, loc session.Location) {
	if err := n.msgr.SendText(ctx, contact, text); err != nil {
		logging.Warn("alert delivery failed",
			logging.Int64("contact", contact), logging.Err(err))
		return
	}

	switch loc.Kind {
	case session.LocationCoords:
		if err := n.msgr.SendCoordinates(ctx, contact, loc.Lat, loc.Lon); err != nil {
			logging.Warn("location delivery failed",
				logging.Int64("contact", contact), logging.Err(err))
		}
	case session.LocationText:
		if err := n.msgr.SendText(ctx, contact, "Last reported location: "+loc.Text); err != nil {
			logging.Warn("location delivery failed",
				logging.Int64("contact", contact), logging.Err(err))
		}
	}
}

// send is a best-effort text to the owner; failures are logged only.
func (n *Notifier) send(ctx context.Context, chatID int64, text string) {
	if err := n.msgr.SendText(ctx, chatID, text); err != nil {
		logging.Warn("owner message failed",
			logging.Int64("chat", chatID), logging.Err(err))
	}
}

func (n *Notifier) ownerName(ctx context.Context, owner int64) string {
	if n.names == nil {
		return "the user"
	}
	name, err := n.names.DisplayName(ctx, owner)
	if err != nil || name == "" {
		return "the user"
	}
	return name
}
