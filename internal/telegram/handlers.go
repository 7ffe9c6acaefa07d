package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperr "github.com/saferunner/saferunner/internal/errors"
	"github.com/saferunner/saferunner/internal/logging"
	"github.com/saferunner/saferunner/internal/session"
	"github.com/saferunner/saferunner/internal/timeutil"
)

func (g *Gateway) handleCommand(chatID int64, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		g.cmdStart(chatID, msg)
	case "begin":
		g.cmdBegin(chatID)
	case "tz":
		g.cmdTimezone(chatID, args)
	case "link":
		g.cmdLink(chatID)
	case "offer":
		g.cmdOffer(chatID, args)
	case "contacts":
		g.cmdContacts(chatID)
	case "contactnames":
		g.cmdContactNames(chatID)
	case "removecontact":
		g.cmdRemoveContact(chatID, args)
	case "stopalerts":
		g.cmdStopAlerts(chatID)
	case "blacklist":
		g.cmdBlacklist(chatID, args)
	default:
		// unknown commands are ignored, same as unsolicited chatter
	}
}

func (g *Gateway) cmdStart(chatID int64, msg *tgbotapi.Message) {
	param, err := ParseStartParam(msg.CommandArguments())
	if err != nil {
		g.reply(chatID, "Invalid link parameter.")
		return
	}

	switch param.Kind {
	case StartAuthorize:
		g.dir.AddContact(param.OwnerID, chatID)
		g.persist()
		g.reply(chatID,
			"You're now authorized to receive alert messages if this user misses their "+
				"exercise check-in. You can /stopalerts later to opt out.")

	case StartAddContacts:
		added := 0
		for _, contact := range param.ContactIDs {
			if g.dir.AddContact(chatID, contact) {
				added++
			}
		}
		g.persist()
		g.reply(chatID, fmt.Sprintf(
			"Added %d contact(s) to your alert list. You now have %d authorized contact(s).",
			added, len(g.dir.ListContacts(chatID))))

	default:
		name := "there"
		if msg.From != nil && msg.From.FirstName != "" {
			name = msg.From.FirstName
		}
		g.reply(chatID, fmt.Sprintf(
			"Hi %s! I'll watch your exercise sessions.\n\n"+
				"- Use /link to generate your personal invite link. Share it with people you want alerted.\n"+
				"  They must open your link and press Start so I can DM them if needed.\n"+
				"- Use /begin to start a session: send your location (GPS or text) and your planned end time.\n"+
				"- Tap Complete when you're done. If you don't, I'll notify your contacts at the deadline.\n\n"+
				"Current timezone: %s (change with /tz <IANA_tz>, e.g. /tz Asia/Singapore)",
			name, g.prefs.Timezone(chatID)))
	}
}

func (g *Gateway) cmdBegin(chatID int64) {
	g.setAwaitingCustom(chatID, false)
	g.tracker.Begin(chatID)
	g.replyWith(chatID,
		"Let's begin. First, share your location (send a GPS pin with the button below), "+
			"or type an address/description.",
		func(m *tgbotapi.MessageConfig) { m.ReplyMarkup = locationKeyboard() })
}

func (g *Gateway) cmdTimezone(chatID int64, args []string) {
	if len(args) == 0 {
		g.reply(chatID, fmt.Sprintf(
			"Usage: /tz <IANA_timezone>\nExample: /tz Asia/Singapore\nCurrent: %s",
			g.prefs.Timezone(chatID)))
		return
	}
	tz := strings.Join(args, " ")
	if !timeutil.IsValidZone(tz) {
		g.reply(chatID, "Sorry, that timezone is not recognized.")
		return
	}
	g.prefs.SetTimezone(chatID, tz)
	g.persist()
	g.reply(chatID, fmt.Sprintf("Timezone set to %s.", tz))
}

func (g *Gateway) cmdLink(chatID int64) {
	link := BuildInviteLink(g.username, chatID)
	g.reply(chatID, fmt.Sprintf(
		"Share this link with people you want alerted:\n%s\n\n"+
			"They must open it and press Start. Currently authorized contacts: %d\n"+
			"You can check again with /contacts",
		link, len(g.dir.ListContacts(chatID))))
}

// cmdOffer builds a link the recipient opens to add the sender (and any
// extra ids given as arguments) to their own contact list.
func (g *Gateway) cmdOffer(chatID int64, args []string) {
	ids := []int64{chatID}
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			g.reply(chatID, fmt.Sprintf("%q is not a chat id.", a))
			return
		}
		ids = append(ids, id)
	}

	var link string
	var err error
	if len(ids) == 1 {
		link = BuildContactOfferLink(g.username, chatID)
	} else {
		link, err = BuildBundleLink(g.username, ids)
		if err != nil {
			g.reply(chatID, fmt.Sprintf(
				"Too many contacts for one link (max %d).", MaxBundleContacts))
			return
		}
	}
	g.reply(chatID, fmt.Sprintf(
		"Share this link with someone who should have you as an alert contact:\n%s", link))
}

func (g *Gateway) cmdContacts(chatID int64) {
	ids := g.dir.ListContacts(chatID)
	if len(ids) == 0 {
		g.reply(chatID, "No authorized contacts yet. Share /link.")
		return
	}
	g.reply(chatID, fmt.Sprintf("Authorized contacts: %d", len(ids)))
}

func (g *Gateway) cmdContactNames(chatID int64) {
	ids := g.dir.ListContacts(chatID)
	if len(ids) == 0 {
		g.reply(chatID, "No authorized contacts yet. Share /link.")
		return
	}

	var b strings.Builder
	b.WriteString("Authorized contacts:\n")
	for _, id := range ids {
		name, err := g.sender.DisplayName(context.Background(), id)
		if err != nil || name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(&b, "- %s (%d)\n", name, id)
	}
	g.reply(chatID, strings.TrimRight(b.String(), "\n"))
}

func (g *Gateway) cmdRemoveContact(chatID int64, args []string) {
	if len(args) != 1 {
		g.reply(chatID, "Usage: /removecontact <chat_id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		g.reply(chatID, "Usage: /removecontact <chat_id>")
		return
	}
	if g.dir.RemoveContact(chatID, id) {
		g.persist()
		g.reply(chatID, "Removed.")
	} else {
		g.reply(chatID, "That id is not in your list.")
	}
}

func (g *Gateway) cmdStopAlerts(chatID int64) {
	if g.dir.RemoveEverywhere(chatID) > 0 {
		g.persist()
		g.reply(chatID, "You'll no longer receive alerts.")
	} else {
		g.reply(chatID, "You weren't subscribed to any alerts.")
	}
}

func (g *Gateway) cmdBlacklist(chatID int64, args []string) {
	if len(args) == 0 {
		owners := g.dir.BlacklistList(chatID)
		if len(owners) == 0 {
			g.reply(chatID, "Your blacklist is empty.\nUsage: /blacklist add <owner_id> | remove <owner_id>")
			return
		}
		var b strings.Builder
		b.WriteString("Blocked owners:\n")
		for _, id := range owners {
			fmt.Fprintf(&b, "- %d\n", id)
		}
		g.reply(chatID, strings.TrimRight(b.String(), "\n"))
		return
	}

	if len(args) != 2 {
		g.reply(chatID, "Usage: /blacklist add <owner_id> | remove <owner_id>")
		return
	}
	owner, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		g.reply(chatID, "Usage: /blacklist add <owner_id> | remove <owner_id>")
		return
	}

	switch args[0] {
	case "add":
		g.dir.BlacklistAdd(chatID, owner)
		g.persist()
		g.reply(chatID, fmt.Sprintf("You will not receive alerts from %d.", owner))
	case "remove":
		if g.dir.BlacklistRemove(chatID, owner) {
			g.persist()
			g.reply(chatID, fmt.Sprintf("Alerts from %d are allowed again.", owner))
		} else {
			g.reply(chatID, fmt.Sprintf("%d was not blocked.", owner))
		}
	default:
		g.reply(chatID, "Usage: /blacklist add <owner_id> | remove <owner_id>")
	}
}

// handleIncomingCoordinates routes a GPS pin by session state.
func (g *Gateway) handleIncomingCoordinates(chatID int64, loc *tgbotapi.Location) {
	g.routeLocation(chatID, session.Coordinates(loc.Latitude, loc.Longitude))
}

// handleIncomingText routes free text: a pending custom end time, a
// location answer, or a mid-session location update.
func (g *Gateway) handleIncomingText(chatID int64, text string) {
	text = strings.TrimSpace(text)

	if g.isAwaitingCustom(chatID) {
		g.handleCustomTime(chatID, text)
		return
	}

	loc, err := session.FreeText(text)
	if err != nil {
		if g.tracker.State(chatID) == session.StateAwaitingLocation {
			g.reply(chatID, "Please send a location pin or type a location.")
		}
		return
	}
	g.routeLocation(chatID, loc)
}

func (g *Gateway) routeLocation(chatID int64, loc session.Location) {
	switch g.tracker.State(chatID) {
	case session.StateAwaitingLocation:
		if err := g.tracker.SubmitLocation(chatID, loc); err != nil {
			g.reply(chatID, "Please send a location pin or type a location.")
			return
		}
		g.promptForDeadline(chatID)

	case session.StateAwaitingDeadline, session.StateArmed:
		if g.tracker.UpdateLocation(chatID, loc) {
			g.reply(chatID, "Location updated.")
		}

	default:
		// no session, nothing to do with a stray location
	}
}

func (g *Gateway) promptForDeadline(chatID int64) {
	tz, err := timeutil.LoadZone(g.prefs.Timezone(chatID))
	if err != nil {
		tz = time.UTC
	}
	nowLocal := time.Now().In(tz).Format("15:04")

	g.replyWith(chatID,
		fmt.Sprintf("Great. What's your planned <b>end time</b>? (Local time now: %s)", nowLocal),
		func(m *tgbotapi.MessageConfig) {
			m.ParseMode = tgbotapi.ModeHTML
			m.ReplyMarkup = deadlineKeyboard()
		})
	g.replyWith(chatID, "You can also type a location update anytime.",
		func(m *tgbotapi.MessageConfig) {
			m.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		})
}

func (g *Gateway) handleCustomTime(chatID int64, text string) {
	hour, minute, err := timeutil.ParseHHMM(text)
	if err != nil {
		g.reply(chatID, "Please use HH:MM in 24-hour time (e.g., 07:30 or 19:05).")
		return
	}
	g.setAwaitingCustom(chatID, false)

	tz, err := timeutil.LoadZone(g.prefs.Timezone(chatID))
	if err != nil {
		tz = time.UTC
	}
	g.armSession(chatID, timeutil.NextOccurrence(time.Now(), hour, minute, tz), 0)
}

// armSession submits the deadline and announces the armed session. When
// editMessageID is non-zero the announcement replaces that message,
// otherwise a fresh one is sent.
func (g *Gateway) armSession(chatID int64, deadline time.Time, editMessageID int) {
	if err := g.tracker.SubmitDeadline(chatID, deadline); err != nil {
		if errors.Is(err, apperr.ErrSchedulerUnavailable) {
			g.reply(chatID, "Scheduling unavailable. I won't be able to alert contacts. Try again later.")
		} else {
			g.reply(chatID, "Sorry, something went wrong. Try /begin again.")
		}
		return
	}

	text := g.armedText(chatID)
	if editMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, editMessageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		kb := sessionKeyboard()
		edit.ReplyMarkup = &kb
		if err := g.sender.Deliver(context.Background(), edit); err != nil {
			logging.Warn("edit failed", logging.Int64("chat", chatID), logging.Err(err))
		}
		return
	}
	g.replyWith(chatID, text, func(m *tgbotapi.MessageConfig) {
		m.ParseMode = tgbotapi.ModeHTML
		m.ReplyMarkup = sessionKeyboard()
	})
}

func (g *Gateway) armedText(chatID int64) string {
	rec, ok := g.tracker.Get(chatID)
	if !ok {
		return "Session armed."
	}
	tz, err := timeutil.LoadZone(g.prefs.Timezone(chatID))
	if err != nil {
		tz = time.UTC
	}
	return fmt.Sprintf("Session armed.\n%s\nPlanned end: %s\n\nPress <b>Complete</b> when you finish.",
		rec.Location.Summary(), timeutil.FormatLocal(rec.Deadline, tz))
}

func (g *Gateway) handleCallback(cb *tgbotapi.CallbackQuery) {
	if err := g.sender.AnswerCallback(cb.ID); err != nil {
		logging.Debug("callback ack failed", logging.Err(err))
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	data := cb.Data

	switch {
	case data == cbComplete:
		if g.tracker.Resolve(chatID, session.OutcomeCompleted) {
			g.editText(chatID, msgID, "Nice work! Session marked complete. No alerts will be sent.")
		} else {
			g.editText(chatID, msgID, "No active session.")
		}

	case data == cbCancel:
		g.setAwaitingCustom(chatID, false)
		if g.tracker.Resolve(chatID, session.OutcomeCancelled) {
			g.editText(chatID, msgID, "Session cancelled.")
		} else {
			g.editText(chatID, msgID, "No active session.")
		}

	case data == cbCustom:
		g.setAwaitingCustom(chatID, true)
		g.editText(chatID, msgID, "Send the end time in 24h format HH:MM (e.g., 18:45).")

	case strings.HasPrefix(data, cbMins):
		mins, err := strconv.Atoi(strings.TrimPrefix(data, cbMins))
		if err != nil {
			g.editText(chatID, msgID, "Sorry, something went wrong. Try /begin again.")
			return
		}
		g.armSession(chatID, time.Now().Add(time.Duration(mins)*time.Minute), msgID)

	case strings.HasPrefix(data, cbExtend):
		mins, err := strconv.Atoi(strings.TrimPrefix(data, cbExtend))
		if err != nil {
			g.reply(chatID, "Sorry, I couldn't understand that extension request.")
			return
		}
		if _, err := g.tracker.Extend(chatID, time.Duration(mins)*time.Minute); err != nil {
			g.reply(chatID, "No active session to extend.")
			return
		}
		edit := tgbotapi.NewEditMessageText(chatID, msgID, g.armedText(chatID))
		edit.ParseMode = tgbotapi.ModeHTML
		kb := sessionKeyboard()
		edit.ReplyMarkup = &kb
		if err := g.sender.Deliver(context.Background(), edit); err != nil {
			logging.Warn("edit failed", logging.Int64("chat", chatID), logging.Err(err))
		}

	default:
		g.editText(chatID, msgID, "Sorry, invalid option.")
	}
}

func (g *Gateway) editText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if err := g.sender.Deliver(context.Background(), edit); err != nil {
		logging.Warn("edit failed", logging.Int64("chat", chatID), logging.Err(err))
	}
}
