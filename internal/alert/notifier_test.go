package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferunner/saferunner/internal/directory"
	"github.com/saferunner/saferunner/internal/session"
	"github.com/saferunner/saferunner/internal/testutil"
)

const owner = int64(999)

func missedPayload(loc session.Location) session.DeadlinePayload {
	return session.DeadlinePayload{OwnerID: owner, Location: loc}
}

func TestFanOutToAllContacts(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	msgr.SetName(owner, "Owner Name")

	dir := directory.New()
	dir.AddContact(owner, 11)
	dir.AddContact(owner, 22)

	n := NewNotifier(msgr, msgr, dir)
	n.DeadlineMissed(context.Background(), missedPayload(session.Coordinates(1.3000, 103.8000)))

	// Owner: announcement plus final summary.
	assert.True(t, msgr.ReceivedText(owner, "Notifying your contacts"))
	assert.True(t, msgr.ReceivedText(owner, "Attempted to notify 2"))

	// Each contact: alert text naming the owner, then a coordinates pin.
	for _, contact := range []int64{11, 22} {
		sent := msgr.SentTo(contact)
		require.Len(t, sent, 2, "contact %d", contact)
		assert.Contains(t, sent[0].Text, "Safety alert for Owner Name")
		assert.True(t, sent[1].Pin)
		assert.Equal(t, 1.3000, sent[1].Lat)
		assert.Equal(t, 103.8000, sent[1].Lon)
	}
}

func TestFanOutFreeTextLocation(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	dir := directory.New()
	dir.AddContact(owner, 11)

	loc, err := session.FreeText("MacRitchie boardwalk")
	require.NoError(t, err)

	n := NewNotifier(msgr, msgr, dir)
	n.DeadlineMissed(context.Background(), missedPayload(loc))

	texts := msgr.TextsTo(11)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "Last reported location: MacRitchie boardwalk")
}

func TestFanOutNoLocation(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	dir := directory.New()
	dir.AddContact(owner, 11)

	n := NewNotifier(msgr, msgr, dir)
	n.DeadlineMissed(context.Background(), missedPayload(session.Location{}))

	sent := msgr.SentTo(11)
	require.Len(t, sent, 1, "alert text only, no location follow-up")
}

func TestFanOutEmptyContactSet(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	n := NewNotifier(msgr, msgr, directory.New())
	n.DeadlineMissed(context.Background(), missedPayload(session.Location{}))

	assert.True(t, msgr.ReceivedText(owner, "No authorized contacts found"))
	assert.False(t, msgr.ReceivedText(owner, "Attempted to notify"))
}

func TestBlacklistedContactSkipped(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	dir := directory.New()
	dir.AddContact(owner, 11)
	dir.AddContact(owner, 22)
	dir.BlacklistAdd(22, owner)

	n := NewNotifier(msgr, msgr, dir)
	n.DeadlineMissed(context.Background(), missedPayload(session.Coordinates(1.3, 103.8)))

	assert.Empty(t, msgr.SentTo(22), "blacklisted contact receives nothing")
	assert.Len(t, msgr.SentTo(11), 2, "other contact still alerted")

	// Summary counts the resolved set before blacklist filtering.
	assert.True(t, msgr.ReceivedText(owner, "Attempted to notify 2"))
}

func TestDeliveryFailureDoesNotStopFanOut(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	msgr.FailChat(11)

	dir := directory.New()
	dir.AddContact(owner, 11)
	dir.AddContact(owner, 22)

	n := NewNotifier(msgr, msgr, dir)
	n.DeadlineMissed(context.Background(), missedPayload(session.Coordinates(1.3, 103.8)))

	assert.Empty(t, msgr.SentTo(11))
	assert.Len(t, msgr.SentTo(22), 2, "failure for one contact must not abort the rest")
	assert.True(t, msgr.ReceivedText(owner, "Attempted to notify 2"))
}

func TestOwnerUnreachableStillAlertsContacts(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	msgr.FailChat(owner)

	dir := directory.New()
	dir.AddContact(owner, 11)

	n := NewNotifier(msgr, msgr, dir)
	n.DeadlineMissed(context.Background(), missedPayload(session.Location{}))

	assert.Len(t, msgr.SentTo(11), 1)
}

func TestUnknownOwnerNameFallsBack(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	dir := directory.New()
	dir.AddContact(owner, 11)

	n := NewNotifier(msgr, nil, dir)
	n.DeadlineMissed(context.Background(), missedPayload(session.Location{}))

	texts := msgr.TextsTo(11)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Safety alert for the user")
}

func TestContactListResolvedAtFanOutTime(t *testing.T) {
	msgr := testutil.NewFakeMessenger()
	dir := directory.New()
	dir.AddContact(owner, 11)

	n := NewNotifier(msgr, msgr, dir)

	// Edits made after arming are reflected.
	dir.AddContact(owner, 33)
	n.DeadlineMissed(context.Background(), missedPayload(session.Location{}))

	assert.Len(t, msgr.SentTo(33), 1)
	assert.True(t, msgr.ReceivedText(owner, "Attempted to notify 2"))
}
