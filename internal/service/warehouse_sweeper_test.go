package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

func TestSweep_MovesOnlyExpiredPending(t *testing.T) {
	owner := newUser("owner")
	expired := newListing(owner, models.ListingStatusLost, "Blue umbrella", "left in UB", testNow.Add(-200*time.Hour))
	fresh := newListing(owner, models.ListingStatusFound, "Calculator", "casio", testNow.Add(-time.Hour))
	claimed := newListing(owner, models.ListingStatusClaimed, "Wallet", "brown", testNow.Add(-300*time.Hour))
	listings := newMemListings(expired, fresh, claimed)

	notifier := &recordingNotifier{}
	mailer := &recordingMailer{}
	activity := &recordingActivity{}
	sweeper := NewWarehouseSweeper(listings, newMemUsers(owner), notifier, mailer, activity)

	moved, err := sweeper.Sweep(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	got, _ := listings.GetByID(context.Background(), expired.ID)
	assert.Equal(t, models.ListingStatusWarehouse, got.Status)
	got, _ = listings.GetByID(context.Background(), fresh.ID)
	assert.Equal(t, models.ListingStatusFound, got.Status)
	got, _ = listings.GetByID(context.Background(), claimed.ID)
	assert.Equal(t, models.ListingStatusClaimed, got.Status)

	sent := notifier.to(owner.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, "Item moved to warehouse", sent[0].Title)
	assert.Equal(t, "Your item 'Blue umbrella' has been moved to the warehouse.", sent[0].Message)
	assert.Equal(t, "/#item-"+expired.ID.String(), sent[0].URL)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Status update for 'Blue umbrella': lost -> warehouse", mailer.sent[0].Subject)
	assert.Equal(t, []string{models.ActivityItemWarehoused}, activity.types())
}

func TestSweep_Idempotent(t *testing.T) {
	owner := newUser("owner")
	listings := newMemListings(newListing(owner, models.ListingStatusFound, "Keys", "three keys", testNow.Add(-151*time.Hour)))
	notifier := &recordingNotifier{}
	sweeper := NewWarehouseSweeper(listings, newMemUsers(owner), notifier, nil, nil)

	moved, err := sweeper.Sweep(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	moved, err = sweeper.Sweep(context.Background(), testNow)
	require.NoError(t, err)
	assert.Zero(t, moved)
	assert.Len(t, notifier.sent, 1)
}

func TestSweep_DeadlineBoundary(t *testing.T) {
	owner := newUser("owner")
	l := newListing(owner, models.ListingStatusLost, "Earbuds", "white case", testNow.Add(-models.WarehouseWindow))
	listings := newMemListings(l)
	sweeper := NewWarehouseSweeper(listings, nil, nil, nil, nil)

	moved, err := sweeper.Sweep(context.Background(), testNow.Add(-time.Second))
	require.NoError(t, err)
	assert.Zero(t, moved)

	moved, err = sweeper.Sweep(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
}

func TestSweep_NotificationFailureDoesNotUndoMove(t *testing.T) {
	owner := newUser("owner")
	l := newListing(owner, models.ListingStatusLost, "Notebook", "green", testNow.Add(-200*time.Hour))
	listings := newMemListings(l)
	sweeper := NewWarehouseSweeper(listings, newMemUsers(owner), &recordingNotifier{err: errFake}, &recordingMailer{err: errFake}, nil)

	moved, err := sweeper.Sweep(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	got, _ := listings.GetByID(context.Background(), l.ID)
	assert.Equal(t, models.ListingStatusWarehouse, got.Status)
}

func TestExpiryReport_ListsUpcomingAndOverdue(t *testing.T) {
	owner := newUser("owner")
	overdue := newListing(owner, models.ListingStatusLost, "Umbrella", "black", testNow.Add(-151*time.Hour))
	soon := newListing(owner, models.ListingStatusFound, "Keys", "two keys", testNow.Add(-140*time.Hour))
	later := newListing(owner, models.ListingStatusLost, "Laptop", "grey", testNow.Add(-time.Hour))
	stored := newListing(owner, models.ListingStatusWarehouse, "Bottle", "steel", testNow.Add(-400*time.Hour))
	listings := newMemListings(overdue, soon, later, stored)

	lines, err := ExpiryReport(context.Background(), listings, testNow, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, overdue.ID, lines[0].ListingID)
	assert.Equal(t, ExpiredLabel, lines[0].Remaining)
	assert.Equal(t, soon.ID, lines[1].ListingID)
	assert.Equal(t, "10h 0m remaining", lines[1].Remaining)
}
