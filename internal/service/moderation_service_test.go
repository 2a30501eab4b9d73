package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
)

type memReports struct {
	items []*models.Report
}

func (m *memReports) Create(ctx context.Context, r *models.Report) error {
	r.ID = uuid.New()
	cp := *r
	m.items = append(m.items, &cp)
	return nil
}

func (m *memReports) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	for _, r := range m.items {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrReportNotFound
}

func (m *memReports) ExistsPending(ctx context.Context, reporterID, reportedUserID uuid.UUID, listingID *uuid.UUID) (bool, error) {
	for _, r := range m.items {
		if r.Status != models.ReportStatusPending || r.ReporterID != reporterID || r.ReportedUserID != reportedUserID {
			continue
		}
		if (r.ListingID == nil && listingID == nil) || (r.ListingID != nil && listingID != nil && *r.ListingID == *listingID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memReports) CountPendingAgainst(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, r := range m.items {
		if r.ReportedUserID == userID && r.Status == models.ReportStatusPending {
			n++
		}
	}
	return n, nil
}

func (m *memReports) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.items {
		if r.ReporterID == reporterID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReports) ListAgainst(ctx context.Context, userID uuid.UUID, limit int) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.items {
		if r.ReportedUserID == userID && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReports) ListPending(ctx context.Context, limit, offset int) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.items {
		if r.Status == models.ReportStatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReports) Review(ctx context.Context, id uuid.UUID, status string, notes *string, reviewerID uuid.UUID, at time.Time) error {
	for _, r := range m.items {
		if r.ID == id {
			r.Status = status
			r.AdminNotes = notes
			r.ReviewedBy = &reviewerID
			r.ReviewedAt = &at
			return nil
		}
	}
	return repository.ErrReportNotFound
}

type memSuspensions struct {
	items []*models.Suspension
}

func (m *memSuspensions) Create(ctx context.Context, s *models.Suspension) error {
	s.ID = uuid.New()
	cp := *s
	m.items = append(m.items, &cp)
	return nil
}

func (m *memSuspensions) GetByID(ctx context.Context, id uuid.UUID) (*models.Suspension, error) {
	for _, s := range m.items {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrSuspensionNotFound
}

func (m *memSuspensions) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Suspension, error) {
	var out []models.Suspension
	for _, s := range m.items {
		if s.UserID == userID && s.ActiveAt(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSuspensions) Deactivate(ctx context.Context, id uuid.UUID) error {
	for _, s := range m.items {
		if s.ID == id {
			s.IsActive = false
			return nil
		}
	}
	return repository.ErrSuspensionNotFound
}

type moderationFixture struct {
	svc         *ModerationService
	reports     *memReports
	suspensions *memSuspensions
	notifier    *recordingNotifier
	activity    *recordingActivity
	target      *models.User
	reporters   []*models.User
}

func newModerationFixture(reporters int) *moderationFixture {
	f := &moderationFixture{
		reports:     &memReports{},
		suspensions: &memSuspensions{},
		notifier:    &recordingNotifier{},
		activity:    &recordingActivity{},
		target:      newUser("target"),
	}
	users := []*models.User{f.target}
	for i := 0; i < reporters; i++ {
		u := newUser("reporter" + string(rune('a'+i)))
		f.reporters = append(f.reporters, u)
		users = append(users, u)
	}
	f.svc = NewModerationService(f.reports, f.suspensions, newMemUsers(users...), newMemListings(), &fakeTx{}, f.notifier, f.activity)
	f.svc.now = fixedClock(testNow)
	return f
}

func (f *moderationFixture) report(t *testing.T, i int) *ReportResult {
	t.Helper()
	res, err := f.svc.SubmitReport(context.Background(), ReportInput{
		ReporterID:     f.reporters[i].ID,
		ReportedUserID: f.target.ID,
		ReportType:     models.ReportTypeScam,
		Reason:         "asked for money before returning my id card",
	})
	require.NoError(t, err)
	return res
}

func TestEscalationFor(t *testing.T) {
	tests := []struct {
		count    int
		ok       bool
		kind     string
		duration time.Duration
	}{
		{0, false, "", 0},
		{1, false, "", 0},
		{2, true, models.SuspensionChatBan, 7 * 24 * time.Hour},
		{4, true, models.SuspensionChatBan, 7 * 24 * time.Hour},
		{5, true, models.SuspensionFull, 30 * 24 * time.Hour},
		{9, true, models.SuspensionFull, 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		esc, ok := EscalationFor(tt.count)
		assert.Equal(t, tt.ok, ok, "count %d", tt.count)
		assert.Equal(t, tt.kind, esc.Type, "count %d", tt.count)
		assert.Equal(t, tt.duration, esc.Duration, "count %d", tt.count)
	}
}

func TestSubmitReport_EscalationLadder(t *testing.T) {
	f := newModerationFixture(5)
	ctx := context.Background()

	res := f.report(t, 0)
	assert.Nil(t, res.Suspension)
	canChat, err := f.svc.CanChat(ctx, f.target.ID)
	require.NoError(t, err)
	assert.True(t, canChat)

	res = f.report(t, 1)
	require.NotNil(t, res.Suspension)
	assert.Equal(t, models.SuspensionChatBan, res.Suspension.SuspensionType)
	assert.Equal(t, 2, res.Suspension.ReportCount)
	assert.Equal(t, testNow.Add(ChatBanDuration), res.Suspension.EndDate)

	canChat, err = f.svc.CanChat(ctx, f.target.ID)
	require.NoError(t, err)
	assert.False(t, canChat)
	canPost, err := f.svc.CanPost(ctx, f.target.ID)
	require.NoError(t, err)
	assert.True(t, canPost)

	f.report(t, 2)
	f.report(t, 3)
	res = f.report(t, 4)
	require.NotNil(t, res.Suspension)
	assert.Equal(t, models.SuspensionFull, res.Suspension.SuspensionType)
	assert.Equal(t, testNow.Add(FullSuspensionDuration), res.Suspension.EndDate)
	assert.Equal(t, "Multiple reports filed against user (Total: 5)", res.Suspension.Reason)

	canPost, err = f.svc.CanPost(ctx, f.target.ID)
	require.NoError(t, err)
	assert.False(t, canPost)
	assert.True(t, apperror.IsForbidden(f.svc.RequirePost(ctx, f.target.ID)))

	// Каждая жалоба с 2-й по 4-ю выдаёт chat_ban, 5-я выдаёт full_suspension.
	assert.Len(t, f.suspensions.items, 4)
	assert.Contains(t, f.notifier.titles(), "Account Suspended")
	assert.Contains(t, f.notifier.titles(), "Chat Disabled")
}

func TestSubmitReport_SuspensionExpires(t *testing.T) {
	f := newModerationFixture(5)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.report(t, i)
	}

	f.svc.now = fixedClock(testNow.Add(FullSuspensionDuration - time.Minute))
	canPost, err := f.svc.CanPost(ctx, f.target.ID)
	require.NoError(t, err)
	assert.False(t, canPost)

	f.svc.now = fixedClock(testNow.Add(FullSuspensionDuration + time.Minute))
	canPost, err = f.svc.CanPost(ctx, f.target.ID)
	require.NoError(t, err)
	assert.True(t, canPost)
	canChat, err := f.svc.CanChat(ctx, f.target.ID)
	require.NoError(t, err)
	assert.True(t, canChat)
}

func TestSubmitReport_Rejections(t *testing.T) {
	f := newModerationFixture(1)
	ctx := context.Background()

	_, err := f.svc.SubmitReport(ctx, ReportInput{
		ReporterID:     f.target.ID,
		ReportedUserID: f.target.ID,
		ReportType:     models.ReportTypeScam,
		Reason:         "self",
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.SubmitReport(ctx, ReportInput{
		ReporterID:     f.reporters[0].ID,
		ReportedUserID: f.target.ID,
		ReportType:     "spam",
		Reason:         "nope",
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.SubmitReport(ctx, ReportInput{
		ReporterID:     f.reporters[0].ID,
		ReportedUserID: f.target.ID,
		ReportType:     models.ReportTypeHarassment,
		Reason:         "   ",
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.SubmitReport(ctx, ReportInput{
		ReporterID:     f.reporters[0].ID,
		ReportedUserID: uuid.New(),
		ReportType:     models.ReportTypeHarassment,
		Reason:         "ghost",
	})
	assert.True(t, apperror.IsNotFound(err))

	f.report(t, 0)
	_, err = f.svc.SubmitReport(ctx, ReportInput{
		ReporterID:     f.reporters[0].ID,
		ReportedUserID: f.target.ID,
		ReportType:     models.ReportTypeScam,
		Reason:         "again",
	})
	assert.True(t, apperror.IsConflict(err))
	assert.Len(t, f.reports.items, 1)
}

func TestSubmitReport_DuplicateAllowedAfterReview(t *testing.T) {
	f := newModerationFixture(1)
	ctx := context.Background()
	admin := uuid.New()

	first := f.report(t, 0)
	_, err := f.svc.ReviewReport(ctx, first.Report.ID, admin, models.ReportStatusDismissed, nil)
	require.NoError(t, err)

	f.report(t, 0)
	assert.Len(t, f.reports.items, 2)
}

func TestChatStatus_ReportsRemainingTime(t *testing.T) {
	f := newModerationFixture(2)
	ctx := context.Background()
	f.report(t, 0)
	f.report(t, 1)

	f.svc.now = fixedClock(testNow.Add(24*time.Hour + 30*time.Minute))
	status, err := f.svc.ChatStatus(ctx, f.target.ID)
	require.NoError(t, err)
	assert.False(t, status.ChatEnabled)
	assert.Equal(t, models.SuspensionChatBan, status.SuspensionType)
	assert.Equal(t, "5d 23h", status.RemainingTime)

	err = f.svc.RequireChat(ctx, f.target.ID)
	require.Error(t, err)
	appErr, ok := apperror.From(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodeSuspended, appErr.Code)
	assert.Contains(t, appErr.Message, "5d 23h")
}

func TestProfile_SummarisesModeration(t *testing.T) {
	f := newModerationFixture(2)
	f.report(t, 0)
	f.report(t, 1)

	profile, err := f.svc.Profile(context.Background(), f.target.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.PendingReports)
	assert.Len(t, profile.ActiveSuspensions, 1)
	assert.Len(t, profile.RecentReports, 2)
	assert.True(t, profile.CanPost)
	assert.False(t, profile.CanChat)
}

func TestReviewReport_RejectsPendingStatus(t *testing.T) {
	f := newModerationFixture(1)
	res := f.report(t, 0)

	_, err := f.svc.ReviewReport(context.Background(), res.Report.ID, uuid.New(), models.ReportStatusPending, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.ReviewReport(context.Background(), uuid.New(), uuid.New(), models.ReportStatusResolved, nil)
	assert.True(t, apperror.IsNotFound(err))
}

func TestIssueAndLiftSuspension(t *testing.T) {
	f := newModerationFixture(0)
	ctx := context.Background()

	s, err := f.svc.IssueSuspension(ctx, SuspensionInput{
		UserID:         f.target.ID,
		SuspensionType: models.SuspensionPostingBan,
		Reason:         "spam listings",
		Duration:       48 * time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(48*time.Hour), s.EndDate)

	canPost, err := f.svc.CanPost(ctx, f.target.ID)
	require.NoError(t, err)
	assert.False(t, canPost)
	canChat, err := f.svc.CanChat(ctx, f.target.ID)
	require.NoError(t, err)
	assert.True(t, canChat)

	require.NoError(t, f.svc.LiftSuspension(ctx, s.ID))
	canPost, err = f.svc.CanPost(ctx, f.target.ID)
	require.NoError(t, err)
	assert.True(t, canPost)

	assert.Equal(t, []string{"Account Restricted", "Restriction Lifted"}, f.notifier.titles())
	assert.True(t, apperror.IsNotFound(f.svc.LiftSuspension(ctx, uuid.New())))
}
