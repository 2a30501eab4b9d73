package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/metrics"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/pkg/apperror"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
)

// Пороги эскалации по числу ожидающих жалоб.
const (
	ChatBanThreshold        = 2
	FullSuspensionThreshold = 5
	ChatBanDuration         = 7 * 24 * time.Hour
	FullSuspensionDuration  = 30 * 24 * time.Hour

	recentReportsInProfile = 5
)

// ReportRepository описывает хранилище жалоб.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ExistsPending(ctx context.Context, reporterID, reportedUserID uuid.UUID, listingID *uuid.UUID) (bool, error)
	CountPendingAgainst(ctx context.Context, userID uuid.UUID) (int, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error)
	ListAgainst(ctx context.Context, userID uuid.UUID, limit int) ([]models.Report, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.Report, error)
	Review(ctx context.Context, id uuid.UUID, status string, notes *string, reviewerID uuid.UUID, at time.Time) error
}

// SuspensionRepository описывает хранилище ограничений.
type SuspensionRepository interface {
	Create(ctx context.Context, s *models.Suspension) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Suspension, error)
	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Suspension, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// UserReader - чтение пользователей.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ListingReader - чтение объявлений.
type ListingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// Escalation - ограничение, которое полагается при данном числе жалоб.
type Escalation struct {
	Type     string
	Duration time.Duration
	Reason   string
	Title    string
	Message  string
}

// EscalationFor возвращает ограничение для count ожидающих жалоб.
// Срабатывает только старший уровень.
func EscalationFor(count int) (Escalation, bool) {
	switch {
	case count >= FullSuspensionThreshold:
		return Escalation{
			Type:     models.SuspensionFull,
			Duration: FullSuspensionDuration,
			Reason:   fmt.Sprintf("Multiple reports filed against user (Total: %d)", count),
			Title:    "Account Suspended",
			Message:  "Your account has been suspended for 30 days due to multiple reports. You cannot post or chat during this period.",
		}, true
	case count >= ChatBanThreshold:
		return Escalation{
			Type:     models.SuspensionChatBan,
			Duration: ChatBanDuration,
			Reason:   fmt.Sprintf("Chat disabled due to multiple reports (Total: %d)", count),
			Title:    "Chat Disabled",
			Message:  "Your chat has been disabled for 7 days due to multiple reports. You can still post items but cannot send messages.",
		}, true
	default:
		return Escalation{}, false
	}
}

// ReportInput - данные новой жалобы.
type ReportInput struct {
	ReporterID     uuid.UUID
	ReportedUserID uuid.UUID
	ListingID      *uuid.UUID
	ReportType     string
	Reason         string
	Evidence       *string
}

// ReportResult - принятая жалоба и выданное ограничение, если было.
type ReportResult struct {
	Report     *models.Report     `json:"report"`
	Suspension *models.Suspension `json:"suspension,omitempty"`
}

// ChatStatus описывает, может ли пользователь писать в чат.
type ChatStatus struct {
	ChatEnabled    bool       `json:"chat_enabled"`
	SuspensionType string     `json:"suspension_type,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	RemainingTime  string     `json:"remaining_time,omitempty"`
	Message        string     `json:"message"`
}

// ModerationProfile - сводка модерации для профиля.
type ModerationProfile struct {
	PendingReports    int                 `json:"pending_reports"`
	ActiveSuspensions []models.Suspension `json:"active_suspensions"`
	RecentReports     []models.Report     `json:"recent_reports"`
	CanPost           bool                `json:"can_post"`
	CanChat           bool                `json:"can_chat"`
}

// SuspensionInput - ручное ограничение от администратора.
type SuspensionInput struct {
	UserID         uuid.UUID
	SuspensionType string
	Reason         string
	Duration       time.Duration
}

// ModerationService принимает жалобы и управляет ограничениями.
type ModerationService struct {
	reports     ReportRepository
	suspensions SuspensionRepository
	users       UserReader
	listings    ListingReader
	tx          Transactor
	notifier    Notifier
	activity    ActivityRecorder
	now         Clock
}

// NewModerationService создаёт сервис модерации.
func NewModerationService(
	reports ReportRepository,
	suspensions SuspensionRepository,
	users UserReader,
	listings ListingReader,
	tx Transactor,
	notifier Notifier,
	activity ActivityRecorder,
) *ModerationService {
	return &ModerationService{
		reports:     reports,
		suspensions: suspensions,
		users:       users,
		listings:    listings,
		tx:          tx,
		notifier:    notifier,
		activity:    activity,
		now:         systemClock,
	}
}

// activeKinds возвращает множество действующих сейчас видов ограничений.
func (s *ModerationService) activeKinds(ctx context.Context, userID uuid.UUID) (map[string]models.Suspension, error) {
	now := s.now()
	rows, err := s.suspensions.ListActive(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	kinds := make(map[string]models.Suspension, len(rows))
	for _, row := range rows {
		if !row.ActiveAt(now) {
			continue
		}
		if existing, ok := kinds[row.SuspensionType]; ok && existing.EndDate.After(row.EndDate) {
			continue
		}
		kinds[row.SuspensionType] = row
	}
	return kinds, nil
}

// CanPost - нет действующих full_suspension и posting_ban.
func (s *ModerationService) CanPost(ctx context.Context, userID uuid.UUID) (bool, error) {
	kinds, err := s.activeKinds(ctx, userID)
	if err != nil {
		return false, err
	}
	_, full := kinds[models.SuspensionFull]
	_, posting := kinds[models.SuspensionPostingBan]
	return !full && !posting, nil
}

// CanChat - нет действующих full_suspension и chat_ban.
func (s *ModerationService) CanChat(ctx context.Context, userID uuid.UUID) (bool, error) {
	kinds, err := s.activeKinds(ctx, userID)
	if err != nil {
		return false, err
	}
	_, full := kinds[models.SuspensionFull]
	_, chat := kinds[models.SuspensionChatBan]
	return !full && !chat, nil
}

// SubmitReport принимает жалобу и применяет эскалацию в той же транзакции.
func (s *ModerationService) SubmitReport(ctx context.Context, in ReportInput) (*ReportResult, error) {
	reason := strings.TrimSpace(in.Reason)
	if in.ReporterID == in.ReportedUserID {
		return nil, apperror.Validation("you cannot report yourself")
	}
	if _, ok := models.ValidReportTypes[in.ReportType]; !ok {
		return nil, apperror.Validation("report type must be scam or harassment")
	}
	if reason == "" {
		return nil, apperror.Validation("please provide a reason for the report")
	}

	if _, err := s.users.GetByID(ctx, in.ReportedUserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	if in.ListingID != nil {
		if _, err := s.listings.GetByID(ctx, *in.ListingID); err != nil {
			if errors.Is(err, repository.ErrListingNotFound) {
				return nil, apperror.ErrListingNotFound
			}
			return nil, err
		}
	}

	result := &ReportResult{}
	var escalation Escalation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		duplicate, err := s.reports.ExistsPending(ctx, in.ReporterID, in.ReportedUserID, in.ListingID)
		if err != nil {
			return err
		}
		if duplicate {
			return apperror.New(apperror.ErrCodeConflict, "you have already reported this user for this item")
		}

		now := s.now()
		report := &models.Report{
			ReporterID:     in.ReporterID,
			ReportedUserID: in.ReportedUserID,
			ListingID:      in.ListingID,
			ReportType:     in.ReportType,
			Reason:         reason,
			Evidence:       in.Evidence,
			Status:         models.ReportStatusPending,
			CreatedAt:      now,
		}
		if err := s.reports.Create(ctx, report); err != nil {
			return err
		}
		result.Report = report

		count, err := s.reports.CountPendingAgainst(ctx, in.ReportedUserID)
		if err != nil {
			return err
		}

		var ok bool
		escalation, ok = EscalationFor(count)
		if !ok {
			return nil
		}

		suspension := &models.Suspension{
			UserID:         in.ReportedUserID,
			SuspensionType: escalation.Type,
			Reason:         escalation.Reason,
			ReportCount:    count,
			StartDate:      now,
			EndDate:        now.Add(escalation.Duration),
			IsActive:       true,
		}
		if err := s.suspensions.Create(ctx, suspension); err != nil {
			return err
		}
		result.Suspension = suspension
		return nil
	})
	if err != nil {
		if _, ok := apperror.From(err); ok {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "error submitting report, please try again")
	}

	metrics.ReportsFiled.WithLabelValues(in.ReportType).Inc()
	if result.Suspension != nil {
		metrics.SuspensionsIssued.WithLabelValues(result.Suspension.SuspensionType, "escalation").Inc()
		notifyQuietly(ctx, s.notifier, in.ReportedUserID, escalation.Title, escalation.Message, "/profile")
	}
	notifyQuietly(ctx, s.notifier, in.ReportedUserID, "New Report Filed",
		"A report has been filed against your account. Please review your behavior.", "/profile")

	recordActivity(ctx, s.activity, ActivityEntry{
		UserID:      in.ReporterID,
		Type:        models.ActivityReportFiled,
		Description: fmt.Sprintf("Reported user for %s", in.ReportType),
		ListingID:   in.ListingID,
		Metadata: map[string]interface{}{
			"reported_user_id": in.ReportedUserID.String(),
			"report_type":      in.ReportType,
		},
	})

	return result, nil
}

// MyReports возвращает жалобы, поданные пользователем.
func (s *ModerationService) MyReports(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	reports, err := s.reports.ListByReporter(ctx, reporterID, limit, offset)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// ChatStatus сообщает, может ли пользователь писать, и что его блокирует.
func (s *ModerationService) ChatStatus(ctx context.Context, userID uuid.UUID) (*ChatStatus, error) {
	kinds, err := s.activeKinds(ctx, userID)
	if err != nil {
		return nil, err
	}

	blocking, ok := kinds[models.SuspensionFull]
	if !ok {
		blocking, ok = kinds[models.SuspensionChatBan]
	}
	if !ok {
		return &ChatStatus{ChatEnabled: true, Message: "Chat is enabled"}, nil
	}

	remaining := formatSuspensionRemaining(blocking.EndDate, s.now())
	end := blocking.EndDate
	return &ChatStatus{
		ChatEnabled:    false,
		SuspensionType: blocking.SuspensionType,
		Reason:         blocking.Reason,
		EndDate:        &end,
		RemainingTime:  remaining,
		Message:        fmt.Sprintf("Your chat has been disabled for %s due to multiple reports.", remaining),
	}, nil
}

// RequireChat возвращает ошибку с остатком времени, если чат заблокирован.
func (s *ModerationService) RequireChat(ctx context.Context, userID uuid.UUID) error {
	status, err := s.ChatStatus(ctx, userID)
	if err != nil {
		return err
	}
	if !status.ChatEnabled {
		return apperror.New(apperror.ErrCodeSuspended, status.Message+" You can still post items but cannot send messages.")
	}
	return nil
}

// RequirePost возвращает ошибку, если публикация запрещена.
func (s *ModerationService) RequirePost(ctx context.Context, userID uuid.UUID) error {
	ok, err := s.CanPost(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(apperror.ErrCodeSuspended, "your account is suspended from posting items, please check your profile for details")
	}
	return nil
}

// Profile собирает сводку модерации для профиля пользователя.
func (s *ModerationService) Profile(ctx context.Context, userID uuid.UUID) (*ModerationProfile, error) {
	pending, err := s.reports.CountPendingAgainst(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rows, err := s.suspensions.ListActive(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	active := make([]models.Suspension, 0, len(rows))
	canPost, canChat := true, true
	for _, row := range rows {
		if !row.ActiveAt(now) {
			continue
		}
		active = append(active, row)
		switch row.SuspensionType {
		case models.SuspensionFull:
			canPost, canChat = false, false
		case models.SuspensionPostingBan:
			canPost = false
		case models.SuspensionChatBan:
			canChat = false
		}
	}

	recent, err := s.reports.ListAgainst(ctx, userID, recentReportsInProfile)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.Report{}
	}

	return &ModerationProfile{
		PendingReports:    pending,
		ActiveSuspensions: active,
		RecentReports:     recent,
		CanPost:           canPost,
		CanChat:           canChat,
	}, nil
}

// ListPendingReports возвращает очередь жалоб для администратора.
func (s *ModerationService) ListPendingReports(ctx context.Context, limit, offset int) ([]models.Report, error) {
	reports, err := s.reports.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// ReviewReport меняет статус жалобы. Выданные ограничения не отзываются.
func (s *ModerationService) ReviewReport(ctx context.Context, reportID, adminID uuid.UUID, status string, notes *string) (*models.Report, error) {
	if _, ok := models.ValidReportStatuses[status]; !ok || status == models.ReportStatusPending {
		return nil, apperror.Validation("status must be reviewed, resolved or dismissed")
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}

	now := s.now()
	if err := s.reports.Review(ctx, reportID, status, notes, adminID, now); err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}

	report.Status = status
	report.AdminNotes = notes
	report.ReviewedBy = &adminID
	report.ReviewedAt = &now

	if status == models.ReportStatusDismissed {
		active, err := s.suspensions.ListActive(ctx, report.ReportedUserID, now)
		if err == nil && len(active) > 0 {
			logger.WithFields(logrus.Fields{
				"report_id":          reportID,
				"reported_user_id":   report.ReportedUserID,
				"active_suspensions": len(active),
			}).Warn("moderation: report dismissed while suspensions remain active")
		}
	}

	return report, nil
}

// IssueSuspension выдаёт ограничение вручную.
func (s *ModerationService) IssueSuspension(ctx context.Context, in SuspensionInput) (*models.Suspension, error) {
	if _, ok := models.ValidSuspensionTypes[in.SuspensionType]; !ok {
		return nil, apperror.Validation("unknown suspension type")
	}
	if in.Duration <= 0 {
		return nil, apperror.Validation("suspension duration must be positive")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperror.Validation("please provide a reason for the suspension")
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	now := s.now()
	suspension := &models.Suspension{
		UserID:         in.UserID,
		SuspensionType: in.SuspensionType,
		Reason:         reason,
		StartDate:      now,
		EndDate:        now.Add(in.Duration),
		IsActive:       true,
	}
	if err := s.suspensions.Create(ctx, suspension); err != nil {
		return nil, err
	}

	metrics.SuspensionsIssued.WithLabelValues(in.SuspensionType, "admin").Inc()
	notifyQuietly(ctx, s.notifier, in.UserID, "Account Restricted",
		fmt.Sprintf("A moderator has applied a %s until %s. Reason: %s",
			strings.ReplaceAll(in.SuspensionType, "_", " "), suspension.EndDate.Format("2006-01-02 15:04"), reason),
		"/profile")

	return suspension, nil
}

// LiftSuspension снимает ограничение досрочно.
func (s *ModerationService) LiftSuspension(ctx context.Context, id uuid.UUID) error {
	suspension, err := s.suspensions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSuspensionNotFound) {
			return apperror.ErrSuspensionNotFound
		}
		return err
	}

	if err := s.suspensions.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrSuspensionNotFound) {
			return apperror.ErrSuspensionNotFound
		}
		return err
	}

	notifyQuietly(ctx, s.notifier, suspension.UserID, "Restriction Lifted",
		"A moderator has lifted a restriction on your account.", "/profile")
	return nil
}
