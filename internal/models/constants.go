package models

// Статусы объявлений
const (
	ListingStatusLost      = "lost"
	ListingStatusFound     = "found"
	ListingStatusWarehouse = "warehouse"
	ListingStatusClaimed   = "claimed"
	ListingStatusDeleted   = "deleted"
)

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Типы действий в журнале активности
const (
	ActivityLogin            = "login"
	ActivityLogout           = "logout"
	ActivityRegister         = "register"
	ActivityItemCreated      = "item_created"
	ActivityItemUpdated      = "item_updated"
	ActivityItemDeleted      = "item_deleted"
	ActivityItemRestored     = "item_restored"
	ActivityItemClaimed      = "item_claimed"
	ActivityItemMarkedFound  = "item_marked_found"
	ActivityItemWarehoused   = "item_warehoused"
	ActivityReportFiled      = "report_filed"
	ActivityChatStarted      = "chat_started"
	ActivityMessageSent      = "message_sent"
	ActivityItemRecovered    = "item_recovered"
	ActivityContactRequested = "contact_requested"
	ActivityExported         = "activity_exported"
	ActivityPosterGenerated  = "poster_generated"
	ActivityPasswordReset    = "password_reset"
	ActivityEmailChanged     = "email_change"
	ActivityProfileUpdated   = "profile_update"
)

// Назначения кодов подтверждения
const (
	CodePurposeEmailVerify   = "email_verify"
	CodePurposePasswordReset = "password_reset"
	CodePurposeEmailIdentity = "email_change_identity"
	CodePurposeEmailConfirm  = "email_change_confirm"
	CodePurposeProfileUpdate = "profile_update"
)

// ValidListingStatuses список валидных статусов объявлений
var ValidListingStatuses = map[string]struct{}{
	ListingStatusLost:      {},
	ListingStatusFound:     {},
	ListingStatusWarehouse: {},
	ListingStatusClaimed:   {},
	ListingStatusDeleted:   {},
}

// ValidReportTypes список допустимых типов жалоб
var ValidReportTypes = map[string]struct{}{
	ReportTypeScam:       {},
	ReportTypeHarassment: {},
}

// ValidReportStatuses список статусов жалоб
var ValidReportStatuses = map[string]struct{}{
	ReportStatusPending:   {},
	ReportStatusReviewed:  {},
	ReportStatusResolved:  {},
	ReportStatusDismissed: {},
}

// ValidSuspensionTypes список видов ограничений
var ValidSuspensionTypes = map[string]struct{}{
	SuspensionPostingBan: {},
	SuspensionChatBan:    {},
	SuspensionFull:       {},
}
