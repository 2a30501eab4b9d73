package service

import (
	"fmt"
	"strings"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

const (
	emailFooter    = "This is an automated message."
	deadlineLayout = "2006-01-02 15:04:05"
)

func submissionEmail(user *models.User, l *models.Listing) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Username)
	fmt.Fprintf(&b, "Your %s item has been submitted successfully.\n\n", l.Status)
	b.WriteString("Item details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", l.Name)
	fmt.Fprintf(&b, "- Description: %s\n", l.Description)
	fmt.Fprintf(&b, "- Status: %s\n", l.Status)
	fmt.Fprintf(&b, "- Warehouse deadline: %s\n\n", l.WarehouseDeadline.Format(deadlineLayout))
	b.WriteString(emailFooter)

	subject := fmt.Sprintf("%s item submitted: %s", capitalize(l.Status), l.Name)
	return subject, b.String()
}

func statusEmail(user *models.User, l *models.Listing, oldStatus, newStatus string) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Username)
	b.WriteString("The status of your item has changed.\n\n")
	b.WriteString("Item details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", l.Name)
	fmt.Fprintf(&b, "- Previous status: %s\n", oldStatus)
	fmt.Fprintf(&b, "- New status: %s\n", newStatus)
	fmt.Fprintf(&b, "- Warehouse deadline: %s\n\n", l.WarehouseDeadline.Format(deadlineLayout))
	b.WriteString(emailFooter)

	return fmt.Sprintf("Status update for '%s': %s -> %s", l.Name, oldStatus, newStatus), b.String()
}

func deletedEmail(user *models.User, l *models.Listing, previousStatus, undoURL string) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Username)
	b.WriteString("Your item has been removed from the portal.\n\n")
	b.WriteString("Item details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", l.Name)
	fmt.Fprintf(&b, "- Previous status: %s\n", previousStatus)
	b.WriteString("- New status: deleted\n")
	if undoURL != "" {
		fmt.Fprintf(&b, "\nUndo removal: %s\n", undoURL)
	}
	b.WriteString("\n" + emailFooter)

	return fmt.Sprintf("Item removed: %s", l.Name), b.String()
}

func verificationEmail(code string) (string, string) {
	body := fmt.Sprintf("Your verification code is: %s\n\nThe code expires in 10 minutes.\n\n%s", code, emailFooter)
	return "Verify your email", body
}

// codeEmail собирает письмо с одноразовым кодом.
func codeEmail(intro, code, outro string) string {
	return fmt.Sprintf("%s\n\nVerification code: %s\n\nThis code will expire in 10 minutes.\n%s\n\n%s", intro, code, outro, emailFooter)
}

func passwordResetEmail(code string) (string, string) {
	return "Password Reset Verification Code",
		codeEmail("You have requested to reset your password.", code, "If you did not request this code, please ignore this email.")
}

func identityEmail(code string) (string, string) {
	return "Verify your identity to change email",
		codeEmail("You requested to change your account email.", code, "If you did not request this, please secure your account.")
}

func newEmailVerificationEmail(code string) (string, string) {
	return "Verify your new email address",
		codeEmail("You're changing your account email to this address.", code, "If you did not request this, ignore this email.")
}

func profileUpdateEmail(code string) (string, string) {
	return "Confirm Profile Update",
		codeEmail("You attempted to update your profile information.", code, "If you did not request this change, please review your account activity.")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
