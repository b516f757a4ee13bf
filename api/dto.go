package api

import (
	"time"

	webmail "github.com/emailapp/webmail"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SignupRequest creates an account.
type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// LoginRequest authenticates a user.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *webmail.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// SendMailRequest delivers a mail to one or more recipients.
// Recipients may be user IDs or email addresses.
type SendMailRequest struct {
	Recipients     []string `json:"recipients"`
	Subject        string   `json:"subject"`
	Body           string   `json:"body"`
	HasAttachments bool     `json:"has_attachments"`
}

// SendMailResponse reports a completed delivery.
type SendMailResponse struct {
	MailID       string    `json:"mail_id"`
	RecipientIDs []string  `json:"recipient_ids"`
	SentAt       time.Time `json:"sent_at"`
}

// MailResponse is one mail as seen by the requesting user.
type MailResponse struct {
	MailID      string     `json:"mail_id"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	SenderName  string     `json:"sender_name"`
	SenderEmail string     `json:"sender_email"`
	SentAt      time.Time  `json:"sent_at"`
	Folder      string     `json:"folder"`
	Role        string     `json:"role"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	IsStarred   bool       `json:"is_starred"`
	ReceivedAt  time.Time  `json:"received_at"`
}

func toMailResponse(v *webmail.MailView) MailResponse {
	return MailResponse{
		MailID:      v.MailID,
		Subject:     v.Subject,
		Body:        v.Body,
		SenderName:  v.SenderName,
		SenderEmail: v.SenderEmail,
		SentAt:      v.SentAt,
		Folder:      string(v.Folder),
		Role:        string(v.Role),
		IsRead:      v.IsRead,
		ReadAt:      v.ReadAt,
		IsStarred:   v.IsStarred,
		ReceivedAt:  v.ReceivedAt,
	}
}

// MailListResponse is a folder page.
type MailListResponse struct {
	Mails []MailResponse `json:"mails"`
	Count int            `json:"count"`
}

// UnreadCountResponse carries the ledger-wide unread counter.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// StarResponse reports the starred flag after a toggle.
type StarResponse struct {
	IsStarred bool `json:"is_starred"`
}

// DeleteResponse reports what a delete did.
type DeleteResponse struct {
	Trashed bool `json:"trashed"`
	Purged  bool `json:"purged"`
}

// SummaryResponse carries an AI digest of one mail.
type SummaryResponse struct {
	MailID  string `json:"mail_id"`
	Summary string `json:"summary"`
}

// SmartRepliesResponse carries suggested replies for one mail.
type SmartRepliesResponse struct {
	MailID  string   `json:"mail_id"`
	Replies []string `json:"replies"`
}
