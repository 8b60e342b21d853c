package comms

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tmaswali/shule/core"
)

// Message types
const (
	TypeDirect = "direct"
	TypeGroup  = "group"
)

// Announcement audiences
const (
	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceTeachers = "teachers"
	AudienceParents  = "parents"
)

// Announcement priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Party identifies a messaging participant. The acting user is always passed
// in explicitly; the store holds no notion of a "current user".
type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	SenderRole     string    `json:"sender_role"`
	RecipientID    string    `json:"recipient_id"`
	RecipientName  string    `json:"recipient_name"`
	RecipientRole  string    `json:"recipient_role"`
	Subject        string    `json:"subject,omitempty"`
	Text           string    `json:"text"`
	SentAt         time.Time `json:"sent_at"` // UTC
	Read           bool      `json:"read"`
	Type           string    `json:"type"`
}

// Conversation tracks the latest message between two participants along with
// a per-participant unread counter.
type Conversation struct {
	ID              string         `json:"id"`
	Participants    []string       `json:"participants"`
	LastMessage     string         `json:"last_message"`
	LastMessageTime time.Time      `json:"last_message_time"` // UTC
	UnreadCount     map[string]int `json:"unread_count"`
}

type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	AuthorRole  string    `json:"author_role"`
	Audience    string    `json:"audience"` // all|students|teachers|parents; empty when AudienceIDs is set
	AudienceIDs []string  `json:"audience_ids,omitempty"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	PostedAt    time.Time `json:"posted_at"` // UTC
	ReadBy      []string  `json:"read_by"`
}

// VisibleTo reports whether the announcement targets the given user.
func (a *Announcement) VisibleTo(userID, role string) bool {
	if len(a.AudienceIDs) > 0 {
		for _, id := range a.AudienceIDs {
			if id == userID {
				return true
			}
		}
		return false
	}
	return a.Audience == AudienceAll || a.Audience == role+"s"
}

// IsReadBy reports whether the given user has read the announcement.
func (a *Announcement) IsReadBy(userID string) bool {
	for _, id := range a.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

type Notification struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Type    string    `json:"type"` // grade|reminder|info|...
	Link    string    `json:"link,omitempty"`
	SentAt  time.Time `json:"sent_at"` // UTC
	Read    bool      `json:"read"`
}

// Data is the communication collection: one persisted document holding all
// messaging state.
type Data struct {
	Messages      []Message      `json:"messages"`
	Conversations []Conversation `json:"conversations"`
	Announcements []Announcement `json:"announcements"`
	Notifications []Notification `json:"notifications"`
}

// NewMessage contains information needed to send a direct message.
type NewMessage struct {
	ConversationID string `json:"conversation_id"`
	RecipientID    string `json:"recipient_id" validate:"required"`
	RecipientName  string `json:"recipient_name"`
	RecipientRole  string `json:"recipient_role"`
	Subject        string `json:"subject"`
	Text           string `json:"text" validate:"required"`
	Type           string `json:"type"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Text = core.CleanString(nm.Text)
	return validate.Struct(nm)
}

// NewAnnouncement contains information needed to post an announcement.
type NewAnnouncement struct {
	Title       string   `json:"title" validate:"required"`
	Content     string   `json:"content" validate:"required"`
	Audience    string   `json:"audience"`
	AudienceIDs []string `json:"audience_ids"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

// NewNotification contains information needed to notify a single user.
type NewNotification struct {
	UserID  string `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
	Type    string `json:"type"`
	Link    string `json:"link"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	return validate.Struct(nn)
}

// UnreadCounts is the per-user unread summary shown in portal headers.
type UnreadCounts struct {
	Messages      int `json:"messages"`
	Announcements int `json:"announcements"`
	Notifications int `json:"notifications"`
	Total         int `json:"total"`
}

// UserConversation is a conversation decorated with the requesting user's
// view of it.
type UserConversation struct {
	Conversation
	OtherParticipant Party `json:"other_participant"`
	Unread           int   `json:"unread"`
}
