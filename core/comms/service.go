package comms

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core"
)

var (
	// errors
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

type (
	// Repository persists the whole communication document.
	Repository interface {
		GetComms() (Data, error)
		PutComms(data Data) error
	}

	Service struct {
		repo   Repository
		events core.Broadcaster[Data]
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subscribe registers fn to run with the full document after every mutation.
func (svc *Service) Subscribe(fn func(Data)) (unsubscribe func()) {
	return svc.events.Subscribe(fn)
}

func (svc *Service) publish() {
	if data, err := svc.repo.GetComms(); err == nil {
		svc.events.Publish(data)
	}
}

// SendMessage appends the message and upserts its conversation: last message,
// last message time and the recipient's unread counter.
func (svc *Service) SendMessage(sender Party, nm NewMessage) (Message, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return Message{}, err
	}

	msgType := nm.Type
	if msgType == "" {
		msgType = TypeDirect
	}
	convID := nm.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}
	now := time.Now().UTC()
	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		SenderRole:     sender.Role,
		RecipientID:    nm.RecipientID,
		RecipientName:  nm.RecipientName,
		RecipientRole:  nm.RecipientRole,
		Subject:        nm.Subject,
		Text:           nm.Text,
		SentAt:         now,
		Read:           false,
		Type:           msgType,
	}
	data.Messages = append(data.Messages, msg)

	convIdx := -1
	for i, c := range data.Conversations {
		if c.ID == convID {
			convIdx = i
			break
		}
	}
	if convIdx >= 0 {
		conv := &data.Conversations[convIdx]
		conv.LastMessage = msg.Text
		conv.LastMessageTime = msg.SentAt
		if conv.UnreadCount == nil {
			conv.UnreadCount = make(map[string]int)
		}
		conv.UnreadCount[nm.RecipientID]++
	} else {
		data.Conversations = append(data.Conversations, Conversation{
			ID:              convID,
			Participants:    []string{sender.ID, nm.RecipientID},
			LastMessage:     msg.Text,
			LastMessageTime: msg.SentAt,
			UnreadCount:     map[string]int{nm.RecipientID: 1, sender.ID: 0},
		})
	}

	if err = svc.repo.PutComms(data); err != nil {
		return Message{}, err
	}
	svc.publish()
	return msg, nil
}

// QueryConversationMessages returns the conversation's messages, oldest first.
func (svc *Service) QueryConversationMessages(conversationID string) ([]Message, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return nil, err
	}
	var msgs []Message
	for _, m := range data.Messages {
		if m.ConversationID == conversationID {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	return msgs, nil
}

// QueryUserConversations returns the user's conversations, most recent first,
// decorated with the other participant and the user's unread count.
func (svc *Service) QueryUserConversations(usr Party) ([]UserConversation, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return nil, err
	}

	var convs []UserConversation
	for _, conv := range data.Conversations {
		participant := false
		for _, p := range conv.Participants {
			if p == usr.ID {
				participant = true
				break
			}
		}
		if !participant {
			continue
		}

		var other Party
		for _, p := range conv.Participants {
			if p != usr.ID {
				other.ID = p
				break
			}
		}
		// resolve the other party's name/role from the latest message
		for i := len(data.Messages) - 1; i >= 0; i-- {
			m := data.Messages[i]
			if m.ConversationID != conv.ID {
				continue
			}
			if m.SenderID == other.ID {
				other.Name, other.Role = m.SenderName, m.SenderRole
			} else {
				other.Name, other.Role = m.RecipientName, m.RecipientRole
			}
			break
		}

		convs = append(convs, UserConversation{
			Conversation:     conv,
			OtherParticipant: other,
			Unread:           conv.UnreadCount[usr.ID],
		})
	}
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastMessageTime.After(convs[j].LastMessageTime)
	})
	return convs, nil
}

// MarkMessageRead flags a single message as read.
func (svc *Service) MarkMessageRead(messageID string) error {
	data, err := svc.repo.GetComms()
	if err != nil {
		return err
	}
	for i, m := range data.Messages {
		if m.ID == messageID {
			data.Messages[i].Read = true
			if err = svc.repo.PutComms(data); err != nil {
				return err
			}
			svc.publish()
			return nil
		}
	}
	return ErrMessageNotFound
}

// MarkConversationRead zeroes the reading user's unread counter and marks the
// messages they received in the conversation as read. Other participants'
// counters are untouched.
func (svc *Service) MarkConversationRead(conversationID, userID string) error {
	data, err := svc.repo.GetComms()
	if err != nil {
		return err
	}

	convIdx := -1
	for i, c := range data.Conversations {
		if c.ID == conversationID {
			convIdx = i
			break
		}
	}
	if convIdx < 0 {
		return ErrConversationNotFound
	}

	for i, m := range data.Messages {
		if m.ConversationID == conversationID && m.RecipientID == userID {
			data.Messages[i].Read = true
		}
	}
	if data.Conversations[convIdx].UnreadCount == nil {
		data.Conversations[convIdx].UnreadCount = make(map[string]int)
	}
	data.Conversations[convIdx].UnreadCount[userID] = 0

	if err = svc.repo.PutComms(data); err != nil {
		return err
	}
	svc.publish()
	return nil
}

// CreateAnnouncement posts an announcement, newest first.
func (svc *Service) CreateAnnouncement(author Party, na NewAnnouncement) (Announcement, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return Announcement{}, err
	}

	audience := na.Audience
	if audience == "" && len(na.AudienceIDs) == 0 {
		audience = AudienceAll
	}
	priority := na.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	category := na.Category
	if category == "" {
		category = "General"
	}
	ann := Announcement{
		ID:          uuid.NewString(),
		Title:       na.Title,
		Content:     na.Content,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorRole:  author.Role,
		Audience:    audience,
		AudienceIDs: na.AudienceIDs,
		Priority:    priority,
		Category:    category,
		PostedAt:    time.Now().UTC(),
		ReadBy:      []string{},
	}
	data.Announcements = append([]Announcement{ann}, data.Announcements...)

	if err = svc.repo.PutComms(data); err != nil {
		return Announcement{}, err
	}
	svc.publish()
	return ann, nil
}

// QueryUserAnnouncements returns the announcements visible to the user,
// newest first.
func (svc *Service) QueryUserAnnouncements(usr Party) ([]Announcement, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return nil, err
	}
	var anns []Announcement
	for _, a := range data.Announcements {
		if a.VisibleTo(usr.ID, usr.Role) {
			anns = append(anns, a)
		}
	}
	sort.SliceStable(anns, func(i, j int) bool { return anns[i].PostedAt.After(anns[j].PostedAt) })
	return anns, nil
}

// MarkAnnouncementRead adds the user to the announcement's read set.
func (svc *Service) MarkAnnouncementRead(announcementID, userID string) error {
	data, err := svc.repo.GetComms()
	if err != nil {
		return err
	}
	for i, a := range data.Announcements {
		if a.ID != announcementID {
			continue
		}
		if a.IsReadBy(userID) {
			return nil
		}
		data.Announcements[i].ReadBy = append(data.Announcements[i].ReadBy, userID)
		if err = svc.repo.PutComms(data); err != nil {
			return err
		}
		svc.publish()
		return nil
	}
	return ErrAnnouncementNotFound
}

// CreateNotification notifies a single user, newest first.
func (svc *Service) CreateNotification(nn NewNotification) (Notification, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return Notification{}, err
	}

	notifType := nn.Type
	if notifType == "" {
		notifType = "info"
	}
	notif := Notification{
		ID:      uuid.NewString(),
		UserID:  nn.UserID,
		Title:   nn.Title,
		Message: nn.Message,
		Type:    notifType,
		Link:    nn.Link,
		SentAt:  time.Now().UTC(),
		Read:    false,
	}
	data.Notifications = append([]Notification{notif}, data.Notifications...)

	if err = svc.repo.PutComms(data); err != nil {
		return Notification{}, err
	}
	svc.publish()
	return notif, nil
}

// QueryUserNotifications returns the user's notifications, newest first.
func (svc *Service) QueryUserNotifications(userID string) ([]Notification, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return nil, err
	}
	var notifs []Notification
	for _, n := range data.Notifications {
		if n.UserID == userID {
			notifs = append(notifs, n)
		}
	}
	sort.SliceStable(notifs, func(i, j int) bool { return notifs[i].SentAt.After(notifs[j].SentAt) })
	return notifs, nil
}

// MarkNotificationRead flags a notification as read.
func (svc *Service) MarkNotificationRead(notificationID string) error {
	data, err := svc.repo.GetComms()
	if err != nil {
		return err
	}
	for i, n := range data.Notifications {
		if n.ID == notificationID {
			data.Notifications[i].Read = true
			if err = svc.repo.PutComms(data); err != nil {
				return err
			}
			svc.publish()
			return nil
		}
	}
	return ErrNotificationNotFound
}

// QueryUnreadCounts sums the user's unread messages, announcements and
// notifications.
func (svc *Service) QueryUnreadCounts(usr Party) (UnreadCounts, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return UnreadCounts{}, err
	}

	var counts UnreadCounts
	for _, conv := range data.Conversations {
		for _, p := range conv.Participants {
			if p == usr.ID {
				counts.Messages += conv.UnreadCount[usr.ID]
				break
			}
		}
	}
	for _, a := range data.Announcements {
		if len(a.AudienceIDs) == 0 && a.VisibleTo(usr.ID, usr.Role) && !a.IsReadBy(usr.ID) {
			counts.Announcements++
		}
	}
	for _, n := range data.Notifications {
		if n.UserID == usr.ID && !n.Read {
			counts.Notifications++
		}
	}
	counts.Total = counts.Messages + counts.Announcements + counts.Notifications
	return counts, nil
}

// SearchMessages does a case-insensitive match over the user's messages: text,
// subject and participant names.
func (svc *Service) SearchMessages(usr Party, query string) ([]Message, error) {
	data, err := svc.repo.GetComms()
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(core.CleanString(query))

	var matched []Message
	for _, m := range data.Messages {
		if m.SenderID != usr.ID && m.RecipientID != usr.ID {
			continue
		}
		if strings.Contains(strings.ToLower(m.Text), query) ||
			strings.Contains(strings.ToLower(m.Subject), query) ||
			strings.Contains(strings.ToLower(m.SenderName), query) ||
			strings.Contains(strings.ToLower(m.RecipientName), query) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}
