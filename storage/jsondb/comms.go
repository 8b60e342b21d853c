package jsondb

import (
	"sync"

	"github.com/tmaswali/shule/core/comms"
)

// CommsRepository implements comms.Repository. Messages, conversations,
// announcements and notifications share one JSON document.
type CommsRepository struct {
	mu  sync.RWMutex
	col collection[comms.Data]
}

var _ comms.Repository = (*CommsRepository)(nil)

func NewCommsRepository(be Backend) *CommsRepository {
	return &CommsRepository{
		col: collection[comms.Data]{
			be:  be,
			key: commsKey,
			def: func() comms.Data {
				return comms.Data{
					Messages:      []comms.Message{},
					Conversations: []comms.Conversation{},
					Announcements: []comms.Announcement{},
					Notifications: []comms.Notification{},
				}
			},
		},
	}
}

func (r *CommsRepository) GetComms() (comms.Data, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.col.load(), nil
}

func (r *CommsRepository) PutComms(data comms.Data) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.col.save(data)
}
