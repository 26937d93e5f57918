package views

import (
	"context"
	"fmt"

	"mindconnect/internal/model"
)

type Notifications struct {
	*List[model.Notification]
	d Deps
}

func NewNotifications(d Deps) *Notifications {
	res := Resource[model.Notification]{
		Name:   "notifications",
		Prompt: "Are you sure you want to delete this notification?",
		ID:     func(n model.Notification) int64 { return n.ID },
		Fetch: func(ctx context.Context) ([]model.Notification, error) {
			id, err := d.me()
			if err != nil {
				return nil, err
			}
			return d.API.NotificationsByUser(ctx, id)
		},
		Remove: d.API.DeleteNotification,
	}
	return &Notifications{List: NewList(res, d.logger()), d: d}
}

func (n *Notifications) MarkRead(ctx context.Context, id int64) error {
	if err := n.d.API.MarkNotificationRead(ctx, id); err != nil {
		n.log.Error("mark read failed", "id", id, "err", err)
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	n.refresh(ctx)
	return nil
}

func (n *Notifications) Unread() int {
	count := 0
	for _, it := range n.Items() {
		if !it.Read {
			count++
		}
	}
	return count
}
