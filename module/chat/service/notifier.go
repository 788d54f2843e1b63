package service

import (
	"strings"

	"PSocial/logger"
	"PSocial/service/chat"
	"PSocial/service/dispatcher"
	"PSocial/tools/safe"

	"go.uber.org/zap"
)

type InteractionKind string

const (
	KindLike    InteractionKind = "like"
	KindDislike InteractionKind = "dislike"
)

// UserDetails is the actor's display info carried by a notification.
type UserDetails struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// Notification is pushed once and never stored.
type Notification struct {
	Type        InteractionKind `json:"type"`
	UserID      string          `json:"userId"`
	UserDetails UserDetails     `json:"userDetails"`
	PostID      string          `json:"postId"`
	Message     string          `json:"message"`
}

type Notifier struct {
	pusher chat.Pusher
	events dispatcher.Publisher
}

func NewNotifier(pusher chat.Pusher, events dispatcher.Publisher) *Notifier {
	safe.MustNotNil(pusher, "pusher")
	if events == nil {
		events = dispatcher.Noop{}
	}
	return &Notifier{pusher: pusher, events: events}
}

// InteractionMessage 例如 "alice liked your post"; 没有用户名时用 "Someone"
func InteractionMessage(kind InteractionKind, username string) string {
	if strings.TrimSpace(username) == "" {
		username = "Someone"
	}
	if kind == KindDislike {
		return username + " disliked your post"
	}
	return username + " liked your post"
}

// NotifyInteraction pushes a notification to the post owner. Acting on one's
// own post notifies nobody; an offline owner simply misses it.
func (n *Notifier) NotifyInteraction(kind InteractionKind, actor, owner, postID string, display UserDetails) chat.DeliveryResult {
	if actor == owner {
		return chat.Offline
	}
	if display.ID == "" {
		display.ID = actor
	}
	note := Notification{
		Type:        kind,
		UserID:      actor,
		UserDetails: display,
		PostID:      postID,
		Message:     InteractionMessage(kind, display.Username),
	}
	res := n.pusher.Push(owner, chat.Event{Name: chat.EventNotification, Data: note})
	logger.Debug("[Notify] post interaction",
		zap.String("kind", string(kind)), zap.String("actor", actor),
		zap.String("owner", owner), zap.String("post", postID), zap.Stringer("result", res))

	n.events.Publish(dispatcher.TopicPostInteraction, postID, note)
	return res
}
