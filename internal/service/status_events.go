package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// StatusChangedEventType tags status change events on the bus.
const StatusChangedEventType = "complaint.status_changed"

// StatusChangedEvent is the payload published for each status change.
type StatusChangedEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	ComplaintID uint      `json:"complaint_id"`
	StudentID   uint      `json:"student_id"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	Remarks     string    `json:"remarks,omitempty"`
	ChangedBy   uint      `json:"changed_by"`
	ChangedAt   time.Time `json:"changed_at"`
}

// EventStatusNotifier publishes status changes to Redis pub/sub and NATS so external
// delivery workers (SMS, push) can pick them up.
type EventStatusNotifier struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	sanitizer    *bluemonday.Policy
	nodeID       string
}

// NewEventStatusNotifier constructs an event publisher. Either transport may be nil.
func NewEventStatusNotifier(redisClient *redis.Client, natsConn *nats.Conn, channelBase string) *EventStatusNotifier {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":status_changed"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".status_changed"
	}

	return &EventStatusNotifier{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		sanitizer:    bluemonday.StrictPolicy(),
		nodeID:       uuid.NewString(),
	}
}

// RedisChannel returns the pub/sub channel events are published on.
func (e *EventStatusNotifier) RedisChannel() string {
	return e.redisChannel
}

// NotifyStatusChange publishes the event on every configured transport.
func (e *EventStatusNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	event := StatusChangedEvent{
		ID:          uuid.NewString(),
		Type:        StatusChangedEventType,
		Source:      e.nodeID,
		ComplaintID: change.Complaint.ID,
		StudentID:   change.Complaint.StudentID,
		OldStatus:   change.PreviousStatus,
		NewStatus:   change.Complaint.Status,
		ChangedBy:   change.ChangedBy,
		ChangedAt:   change.ChangedAt.UTC(),
	}
	if change.Complaint.AdminRemarks != nil {
		event.Remarks = strings.TrimSpace(e.sanitizer.Sanitize(*change.Complaint.AdminRemarks))
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if e.redis != nil && e.redisChannel != "" {
		if err := e.redis.Publish(ctx, e.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.nats != nil && e.natsSubject != "" {
		if err := e.nats.Publish(e.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
