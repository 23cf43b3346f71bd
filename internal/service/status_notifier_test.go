package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

type mailerStub struct {
	to      mail.Address
	subject string
	text    string
	html    string
	err     error
}

func (m *mailerStub) Send(ctx context.Context, to mail.Address, subject, textBody, htmlBody string) error {
	m.to = to
	m.subject = subject
	m.text = textBody
	m.html = htmlBody
	return m.err
}

func sampleStatusChange() StatusChange {
	return StatusChange{
		Complaint: models.Complaint{
			ID:           12,
			StudentID:    3,
			Title:        "Wifi down",
			Status:       models.StatusInProgress,
			AdminRemarks: stringPointer(`Technician booked <script>alert("x")</script>`),
			Student:      models.Profile{ID: 3, FullName: "Amina Otieno", Email: "amina@campus.test"},
		},
		PreviousStatus: models.StatusPending,
		ChangedBy:      1,
		ChangedAt:      time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestEmailStatusNotifierSanitizesRemarks(t *testing.T) {
	mailer := &mailerStub{}
	notifier := NewEmailStatusNotifier(mailer)

	require.NoError(t, notifier.NotifyStatusChange(context.Background(), sampleStatusChange()))
	require.Equal(t, "amina@campus.test", mailer.to.Address)
	require.Equal(t, `Your complaint "Wifi down" is now in progress`, mailer.subject)
	require.Contains(t, mailer.text, "from pending to in progress")
	require.Contains(t, mailer.html, "Technician booked")
	require.NotContains(t, mailer.html, "<script>")
}

func TestEmailStatusNotifierRequiresAddress(t *testing.T) {
	change := sampleStatusChange()
	change.Complaint.Student.Email = ""

	err := NewEmailStatusNotifier(&mailerStub{}).NotifyStatusChange(context.Background(), change)
	require.Error(t, err)
}

func TestEventStatusNotifierPublishesToRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	notifier := NewEventStatusNotifier(client, nil, "complaints")
	require.Equal(t, "complaints:status_changed", notifier.RedisChannel())

	sub := client.Subscribe(context.Background(), notifier.RedisChannel())
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, notifier.NotifyStatusChange(context.Background(), sampleStatusChange()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event StatusChangedEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, StatusChangedEventType, event.Type)
	require.Equal(t, uint(12), event.ComplaintID)
	require.Equal(t, models.StatusPending, event.OldStatus)
	require.Equal(t, models.StatusInProgress, event.NewStatus)
	require.Equal(t, "Technician booked", event.Remarks)
	require.NotEmpty(t, event.ID)
}

func TestMultiStatusNotifierJoinsErrors(t *testing.T) {
	first := &recordingNotifier{err: errors.New("smtp down")}
	second := &recordingNotifier{}

	multi := NewMultiStatusNotifier().
		Add("email", first).
		Add("log", NewLogStatusNotifier(testLogger())).
		Add("events", second).
		Add("missing", nil)

	err := multi.NotifyStatusChange(context.Background(), sampleStatusChange())
	require.Error(t, err)
	require.Contains(t, err.Error(), "email: smtp down")
	require.Len(t, first.changes, 1)
	require.Len(t, second.changes, 1)
}
