package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/observability/metrics"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

type recordingNotifier struct {
	got []Appointment
	err error
}

func (n *recordingNotifier) NotifyAppointment(_ context.Context, appt Appointment) error {
	n.got = append(n.got, appt)
	return n.err
}

type failingStore struct{ MemoryStore }

func (*failingStore) Save(context.Context, Appointment) error { return errors.New("disk full") }

type failingQueue struct{}

func (failingQueue) Send(context.Context, string) error { return errors.New("queue down") }

type stubSQS struct {
	last *sqs.SendMessageInput
	err  error
}

func (s *stubSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.last = in
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, s.err
}

func completeDraft() conversation.BookingDraft {
	return conversation.BookingDraft{
		CustomerName:    "John Smith",
		Service:         conversation.ServicePhysiotherapy,
		AppointmentTime: time.Date(2025, 1, 20, 14, 0, 0, 0, time.UTC),
	}
}

func TestDispatcher_FansOutToEverySink(t *testing.T) {
	store := NewMemoryStore()
	queue := NewMemoryQueue(4)
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, logging.New("error"),
		WithPublisher(NewEventPublisher(queue, nil)),
		WithNotifier(notifier),
		WithMetrics(metrics.NewCallMetrics(prometheus.NewRegistry())),
	)

	appt, err := d.Dispatch(context.Background(), "call-1", completeDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, "call-1", appt.CallID)
	assert.Equal(t, StatusConfirmed, appt.Status)

	stored, err := store.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt, stored)

	require.Len(t, notifier.got, 1)
	assert.Equal(t, appt.ID, notifier.got[0].ID)

	select {
	case body := <-queue.Messages():
		var evt AppointmentEvent
		require.NoError(t, json.Unmarshal([]byte(body), &evt))
		assert.Equal(t, EventTypeAppointmentBooked, evt.Type)
		assert.Equal(t, "John Smith", evt.Appointment.CustomerName)
		assert.Equal(t, conversation.ServicePhysiotherapy, evt.Appointment.Service)
	default:
		t.Fatal("expected an event on the queue")
	}

	list, err := d.Appointments(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDispatcher_SinkFailures(t *testing.T) {
	_, err := NewDispatcher(&failingStore{}, logging.New("error")).Dispatch(context.Background(), "call-1", completeDraft())
	require.Error(t, err)

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	d := NewDispatcher(NewMemoryStore(), logging.New("error"),
		WithPublisher(NewEventPublisher(failingQueue{}, nil)),
		WithNotifier(notifier),
	)
	appt, err := d.Dispatch(context.Background(), "call-2", completeDraft())
	require.NoError(t, err, "publisher and notifier failures do not undo the booking")
	assert.NotEmpty(t, appt.ID)

	_, err = d.Dispatch(context.Background(), "call-3", conversation.BookingDraft{CustomerName: "Jane"})
	assert.Error(t, err)
}

func TestDispatcher_StoredDuplicateSkipsSinks(t *testing.T) {
	store := NewMemoryStore()
	queue := NewMemoryQueue(4)
	notifier := &recordingNotifier{}
	d := NewDispatcher(store, logging.New("error"),
		WithPublisher(NewEventPublisher(queue, nil)),
		WithNotifier(notifier),
	)

	first, err := d.Dispatch(context.Background(), "call-1", completeDraft())
	require.NoError(t, err)
	<-queue.Messages()

	_, err = d.Dispatch(context.Background(), "call-1", completeDraft())
	require.ErrorIs(t, err, ErrAppointmentExists)

	assert.Len(t, notifier.got, 1, "the duplicate must not email staff")
	select {
	case body := <-queue.Messages():
		t.Fatalf("unexpected event for duplicate: %s", body)
	default:
	}

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	// Another call booking the same slot is a separate appointment.
	_, err = d.Dispatch(context.Background(), "call-2", completeDraft())
	require.NoError(t, err)
}

func TestMemoryStore_ListSortedByTime(t *testing.T) {
	store := NewMemoryStore()
	monday := time.Date(2025, 1, 20, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), Appointment{ID: "late", Time: monday.AddDate(0, 0, 2)}))
	require.NoError(t, store.Save(context.Background(), Appointment{ID: "early", Time: monday}))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].ID)

	_, err = store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestSQSQueue_Send(t *testing.T) {
	api := &stubSQS{}
	q := newSQSQueue(api, "https://sqs.local/bookings")
	require.NoError(t, q.Send(context.Background(), `{"ok":true}`))
	assert.Equal(t, "https://sqs.local/bookings", aws.ToString(api.last.QueueUrl))
	assert.Equal(t, `{"ok":true}`, aws.ToString(api.last.MessageBody))

	api.err = errors.New("throttled")
	assert.Error(t, q.Send(context.Background(), "x"))

	assert.Panics(t, func() { newSQSQueue(api, "") })
}
