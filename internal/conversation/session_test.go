package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const confirmation = "Perfect! I have you booked for Physiotherapy on Monday at 2 PM."

func bookJohnSmith(t *testing.T, s *Session) {
	t.Helper()
	for _, text := range []string{"John Smith", "Physiotherapy", "Monday at 2pm"} {
		state, err := s.SubmitUserTurn(text)
		require.NoError(t, err)
		assert.Equal(t, StateProcessing, state)
	}
}

func TestStartSession_GreetsThenListens(t *testing.T) {
	s := StartSession(wednesdayMorning)

	assert.Equal(t, StateSpeaking, s.State())
	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, SpeakerAgent, history[0].Speaker)
	assert.Equal(t, DefaultGreeting, history[0].Text)

	state, err := s.Delivered()
	require.NoError(t, err)
	assert.Equal(t, StateListening, state)
}

func TestStartSession_WithoutGreeting(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))
	assert.Equal(t, StateListening, s.State())
	assert.Empty(t, s.History())
}

func TestSession_EndToEndBooking(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))
	bookJohnSmith(t, s)

	result, err := s.SubmitAssistantTurn(confirmation, "")
	require.NoError(t, err)
	assert.Equal(t, StateSpeaking, result.State)
	require.NotNil(t, result.Booking)
	assert.Equal(t, "John Smith", result.Booking.CustomerName)
	assert.Equal(t, ServicePhysiotherapy, result.Booking.Service)
	assert.True(t, result.Booking.AppointmentTime.Equal(time.Date(2025, 1, 20, 14, 0, 0, 0, time.UTC)))

	state, err := s.Delivered()
	require.NoError(t, err)
	assert.Equal(t, StateListening, state)
}

func TestSession_GreetingDoesNotDisturbExtraction(t *testing.T) {
	s := StartSession(wednesdayMorning)
	_, err := s.Delivered()
	require.NoError(t, err)
	bookJohnSmith(t, s)

	result, err := s.SubmitAssistantTurn(confirmation, "")
	require.NoError(t, err)
	require.NotNil(t, result.Booking)
	assert.Equal(t, "John Smith", result.Booking.CustomerName)
}

func TestSession_DuplicateConfirmationEventCommitsOnce(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))
	bookJohnSmith(t, s)
	fp := NewUtteranceFingerprint(SpeakerAgent, confirmation, 7)

	first, err := s.SubmitAssistantTurn(confirmation, fp)
	require.NoError(t, err)
	require.NotNil(t, first.Booking)

	second, err := s.SubmitAssistantTurn(confirmation, fp)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Nil(t, second.Booking)
	assert.Len(t, s.History(), 4, "duplicate event must not be folded into history")
}

func TestSession_RepeatedConfirmationLanguageCommitsOnce(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))
	bookJohnSmith(t, s)

	first, err := s.SubmitAssistantTurn(confirmation, "")
	require.NoError(t, err)
	require.NotNil(t, first.Booking)

	again, err := s.SubmitAssistantTurn("Yes, you're confirmed. Anything else?", "")
	require.NoError(t, err)
	assert.Nil(t, again.Booking)
	assert.False(t, again.Duplicate)
}

func TestSession_FinalizeIsIdempotent(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))
	bookJohnSmith(t, s)
	s.history.Append(SpeakerAgent, confirmation)

	assert.NotNil(t, s.finalize())
	assert.Nil(t, s.finalize())
	assert.Equal(t, 1, s.dedupe.CommittedBookings())
}

func TestSession_IncompleteSlotsAreNotAnError(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))
	_, err := s.SubmitUserTurn("Monday at 2pm")
	require.NoError(t, err)

	result, err := s.SubmitAssistantTurn("You're booked!", "")
	require.NoError(t, err)
	assert.Nil(t, result.Booking)
	assert.Equal(t, StateSpeaking, result.State)
}

func TestSession_NoTriggerNoBooking(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))
	bookJohnSmith(t, s)

	result, err := s.SubmitAssistantTurn("Let me check availability for Monday.", "")
	require.NoError(t, err)
	assert.Nil(t, result.Booking)

	draft, err := s.Draft()
	require.NoError(t, err)
	assert.True(t, draft.Complete())
}

func TestSession_GoodbyeRoutesToIdle(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))
	_, err := s.SubmitUserTurn("no thanks")
	require.NoError(t, err)

	result, err := s.SubmitAssistantTurn("You're welcome! Have a great day. Goodbye.", "")
	require.NoError(t, err)
	assert.Equal(t, StateSpeaking, result.State)

	state, err := s.Delivered()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)
}

func TestSession_IngestUtteranceSuppressesRedelivery(t *testing.T) {
	s := StartSession(wednesdayMorning, WithGreeting(""))

	first, err := s.IngestUtterance(SpeakerUser, "John Smith", 1)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, StateProcessing, first.State)

	again, err := s.IngestUtterance(SpeakerUser, "John Smith", 1)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Len(t, s.History(), 1)

	for i, text := range []string{"Physiotherapy", "Monday at 2pm"} {
		_, err := s.IngestUtterance(SpeakerUser, text, i+2)
		require.NoError(t, err)
	}
	booked, err := s.IngestUtterance(SpeakerAgent, confirmation, 4)
	require.NoError(t, err)
	require.NotNil(t, booked.Booking)

	replay, err := s.IngestUtterance(SpeakerAgent, confirmation, 4)
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assert.Nil(t, replay.Booking)
}

func TestSession_EndedSessionFailsLoudly(t *testing.T) {
	s := StartSession(wednesdayMorning)
	s.End()

	assert.True(t, s.Ended())
	assert.Empty(t, s.History())

	_, err := s.SubmitUserTurn("hello")
	assert.ErrorIs(t, err, ErrSessionEnded)
	_, err = s.SubmitAssistantTurn(confirmation, "")
	assert.ErrorIs(t, err, ErrSessionEnded)
	_, err = s.IngestUtterance(SpeakerUser, "hello", 1)
	assert.ErrorIs(t, err, ErrSessionEnded)
	_, err = s.Delivered()
	assert.ErrorIs(t, err, ErrSessionEnded)
	_, err = s.Draft()
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestSession_SeparateSessionsDoNotShareDedupe(t *testing.T) {
	a := StartSession(wednesdayMorning, WithGreeting(""))
	b := StartSession(wednesdayMorning, WithGreeting(""))
	bookJohnSmith(t, a)
	bookJohnSmith(t, b)

	ra, err := a.SubmitAssistantTurn(confirmation, "")
	require.NoError(t, err)
	rb, err := b.SubmitAssistantTurn(confirmation, "")
	require.NoError(t, err)
	assert.NotNil(t, ra.Booking)
	assert.NotNil(t, rb.Booking)
}

func TestStateMachine_DeliveredOutsideSpeakingIsNoop(t *testing.T) {
	m := NewStateMachine()
	assert.Equal(t, StateIdle, m.Delivered())
	m.UserSpoke()
	assert.Equal(t, StateProcessing, m.Delivered())
}

func TestParseSpeaker(t *testing.T) {
	sp, ok := ParseSpeaker("assistant")
	assert.True(t, ok)
	assert.Equal(t, SpeakerAgent, sp)
	sp, ok = ParseSpeaker("User")
	assert.True(t, ok)
	assert.Equal(t, SpeakerUser, sp)
	_, ok = ParseSpeaker("system")
	assert.False(t, ok)
}
