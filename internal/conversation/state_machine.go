package conversation

import "strings"

// AgentState is the interaction state shown to the caller.
type AgentState string

const (
	StateIdle       AgentState = "idle"
	StateListening  AgentState = "listening"
	StateProcessing AgentState = "processing"
	StateSpeaking   AgentState = "speaking"
)

// StateMachine tracks the agent's interaction state for one call.
type StateMachine struct {
	state          AgentState
	endAfterSpeech bool
}

func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateIdle}
}

func (m *StateMachine) State() AgentState {
	return m.state
}

// Greet moves to Speaking while the opening prompt plays.
func (m *StateMachine) Greet() AgentState {
	m.state = StateSpeaking
	m.endAfterSpeech = false
	return m.state
}

// UserSpoke moves to Processing.
func (m *StateMachine) UserSpoke() AgentState {
	m.state = StateProcessing
	return m.state
}

// AgentResponded moves to Speaking. A response saying goodbye routes the next
// delivery to Idle instead of Listening.
func (m *StateMachine) AgentResponded(text string) AgentState {
	m.state = StateSpeaking
	m.endAfterSpeech = strings.Contains(strings.ToLower(text), "goodbye")
	return m.state
}

// Delivered is called once the prompt or response has been fully spoken.
func (m *StateMachine) Delivered() AgentState {
	if m.state != StateSpeaking {
		return m.state
	}
	if m.endAfterSpeech {
		m.state = StateIdle
	} else {
		m.state = StateListening
	}
	m.endAfterSpeech = false
	return m.state
}
