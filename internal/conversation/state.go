// ABOUTME: Per-chat conversation state for multi-step commands
// ABOUTME: The zero State is idle; Fields carry wizard answers collected so far

package conversation

import "maps"

// Command names the multi-step command a chat is in the middle of.
type Command string

// Pending commands
const (
	CommandNone       Command = ""
	CommandRegister   Command = "register"
	CommandLogin      Command = "login"
	CommandDisable2FA Command = "disable2fa"
	CommandVerify2FA  Command = "verify2fa"
)

// Step is the input a pending command is waiting for.
type Step string

// Wizard steps
const (
	StepNone     Step = ""
	StepName     Step = "name"
	StepEmail    Step = "email"
	StepPassword Step = "password"
	StepCode     Step = "code"
)

// State is a chat's conversation state.
type State struct {
	Command Command
	Step    Step
	Fields  map[string]string
}

// Idle is the state of a chat with nothing pending.
var Idle = State{}

// IsIdle reports whether nothing is pending.
func (s State) IsIdle() bool {
	return s.Command == CommandNone
}

// with returns a copy of s at step, with key set to value. s is not modified.
func (s State) with(step Step, key, value string) State {
	fields := make(map[string]string, len(s.Fields)+1)
	maps.Copy(fields, s.Fields)
	fields[key] = value
	return State{Command: s.Command, Step: step, Fields: fields}
}

func pending(cmd Command, step Step) State {
	return State{Command: cmd, Step: step}
}
