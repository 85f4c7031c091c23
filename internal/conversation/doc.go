// Package conversation turns chat text into backend calls and replies.
//
// # State Machine
//
// Each chat has at most one pending multi-step command, held as a State:
//
//	State{Command: CommandLogin, Step: StepPassword, Fields: {"email": "a@x.io"}}
//
// The zero State is idle. Transition is a pure function from the current
// state and one message to the next state and a single Effect:
//
//	next, effect := Transition(state, "/login")
//	// next   = {login, email}
//	// effect = Reply "Please enter your email:"
//
// A command always preempts whatever wizard was pending. Text received while
// idle is a restaurant search.
//
// # Bot
//
// Bot.HandleUpdate runs one inbound update: it serializes work per chat,
// loads and stores the chat's State, and performs the Effect through the
// backend bridge and the Telegram sender. A panic while handling an update is
// logged and the chat's pending state is dropped; it never reaches the poller.
//
// # Rendering
//
// Restaurant lists, reviews and menus are rendered as Telegram Markdown and
// cut to MaxMessageBytes without splitting a UTF-8 sequence.
package conversation
