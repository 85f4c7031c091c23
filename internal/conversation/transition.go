// ABOUTME: Pure transition function mapping (state, message) to (next state, effect)
// ABOUTME: Parses commands, advances wizards and falls back to restaurant search

package conversation

import (
	"fmt"
	"strconv"
	"strings"
)

// Prompts and fixed replies
const (
	PromptName           = "Please enter your name:"
	PromptEmail          = "Please enter your email:"
	PromptPassword       = "Please enter your password:"
	PromptDisable2FACode = "Please enter your 2FA code to disable:"
	PromptVerify2FACode  = "Please enter your 2FA code to verify:"
	PromptLogin2FACode   = "Please enter your 2FA code:"

	ReplyUnknownCommand  = "Unknown command."
	ReplyCancelled       = "Cancelled."
	ReplyNothingToCancel = "Nothing to cancel."
)

// HelpText lists the commands the bot understands.
const HelpText = `Welcome! Send me any text to search for restaurants.

Commands:
/register - create an account
/login - sign in
/logout - sign out
/refresh - refresh your session
/me - show your account details
/enable2fa - turn on two-factor authentication
/disable2fa - turn off two-factor authentication
/verify2fa - finish a two-factor sign in
/index - list all restaurants
/review <id> - show reviews for a restaurant
/menu <id> - show a restaurant's menu
/map <id> - show where a restaurant is
/cancel - abandon the current command
/help - show this message`

// Transition computes the next state and effect for one message. It never
// mutates state and performs no I/O.
func Transition(state State, text string) (State, Effect) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return state, Effect{}
	}

	if strings.HasPrefix(trimmed, "/") {
		return command(state, trimmed)
	}

	if !state.IsIdle() {
		return wizardInput(state, text)
	}

	return Idle, Effect{Kind: EffectSearch, Query: trimmed}
}

// parseCommand splits "/cmd@bot arg1 arg2" into "/cmd" and its arguments.
func parseCommand(text string) (string, []string) {
	parts := strings.Fields(text)
	name := parts[0]
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	return name, parts[1:]
}

func command(state State, text string) (State, Effect) {
	name, args := parseCommand(text)

	switch name {
	case "/register":
		return pending(CommandRegister, StepName), reply(PromptName)
	case "/login":
		return pending(CommandLogin, StepEmail), reply(PromptEmail)
	case "/disable2fa":
		return pending(CommandDisable2FA, StepCode), reply(PromptDisable2FACode)
	case "/verify2fa":
		return pending(CommandVerify2FA, StepCode), reply(PromptVerify2FACode)
	case "/logout":
		return Idle, Effect{Kind: EffectLogout}
	case "/refresh":
		return Idle, Effect{Kind: EffectRefresh}
	case "/me":
		return Idle, Effect{Kind: EffectMe}
	case "/enable2fa":
		return Idle, Effect{Kind: EffectEnable2FA}
	case "/index":
		return Idle, Effect{Kind: EffectIndex}
	case "/start":
		if len(args) > 0 {
			if effect, ok := deepLink(args[0]); ok {
				return Idle, effect
			}
		}
		return Idle, reply(HelpText)
	case "/help":
		return Idle, reply(HelpText)
	case "/cancel":
		if state.IsIdle() {
			return Idle, reply(ReplyNothingToCancel)
		}
		return Idle, reply(ReplyCancelled)
	case "/review":
		return Idle, restaurantAction(EffectReviews, name, args)
	case "/menu":
		return Idle, restaurantAction(EffectMenu, name, args)
	case "/map":
		return Idle, restaurantAction(EffectMap, name, args)
	default:
		return Idle, reply(ReplyUnknownCommand)
	}
}

// restaurantAction builds an effect that needs a restaurant id argument.
func restaurantAction(kind EffectKind, name string, args []string) Effect {
	if len(args) > 0 {
		if id, ok := parseID(args[0]); ok {
			return Effect{Kind: kind, RestaurantID: id}
		}
	}
	return reply(fmt.Sprintf("Usage: %s <restaurant id>", name))
}

// deepLink decodes a /start payload such as "review_12".
func deepLink(payload string) (Effect, bool) {
	kinds := map[string]EffectKind{
		"review": EffectReviews,
		"menu":   EffectMenu,
		"map":    EffectMap,
	}

	action, rawID, found := strings.Cut(payload, "_")
	if !found {
		return Effect{}, false
	}
	kind, ok := kinds[action]
	if !ok {
		return Effect{}, false
	}
	id, ok := parseID(rawID)
	if !ok {
		return Effect{}, false
	}
	return Effect{Kind: kind, RestaurantID: id}, true
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// wizardInput feeds one answer to the pending command.
func wizardInput(state State, text string) (State, Effect) {
	switch state.Command {
	case CommandRegister:
		switch state.Step {
		case StepName:
			return state.with(StepEmail, "name", text), reply(PromptEmail)
		case StepEmail:
			return state.with(StepPassword, "email", text), reply(PromptPassword)
		case StepPassword:
			return Idle, Effect{
				Kind:     EffectRegister,
				Name:     state.Fields["name"],
				Email:    state.Fields["email"],
				Password: text,
			}
		}
	case CommandLogin:
		switch state.Step {
		case StepEmail:
			return state.with(StepPassword, "email", text), reply(PromptPassword)
		case StepPassword:
			return Idle, Effect{
				Kind:     EffectLogin,
				Email:    state.Fields["email"],
				Password: text,
			}
		}
	case CommandDisable2FA:
		return Idle, Effect{Kind: EffectDisable2FA, Code: strings.TrimSpace(text)}
	case CommandVerify2FA:
		return Idle, Effect{Kind: EffectVerify2FA, Code: strings.TrimSpace(text)}
	}

	// A state this function never produces; start over.
	return Idle, Effect{}
}
