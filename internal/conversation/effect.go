// ABOUTME: Effects produced by the conversation transition function
// ABOUTME: Each names one reply or backend action for the Bot to perform

package conversation

// EffectKind identifies what a transition asks the Bot to do.
type EffectKind int

// Effect kinds
const (
	EffectNone EffectKind = iota
	EffectReply
	EffectRegister
	EffectLogin
	EffectLogout
	EffectRefresh
	EffectMe
	EffectEnable2FA
	EffectDisable2FA
	EffectVerify2FA
	EffectIndex
	EffectSearch
	EffectReviews
	EffectMenu
	EffectMap
)

var effectNames = map[EffectKind]string{
	EffectNone:       "none",
	EffectReply:      "reply",
	EffectRegister:   "register",
	EffectLogin:      "login",
	EffectLogout:     "logout",
	EffectRefresh:    "refresh",
	EffectMe:         "me",
	EffectEnable2FA:  "enable2fa",
	EffectDisable2FA: "disable2fa",
	EffectVerify2FA:  "verify2fa",
	EffectIndex:      "index",
	EffectSearch:     "search",
	EffectReviews:    "reviews",
	EffectMenu:       "menu",
	EffectMap:        "map",
}

func (k EffectKind) String() string {
	if name, ok := effectNames[k]; ok {
		return name
	}
	return "unknown"
}

// Effect is the single action a transition produces. Only the fields its
// Kind uses are set.
type Effect struct {
	Kind EffectKind

	Text     string // EffectReply
	Name     string // EffectRegister
	Email    string // EffectRegister, EffectLogin
	Password string // EffectRegister, EffectLogin
	Code     string // EffectDisable2FA, EffectVerify2FA
	Query    string // EffectSearch

	RestaurantID int64 // EffectReviews, EffectMenu, EffectMap
}

func reply(text string) Effect {
	return Effect{Kind: EffectReply, Text: text}
}
