package logic

import "strings"

// UnknownPrefix starts the reply for any unrecognized line.
const UnknownPrefix = "Unknown command: "

// ReadyBanner is the first line written after startup.
const ReadyBanner = "LED Controller ready"

type entry struct {
	token  string
	effect Effect
	reply  string
}

// table is kept in banner order.
var table = []entry{
	{"red_on", Effect{Kind: EffectSetChannel, Channel: Red, State: StateOn}, "RED ON"},
	{"red_off", Effect{Kind: EffectSetChannel, Channel: Red, State: StateOff}, "RED OFF"},
	{"yellow_on", Effect{Kind: EffectSetChannel, Channel: Yellow, State: StateOn}, "YELLOW ON"},
	{"yellow_off", Effect{Kind: EffectSetChannel, Channel: Yellow, State: StateOff}, "YELLOW OFF"},
	{"green_on", Effect{Kind: EffectSetChannel, Channel: Green, State: StateOn}, "GREEN ON"},
	{"green_off", Effect{Kind: EffectSetChannel, Channel: Green, State: StateOff}, "GREEN OFF"},
	{"all_off", Effect{Kind: EffectSetAll, State: StateOff}, "ALL OFF"},
	{"all_on", Effect{Kind: EffectSetAll, State: StateOn}, "ALL ON"},
}

var byToken = func() map[string]entry {
	m := make(map[string]entry, len(table))
	for _, e := range table {
		m[e.token] = e
	}
	return m
}()

// Command is one row of the command table.
type Command struct {
	Token  string
	Effect Effect
	Reply  string
}

// Commands returns the command table in banner order.
func Commands() []Command {
	out := make([]Command, len(table))
	for i, e := range table {
		out[i] = Command{Token: e.token, Effect: e.effect, Reply: e.reply}
	}
	return out
}

// Tokens returns the known command tokens in banner order.
func Tokens() []string {
	out := make([]string, len(table))
	for i, e := range table {
		out[i] = e.token
	}
	return out
}

// CommandsBanner is the informational second startup line.
func CommandsBanner() string {
	return "Commands: " + strings.Join(Tokens(), ", ")
}

// Normalize strips leading and trailing whitespace, including any line terminator.
func Normalize(line string) string {
	return strings.TrimSpace(line)
}

// Lookup resolves a normalized token. Matching is exact and case-sensitive.
// The reply for an unknown token is "Unknown command: <token>".
func Lookup(token string) (Effect, string) {
	e, ok := byToken[token]
	if !ok {
		return Effect{Kind: EffectUnknown}, UnknownPrefix + token
	}
	return e.effect, e.reply
}
