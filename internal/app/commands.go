package app

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"cryptoPulseBot/config"
	"cryptoPulseBot/internal/ports"
)

// CommandKind identifies what a chat command asks for.
type CommandKind int

const (
	CommandHelp CommandKind = iota
	CommandReport
	CommandZones
	CommandWhales
	CommandHistory
)

// Command is a parsed chat command.
type Command struct {
	Kind     CommandKind
	Symbol   string // exchange symbol, e.g. BTCUSDT
	Interval string // exchange interval, e.g. 1d
	Label    string // timeframe as the user typed it, e.g. 24h
	Enable   bool   // for CommandWhales
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

// CommandParser turns chat text into Commands using the configured aliases.
type CommandParser struct {
	symbols      map[string]string // alias -> symbol
	timeframes   map[string]string // label -> interval
	labels       map[string]string // interval -> label
	defaultLabel string
	reportRe     *regexp.Regexp
	aliases      []string
	tfLabels     []string
}

// NewCommandParser builds a parser for the given symbol aliases and timeframes.
func NewCommandParser(symbols, timeframes []config.Pair) (*CommandParser, error) {
	if len(symbols) == 0 || len(timeframes) == 0 {
		return nil, fmt.Errorf("%w: at least one symbol and one timeframe are required", ports.ErrConfigurationError)
	}
	p := &CommandParser{
		symbols:    make(map[string]string, len(symbols)),
		timeframes: make(map[string]string, len(timeframes)),
		labels:     make(map[string]string, len(timeframes)),
	}
	for _, s := range symbols {
		alias := strings.ToLower(s.Alias)
		p.symbols[alias] = strings.ToUpper(s.Value)
		p.aliases = append(p.aliases, alias)
	}
	for _, tf := range timeframes {
		label := strings.ToLower(tf.Alias)
		p.timeframes[label] = tf.Value
		if _, ok := p.labels[tf.Value]; !ok {
			p.labels[tf.Value] = label
		}
		p.tfLabels = append(p.tfLabels, label)
	}
	p.defaultLabel = p.tfLabels[0]
	if _, ok := p.timeframes["1h"]; ok {
		p.defaultLabel = "1h"
	}
	p.reportRe = regexp.MustCompile(`(?i)^/(` + alternation(p.aliases) + `)(` + alternation(p.tfLabels) + `)$`)
	return p, nil
}

// alternation quotes the words and orders them longest first.
func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}

// Parse interprets text. Text that is not a command returns ok=false.
// Unknown commands and bad arguments return an error wrapping
// ports.ErrUnsupportedCommand.
func (p *CommandParser) Parse(text string) (cmd Command, ok bool, err error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false, nil
	}
	name := fields[0]
	// Commands in group chats may carry the bot name: /btc1h@PulseBot
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	args := fields[1:]

	switch strings.ToLower(name) {
	case "/start", "/help":
		return Command{Kind: CommandHelp}, true, nil
	case "/zones":
		cmd, err := p.parseZones(args)
		return cmd, true, err
	case "/whales":
		cmd, err := parseWhales(args)
		return cmd, true, err
	case "/history":
		if len(args) > 0 {
			return Command{}, true, fmt.Errorf("%w: usage /history", ports.ErrUnsupportedCommand)
		}
		return Command{Kind: CommandHistory}, true, nil
	}

	m := p.reportRe.FindStringSubmatch(name)
	if m == nil {
		return Command{}, true, fmt.Errorf("%w: %s", ports.ErrUnsupportedCommand, name)
	}
	label := strings.ToLower(m[2])
	return Command{
		Kind:     CommandReport,
		Symbol:   p.symbols[strings.ToLower(m[1])],
		Interval: p.timeframes[label],
		Label:    label,
	}, true, nil
}

func (p *CommandParser) parseZones(args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, fmt.Errorf("%w: usage /zones <symbol> [timeframe]", ports.ErrUnsupportedCommand)
	}
	symbol, err := p.resolveSymbol(args[0])
	if err != nil {
		return Command{}, err
	}
	label := p.defaultLabel
	if len(args) == 2 {
		label = strings.ToLower(args[1])
	}
	interval, label, err := p.resolveTimeframe(label)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: CommandZones, Symbol: symbol, Interval: interval, Label: label}, nil
}

func (p *CommandParser) resolveSymbol(arg string) (string, error) {
	if symbol, ok := p.symbols[strings.ToLower(arg)]; ok {
		return symbol, nil
	}
	upper := strings.ToUpper(arg)
	if symbolPattern.MatchString(upper) {
		return upper, nil
	}
	return "", fmt.Errorf("%w: unknown symbol %q", ports.ErrUnsupportedCommand, arg)
}

// resolveTimeframe accepts a configured label (24h) or interval (1d).
func (p *CommandParser) resolveTimeframe(arg string) (interval, label string, err error) {
	if interval, ok := p.timeframes[arg]; ok {
		return interval, arg, nil
	}
	if label, ok := p.labels[arg]; ok {
		return arg, label, nil
	}
	return "", "", fmt.Errorf("%w: unknown timeframe %q", ports.ErrUnsupportedCommand, arg)
}

func parseWhales(args []string) (Command, error) {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on":
			return Command{Kind: CommandWhales, Enable: true}, nil
		case "off":
			return Command{Kind: CommandWhales, Enable: false}, nil
		}
	}
	return Command{}, fmt.Errorf("%w: usage /whales on|off", ports.ErrUnsupportedCommand)
}

// Help returns the usage text listing the configured commands.
func (p *CommandParser) Help() string {
	var b strings.Builder
	b.WriteString("📊 Market snapshot bot\n\n")
	b.WriteString("Reports: /<coin><timeframe>, e.g. /" + p.aliases[0] + p.defaultLabel + "\n")
	b.WriteString("Coins: " + strings.Join(p.aliases, ", ") + "\n")
	b.WriteString("Timeframes: " + strings.Join(p.tfLabels, ", ") + "\n\n")
	b.WriteString("/zones <coin|SYMBOL> [timeframe] - support and resistance zones\n")
	b.WriteString("/whales on|off - large transfer alerts\n")
	b.WriteString("/history - your latest reports\n")
	b.WriteString("/help - this message")
	return b.String()
}
