// Package notification provides the Telegram transport of the bot: command
// handlers mutating the ledger and the outbound notification sink used by
// the scheduler tick.
package notification

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/coinward/coinward/core"
	"github.com/coinward/coinward/ledger"
)

// Command pattern regex for ledger commands
var (
	buyRegexp        = regexp.MustCompile(`/buy\s+(?P<amount>\d+(?:\.\d+)?)`)
	sellRegexp       = regexp.MustCompile(`/sell\s+(?P<quantity>max|\d+(?:\.\d+)?)`)
	addCoinRegexp    = regexp.MustCompile(`/addcoin\s+(?P<query>.+)`)
	removeCoinRegexp = regexp.MustCompile(`/removecoin\s+(?P<id>\S+)`)
)

// Config holds the Telegram transport settings.
type Config struct {
	Token string
	// Users is the list of authorized chat ids; updates from anyone else
	// are dropped by the poller middleware.
	Users []int
}

// telegram implements core.NotifierWithStart.
type telegram struct {
	config      Config
	engine      *ledger.Engine
	resolver    core.Resolver
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	state       *chatState
}

// Option is a function that configures a telegram instance.
type Option func(*telegram)

// WithResolver wires the coin resolver used by the add-coin workflow.
func WithResolver(resolver core.Resolver) Option {
	return func(t *telegram) { t.resolver = resolver }
}

// Inline button templates; concrete buttons carry the coin id in Data.
var (
	btnSelectCoin = tb.InlineButton{Unique: "select_coin"}
	btnCoinPrice  = tb.InlineButton{Unique: "coin_price"}
	btnSetAbove   = tb.InlineButton{Unique: "set_above"}
	btnSetBelow   = tb.InlineButton{Unique: "set_below"}
)

// NewTelegram creates and initializes the Telegram service.
func NewTelegram(engine *ledger.Engine, config Config, options ...Option) (core.NotifierWithStart, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: 10 * time.Second}

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     config.Token,
		Poller:    createAuthMiddleware(poller, config),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &telegram{
		config:      config,
		engine:      engine,
		client:      client,
		defaultMenu: menu,
		state:       newChatState(),
	}

	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)

	return bot, nil
}

// createAuthMiddleware creates a middleware to validate authorized chats.
func createAuthMiddleware(poller *tb.LongPoller, config Config) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		var sender *tb.User
		switch {
		case u.Message != nil:
			sender = u.Message.Sender
		case u.Callback != nil:
			sender = u.Callback.Sender
		}
		if sender == nil {
			log.Error("update without sender ", u)
			return false
		}

		if slices.Contains(config.Users, int(sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout.
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		startBtn   = menu.Text("/start")
		historyBtn = menu.Text("/history")
		buyBtn     = menu.Text("/buy")
		sellBtn    = menu.Text("/sell")
		cancelBtn  = menu.Text("/cancel")
	)

	menu.Reply(
		menu.Row(startBtn, historyBtn),
		menu.Row(buyBtn, sellBtn, cancelBtn),
	)
}

// setupCommands configures available bot commands.
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/start", Description: "Select a coin"},
		{Text: "/buy", Description: "Log a purchase in USD"},
		{Text: "/sell", Description: "Sell a quantity (or max)"},
		{Text: "/history", Description: "Purchase diary and holdings"},
		{Text: "/addcoin", Description: "Track a new coin"},
		{Text: "/removecoin", Description: "Stop tracking a coin"},
		{Text: "/cancel", Description: "Cancel pending input"},
	})
}

// registerHandlers registers all command and callback handlers.
func registerHandlers(client *tb.Bot, bot *telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/start", bot.StartHandle)
	client.Handle("/buy", bot.BuyHandle)
	client.Handle("/sell", bot.SellHandle)
	client.Handle("/history", bot.HistoryHandle)
	client.Handle("/addcoin", bot.AddCoinHandle)
	client.Handle("/removecoin", bot.RemoveCoinHandle)
	client.Handle("/cancel", bot.CancelHandle)
	client.Handle(tb.OnText, bot.TextHandle)

	client.Handle(&btnSelectCoin, bot.SelectCoinCallback)
	client.Handle(&btnCoinPrice, bot.PriceCallback)
	client.Handle(&btnSetAbove, bot.SetAboveCallback)
	client.Handle(&btnSetBelow, bot.SetBelowCallback)
}

// Start begins the Telegram bot and greets all authorized chats.
func (t *telegram) Start() {
	go t.client.Start()
	for _, user := range t.config.Users {
		t.sendMessage(&tb.User{ID: int64(user)}, "Bot initialized.", t.defaultMenu)
	}
}

// Notify sends a message to a single user id (the chat id as a string).
func (t *telegram) Notify(userID, text string) {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		log.WithError(err).Error("invalid chat id ", userID)
		return
	}
	t.sendMessage(&tb.Chat{ID: chatID}, text)
}

// OnError notifies all authorized chats about an internal error.
func (t *telegram) OnError(err error) {
	var sb strings.Builder
	sb.WriteString("🛑 ERROR\n-----\n")
	sb.WriteString(err.Error())
	for _, user := range t.config.Users {
		t.sendMessage(&tb.User{ID: int64(user)}, sb.String())
	}
}

func (t *telegram) sendMessage(to tb.Recipient, text string, options ...interface{}) {
	if _, err := t.client.Send(to, text, options...); err != nil {
		log.WithError(err).Error("failed to send message")
	}
}

// HelpHandle displays available commands.
func (t *telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		log.WithError(err).Error("failed to get commands")
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("%s - %s", command.Text, command.Description))
	}
	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// StartHandle presents the coin selection keyboard.
func (t *telegram) StartHandle(m *tb.Message) {
	coins, err := t.engine.Coins(context.Background())
	if err != nil {
		log.WithError(err).Error("failed to load coin registry")
		t.sendMessage(m.Sender, userMessage(err))
		return
	}
	if len(coins) == 0 {
		t.sendMessage(m.Sender, "No coins tracked yet. Add one with /addcoin <name>.")
		return
	}

	keyboard := make([][]tb.InlineButton, 0, len(coins))
	for id, name := range coins {
		keyboard = append(keyboard, []tb.InlineButton{{
			Unique: btnSelectCoin.Unique,
			Text:   name,
			Data:   id,
		}})
	}

	t.sendMessage(m.Sender, "Please select a coin:", &tb.ReplyMarkup{InlineKeyboard: keyboard})
}

// SelectCoinCallback stores the chat's coin selection and offers actions.
func (t *telegram) SelectCoinCallback(c *tb.Callback) {
	defer t.respond(c)

	coinID := strings.TrimSpace(c.Data)
	coins, err := t.engine.Coins(context.Background())
	if err != nil {
		log.WithError(err).Error("failed to load coin registry")
		return
	}
	name, ok := coins[coinID]
	if !ok {
		t.sendMessage(c.Sender, userMessage(core.ErrUnknownCoin))
		return
	}

	t.state.selectCoin(c.Message.Chat.ID, coinID, name)

	keyboard := [][]tb.InlineButton{
		{{Unique: btnCoinPrice.Unique, Text: fmt.Sprintf("Get %s Price", name), Data: coinID}},
		{{Unique: btnSetAbove.Unique, Text: fmt.Sprintf("Set Above Price Alert for %s", name), Data: coinID}},
		{{Unique: btnSetBelow.Unique, Text: fmt.Sprintf("Set Below Price Alert for %s", name), Data: coinID}},
	}
	if _, err := t.client.Edit(c.Message,
		fmt.Sprintf("Selected %s. Choose an option:", name),
		&tb.ReplyMarkup{InlineKeyboard: keyboard}); err != nil {
		log.WithError(err).Error("failed to edit message")
	}
}

// PriceCallback replies with the current snapshot price for the coin.
func (t *telegram) PriceCallback(c *tb.Callback) {
	defer t.respond(c)

	coinID := strings.TrimSpace(c.Data)
	price, ok := t.engine.Snapshot().Get(coinID)
	if !ok {
		t.sendMessage(c.Sender, userMessage(core.ErrPriceUnavailable))
		return
	}
	t.sendMessage(c.Sender, fmt.Sprintf("Current price: $%s USD", price.StringFixed(2)))
}

// SetAboveCallback asks for the next text message as the above threshold.
func (t *telegram) SetAboveCallback(c *tb.Callback) {
	defer t.respond(c)
	t.awaitThreshold(c, pendingAbove, "above")
}

// SetBelowCallback asks for the next text message as the below threshold.
func (t *telegram) SetBelowCallback(c *tb.Callback) {
	defer t.respond(c)
	t.awaitThreshold(c, pendingBelow, "below")
}

func (t *telegram) awaitThreshold(c *tb.Callback, kind pendingKind, word string) {
	coinID := strings.TrimSpace(c.Data)
	coins, err := t.engine.Coins(context.Background())
	if err != nil {
		log.WithError(err).Error("failed to load coin registry")
		return
	}
	name, ok := coins[coinID]
	if !ok {
		t.sendMessage(c.Sender, userMessage(core.ErrUnknownCoin))
		return
	}

	t.state.await(c.Message.Chat.ID, kind, coinID, name)
	t.sendMessage(c.Sender,
		fmt.Sprintf("Please send the price %s which you want to get notified for %s:", word, name))
}

// TextHandle consumes pending threshold input; any other free text is
// answered with a usage hint.
func (t *telegram) TextHandle(m *tb.Message) {
	input, ok := t.state.consume(m.Chat.ID)
	if !ok {
		t.sendMessage(m.Sender, "Use /start to select a coin, or /help for commands.")
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(m.Text))
	if err != nil || !price.IsPositive() {
		// Not consumed after all: let the user try again.
		t.state.await(m.Chat.ID, input.kind, input.coinID, input.name)
		t.sendMessage(m.Sender, userMessage(core.ErrBadPrice))
		return
	}

	side := ledger.AlertAbove
	word := "above"
	if input.kind == pendingBelow {
		side = ledger.AlertBelow
		word = "below"
	}

	userID := strconv.FormatInt(m.Chat.ID, 10)
	if err := t.engine.SetAlert(context.Background(), userID, input.coinID, side, price); err != nil {
		t.sendMessage(m.Sender, userMessage(err))
		return
	}

	t.sendMessage(m.Sender,
		fmt.Sprintf("You will be notified if the %s price goes %s $%s",
			input.name, word, price.StringFixed(2)))
}

// BuyHandle logs a purchase of the selected coin.
func (t *telegram) BuyHandle(m *tb.Message) {
	match := buyRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.sendMessage(m.Sender, "Usage: /buy <amount_usd>\nExample: /buy 100")
		return
	}

	sel, ok := t.state.selection(m.Chat.ID)
	if !ok {
		t.sendMessage(m.Sender, userMessage(core.ErrNoCoinSelected))
		return
	}

	amount, err := decimal.NewFromString(extractCommandParams(buyRegexp, match)["amount"])
	if err != nil {
		t.sendMessage(m.Sender, userMessage(core.ErrBadAmount))
		return
	}

	userID := strconv.FormatInt(m.Chat.ID, 10)
	receipt, err := t.engine.Buy(context.Background(), userID, sel.coinID, amount)
	if err != nil {
		t.sendMessage(m.Sender, userMessage(err))
		return
	}

	t.sendMessage(m.Sender, formatBuyReceipt(receipt))
}

// SellHandle sells a quantity (or the whole position) of the selected coin.
func (t *telegram) SellHandle(m *tb.Message) {
	match := sellRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.sendMessage(m.Sender, "Usage: /sell <quantity|max>\nExample: /sell 10")
		return
	}

	sel, ok := t.state.selection(m.Chat.ID)
	if !ok {
		t.sendMessage(m.Sender, userMessage(core.ErrNoCoinSelected))
		return
	}

	raw := extractCommandParams(sellRegexp, match)["quantity"]
	request := ledger.SellRequest{}
	if strings.EqualFold(raw, "max") {
		request.Max = true
	} else {
		quantity, err := decimal.NewFromString(raw)
		if err != nil {
			t.sendMessage(m.Sender, userMessage(core.ErrBadQuantity))
			return
		}
		request.Quantity = quantity
	}

	userID := strconv.FormatInt(m.Chat.ID, 10)
	receipt, err := t.engine.Sell(context.Background(), userID, sel.coinID, request)
	if err != nil {
		t.sendMessage(m.Sender, userMessage(err))
		return
	}

	t.sendMessage(m.Sender, formatSellReceipt(receipt))
}

// HistoryHandle shows the purchase diary and holdings.
func (t *telegram) HistoryHandle(m *tb.Message) {
	userID := strconv.FormatInt(m.Chat.ID, 10)
	report, err := t.engine.History(context.Background(), userID)
	if err != nil {
		t.sendMessage(m.Sender, userMessage(err))
		return
	}
	t.sendMessage(m.Sender, formatHistory(report))
}

// AddCoinHandle resolves a user query and registers the coin.
func (t *telegram) AddCoinHandle(m *tb.Message) {
	match := addCoinRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.sendMessage(m.Sender, "Usage: /addcoin <name>\nExample: /addcoin bitcoin")
		return
	}
	if t.resolver == nil {
		t.sendMessage(m.Sender, "Coin lookup is not configured.")
		return
	}

	query := strings.TrimSpace(extractCommandParams(addCoinRegexp, match)["query"])
	coinID, name, err := t.resolver.Resolve(context.Background(), query)
	if err != nil {
		t.sendMessage(m.Sender, userMessage(err))
		return
	}

	if err := t.engine.AddCoin(context.Background(), coinID, name); err != nil {
		t.sendMessage(m.Sender, userMessage(err))
		return
	}
	t.sendMessage(m.Sender, fmt.Sprintf("Now tracking %s (`%s`).", name, coinID))
}

// RemoveCoinHandle drops a coin from the registry.
func (t *telegram) RemoveCoinHandle(m *tb.Message) {
	match := removeCoinRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.sendMessage(m.Sender, "Usage: /removecoin <id>\nExample: /removecoin bitcoin")
		return
	}

	coinID := extractCommandParams(removeCoinRegexp, match)["id"]
	if err := t.engine.RemoveCoin(context.Background(), coinID); err != nil {
		t.sendMessage(m.Sender, userMessage(err))
		return
	}
	t.sendMessage(m.Sender, fmt.Sprintf("Stopped tracking `%s`.", coinID))
}

// CancelHandle aborts any pending threshold input.
func (t *telegram) CancelHandle(m *tb.Message) {
	t.state.cancel(m.Chat.ID)
	t.sendMessage(m.Sender, "Canceled.", t.defaultMenu)
}

func (t *telegram) respond(c *tb.Callback) {
	if err := t.client.Respond(c, &tb.CallbackResponse{}); err != nil {
		log.WithError(err).Error("failed to respond to callback")
	}
}

// extractCommandParams extracts named groups from regex matches.
func extractCommandParams(regex *regexp.Regexp, match []string) map[string]string {
	command := make(map[string]string)
	for i, name := range regex.SubexpNames() {
		if i != 0 && name != "" {
			command[name] = match[i]
		}
	}
	return command
}
