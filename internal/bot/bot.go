package bot

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"countdown-bot/internal/i18n"
	"countdown-bot/internal/service"
)

const shardQueueSize = 32

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps are the services the bot routes updates to.
type Deps struct {
	Chats         *service.ChatService
	Digest        *service.DigestService
	Conversations *service.Conversations
	Catalog       *i18n.Catalog
	Location      *time.Location
	Logger        *zap.Logger
	Workers       int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api      telegramAPI
	username string

	chats         *service.ChatService
	digest        *service.DigestService
	conversations *service.Conversations
	catalog       *i18n.Catalog
	loc           *time.Location
	logger        *zap.Logger
	workers       int
	now           func() time.Time
}

func New(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create bot api")
	}
	b := newBot(api, api.Self.UserName, deps)
	b.logger.Info("bot authorized", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(api telegramAPI, username string, deps Deps) *Bot {
	b := &Bot{
		api:           api,
		username:      username,
		chats:         deps.Chats,
		digest:        deps.Digest,
		conversations: deps.Conversations,
		catalog:       deps.Catalog,
		loc:           deps.Location,
		logger:        deps.Logger,
		workers:       deps.Workers,
		now:           deps.Now,
	}
	if b.loc == nil {
		b.loc = time.Local
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.workers < 1 {
		b.workers = 1
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.logger = b.logger.Named("bot")
	return b
}

// Start begins polling updates until ctx is cancelled. Updates of one chat are
// handled in order by the same worker; different chats run in parallel.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updateConfig.AllowedUpdates = []string{"message", "callback_query", "my_chat_member"}
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates", zap.Int("workers", b.workers))

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	// queued updates are still answered after shutdown starts
	handleCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	shards := make([]chan tgbotapi.Update, b.workers)
	for i := range shards {
		ch := make(chan tgbotapi.Update, shardQueueSize)
		shards[i] = ch
		g.Go(func() error {
			for update := range ch {
				b.handleUpdate(handleCtx, update)
			}
			return nil
		})
	}

	for update := range updates {
		chatID, ok := updateChatID(update)
		if !ok {
			continue
		}
		shards[shardFor(chatID, len(shards))] <- update
	}

	for _, ch := range shards {
		close(ch)
	}
	err := g.Wait()
	b.logger.Info("polling stopped")
	return err
}

// SendText delivers an HTML formatted message. It satisfies service.Sender.
func (b *Bot) SendText(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "parse chat id %q", chatID)
	}
	return b.send(id, text, nil)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.MyChatMember != nil:
		err = b.handleMembership(ctx, update.MyChatMember)
	}
	if err == nil {
		return
	}

	chatID, _ := updateChatID(update)
	log := b.logger.With(zap.Int64("chat_id", chatID), zap.Int("update_id", update.UpdateID))
	var sendErr *sendError
	if errors.As(err, &sendErr) {
		log.Error("send reply", zap.Error(err))
		return
	}
	log.Error("handle update", zap.Error(err))
	if update.MyChatMember != nil {
		return
	}
	lang := i18n.DefaultLanguage
	var chatErr *chatError
	if errors.As(err, &chatErr) {
		lang = chatErr.lang
	}
	if err := b.send(chatID, b.catalog.Render(lang, i18n.KeyGenericError), nil); err != nil {
		log.Error("send apology", zap.Error(err))
	}
}

func (b *Bot) handleMembership(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) error {
	chatID := upd.Chat.ID
	key := chatKey(chatID)
	log := b.logger.With(zap.Int64("chat_id", chatID))

	wasIn := isPresent(upd.OldChatMember.Status)
	isIn := isPresent(upd.NewChatMember.Status)
	switch {
	case !wasIn && isIn:
		if err := b.chats.EnableReminders(ctx, key); err != nil {
			return err
		}
		chat, err := b.chats.Config(ctx, key)
		if err != nil {
			return err
		}
		log.Info("bot added to chat", zap.String("chat_type", upd.Chat.Type))
		return b.send(chatID, b.catalog.Render(chat.Language, i18n.KeyThanksAdded), nil)
	case wasIn && !isIn:
		log.Info("bot removed from chat", zap.String("status", upd.NewChatMember.Status))
	}
	return nil
}

func (b *Bot) send(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		return &sendError{err: err}
	}
	return nil
}

func (b *Bot) ackCallback(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", zap.Error(err))
	}
}

// sendError marks transport failures so they are not answered with another send.
type sendError struct {
	err error
}

func (e *sendError) Error() string { return "send message: " + e.err.Error() }
func (e *sendError) Unwrap() error { return e.err }

// chatError carries the chat language so the apology can be localized.
type chatError struct {
	lang string
	err  error
}

func (e *chatError) Error() string { return e.err.Error() }
func (e *chatError) Unwrap() error { return e.err }

func updateChatID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	case update.MyChatMember != nil:
		return update.MyChatMember.Chat.ID, true
	}
	return 0, false
}

func shardFor(chatID int64, shards int) int {
	return int(uint64(chatID) % uint64(shards))
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func isPresent(status string) bool {
	return status == "member" || status == "administrator" || status == "creator" || status == "restricted"
}
