package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"countdown-bot/internal/model"
)

// ClockLayout is the wall clock resolution reminder times are matched at.
const ClockLayout = "15:04"

// Sender delivers a message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) error
}

type reminderChats interface {
	ListReminderEnabled(ctx context.Context) ([]model.Chat, error)
}

type eventLister interface {
	ListByChat(ctx context.Context, chatID string) ([]model.Event, error)
}

// TickResult summarizes one dispatcher tick.
type TickResult struct {
	ID        string
	Clock     string
	Duplicate bool
	Checked   int
	Matched   int
	Sent      int
	Failed    int
	Empty     int
}

type dispatcherMetrics struct {
	ticks     prometheus.Counter
	reminders *prometheus.CounterVec
}

func newDispatcherMetrics(reg prometheus.Registerer) *dispatcherMetrics {
	m := &dispatcherMetrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "countdown",
			Name:      "reminder_ticks_total",
			Help:      "Reminder dispatcher ticks that scanned the chat store.",
		}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "countdown",
			Name:      "reminders_total",
			Help:      "Reminder digests by outcome.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.ticks, m.reminders)
	}
	return m
}

// Dispatcher sends each reminder-enabled chat its countdown digest when the
// wall clock minute equals the chat's reminder time. One chat's failure never
// stops the others.
type Dispatcher struct {
	chats   reminderChats
	events  eventLister
	digest  *DigestService
	sender  Sender
	loc     *time.Location
	logger  *zap.Logger
	metrics *dispatcherMetrics

	mu         sync.Mutex
	lastMinute string
}

func NewDispatcher(chats reminderChats, events eventLister, digest *DigestService, sender Sender,
	loc *time.Location, logger *zap.Logger, reg prometheus.Registerer) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		chats:   chats,
		events:  events,
		digest:  digest,
		sender:  sender,
		loc:     loc,
		logger:  logger,
		metrics: newDispatcherMetrics(reg),
	}
}

// Tick runs one reminder check for the minute containing now. now is sampled
// once by the caller so every chat in the tick is compared against the same clock.
// A second tick within an already processed minute does nothing.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) TickResult {
	now = now.In(d.loc)
	res := TickResult{ID: uuid.New().String(), Clock: now.Format(ClockLayout)}
	log := d.logger.With(zap.String("tick", res.ID), zap.String("clock", res.Clock))

	minute := now.Format("2006-01-02 " + ClockLayout)
	if !d.claimMinute(minute) {
		res.Duplicate = true
		log.Debug("minute already dispatched")
		return res
	}
	d.metrics.ticks.Inc()

	chats, err := d.chats.ListReminderEnabled(ctx)
	if err != nil {
		log.Error("list reminder chats", zap.Error(err))
		// nothing was sent, let the next tick in this minute retry
		d.releaseMinute(minute)
		return res
	}
	res.Checked = len(chats)

	for _, chat := range chats {
		if ctx.Err() != nil {
			log.Warn("tick interrupted", zap.Error(ctx.Err()))
			break
		}
		if chat.ReminderTime != res.Clock {
			continue
		}
		res.Matched++
		switch d.dispatchChat(ctx, log, chat, now) {
		case outcomeSent:
			res.Sent++
		case outcomeEmpty:
			res.Empty++
		case outcomeFailed:
			res.Failed++
		}
	}

	log.Debug("tick done",
		zap.Int("checked", res.Checked), zap.Int("matched", res.Matched),
		zap.Int("sent", res.Sent), zap.Int("empty", res.Empty), zap.Int("failed", res.Failed))
	return res
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeEmpty
	outcomeFailed
)

func (d *Dispatcher) dispatchChat(ctx context.Context, log *zap.Logger, chat model.Chat, now time.Time) outcome {
	log = log.With(zap.String("chat_id", chat.ChatID))

	events, err := d.events.ListByChat(ctx, chat.ChatID)
	if err != nil {
		log.Error("list events", zap.Error(err))
		d.metrics.reminders.WithLabelValues("failed").Inc()
		return outcomeFailed
	}
	if len(events) == 0 {
		d.metrics.reminders.WithLabelValues("skipped_empty").Inc()
		return outcomeEmpty
	}

	text, lines := d.digest.Render(chat.Language, events, now)
	if lines == 0 {
		d.metrics.reminders.WithLabelValues("skipped_empty").Inc()
		return outcomeEmpty
	}

	if err := d.sender.SendText(ctx, chat.ChatID, text); err != nil {
		log.Error("send reminder", zap.Error(err))
		d.metrics.reminders.WithLabelValues("failed").Inc()
		return outcomeFailed
	}
	d.metrics.reminders.WithLabelValues("sent").Inc()
	log.Info("reminder sent", zap.Int("events", lines))
	return outcomeSent
}

// claimMinute records key as processed and reports whether it was new.
func (d *Dispatcher) claimMinute(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastMinute == key {
		return false
	}
	d.lastMinute = key
	return true
}

func (d *Dispatcher) releaseMinute(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastMinute == key {
		d.lastMinute = ""
	}
}
