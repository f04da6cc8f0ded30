package service

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

// Stage is what the next free text message of a chat means.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingEvent
	StageAwaitingDeleteName
	StageAwaitingTime
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitingEvent:
		return "awaiting_event"
	case StageAwaitingDeleteName:
		return "awaiting_delete_name"
	case StageAwaitingTime:
		return "awaiting_time"
	default:
		return "unknown"
	}
}

// Conversations keeps the pending action of each chat in memory. A pending
// action expires after ttl and the chat silently returns to idle.
type Conversations struct {
	db  *buntdb.DB
	ttl time.Duration
}

func NewConversations(ttl time.Duration) (*Conversations, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open conversations storage")
	}
	return &Conversations{db: db, ttl: ttl}, nil
}

func (c *Conversations) Close() error {
	if err := c.db.Close(); err != nil {
		return errors.Wrap(err, "failed to close conversations storage")
	}
	return nil
}

func pendingKey(chatID string) string {
	return "pending:" + chatID
}

// Set moves the chat to stage. StageIdle clears any pending action.
func (c *Conversations) Set(chatID string, stage Stage) error {
	if stage == StageIdle {
		return c.Clear(chatID)
	}
	err := c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(pendingKey(chatID), strconv.Itoa(int(stage)), &buntdb.SetOptions{Expires: true, TTL: c.ttl})
		return err
	})
	return errors.Wrapf(err, "set stage for chat %s", chatID)
}

// Get returns the current stage without changing it.
func (c *Conversations) Get(chatID string) (Stage, error) {
	var raw string
	err := c.db.View(func(tx *buntdb.Tx) error {
		var err error
		raw, err = tx.Get(pendingKey(chatID))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return StageIdle, nil
	}
	if err != nil {
		return StageIdle, errors.Wrapf(err, "get stage for chat %s", chatID)
	}
	return parseStage(raw)
}

// Take returns the current stage and resets the chat to idle in one step,
// so a reply is consumed exactly once.
func (c *Conversations) Take(chatID string) (Stage, error) {
	var raw string
	err := c.db.Update(func(tx *buntdb.Tx) error {
		var err error
		raw, err = tx.Delete(pendingKey(chatID))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return StageIdle, nil
	}
	if err != nil {
		return StageIdle, errors.Wrapf(err, "take stage for chat %s", chatID)
	}
	return parseStage(raw)
}

// Clear drops the pending action of the chat.
func (c *Conversations) Clear(chatID string) error {
	err := c.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(pendingKey(chatID))
		return err
	})
	if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
		return errors.Wrapf(err, "clear stage for chat %s", chatID)
	}
	return nil
}

func parseStage(raw string) (Stage, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return StageIdle, errors.Wrapf(err, "malformed stage %q", raw)
	}
	return Stage(v), nil
}
