package forwards

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
)

// fakeSender — управляемый core.Sender для тестов модуля.
type fakeSender struct {
	reactionErrs []error // очередь результатов SetReaction
	reactions    int
	sent         []string
	sendErr      error
	nextID       int
}

func (f *fakeSender) SendMessage(chatID int64, text string, replyTo int) (int, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, text)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeSender) SetReaction(chatID int64, messageID int, emoji string) error {
	f.reactions++
	if len(f.reactionErrs) == 0 {
		return nil
	}
	err := f.reactionErrs[0]
	f.reactionErrs = f.reactionErrs[1:]
	return err
}

func TestSetReactionSucceedsFirstTry(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, zap.NewNop(), "🗿", 5)

	if err := d.SetReaction(1, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.reactions != 1 {
		t.Errorf("got %d calls, want 1", sender.reactions)
	}
}

// TestSetReactionRetriesAfterFloodControl: при 429 диспетчер ждёт retry_after
// и повторяет тот же вызов.
func TestSetReactionRetriesAfterFloodControl(t *testing.T) {
	sender := &fakeSender{
		reactionErrs: []error{&core.RetryAfterError{After: 2 * time.Second}},
	}
	d := NewDispatcher(sender, zap.NewNop(), "🗿", 5)

	var slept []time.Duration
	d.sleep = func(dur time.Duration) { slept = append(slept, dur) }

	if err := d.SetReaction(1, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.reactions != 2 {
		t.Errorf("got %d calls, want 2", sender.reactions)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Errorf("slept %v, want exactly one pause of 2s", slept)
	}
}

// TestSetReactionGivesUp: лимит попыток исчерпан — ошибка, без паузы после
// последней попытки.
func TestSetReactionGivesUp(t *testing.T) {
	rateLimited := &core.RetryAfterError{After: time.Second}
	sender := &fakeSender{
		reactionErrs: []error{rateLimited, rateLimited, rateLimited},
	}
	d := NewDispatcher(sender, zap.NewNop(), "🗿", 3)

	var slept []time.Duration
	d.sleep = func(dur time.Duration) { slept = append(slept, dur) }

	if err := d.SetReaction(1, 100); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if sender.reactions != 3 {
		t.Errorf("got %d calls, want 3", sender.reactions)
	}
	if len(slept) != 2 {
		t.Errorf("got %d pauses, want 2 (no pause after final attempt)", len(slept))
	}
}

// TestSetReactionPermanentError: любая не-429 ошибка возвращается сразу.
func TestSetReactionPermanentError(t *testing.T) {
	sender := &fakeSender{
		reactionErrs: []error{errors.New("bad request: message not found")},
	}
	d := NewDispatcher(sender, zap.NewNop(), "🗿", 5)
	d.sleep = func(time.Duration) { t.Fatal("must not sleep on permanent error") }

	if err := d.SetReaction(1, 100); err == nil {
		t.Fatal("expected error")
	}
	if sender.reactions != 1 {
		t.Errorf("got %d calls, want 1", sender.reactions)
	}
}
