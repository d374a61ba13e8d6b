package forwards

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
)

type fakePicker struct {
	photoCalls int
	textCalls  int
	comment    string
}

func (f *fakePicker) Pick(photo bool) string {
	if photo {
		f.photoCalls++
	} else {
		f.textCalls++
	}
	return f.comment
}

type fakeCounter struct{ count int64 }

func (f *fakeCounter) CountByType(chatID int64, eventType string) (int64, error) {
	return f.count, nil
}

func newTestModule(sender *fakeSender, picker *fakePicker, settleDelay time.Duration) *Module {
	tracker := NewTracker(30 * time.Second)
	dispatcher := NewDispatcher(sender, zap.NewNop(), "🗿", 3)
	dispatcher.sleep = func(time.Duration) {}
	m := New(tracker, dispatcher, picker, &fakeCounter{}, zap.NewNop(), settleDelay)
	m.sleep = func(time.Duration) {}
	return m
}

func newTestContext(sender *fakeSender, msg core.Message) *core.MessageContext {
	return &core.MessageContext{
		Message: msg,
		Sender:  sender,
		Logger:  zap.NewNop(),
	}
}

func TestOnMessageIgnoresNonForwarded(t *testing.T) {
	sender := &fakeSender{}
	picker := &fakePicker{comment: "Отличный пост!"}
	m := newTestModule(sender, picker, 0)

	msg := core.Message{ChatID: 1, MessageID: 10, Text: "обычное сообщение"}
	if err := m.OnMessage(newTestContext(sender, msg)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.reactions != 0 || len(sender.sent) != 0 {
		t.Errorf("non-forwarded message must be ignored, got %d reactions, %d sends",
			sender.reactions, len(sender.sent))
	}
}

func TestOnMessageCommentsForward(t *testing.T) {
	sender := &fakeSender{}
	picker := &fakePicker{comment: "Отличный пост!"}
	m := newTestModule(sender, picker, 0)

	msg := core.Message{ChatID: 1, MessageID: 10, Forwarded: true, Text: "текст поста"}
	if err := m.OnMessage(newTestContext(sender, msg)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.reactions != 1 {
		t.Errorf("got %d reactions, want 1", sender.reactions)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "Отличный пост!" {
		t.Errorf("got sent %v, want the picked comment", sender.sent)
	}
	if picker.textCalls != 1 || picker.photoCalls != 0 {
		t.Errorf("text pool expected, got text=%d photo=%d", picker.textCalls, picker.photoCalls)
	}
}

// TestOnMessagePhotoPool: фото без подписи комментируется из фото-пула,
// фото с подписью — из текстового.
func TestOnMessagePhotoPool(t *testing.T) {
	tests := []struct {
		name      string
		caption   string
		wantPhoto bool
	}{
		{name: "photo without caption", caption: "", wantPhoto: true},
		{name: "photo with caption", caption: "смотрите", wantPhoto: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			picker := &fakePicker{comment: "Классное фото!"}
			m := newTestModule(sender, picker, 0)

			msg := core.Message{
				ChatID: 1, MessageID: 10, Forwarded: true,
				HasPhoto: true, Caption: tt.caption,
			}
			if err := m.OnMessage(newTestContext(sender, msg)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			gotPhoto := picker.photoCalls == 1
			if gotPhoto != tt.wantPhoto {
				t.Errorf("photo pool used = %v, want %v", gotPhoto, tt.wantPhoto)
			}
		})
	}
}

// TestOnMessageAlbumOnce: альбом из трёх элементов получает один комментарий.
func TestOnMessageAlbumOnce(t *testing.T) {
	sender := &fakeSender{}
	picker := &fakePicker{comment: "Интересно!"}
	m := newTestModule(sender, picker, 0)

	for i := 0; i < 3; i++ {
		msg := core.Message{
			ChatID: 1, MessageID: 10 + i, Forwarded: true,
			HasPhoto: true, MediaGroupID: "album-1",
		}
		if err := m.OnMessage(newTestContext(sender, msg)); err != nil {
			t.Fatalf("element %d: unexpected error: %v", i, err)
		}
	}
	if sender.reactions != 1 {
		t.Errorf("got %d reactions, want 1", sender.reactions)
	}
	if len(sender.sent) != 1 {
		t.Errorf("got %d comments, want 1", len(sender.sent))
	}
}

// TestOnMessageReactionFailureDoesNotBlockComment: реакция best-effort.
func TestOnMessageReactionFailureDoesNotBlockComment(t *testing.T) {
	sender := &fakeSender{
		reactionErrs: []error{errors.New("reactions disabled in chat")},
	}
	picker := &fakePicker{comment: "Отличный пост!"}
	m := newTestModule(sender, picker, 0)

	msg := core.Message{ChatID: 1, MessageID: 10, Forwarded: true, Text: "пост"}
	if err := m.OnMessage(newTestContext(sender, msg)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("comment must be sent despite reaction failure, got %d sends", len(sender.sent))
	}
}

// TestOnMessageSettleDelayOnlyForAlbums: пауза только у сообщений с media group.
func TestOnMessageSettleDelayOnlyForAlbums(t *testing.T) {
	sender := &fakeSender{}
	picker := &fakePicker{comment: "Интересно!"}
	m := newTestModule(sender, picker, 1500*time.Millisecond)

	var slept []time.Duration
	m.sleep = func(d time.Duration) { slept = append(slept, d) }

	single := core.Message{ChatID: 1, MessageID: 10, Forwarded: true, Text: "пост"}
	if err := m.OnMessage(newTestContext(sender, single)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slept) != 0 {
		t.Errorf("single message must not wait, slept %v", slept)
	}

	album := core.Message{ChatID: 1, MessageID: 11, Forwarded: true, HasPhoto: true, MediaGroupID: "album-1"}
	if err := m.OnMessage(newTestContext(sender, album)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slept) != 1 || slept[0] != 1500*time.Millisecond {
		t.Errorf("album element must wait settle delay, slept %v", slept)
	}
}

// TestOnMessageEmptyPool: пустой пул — предупреждение в лог, ошибки нет.
func TestOnMessageEmptyPool(t *testing.T) {
	sender := &fakeSender{}
	picker := &fakePicker{comment: ""}
	m := newTestModule(sender, picker, 0)

	msg := core.Message{ChatID: 1, MessageID: 10, Forwarded: true, Text: "пост"}
	if err := m.OnMessage(newTestContext(sender, msg)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("nothing should be sent from empty pool, got %v", sender.sent)
	}
}
