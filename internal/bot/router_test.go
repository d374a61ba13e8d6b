package bot

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
	"github.com/flybasist/moai/internal/postgresql/repositories"
)

type fakeSender struct {
	sent   []sentMessage
	nextID int
}

type sentMessage struct {
	chatID int64
	text   string
}

func (f *fakeSender) SendMessage(chatID int64, text string, replyTo int) (int, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	f.nextID++
	return f.nextID, nil
}

func (f *fakeSender) SetReaction(chatID int64, messageID int, emoji string) error {
	return nil
}

type fakeUserStore struct {
	users      map[int64]repositories.UserRecord
	registered []int64
	roleSet    map[int64]core.Role
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[int64]repositories.UserRecord),
		roleSet: make(map[int64]core.Role),
	}
}

func (f *fakeUserStore) GetOrCreate(userID int64, username, firstName string) error {
	f.registered = append(f.registered, userID)
	if _, ok := f.users[userID]; !ok {
		f.users[userID] = repositories.UserRecord{UserID: userID, Username: username, FirstName: firstName}
	}
	return nil
}

func (f *fakeUserStore) Get(userID int64) (repositories.UserRecord, bool, error) {
	u, ok := f.users[userID]
	return u, ok, nil
}

func (f *fakeUserStore) SetRole(userID int64, role core.Role) error {
	u, ok := f.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.Role = role
	f.users[userID] = u
	f.roleSet[userID] = role
	return nil
}

func (f *fakeUserStore) List() ([]repositories.UserRecord, error) {
	var out []repositories.UserRecord
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserStore) RoleOf(userID int64) (core.Role, bool, error) {
	u, ok := f.users[userID]
	return u.Role, ok, nil
}

type fakeChatStore struct {
	registered []int64
}

func (f *fakeChatStore) GetOrCreate(chatID int64, chatType, title string) error {
	f.registered = append(f.registered, chatID)
	return nil
}

type fakeModule struct {
	name     string
	seen     []core.Message
	err      error
	commands []core.BotCommand
}

func (f *fakeModule) Name() string { return f.name }

func (f *fakeModule) OnMessage(ctx *core.MessageContext) error {
	f.seen = append(f.seen, ctx.Message)
	return f.err
}

func (f *fakeModule) Commands() []core.BotCommand { return f.commands }

type fakeRelay struct {
	logChatID  int64
	private    int
	logReplies int
}

func (f *fakeRelay) LogChatID() int64 { return f.logChatID }

func (f *fakeRelay) HandlePrivate(ctx *core.MessageContext) error {
	f.private++
	return nil
}

func (f *fakeRelay) HandleLogReply(ctx *core.MessageContext) error {
	f.logReplies++
	return nil
}

func newTestRouter(sender *fakeSender, users *fakeUserStore, chats *fakeChatStore, relay *fakeRelay, pipeline []core.Module) *Router {
	logger := zap.NewNop()
	return NewRouter(Deps{
		Sender:       sender,
		Gate:         core.NewPermissionGate(users, logger),
		Users:        users,
		Chats:        chats,
		Pipeline:     pipeline,
		Replies:      relay,
		IgnoredChats: []int64{-100500},
		Logger:       logger,
	})
}

func groupMessage(text string) core.Message {
	return core.Message{
		ChatID:   -200,
		ChatType: core.ChatSupergroup,
		UserID:   10,
		Text:     text,
	}
}

func privateMessage(userID int64, text string) core.Message {
	return core.Message{
		ChatID:    userID,
		ChatType:  core.ChatPrivate,
		UserID:    userID,
		Username:  "tester",
		FirstName: "Тест",
		Text:      text,
	}
}

// TestRouteIgnoredChat: игнорируемый чат получает отказ и нигде не материализуется.
func TestRouteIgnoredChat(t *testing.T) {
	sender := &fakeSender{}
	users := newFakeUserStore()
	chats := &fakeChatStore{}
	module := &fakeModule{name: "fake"}
	r := newTestRouter(sender, users, chats, &fakeRelay{}, []core.Module{module})

	r.Route(core.Message{ChatID: -100500, ChatType: core.ChatGroup, UserID: 10, Text: "привет"})

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "не обслуживается") {
		t.Errorf("want refusal reply, got %v", sender.sent)
	}
	if len(chats.registered) != 0 {
		t.Errorf("ignored chat must not be registered, got %v", chats.registered)
	}
	if len(module.seen) != 0 {
		t.Errorf("ignored chat must not reach pipeline, got %d messages", len(module.seen))
	}
}

// TestRouteGroupPipeline: групповое сообщение проходит все модули по порядку,
// ошибка одного не останавливает следующие.
func TestRouteGroupPipeline(t *testing.T) {
	sender := &fakeSender{}
	users := newFakeUserStore()
	chats := &fakeChatStore{}
	first := &fakeModule{name: "first", err: errors.New("boom")}
	second := &fakeModule{name: "second"}
	r := newTestRouter(sender, users, chats, &fakeRelay{}, []core.Module{first, second})

	r.Route(groupMessage("обычное сообщение"))

	if len(first.seen) != 1 || len(second.seen) != 1 {
		t.Errorf("pipeline: first=%d second=%d, want 1/1", len(first.seen), len(second.seen))
	}
	if len(chats.registered) != 1 {
		t.Errorf("chat must be registered once, got %v", chats.registered)
	}
}

// TestRoutePrivateGoesToRelay: личные сообщения не попадают в pipeline.
func TestRoutePrivateGoesToRelay(t *testing.T) {
	sender := &fakeSender{}
	users := newFakeUserStore()
	relay := &fakeRelay{logChatID: -300}
	module := &fakeModule{name: "fake"}
	r := newTestRouter(sender, users, &fakeChatStore{}, relay, []core.Module{module})

	r.Route(privateMessage(10, "привет, бот"))

	if relay.private != 1 {
		t.Errorf("HandlePrivate called %d times, want 1", relay.private)
	}
	if len(module.seen) != 0 {
		t.Errorf("private message must not reach pipeline, got %d", len(module.seen))
	}
}

// TestRouteLogChatReply: сообщения в лог-чате уходят в relay и никуда больше.
func TestRouteLogChatReply(t *testing.T) {
	sender := &fakeSender{}
	users := newFakeUserStore()
	relay := &fakeRelay{logChatID: -300}
	module := &fakeModule{name: "fake"}
	r := newTestRouter(sender, users, &fakeChatStore{}, relay, []core.Module{module})

	r.Route(core.Message{ChatID: -300, ChatType: core.ChatGroup, UserID: 42, Text: "ответ", ReplyToID: 7})

	if relay.logReplies != 1 {
		t.Errorf("HandleLogReply called %d times, want 1", relay.logReplies)
	}
	if len(module.seen) != 0 {
		t.Errorf("log chat message must not reach pipeline, got %d", len(module.seen))
	}
}

// TestRouteCommandPermissions: команды с MinRole выше base проходят через gate.
func TestRouteCommandPermissions(t *testing.T) {
	handlerCalls := 0
	command := core.BotCommand{
		Command: "addcomment",
		MinRole: core.RoleModerator,
		Handler: func(ctx *core.MessageContext) error {
			handlerCalls++
			return nil
		},
	}
	module := &fakeModule{name: "fake", commands: []core.BotCommand{command}}

	tests := []struct {
		name      string
		setup     func(users *fakeUserStore)
		wantCalls int
		wantReply string
	}{
		{
			name:      "unregistered actor",
			setup:     func(users *fakeUserStore) {},
			wantCalls: 0,
			wantReply: "зарегистрируйтесь",
		},
		{
			name: "insufficient role",
			setup: func(users *fakeUserStore) {
				users.users[10] = repositories.UserRecord{UserID: 10, Role: core.RoleBase}
			},
			wantCalls: 0,
			wantReply: "Недостаточно прав",
		},
		{
			name: "authorized moderator",
			setup: func(users *fakeUserStore) {
				users.users[10] = repositories.UserRecord{UserID: 10, Role: core.RoleModerator}
			},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalls = 0
			sender := &fakeSender{}
			users := newFakeUserStore()
			tt.setup(users)
			r := newTestRouter(sender, users, &fakeChatStore{}, &fakeRelay{}, []core.Module{module})

			r.Route(groupMessage("/addcomment Отличный пост!"))

			if handlerCalls != tt.wantCalls {
				t.Errorf("handler called %d times, want %d", handlerCalls, tt.wantCalls)
			}
			if tt.wantReply != "" {
				if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, tt.wantReply) {
					t.Errorf("want reply containing %q, got %v", tt.wantReply, sender.sent)
				}
			}
		})
	}
}

// TestRouteStartRegistersUser: /start в личке создаёт запись пользователя.
func TestRouteStartRegistersUser(t *testing.T) {
	sender := &fakeSender{}
	users := newFakeUserStore()
	r := newTestRouter(sender, users, &fakeChatStore{}, &fakeRelay{}, nil)

	r.Route(privateMessage(42, "/start"))

	if len(users.registered) != 1 || users.registered[0] != 42 {
		t.Errorf("user not registered: %v", users.registered)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "зарегистрированы") {
		t.Errorf("want welcome reply, got %v", sender.sent)
	}
}

// TestRouteStartInGroup: /start в группе не регистрирует пользователя.
func TestRouteStartInGroup(t *testing.T) {
	sender := &fakeSender{}
	users := newFakeUserStore()
	r := newTestRouter(sender, users, &fakeChatStore{}, &fakeRelay{}, nil)

	r.Route(groupMessage("/start"))

	if len(users.registered) != 0 {
		t.Errorf("group /start must not register users: %v", users.registered)
	}
	if len(sender.sent) != 1 {
		t.Errorf("want greeting, got %v", sender.sent)
	}
}

// TestRouteUnknownCommand: в личке — подсказка, в группе — молчание.
func TestRouteUnknownCommand(t *testing.T) {
	sender := &fakeSender{}
	users := newFakeUserStore()
	r := newTestRouter(sender, users, &fakeChatStore{}, &fakeRelay{}, nil)

	r.Route(groupMessage("/frobnicate"))
	if len(sender.sent) != 0 {
		t.Errorf("unknown command in group must be silent, got %v", sender.sent)
	}

	r.Route(privateMessage(10, "/frobnicate"))
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "Неизвестная команда") {
		t.Errorf("want unknown command hint, got %v", sender.sent)
	}
}

// TestSetRole: смена роли с проверкой иерархии.
func TestSetRole(t *testing.T) {
	tests := []struct {
		name      string
		actorRole core.Role
		target    repositories.UserRecord
		args      string
		wantSet   bool
		wantReply string
	}{
		{
			name:      "admin promotes base to moderator",
			actorRole: core.RoleAdmin,
			target:    repositories.UserRecord{UserID: 77, Role: core.RoleBase},
			args:      "77 moderator",
			wantSet:   true,
			wantReply: "изменена",
		},
		{
			name:      "admin cannot touch developer",
			actorRole: core.RoleAdmin,
			target:    repositories.UserRecord{UserID: 77, Role: core.RoleDeveloper},
			args:      "77 base",
			wantSet:   false,
			wantReply: "не ниже вашей",
		},
		{
			name:      "admin cannot grant developer",
			actorRole: core.RoleAdmin,
			target:    repositories.UserRecord{UserID: 77, Role: core.RoleBase},
			args:      "77 developer",
			wantSet:   false,
			wantReply: "выше собственной",
		},
		{
			name:      "unknown target",
			actorRole: core.RoleAdmin,
			target:    repositories.UserRecord{},
			args:      "88 moderator",
			wantSet:   false,
			wantReply: "не найден",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			users := newFakeUserStore()
			users.users[10] = repositories.UserRecord{UserID: 10, Role: tt.actorRole}
			if tt.target.UserID != 0 {
				users.users[tt.target.UserID] = tt.target
			}
			r := newTestRouter(sender, users, &fakeChatStore{}, &fakeRelay{}, nil)

			r.Route(privateMessage(10, "/setrole "+tt.args))

			if got := len(users.roleSet) > 0; got != tt.wantSet {
				t.Errorf("role mutated = %v, want %v", got, tt.wantSet)
			}
			if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, tt.wantReply) {
				t.Errorf("want reply containing %q, got %v", tt.wantReply, sender.sent)
			}
		})
	}
}
