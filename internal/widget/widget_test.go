package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/remote"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

var errOffline = &apperrors.ErrRemoteUnavailable{Endpoint: "POST /chat", Err: errors.New("connection refused")}

type assistantStub struct {
	mu sync.Mutex

	chatCalls  int
	lastPage   domain.PageContext
	chatReply  *remote.ChatReply
	chatErr    error
	popular    func(call int) ([]remote.StoredInstruction, error)
	popCalls   int
	instrCalls map[string]int
	instr      map[string]*remote.InstructionData
	instrErr   error
	voiceReply *remote.VoiceReply
	voiceErr   error
	results    []remote.StoredInstruction
	exported   string
}

func (s *assistantStub) Chat(ctx context.Context, message string, page domain.PageContext) (*remote.ChatReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatCalls++
	s.lastPage = page
	return s.chatReply, s.chatErr
}

func (s *assistantStub) PopularInstructions(ctx context.Context, limit int) ([]remote.StoredInstruction, error) {
	s.mu.Lock()
	s.popCalls++
	call := s.popCalls
	fn := s.popular
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(call)
}

func (s *assistantStub) GetInstruction(ctx context.Context, taskID, taskName string, page domain.PageContext) (*remote.InstructionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instrCalls == nil {
		s.instrCalls = make(map[string]int)
	}
	s.instrCalls[taskID]++
	if s.instrErr != nil {
		return nil, s.instrErr
	}
	data, ok := s.instr[taskID]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "instruction", ID: taskID}
	}
	return data, nil
}

func (s *assistantStub) ProcessVoice(ctx context.Context, text string, page domain.PageContext) (*remote.VoiceReply, error) {
	return s.voiceReply, s.voiceErr
}

func (s *assistantStub) SearchInstructions(ctx context.Context, query string) ([]remote.StoredInstruction, error) {
	return s.results, nil
}

func (s *assistantStub) Help(ctx context.Context, page domain.PageContext) ([]remote.HelpTask, error) {
	return []remote.HelpTask{{ID: "cart", Name: "Use the cart"}}, nil
}

func (s *assistantStub) Export(ctx context.Context, format, instructionID string) (*remote.Export, error) {
	s.exported = instructionID
	return &remote.Export{Filename: fmt.Sprintf("instruction_%s.%s", instructionID, format)}, nil
}

func testConfig() config.WidgetConfig {
	return config.WidgetConfig{
		Greeting:     "Hello!",
		PopularLimit: 10,
		HostMode:     config.HostStandalone,
		Standalone:   config.StandalonePage{URL: "/catalog", ViewportWidth: 1280, ViewportHeight: 800},
	}
}

func newWidget(a Assistant) *Widget {
	cfg := testConfig()
	w := New(a, NewHost(cfg), cfg, zap.NewNop())
	n := 0
	w.newID = func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
	return w
}

func popularOf(ids ...string) func(int) ([]remote.StoredInstruction, error) {
	return func(int) ([]remote.StoredInstruction, error) {
		list := make([]remote.StoredInstruction, 0, len(ids))
		for _, id := range ids {
			list = append(list, remote.StoredInstruction{TaskID: id, UserQuery: "how to " + id})
		}
		return list, nil
	}
}

func TestNewGreets(t *testing.T) {
	w := newWidget(&assistantStub{})
	st := w.State()
	assert.False(t, st.Open)
	assert.Equal(t, TabTasks, st.Tab)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, st.Messages[0].Role)
	assert.Equal(t, "Hello!", st.Messages[0].Content)
}

func TestSendMessageIgnoresBlank(t *testing.T) {
	a := &assistantStub{}
	w := newWidget(a)

	_, sent := w.SendMessage(context.Background(), "   \n\t")
	assert.False(t, sent)
	assert.Equal(t, 0, a.chatCalls)
	assert.Len(t, w.State().Messages, 1)
}

func TestSendMessageReplacesPlaceholder(t *testing.T) {
	a := &assistantStub{chatReply: &remote.ChatReply{
		Message:         "Here is how",
		Type:            remote.ReplyInstruction,
		InstructionData: &remote.InstructionData{Steps: []string{"Open cart"}, InstructionID: "9"},
	}}
	w := newWidget(a)

	answer, sent := w.SendMessage(context.Background(), "  how to pay  ")
	require.True(t, sent)
	assert.Equal(t, 1, a.chatCalls)
	assert.Equal(t, "/catalog", a.lastPage.URL)

	msgs := w.State().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "how to pay", msgs[1].Content)
	assert.Equal(t, answer, msgs[2])
	assert.False(t, msgs[2].Pending)
	require.NotNil(t, msgs[2].Instruction)
	assert.Equal(t, "9", w.State().Current.ID)
	for _, m := range msgs {
		assert.NotEqual(t, ThinkingText, m.Content)
	}
}

func TestSendMessageApologizesOnFailure(t *testing.T) {
	w := newWidget(&assistantStub{chatErr: errOffline})

	answer, sent := w.SendMessage(context.Background(), "hello")
	require.True(t, sent)
	assert.Equal(t, ApologyText, answer.Content)
	assert.Len(t, w.State().Messages, 3)
}

func TestSendMessageEmptyReply(t *testing.T) {
	w := newWidget(&assistantStub{chatReply: &remote.ChatReply{}})
	answer, _ := w.SendMessage(context.Background(), "hello")
	assert.Equal(t, NoResponseText, answer.Content)
}

func TestOpenLoadsTasks(t *testing.T) {
	a := &assistantStub{popular: popularOf("t1", "t2")}
	w := newWidget(a)

	require.NoError(t, w.Open(context.Background()))
	st := w.State()
	assert.True(t, st.Open)
	require.Len(t, st.Tasks, 2)
	assert.Equal(t, "how to t1", st.Tasks[0].Title)

	require.NoError(t, w.SwitchTab(context.Background(), TabChat))
	assert.Equal(t, 1, a.popCalls)
	require.NoError(t, w.SwitchTab(context.Background(), TabTasks))
	assert.Equal(t, 2, a.popCalls)
	assert.Error(t, w.SwitchTab(context.Background(), Tab("settings")))
}

func TestLoadTasksFailure(t *testing.T) {
	w := newWidget(&assistantStub{popular: func(int) ([]remote.StoredInstruction, error) {
		return nil, errOffline
	}})
	assert.Error(t, w.LoadTasks(context.Background()))
	assert.Equal(t, TasksErrorText, w.State().TasksError)
}

func TestLoadTasksDiscardsStale(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	a := &assistantStub{popular: func(call int) ([]remote.StoredInstruction, error) {
		if call == 1 {
			close(started)
			<-release
			return popularOf("old")(call)
		}
		return popularOf("new")(call)
	}}
	w := newWidget(a)

	done := make(chan error)
	go func() { done <- w.LoadTasks(context.Background()) }()
	<-started

	require.NoError(t, w.LoadTasks(context.Background()))
	close(release)
	require.NoError(t, <-done)

	tasks := w.State().Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, "new", tasks[0].ID)
}

func TestToggleInstructionCaches(t *testing.T) {
	a := &assistantStub{
		popular: popularOf("known", "missing"),
		instr: map[string]*remote.InstructionData{
			"known": {Steps: []string{"a", "b"}, InstructionID: "i-1"},
		},
	}
	w := newWidget(a)
	require.NoError(t, w.LoadTasks(context.Background()))
	ctx := context.Background()

	view, err := w.ToggleInstruction(ctx, "known")
	require.NoError(t, err)
	assert.True(t, view.Expanded)
	assert.Equal(t, []string{"a", "b"}, view.Steps)
	assert.Equal(t, "i-1", w.State().Current.ID)

	view, err = w.ToggleInstruction(ctx, "known")
	require.NoError(t, err)
	assert.False(t, view.Expanded)

	_, err = w.ToggleInstruction(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, 1, a.instrCalls["known"])

	view, err = w.ToggleInstruction(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, NotFoundText, view.Message)
	_, _ = w.ToggleInstruction(ctx, "missing")
	_, _ = w.ToggleInstruction(ctx, "missing")
	assert.Equal(t, 1, a.instrCalls["missing"])

	_, err = w.ToggleInstruction(ctx, "nope")
	_, notFound := apperrors.AsNotFound(err)
	assert.True(t, notFound)
}

func TestTaskRowsSharingTaskIDExpandSeparately(t *testing.T) {
	a := &assistantStub{
		popular: func(int) ([]remote.StoredInstruction, error) {
			return []remote.StoredInstruction{
				{ID: "11", TaskID: "pay", UserQuery: "pay by card"},
				{ID: "12", TaskID: "pay", UserQuery: "pay on delivery"},
				{UserQuery: "no task"},
				{UserQuery: "no task either"},
			}, nil
		},
		instr: map[string]*remote.InstructionData{
			"pay": {Steps: []string{"Open the cart"}, InstructionID: "i-9"},
		},
	}
	w := newWidget(a)
	ctx := context.Background()
	require.NoError(t, w.LoadTasks(ctx))

	tasks := w.State().Tasks
	require.Len(t, tasks, 4)
	assert.Equal(t, []string{"11", "12", "row-3", "row-4"},
		[]string{tasks[0].Key, tasks[1].Key, tasks[2].Key, tasks[3].Key})

	view, err := w.ToggleInstruction(ctx, "12")
	require.NoError(t, err)
	assert.True(t, view.Expanded)
	assert.Equal(t, "pay on delivery", view.Title)

	tasks = w.State().Tasks
	assert.False(t, tasks[0].Expanded)
	assert.True(t, tasks[1].Expanded)

	view, err = w.ToggleInstruction(ctx, "row-4")
	require.NoError(t, err)
	assert.Equal(t, "no task either", view.Title)
	assert.False(t, w.State().Tasks[2].Expanded)
}

func TestToggleInstructionRetriesAfterFailure(t *testing.T) {
	a := &assistantStub{popular: popularOf("t1"), instrErr: errOffline}
	w := newWidget(a)
	require.NoError(t, w.LoadTasks(context.Background()))
	ctx := context.Background()

	view, err := w.ToggleInstruction(ctx, "t1")
	assert.Error(t, err)
	assert.Equal(t, InstrErrorText, view.Message)

	_, _ = w.ToggleInstruction(ctx, "t1")
	a.instrErr = nil
	a.instr = map[string]*remote.InstructionData{"t1": {Steps: []string{"x"}, InstructionID: "7"}}
	view, err = w.ToggleInstruction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, view.Steps)
	assert.Equal(t, 2, a.instrCalls["t1"])
}

func TestProcessVoice(t *testing.T) {
	a := &assistantStub{voiceReply: &remote.VoiceReply{Text: "Done", Steps: []string{"s1"}, InstructionID: "v1"}}
	w := newWidget(a)

	answer, ok := w.ProcessVoice(context.Background(), "find soap")
	require.True(t, ok)
	assert.Equal(t, "Done", answer.Content)
	st := w.State()
	assert.Equal(t, TabChat, st.Tab)
	assert.Len(t, st.Messages, 3)
	assert.Equal(t, "v1", st.Current.ID)

	a.voiceErr = errOffline
	answer, _ = w.ProcessVoice(context.Background(), "again")
	assert.Equal(t, VoiceApologyText, answer.Content)

	_, ok = w.ProcessVoice(context.Background(), " ")
	assert.False(t, ok)
}

func TestSearchAndSelect(t *testing.T) {
	a := &assistantStub{results: []remote.StoredInstruction{{ID: "5", TaskID: "pay", Steps: []string{"p"}}}}
	w := newWidget(a)
	ctx := context.Background()

	results, err := w.Search(ctx, "pay")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "pay", w.State().SearchQuery)

	instr, err := w.SelectResult("5")
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, instr.Steps)
	assert.Empty(t, w.State().Results)

	_, err = w.Search(ctx, "pay")
	require.NoError(t, err)
	results, err = w.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Empty(t, w.State().Results)
}

func TestExportUsesCurrent(t *testing.T) {
	a := &assistantStub{results: []remote.StoredInstruction{{ID: "5", Steps: []string{"p"}}}}
	w := newWidget(a)
	ctx := context.Background()

	_, err := w.Export(ctx, "txt", "")
	_, notFound := apperrors.AsNotFound(err)
	assert.True(t, notFound)

	_, err = w.Search(ctx, "x")
	require.NoError(t, err)
	_, err = w.SelectResult("5")
	require.NoError(t, err)

	exp, err := w.Export(ctx, "txt", "")
	require.NoError(t, err)
	assert.Equal(t, "5", a.exported)
	assert.Equal(t, "instruction_5.txt", exp.Filename)
}

func TestLoadHelp(t *testing.T) {
	w := newWidget(&assistantStub{})
	tasks, err := w.LoadHelp(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Len(t, w.State().HelpTasks, 1)
}

func TestEmbeddedHostReport(t *testing.T) {
	cfg := testConfig()
	h := NewEmbeddedHost(cfg.Standalone)
	assert.Equal(t, "/catalog", h.PageContext().URL)

	h.Report(domain.PageContext{URL: "/cart", DOMSnapshot: "<main/>"})
	page := h.PageContext()
	assert.Equal(t, "/cart", page.URL)
	assert.Equal(t, "<main/>", page.DOMSnapshot)
	assert.Equal(t, 1280, page.Viewport.Width)

	cfg.HostMode = config.HostEmbedded
	_, ok := NewHost(cfg).(Reporter)
	assert.True(t, ok)
	cfg.HostMode = config.HostStandalone
	_, ok = NewHost(cfg).(Reporter)
	assert.False(t, ok)
}
