package widget

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/remote"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// Tab is the active widget tab
type Tab string

const (
	TabTasks Tab = "tasks"
	TabChat  Tab = "chat"
)

// Fixed texts shown by the widget
const (
	ThinkingText     = "Thinking..."
	ApologyText      = "Sorry, something went wrong. Please try again."
	VoiceApologyText = "Sorry, an error occurred while processing the voice request."
	NoResponseText   = "No response received"
	TasksErrorText   = "Failed to load tasks."
	NotFoundText     = "Instruction not found."
	InstrErrorText   = "Failed to load the instruction."
)

// Assistant is the assistant API used by the widget
type Assistant interface {
	Chat(ctx context.Context, message string, page domain.PageContext) (*remote.ChatReply, error)
	PopularInstructions(ctx context.Context, limit int) ([]remote.StoredInstruction, error)
	GetInstruction(ctx context.Context, taskID, taskName string, page domain.PageContext) (*remote.InstructionData, error)
	ProcessVoice(ctx context.Context, text string, page domain.PageContext) (*remote.VoiceReply, error)
	SearchInstructions(ctx context.Context, query string) ([]remote.StoredInstruction, error)
	Help(ctx context.Context, page domain.PageContext) ([]remote.HelpTask, error)
	Export(ctx context.Context, format, instructionID string) (*remote.Export, error)
}

// TaskView is a task browser entry with its expansion state
type TaskView struct {
	domain.Task
	Expanded bool
	Loading  bool
	Steps    []string
	Message  string
}

type instructionCache struct {
	loaded   bool
	notFound bool
	steps    []string
	id       string
	err      string
	token    uint64
}

// State is a read-only copy of the widget for rendering
type State struct {
	Open         bool
	Tab          Tab
	TasksLoading bool
	TasksError   string
	Tasks        []TaskView
	Messages     []domain.ChatMessage
	SearchQuery  string
	Results      []remote.StoredInstruction
	HelpTasks    []remote.HelpTask
	Current      *domain.Instruction
	Config       config.WidgetConfig
}

// Widget is the assistant panel: a task browser and a chat. Each action
// issues at most one request; responses of superseded task loads are
// dropped.
type Widget struct {
	mu sync.Mutex

	open         bool
	tab          Tab
	tasks        []domain.Task
	tasksLoading bool
	tasksErr     string
	taskGen      uint64
	expanded     map[string]bool
	cache        map[string]*instructionCache
	messages     []domain.ChatMessage
	searchQuery  string
	results      []remote.StoredInstruction
	helpTasks    []remote.HelpTask
	current      *domain.Instruction

	assistant Assistant
	host      Host
	cfg       config.WidgetConfig
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// New creates a closed widget on the tasks tab, greeting the user in the chat
func New(assistant Assistant, host Host, cfg config.WidgetConfig, logger *zap.Logger) *Widget {
	w := &Widget{
		tab:       TabTasks,
		expanded:  make(map[string]bool),
		cache:     make(map[string]*instructionCache),
		assistant: assistant,
		host:      host,
		cfg:       cfg,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		logger:    logger,
	}
	w.messages = []domain.ChatMessage{w.message(domain.RoleAssistant, cfg.Greeting)}
	return w
}

// Host returns the page context provider
func (w *Widget) Host() Host {
	return w.host
}

// State returns a snapshot for rendering
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	tasks := make([]TaskView, 0, len(w.tasks))
	for _, t := range w.tasks {
		tasks = append(tasks, w.taskView(t))
	}

	var current *domain.Instruction
	if w.current != nil {
		c := *w.current
		current = &c
	}

	return State{
		Open:         w.open,
		Tab:          w.tab,
		TasksLoading: w.tasksLoading,
		TasksError:   w.tasksErr,
		Tasks:        tasks,
		Messages:     append([]domain.ChatMessage(nil), w.messages...),
		SearchQuery:  w.searchQuery,
		Results:      append([]remote.StoredInstruction(nil), w.results...),
		HelpTasks:    append([]remote.HelpTask(nil), w.helpTasks...),
		Current:      current,
		Config:       w.cfg,
	}
}

// Open shows the panel and refreshes the task list when the tasks tab is
// active
func (w *Widget) Open(ctx context.Context) error {
	w.mu.Lock()
	w.open = true
	tab := w.tab
	w.mu.Unlock()

	if tab == TabTasks {
		return w.LoadTasks(ctx)
	}
	return nil
}

// Close hides the panel
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = false
}

// SwitchTab activates a tab. Entering the tasks tab reloads the task list.
func (w *Widget) SwitchTab(ctx context.Context, tab Tab) error {
	if tab != TabTasks && tab != TabChat {
		return fmt.Errorf("unknown tab %q", tab)
	}

	w.mu.Lock()
	w.tab = tab
	w.mu.Unlock()

	if tab == TabTasks {
		return w.LoadTasks(ctx)
	}
	return nil
}

// LoadTasks fetches the popular instructions. Only the newest call may
// update the list.
func (w *Widget) LoadTasks(ctx context.Context) error {
	w.mu.Lock()
	w.taskGen++
	gen := w.taskGen
	w.tasksLoading = true
	w.tasksErr = ""
	w.mu.Unlock()

	list, err := w.assistant.PopularInstructions(ctx, w.cfg.PopularLimit)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.taskGen {
		w.logger.Debug("Discarding stale task list", zap.Uint64("generation", gen))
		return nil
	}
	w.tasksLoading = false
	if err != nil {
		w.tasksErr = TasksErrorText
		return err
	}

	tasks := make([]domain.Task, 0, len(list))
	seen := make(map[string]bool, len(list))
	for i, instr := range list {
		task := instr.Task()
		if task.Key == "" {
			task.Key = task.ID
		}
		if task.Key == "" || seen[task.Key] {
			task.Key = "row-" + strconv.Itoa(i+1)
		}
		seen[task.Key] = true
		tasks = append(tasks, task)
	}
	w.tasks = tasks
	return nil
}

// ToggleInstruction expands or collapses the task row with the given key.
// The first expansion fetches the steps; a found or missing instruction is
// cached, a failed request is not and will be retried on the next expansion.
func (w *Widget) ToggleInstruction(ctx context.Context, key string) (TaskView, error) {
	w.mu.Lock()
	task, ok := w.findTask(key)
	if !ok {
		w.mu.Unlock()
		return TaskView{}, &apperrors.ErrNotFound{Resource: "task", ID: key}
	}

	if w.expanded[key] {
		w.expanded[key] = false
		view := w.taskView(task)
		w.mu.Unlock()
		return view, nil
	}

	w.expanded[key] = true
	entry := w.cache[key]
	if entry == nil {
		entry = &instructionCache{}
		w.cache[key] = entry
	}
	if entry.loaded {
		view := w.taskView(task)
		w.mu.Unlock()
		return view, nil
	}
	entry.token++
	token := entry.token
	entry.err = ""
	w.mu.Unlock()

	data, err := w.assistant.GetInstruction(ctx, task.ID, task.Title, w.host.PageContext())

	w.mu.Lock()
	defer w.mu.Unlock()
	if entry.token != token {
		w.logger.Debug("Discarding stale instruction", zap.String("key", key))
		return w.taskView(task), nil
	}

	if err != nil {
		if _, notFound := apperrors.AsNotFound(err); notFound {
			entry.loaded = true
			entry.notFound = true
			return w.taskView(task), nil
		}
		entry.err = InstrErrorText
		return w.taskView(task), err
	}

	entry.loaded = true
	entry.steps = data.Steps
	entry.id = string(data.InstructionID)
	w.current = &domain.Instruction{ID: entry.id, Steps: entry.steps}
	return w.taskView(task), nil
}

// SendMessage posts a chat message with the page context. Blank text is
// ignored and sends nothing. A "thinking" placeholder is shown while the
// request runs and is then replaced, by id, with the reply or an apology.
func (w *Widget) SendMessage(ctx context.Context, text string) (domain.ChatMessage, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, false
	}

	w.mu.Lock()
	w.messages = append(w.messages, w.message(domain.RoleUser, text))
	placeholder := w.message(domain.RoleAssistant, ThinkingText)
	placeholder.Pending = true
	w.messages = append(w.messages, placeholder)
	w.mu.Unlock()

	reply, err := w.assistant.Chat(ctx, text, w.host.PageContext())

	answer := w.message(domain.RoleAssistant, "")
	switch {
	case err != nil:
		w.logger.Warn("Chat request failed", zap.Error(err))
		answer.Content = ApologyText
	case reply.Message == "":
		answer.Content = NoResponseText
	default:
		answer.Content = reply.Message
		if reply.Type == remote.ReplyInstruction {
			answer.Instruction = reply.InstructionData.Instruction()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.replace(placeholder.ID, answer)
	if answer.Instruction != nil {
		w.current = answer.Instruction
	}
	return answer, true
}

// ProcessVoice forwards text standing in for speech, switching to the chat
// tab to show the exchange. Blank text is ignored.
func (w *Widget) ProcessVoice(ctx context.Context, text string) (domain.ChatMessage, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, false
	}

	w.mu.Lock()
	w.tab = TabChat
	w.messages = append(w.messages, w.message(domain.RoleUser, text))
	w.mu.Unlock()

	reply, err := w.assistant.ProcessVoice(ctx, text, w.host.PageContext())

	answer := w.message(domain.RoleAssistant, "")
	if err != nil {
		w.logger.Warn("Voice request failed", zap.Error(err))
		answer.Content = VoiceApologyText
	} else {
		answer.Content = reply.Text
		if answer.Content == "" {
			answer.Content = NoResponseText
		}
		if len(reply.Steps) > 0 {
			answer.Instruction = &domain.Instruction{ID: string(reply.InstructionID), Steps: reply.Steps}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, answer)
	if answer.Instruction != nil {
		w.current = answer.Instruction
	}
	return answer, true
}

// Search looks up instructions. A blank query clears the results.
func (w *Widget) Search(ctx context.Context, query string) ([]remote.StoredInstruction, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		w.mu.Lock()
		w.searchQuery = ""
		w.results = nil
		w.mu.Unlock()
		return nil, nil
	}

	results, err := w.assistant.SearchInstructions(ctx, query)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.searchQuery = query
	w.results = results
	return append([]remote.StoredInstruction(nil), results...), nil
}

// SelectResult makes a search result the current instruction and clears
// the search
func (w *Widget) SelectResult(instructionID string) (*domain.Instruction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.results {
		if string(r.ID) == instructionID {
			w.current = &domain.Instruction{ID: instructionID, Steps: r.Steps}
			w.results = nil
			w.searchQuery = ""
			c := *w.current
			return &c, nil
		}
	}
	return nil, &apperrors.ErrNotFound{Resource: "search result", ID: instructionID}
}

// LoadHelp fetches the tasks the assistant can explain on the current page
func (w *Widget) LoadHelp(ctx context.Context) ([]remote.HelpTask, error) {
	tasks, err := w.assistant.Help(ctx, w.host.PageContext())
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.helpTasks = tasks
	w.mu.Unlock()
	return tasks, nil
}

// Export downloads an instruction. An empty id exports the current one.
func (w *Widget) Export(ctx context.Context, format, instructionID string) (*remote.Export, error) {
	if instructionID == "" {
		w.mu.Lock()
		if w.current != nil {
			instructionID = w.current.ID
		}
		w.mu.Unlock()
	}
	if instructionID == "" {
		return nil, &apperrors.ErrNotFound{Resource: "instruction", ID: "current"}
	}
	return w.assistant.Export(ctx, format, instructionID)
}

func (w *Widget) message(role domain.Role, content string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        w.newID(),
		Role:      role,
		Content:   content,
		Timestamp: w.now(),
	}
}

// replace swaps the message with the given id. Caller holds mu.
func (w *Widget) replace(id string, msg domain.ChatMessage) {
	for i := range w.messages {
		if w.messages[i].ID == id {
			w.messages[i] = msg
			return
		}
	}
	w.messages = append(w.messages, msg)
}

// findTask looks up a task row by key. Caller holds mu.
func (w *Widget) findTask(key string) (domain.Task, bool) {
	for _, t := range w.tasks {
		if t.Key == key {
			return t, true
		}
	}
	return domain.Task{}, false
}

// taskView builds the view of a task. Caller holds mu.
func (w *Widget) taskView(t domain.Task) TaskView {
	view := TaskView{Task: t, Expanded: w.expanded[t.Key]}
	entry := w.cache[t.Key]
	switch {
	case entry == nil:
	case entry.notFound:
		view.Message = NotFoundText
	case entry.loaded:
		view.Steps = append([]string(nil), entry.steps...)
	case entry.err != "":
		view.Message = entry.err
	default:
		view.Loading = view.Expanded
	}
	return view
}
