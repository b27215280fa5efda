package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jafarshop/ecostore/internal/domain"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// Reply types of the chat endpoint
const (
	ReplyText        = "text"
	ReplyInstruction = "instruction"
)

// InstructionData is a step list with the id used for exports
type InstructionData struct {
	Steps         []string `json:"steps"`
	InstructionID ID       `json:"instruction_id"`
}

// Instruction converts the payload to the chat attachment form
func (d *InstructionData) Instruction() *domain.Instruction {
	if d == nil || len(d.Steps) == 0 {
		return nil
	}
	return &domain.Instruction{ID: string(d.InstructionID), Steps: d.Steps}
}

// ChatReply is the answer of the chat endpoint
type ChatReply struct {
	Message         string           `json:"message"`
	Type            string           `json:"type"`
	InstructionData *InstructionData `json:"instruction_data,omitempty"`
}

type chatRequest struct {
	Message string             `json:"message"`
	Context domain.PageContext `json:"context"`
}

type taskData struct {
	Name string `json:"name"`
}

// StoredInstruction is an instruction record of the assistant database as
// returned by the popular and search endpoints
type StoredInstruction struct {
	ID         ID        `json:"id"`
	TaskID     string    `json:"task_id"`
	UserQuery  string    `json:"user_query"`
	TaskData   *taskData `json:"task_data"`
	UsageCount int       `json:"usage_count"`
	Steps      []string  `json:"steps"`
}

// Title picks the best display title for the record
func (s StoredInstruction) Title() string {
	switch {
	case s.TaskData != nil && s.TaskData.Name != "":
		return s.TaskData.Name
	case s.UserQuery != "":
		return s.UserQuery
	case s.TaskID != "":
		return s.TaskID
	default:
		return "Untitled"
	}
}

// Task converts the record to a task browser entry
func (s StoredInstruction) Task() domain.Task {
	return domain.Task{Key: string(s.ID), ID: s.TaskID, Title: s.Title(), UsageCount: s.UsageCount}
}

type instructionList struct {
	Count        int                 `json:"count"`
	Instructions []StoredInstruction `json:"instructions"`
	Results      []StoredInstruction `json:"results"`
}

type instructionRequest struct {
	TaskID   string             `json:"task_id"`
	Context  domain.PageContext `json:"context"`
	TaskName string             `json:"task_name,omitempty"`
}

type instructionResponse struct {
	InstructionData
	Error string `json:"error"`
}

// VoiceReply is the answer of the process-voice endpoint
type VoiceReply struct {
	Text          string   `json:"text"`
	Steps         []string `json:"steps"`
	InstructionID ID       `json:"instruction_id"`
	Source        string   `json:"source"`
}

type voiceRequest struct {
	Text    string             `json:"text"`
	Context domain.PageContext `json:"context"`
}

// HelpTask is a task the assistant can explain on the current page
type HelpTask struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type helpResponse struct {
	AvailableTasks json.RawMessage `json:"available_tasks"`
	Application    string          `json:"application"`
}

// Export is a downloadable rendition of an instruction
type Export struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Export formats accepted by the assistant API
var ExportFormats = map[string]bool{"pdf": true, "json": true, "txt": true}

// Chat sends a chat message with the page context
func (c *Client) Chat(ctx context.Context, message string, page domain.PageContext) (*ChatReply, error) {
	var reply ChatReply
	req := chatRequest{Message: message, Context: page}
	if err := c.do(ctx, http.MethodPost, c.assistant("/chat"), req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// PopularInstructions lists the most used instructions
func (c *Client) PopularInstructions(ctx context.Context, limit int) ([]StoredInstruction, error) {
	var list instructionList
	path := "/popular-instructions?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, c.assistant(path), nil, &list); err != nil {
		return nil, err
	}
	return list.Instructions, nil
}

// SearchInstructions searches stored instructions by free text
func (c *Client) SearchInstructions(ctx context.Context, query string) ([]StoredInstruction, error) {
	var list instructionList
	body := map[string]string{"query": query}
	if err := c.do(ctx, http.MethodPost, c.assistant("/search-instructions"), body, &list); err != nil {
		return nil, err
	}
	if list.Results != nil {
		return list.Results, nil
	}
	return list.Instructions, nil
}

// GetInstruction fetches the steps for a task. An answer that carries an
// error or no steps is reported as *errors.ErrNotFound.
func (c *Client) GetInstruction(ctx context.Context, taskID, taskName string, page domain.PageContext) (*InstructionData, error) {
	var resp instructionResponse
	req := instructionRequest{TaskID: taskID, Context: page, TaskName: taskName}
	if err := c.do(ctx, http.MethodPost, c.assistant("/get-instruction"), req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" || len(resp.Steps) == 0 {
		return nil, &apperrors.ErrNotFound{Resource: "instruction", ID: taskID}
	}
	return &resp.InstructionData, nil
}

// ProcessVoice forwards transcribed speech
func (c *Client) ProcessVoice(ctx context.Context, text string, page domain.PageContext) (*VoiceReply, error) {
	var reply VoiceReply
	req := voiceRequest{Text: text, Context: page}
	if err := c.do(ctx, http.MethodPost, c.assistant("/process-voice"), req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Help lists the tasks available for the page. The API returns either a list
// or an object wrapping it under "tasks".
func (c *Client) Help(ctx context.Context, page domain.PageContext) ([]HelpTask, error) {
	var resp helpResponse
	if err := c.do(ctx, http.MethodPost, c.assistant("/get-help"), page, &resp); err != nil {
		return nil, err
	}
	if len(resp.AvailableTasks) == 0 || string(resp.AvailableTasks) == "null" {
		return nil, nil
	}

	var tasks []HelpTask
	if err := json.Unmarshal(resp.AvailableTasks, &tasks); err == nil {
		return tasks, nil
	}
	var wrapped struct {
		Tasks []HelpTask `json:"tasks"`
	}
	if err := json.Unmarshal(resp.AvailableTasks, &wrapped); err != nil {
		return nil, c.unavailable(http.MethodPost, c.assistant("/get-help"), fmt.Errorf("failed to unmarshal tasks: %w", err))
	}
	return wrapped.Tasks, nil
}

// Export downloads an instruction in the given format
func (c *Client) Export(ctx context.Context, format, instructionID string) (*Export, error) {
	if !ExportFormats[format] {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	path := fmt.Sprintf("/export/%s/%s", format, url.PathEscape(instructionID))
	data, header, err := c.send(ctx, http.MethodGet, c.assistant(path), nil)
	if err != nil {
		return nil, err
	}

	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Export{
		ContentType: contentType,
		Filename:    fmt.Sprintf("instruction_%s.%s", instructionID, format),
		Data:        data,
	}, nil
}
