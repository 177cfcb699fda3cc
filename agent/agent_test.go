package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/embeddings/simple"
	"github.com/viant/casebot/llm"
	"github.com/viant/casebot/solver"
	"github.com/viant/casebot/tool"
	"github.com/viant/casebot/vectordb/mem"
)

// scripted replays replies and records every transcript it receives.
type scripted struct {
	replies     []*llm.Reply
	transcripts [][]llm.Message
	err         error
}

func (s *scripted) Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (*llm.Reply, error) {
	s.transcripts = append(s.transcripts, append([]llm.Message(nil), messages...))
	if s.err != nil {
		return nil, s.err
	}
	if len(s.replies) == 0 {
		return &llm.Reply{Text: "done"}, nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type blocking struct{}

func (blocking) Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (*llm.Reply, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func call(name, input string) *llm.Reply {
	return &llm.Reply{ToolCall: &llm.ToolCall{ID: "call-" + name, Name: name, Input: input}}
}

func studyTools(t *testing.T, math llm.Completer) *tool.Set {
	t.Helper()
	ctx := context.Background()
	embedder := simple.New(256)
	index := mem.New(embedder.Model())
	chunks := document.Chunks{
		{Text: "MECE means mutually exclusive and collectively exhaustive", Meta: map[string]string{document.SourceKey: "frameworks.pdf", document.PageKey: "2"}},
		{Text: "Market sizing estimates the total addressable market", Meta: map[string]string{document.SourceKey: "sizing.docx"}},
	}
	vectors, err := embedder.EmbedDocuments(ctx, chunks.Texts())
	require.NoError(t, err)
	_, err = index.Upsert(ctx, chunks, vectors)
	require.NoError(t, err)
	return tool.NewSet(
		tool.NewRetrieval(embedder, index, tool.WithK(1)),
		tool.NewCompute(solver.NewLLMMath(math)),
	)
}

func lastMessage(messages []llm.Message) llm.Message {
	return messages[len(messages)-1]
}

func TestLoop_RetrievalWithSource(t *testing.T) {
	completer := &scripted{replies: []*llm.Reply{
		call(tool.RetrievalName, "MECE mutually exclusive collectively exhaustive"),
		{Text: "MECE means mutually exclusive and collectively exhaustive (source: frameworks.pdf)."},
	}}
	loop := NewLoop(completer, studyTools(t, &scripted{}))
	result, err := loop.Run(context.Background(), "What does MECE mean?", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Answer, "frameworks.pdf")
	require.Len(t, result.Steps, 1)
	assert.Equal(t, tool.RetrievalName, result.Steps[0].Tool)
	assert.True(t, strings.HasPrefix(result.Steps[0].Observation, "Source: frameworks.pdf (page 2)\nContent: MECE"))

	require.Len(t, completer.transcripts, 2)
	observed := lastMessage(completer.transcripts[1])
	assert.Equal(t, llm.RoleTool, observed.Role)
	assert.Equal(t, "call-"+tool.RetrievalName, observed.ToolCallID)
	assert.Equal(t, result.Steps[0].Observation, observed.Content)
}

func TestLoop_Compute(t *testing.T) {
	math := &scripted{replies: []*llm.Reply{{Text: "```text\n15% * 200\n```"}}}
	completer := &scripted{replies: []*llm.Reply{
		call(tool.ComputeName, "What is 15% of 200?"),
		{Text: "15% of 200 is 30."},
	}}
	result, err := NewLoop(completer, studyTools(t, math)).Run(context.Background(), "What is 15% of 200?", nil)
	require.NoError(t, err)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, "Answer: 30", result.Steps[0].Observation)
	assert.Equal(t, "15% of 200 is 30.", result.Answer)
}

func TestLoop_UnknownToolAndToolError(t *testing.T) {
	completer := &scripted{replies: []*llm.Reply{
		call("web_search", "consulting salaries"),
		call(tool.RetrievalName, "   "),
		{Text: "I could not search the web."},
	}}
	result, err := NewLoop(completer, studyTools(t, &scripted{})).Run(context.Background(), "salaries?", nil)
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, `Tool "web_search" not found. Available tools: Calculator, consulting_knowledge_base`, result.Steps[0].Observation)
	assert.True(t, strings.HasPrefix(result.Steps[1].Observation, "Error: "))
	assert.Equal(t, "I could not search the web.", result.Answer)
}

func TestLoop_MaxSteps(t *testing.T) {
	var replies []*llm.Reply
	for i := 0; i < 10; i++ {
		replies = append(replies, call(tool.RetrievalName, "MECE"))
	}
	completer := &scripted{replies: replies}
	result, err := NewLoop(completer, studyTools(t, &scripted{}), WithMaxSteps(3)).Run(context.Background(), "loop", nil)
	assert.ErrorIs(t, err, ErrMaxSteps)
	require.NotNil(t, result)
	assert.Len(t, result.Steps, 3)
	assert.Len(t, completer.transcripts, 3)
}

func TestLoop_CompletionFailure(t *testing.T) {
	failure := llm.Wrap(errors.New("quota exceeded"))
	_, err := NewLoop(&scripted{err: failure}, studyTools(t, &scripted{})).Run(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, llm.ErrService)
}

func TestLoop_EmptyReply(t *testing.T) {
	completer := &scripted{replies: []*llm.Reply{nil}}
	result, err := NewLoop(completer, studyTools(t, &scripted{})).Run(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, llm.ErrService)
	assert.Nil(t, result)
}

func TestLoop_TranscriptOrder(t *testing.T) {
	completer := &scripted{}
	loop := NewLoop(completer, studyTools(t, &scripted{}), WithLanguage("English"))
	history := []Turn{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}}
	_, err := loop.Run(context.Background(), "q3", history)
	require.NoError(t, err)
	messages := completer.transcripts[0]
	require.Len(t, messages, 6)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "consulting_knowledge_base: ")
	assert.Contains(t, messages[0].Content, "Calculator: ")
	assert.Contains(t, messages[0].Content, "Always answer in English.")
	assert.NotContains(t, messages[0].Content, "{{")
	var got []string
	for _, msg := range messages[1:] {
		got = append(got, string(msg.Role)+":"+msg.Content)
	}
	assert.Equal(t, []string{"user:q1", "assistant:a1", "user:q2", "assistant:a2", "user:q3"}, got)
}

func TestAssistant_Answer(t *testing.T) {
	ctx := context.Background()
	completer := &scripted{replies: []*llm.Reply{{Text: "Hello!"}}}
	assistant := NewAssistant(NewLoop(completer, studyTools(t, &scripted{})))
	resp, err := assistant.Answer(ctx, Request{Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Answer)

	_, err = assistant.Answer(ctx, Request{Question: "  "})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	slow := NewAssistant(NewLoop(blocking{}, studyTools(t, &scripted{})), WithRequestTimeout(20*time.Millisecond))
	_, err = slow.Answer(ctx, Request{Question: "hi"})
	assert.ErrorIs(t, err, ErrService)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequest_JSON(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"question":"next?","chat_history":[["q1","a1"],{"question":"q2","answer":"a2"}]}`), &req))
	assert.Equal(t, "next?", req.Question)
	assert.Equal(t, []Turn{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}}, req.ChatHistory)

	data, err := json.Marshal(Request{Question: "q", ChatHistory: []Turn{{Question: "a", Answer: "b"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":"q","chat_history":[["a","b"]]}`, string(data))

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"question":"q","chat_history":[["only one"]]}`), &req), ErrInvalidRequest)
}
