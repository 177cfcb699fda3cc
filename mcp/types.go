package mcp

import (
	"github.com/viant/casebot/agent"
	"github.com/viant/casebot/vectordb"
)

type RetrieveInput struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

type Passage struct {
	Source  string  `json:"source"`
	Label   string  `json:"label"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

type RetrieveOutput struct {
	Content  string    `json:"content"`
	Passages []Passage `json:"passages"`
}

type ComputeInput struct {
	Problem string `json:"problem"`
}

type ComputeOutput struct {
	Answer string `json:"answer"`
}

type AskInput struct {
	Question    string       `json:"question"`
	ChatHistory []agent.Turn `json:"chat_history,omitempty"`
}

type AskOutput struct {
	Answer string `json:"answer"`
}

type StatsInput struct{}

type StatsOutput struct {
	Stats *vectordb.Stats `json:"stats"`
}
