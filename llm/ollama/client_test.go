package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/casebot/llm"
)

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		if len(req.Tools) > 0 {
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"calculator","arguments":{"input":"15% of 200"}}}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"30"}}`))
	}))
	defer srv.Close()

	client := NewClient("llama3", WithBaseURL(srv.URL))
	reply, err := client.Complete(context.Background(), []llm.Message{llm.User("15% of 200?")}, []llm.ToolSpec{{Name: "calculator"}})
	require.NoError(t, err)
	require.True(t, reply.IsToolCall())
	assert.Equal(t, "calculator", reply.ToolCall.Name)
	assert.Equal(t, "15% of 200", reply.ToolCall.Input)
	assert.NotEmpty(t, reply.ToolCall.ID)

	reply, err = client.Complete(context.Background(), []llm.Message{llm.User("15% of 200?")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "30", reply.Text)
}
