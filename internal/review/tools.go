package review

import (
	"context"
	"encoding/json"
	"fmt"

	"overdub/internal/services/agents"
	"overdub/internal/subtitles"
)

// Tool names agents may request mid-conversation.
const (
	toolGetJobInfo         = "GetJobInfo"
	toolGetSourceSubtitles = "GetSourceSubtitles"
	toolGetTargetSubtitles = "GetTargetSubtitles"
)

// maxToolRounds bounds how many tool calls an agent may make before it is
// forced to answer.
const maxToolRounds = 4

type toolRequest struct {
	Tool string `json:"tool"`
}

// parseToolRequest detects a tool call in an agent reply. Replies that are
// not a bare tool request are treated as final answers.
func parseToolRequest(reply string) (string, bool) {
	var req toolRequest
	if err := agents.DecodeJSON(reply, &req); err != nil {
		return "", false
	}
	if req.Tool == "" {
		return "", false
	}
	return req.Tool, true
}

// runTool executes a requested tool against the job context. Subtitle
// payloads are truncated before being handed back to the agent. Unknown tool
// names produce an error message the agent can recover from.
func runTool(ctx context.Context, jobCtx JobContext, name string) string {
	var (
		content string
		err     error
	)
	switch name {
	case toolGetJobInfo:
		content, err = jobCtx.JobInfo(ctx)
	case toolGetSourceSubtitles:
		content, err = jobCtx.SourceSubtitles(ctx)
		if err == nil {
			content = subtitles.TruncateForAgent(content)
		}
	case toolGetTargetSubtitles:
		content, err = jobCtx.TargetSubtitles(ctx)
		if err == nil {
			content = subtitles.TruncateForAgent(content)
		}
	default:
		err = fmt.Errorf("unknown tool %q", name)
	}

	payload := struct {
		Tool   string `json:"tool"`
		Result string `json:"result,omitempty"`
		Error  string `json:"error,omitempty"`
	}{Tool: name}
	if err != nil {
		payload.Error = err.Error()
	} else {
		payload.Result = content
	}
	encoded, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return fmt.Sprintf(`{"tool":%q,"error":"encoding tool result failed"}`, name)
	}
	return string(encoded)
}
