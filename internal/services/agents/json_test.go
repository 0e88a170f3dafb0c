package agents

import "testing"

func TestDecodeJSONDirect(t *testing.T) {
	var out struct {
		Score int `json:"score"`
	}
	if err := DecodeJSON(`{"score":85}`, &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if out.Score != 85 {
		t.Fatalf("unexpected score: %d", out.Score)
	}
}

func TestDecodeJSONCodeFence(t *testing.T) {
	var out struct {
		Score int `json:"score"`
	}
	if err := DecodeJSON("```json\n{\"score\":72}\n```", &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if out.Score != 72 {
		t.Fatalf("unexpected score: %d", out.Score)
	}
}

func TestDecodeJSONSurroundingProse(t *testing.T) {
	var out struct {
		Score int `json:"score"`
	}
	content := "Here is my evaluation:\n{\"score\":64}\nLet me know if you need more."
	if err := DecodeJSON(content, &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if out.Score != 64 {
		t.Fatalf("unexpected score: %d", out.Score)
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var out map[string]any
	if err := DecodeJSON("not json at all", &out); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if err := DecodeJSON("   ", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
