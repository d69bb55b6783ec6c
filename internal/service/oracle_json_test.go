package service

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeOracleJSONPlainObject(t *testing.T) {
	out := decodeOracleJSON(`{"intent":"create_goal","domain":"sleep"}`)
	if out.Kind != oracleParsed {
		t.Fatalf("expected parsed kind, got %d", out.Kind)
	}

	var parsed map[string]string
	if err := json.Unmarshal(out.Object, &parsed); err != nil {
		t.Fatalf("failed to unmarshal object: %v", err)
	}
	if parsed["intent"] != "create_goal" {
		t.Fatalf("unexpected intent: %s", parsed["intent"])
	}
}

func TestDecodeOracleJSONCodeFences(t *testing.T) {
	content := "```json\n{\"summary\":\"plan\"}\n```"
	out := decodeOracleJSON(content)
	if out.Kind != oracleParsed {
		t.Fatalf("expected parsed kind, got %d", out.Kind)
	}

	var parsed map[string]string
	if err := json.Unmarshal(out.Object, &parsed); err != nil {
		t.Fatalf("failed to unmarshal object: %v", err)
	}
	if parsed["summary"] != "plan" {
		t.Fatalf("unexpected summary: %s", parsed["summary"])
	}
}

func TestDecodeOracleJSONSurroundingProse(t *testing.T) {
	content := "Claro, aquí tienes el resultado: {\"intent\":\"other\"} ¡Éxitos!"
	out := decodeOracleJSON(content)
	if out.Kind != oracleParsed {
		t.Fatalf("expected parsed kind, got %d", out.Kind)
	}
}

func TestDecodeOracleJSONDataWrapper(t *testing.T) {
	out := decodeOracleJSON(`{"data":{"intent":"progress"}}`)
	if out.Kind != oracleParsed {
		t.Fatalf("expected parsed kind, got %d", out.Kind)
	}

	var parsed map[string]string
	if err := json.Unmarshal(out.Object, &parsed); err != nil {
		t.Fatalf("failed to unmarshal object: %v", err)
	}
	if parsed["intent"] != "progress" {
		t.Fatalf("expected data wrapper unwrapped, got %s", string(out.Object))
	}
}

func TestDecodeOracleJSONRawWrapper(t *testing.T) {
	out := decodeOracleJSON(`{"_raw":"{\"intent\":\"adjust_plan\"}"}`)
	if out.Kind != oracleParsed {
		t.Fatalf("expected parsed kind, got %d", out.Kind)
	}

	var parsed map[string]string
	if err := json.Unmarshal(out.Object, &parsed); err != nil {
		t.Fatalf("failed to unmarshal object: %v", err)
	}
	if parsed["intent"] != "adjust_plan" {
		t.Fatalf("expected _raw wrapper unwrapped, got %s", string(out.Object))
	}
}

func TestDecodeOracleJSONPlainText(t *testing.T) {
	out := decodeOracleJSON("No puedo generar JSON ahora mismo.")
	if out.Kind != oracleRawText {
		t.Fatalf("expected raw text kind, got %d", out.Kind)
	}
	if out.Raw == "" {
		t.Fatal("expected raw content to be preserved")
	}
}

func TestDecodeOracleJSONBrokenObject(t *testing.T) {
	out := decodeOracleJSON(`{"intent": "create_goal",}`)
	if out.Kind != oracleRawText {
		t.Fatalf("expected raw text kind for broken JSON, got %d", out.Kind)
	}
}

func TestOracleErrorCarriesError(t *testing.T) {
	cause := errors.New("boom")
	out := oracleError(cause)
	if out.Kind != oracleFailed {
		t.Fatalf("expected failed kind, got %d", out.Kind)
	}
	if !errors.Is(out.Err, cause) {
		t.Fatal("expected wrapped error to be preserved")
	}
}
