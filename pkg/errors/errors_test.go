package errors

import (
	stderrors "errors"
	"encoding/json"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CodeUnresolvedBinding, "reference did not resolve", nil)
	if !strings.Contains(err.Error(), "UNRESOLVED_BINDING") {
		t.Fatalf("expected code in message, got %q", err.Error())
	}

	cause := stderrors.New("boom")
	wrapped := New(CodeAgentExecution, "agent run failed", cause)
	if !strings.Contains(wrapped.Error(), "boom") {
		t.Fatalf("expected cause in message, got %q", wrapped.Error())
	}
	if !stderrors.Is(wrapped, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
}

func TestErrorChaining(t *testing.T) {
	err := New(CodeCapabilityNotFound, "no such capability", nil).
		WithContext("capability", "ratio_calc").
		WithAttribute("cacm.step.id", "s1").
		WithRecoverable(false)

	if err.Context["capability"] != "ratio_calc" {
		t.Fatalf("unexpected context: %+v", err.Context)
	}
	if err.Attributes["cacm.step.id"] != "s1" {
		t.Fatalf("unexpected attributes: %+v", err.Attributes)
	}
	if err.Recoverable {
		t.Fatal("expected not recoverable")
	}
}

func TestAsEngineError(t *testing.T) {
	typed := New(CodeTimeout, "step exceeded deadline", nil)
	if got := AsEngineError(typed); got != typed {
		t.Fatal("expected identity conversion for typed errors")
	}

	plain := stderrors.New("plain")
	wrapped := AsEngineError(plain)
	if wrapped.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", wrapped.Code)
	}
	if wrapped.Err != plain {
		t.Fatal("expected cause preserved")
	}
	if AsEngineError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestCodeHelpers(t *testing.T) {
	err := New(CodeValidation, "bad instance", nil)
	if CodeOf(err) != CodeValidation {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
	if !IsCode(err, CodeValidation) {
		t.Fatal("expected IsCode match")
	}
	if IsCode(stderrors.New("plain"), CodeValidation) {
		t.Fatal("expected no match for untyped error")
	}
	if CodeOf(stderrors.New("plain")) != CodeInternal {
		t.Fatal("expected internal for untyped error")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New(CodeSkillFailure, "plugin call failed", stderrors.New("dial refused")).
		WithContext("plugin", "financials")
	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("marshal: %v", jerr)
	}
	var decoded map[string]any
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("unmarshal: %v", jerr)
	}
	if decoded["code"] != "SKILL_FAILURE" {
		t.Fatalf("unexpected code field: %v", decoded["code"])
	}
}
