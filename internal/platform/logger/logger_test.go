package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsPatientData(t *testing.T) {
	kv := []interface{}{
		"patient_nom", "Durand",
		"notes", "allergie pénicilline",
		"screenshot", "data:image/png;base64,AAAA",
		"category", "implant",
	}
	out := sanitizeKVs(kv)
	if len(out) != len(kv) {
		t.Fatalf("length changed: want=%d got=%d", len(kv), len(out))
	}
	for i := 0; i < 6; i += 2 {
		if out[i+1] != "[REDACTED]" {
			t.Fatalf("%v: want=[REDACTED] got=%v", out[i], out[i+1])
		}
	}
	if out[7] != "implant" {
		t.Fatalf("category: want=%q got=%v", "implant", out[7])
	}
}

func TestSanitizeKVsHashesIdentifiers(t *testing.T) {
	out := sanitizeKVs([]interface{}{"patient_id", "4711", "document_id", "4711_12"})
	for _, idx := range []int{1, 3} {
		s, _ := out[idx].(string)
		if !strings.HasPrefix(s, "hash:") || len(s) != len("hash:")+12 {
			t.Fatalf("%v: want hashed value got=%q", out[idx-1], s)
		}
	}
	again := sanitizeKVs([]interface{}{"patient_id", "4711"})
	if again[1] != out[1] {
		t.Fatalf("hash must be stable: %v vs %v", again[1], out[1])
	}
}

func TestSanitizeValueSummarizesDataURLs(t *testing.T) {
	got := sanitizeValue("file", "data:image/jpeg;base64,QUJD")
	if got != "[DATA 27 chars]" {
		t.Fatalf("want=%q got=%v", "[DATA 27 chars]", got)
	}
	if got := sanitizeValue("file", "scan.png"); got != "scan.png" {
		t.Fatalf("plain value changed: %v", got)
	}
}

func TestPolicyForKeys(t *testing.T) {
	cases := map[string]policy{
		"api_token":        redact,
		"centre_nom":       redact,
		"photo_data":       redact,
		"draft_id":         hash,
		"idpraticien":      hash,
		"category":         keep,
		"attachment_count": keep,
	}
	for key, want := range cases {
		if got := policyFor(key); got != want {
			t.Fatalf("policyFor(%q): want=%d got=%d", key, want, got)
		}
	}
}

func TestSanitizeNestedMap(t *testing.T) {
	out := sanitizeValue("payload", map[string]interface{}{"Notes": "x", "tooth": 16})
	m, ok := out.(map[string]interface{})
	if !ok {
		t.Fatalf("want map got %T", out)
	}
	if m["Notes"] != "[REDACTED]" || m["tooth"] != 16 {
		t.Fatalf("unexpected map: %#v", m)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")
	if _, err := New("development"); err == nil {
		t.Fatalf("expected error for LOG_LEVEL=chatty")
	}
}

func TestSanitizeKVsHashesCenterIDs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"center_id", "12", "idCentre", "12", "ID_centre", "12"})
	for _, idx := range []int{1, 3, 5} {
		s, _ := out[idx].(string)
		if !strings.HasPrefix(s, "hash:") {
			t.Fatalf("%v: want hashed value got=%q", out[idx-1], s)
		}
	}
}
