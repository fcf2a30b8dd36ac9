package core

import (
	"encoding/json"
	"testing"
)

func TestFingerprintContent(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{
			name:  "single part",
			parts: []string{"test content"},
		},
		{
			name:  "empty part",
			parts: []string{""},
		},
		{
			name:  "multiple parts",
			parts: []string{"Quarterly review", "body text", "alice@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp1 := FingerprintContent(tt.parts...)
			fp2 := FingerprintContent(tt.parts...)

			if fp1 != fp2 {
				t.Errorf("FingerprintContent() produced different values for same input: %d vs %d", fp1, fp2)
			}
		})
	}
}

func TestFingerprintContent_Boundaries(t *testing.T) {
	// Part boundaries must matter: ("ab","c") != ("a","bc")
	fp1 := FingerprintContent("ab", "c")
	fp2 := FingerprintContent("a", "bc")

	if fp1 == fp2 {
		t.Errorf("FingerprintContent() ignored part boundaries")
	}
}

func TestFingerprintEmail(t *testing.T) {
	email := &Email{
		ID:      "e1",
		Subject: "Maritime Safety Briefing",
		Body:    EmailBody{ContentType: BodyTypeText, Content: "All hands."},
		Sender:  EmailAddress{Name: "Ops", Address: "ops@example.com"},
	}

	fp := FingerprintEmail(email)

	// Changing the body must change the fingerprint.
	changed := *email
	changed.Body.Content = "All hands on deck."
	if FingerprintEmail(&changed) == fp {
		t.Errorf("FingerprintEmail() unchanged after body edit")
	}

	// Changing read state must not change the fingerprint.
	read := *email
	read.IsRead = true
	if FingerprintEmail(&read) != fp {
		t.Errorf("FingerprintEmail() changed by read state")
	}
}

func TestEnumJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "low importance", in: `"low"`, want: `"low"`},
		{name: "high importance", in: `"HIGH"`, want: `"high"`},
		{name: "unknown importance defaults to normal", in: `"urgent"`, want: `"normal"`},
		{name: "empty importance defaults to normal", in: `""`, want: `"normal"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var imp Importance
			if err := json.Unmarshal([]byte(tt.in), &imp); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			out, err := json.Marshal(imp)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("round trip = %s, want %s", out, tt.want)
			}
		})
	}
}

func TestBodyTypeJSON(t *testing.T) {
	var bt BodyType
	if err := json.Unmarshal([]byte(`"html"`), &bt); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if bt != BodyTypeHTML {
		t.Errorf("Unmarshal(html) = %v, want BodyTypeHTML", bt)
	}

	if err := json.Unmarshal([]byte(`"text"`), &bt); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if bt != BodyTypeText {
		t.Errorf("Unmarshal(text) = %v, want BodyTypeText", bt)
	}
}

func TestEmbeddingTypeString(t *testing.T) {
	tests := []struct {
		typ  EmbeddingType
		want string
	}{
		{EmbeddingTypeSubject, "subject"},
		{EmbeddingTypeBody, "body"},
		{EmbeddingTypeCombined, "combined"},
		{EmbeddingType(0), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
