package id

import (
	"strings"
	"testing"
)

func TestNewGeneratesValidIDs(t *testing.T) {
	tests := []struct {
		name   string
		newID  func() ID
		prefix Prefix
	}{
		{"grant", NewGrantID, PrefixGrant},
		{"decision", NewDecisionID, PrefixDecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generated := tt.newID()
			if generated.IsNil() {
				t.Fatal("generated ID is nil")
			}
			if generated.Prefix() != tt.prefix {
				t.Errorf("Prefix = %q, want %q", generated.Prefix(), tt.prefix)
			}
			if !strings.HasPrefix(generated.String(), string(tt.prefix)+"_") {
				t.Errorf("String = %q, want %q prefix", generated.String(), tt.prefix)
			}
		})
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		s := NewGrantID().String()
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate ID generated: %s", s)
		}
		seen[s] = struct{}{}
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := NewDecisionID()
	parsed, err := Parse(original.String())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round trip = %q, want %q", parsed.String(), original.String())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "grantsuffix"},
		{"bad suffix", "grant_!!!"},
		{"uppercase suffix", "grant_01H2XCEJQTF2NBREXX3VQJHP41"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Errorf("Parse(%q) should error", tt.input)
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	grantID := NewGrantID()

	parsed, err := ParseGrantID(grantID.String())
	if err != nil {
		t.Fatalf("ParseGrantID error: %v", err)
	}
	if parsed.String() != grantID.String() {
		t.Errorf("ParseGrantID = %q, want %q", parsed.String(), grantID.String())
	}

	if _, err := ParseDecisionID(grantID.String()); err == nil {
		t.Error("ParseDecisionID should reject a grant ID")
	}
}

func TestMustParsePanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustParse did not panic")
		}
	}()
	MustParse("not a typeid")
}

func TestNilID(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	if Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", Nil.String())
	}
	if Nil.Prefix() != "" {
		t.Errorf("Nil.Prefix() = %q, want empty", Nil.Prefix())
	}
}

func TestTextMarshaling(t *testing.T) {
	original := NewGrantID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText error: %v", err)
	}

	var decoded ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("round trip = %q, want %q", decoded.String(), original.String())
	}

	var nilDecoded ID
	if err := nilDecoded.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil) error: %v", err)
	}
	if !nilDecoded.IsNil() {
		t.Error("UnmarshalText(nil) should produce Nil ID")
	}
}

func TestSQLValueScan(t *testing.T) {
	original := NewDecisionID()

	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}
	str, ok := val.(string)
	if !ok {
		t.Fatalf("Value type = %T, want string", val)
	}

	var scanned ID
	if err := scanned.Scan(str); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("Scan round trip = %q, want %q", scanned.String(), original.String())
	}

	nilVal, err := Nil.Value()
	if err != nil {
		t.Fatalf("Nil.Value error: %v", err)
	}
	if nilVal != nil {
		t.Errorf("Nil.Value = %v, want nil", nilVal)
	}

	var fromNil ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if !fromNil.IsNil() {
		t.Error("Scan(nil) should produce Nil ID")
	}

	if err := scanned.Scan(42); err == nil {
		t.Error("Scan(int) should error")
	}
}
