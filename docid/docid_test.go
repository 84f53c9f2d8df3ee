package docid

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  DocID
	}{
		{
			name:  "task meta",
			input: "task-meta:t1:1",
			want:  DocID{Prefix: "task-meta", Key: "t1", Epoch: 1},
		},
		{
			name:  "task conversation",
			input: "task-conv:abc:2",
			want:  DocID{Prefix: "task-conv", Key: "abc", Epoch: 2},
		},
		{
			name:  "review with large epoch",
			input: "task-review:t9:4611686018427387903",
			want:  DocID{Prefix: "task-review", Key: "t9", Epoch: 4611686018427387903},
		},
		{
			name:  "unrecognized prefix still parses",
			input: "whiteboard:w1:3",
			want:  DocID{Prefix: "whiteboard", Key: "w1", Epoch: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"no colons", "task"},
		{"two segments", "task-conv:abc"},
		{"four segments", "task-conv:abc:1:2"},
		{"empty prefix", ":abc:1"},
		{"empty key", "task-conv::1"},
		{"empty epoch", "task-conv:abc:"},
		{"zero epoch", "task-conv:abc:0"},
		{"negative epoch", "task-conv:abc:-1"},
		{"signed epoch", "task-conv:abc:+1"},
		{"non-numeric epoch", "task-conv:abc:xyz"},
		{"decimal point epoch", "task-conv:abc:1.5"},
		{"hex epoch", "task-conv:abc:0x1"},
		{"epoch with trailing garbage", "task-conv:abc:1x"},
		{"epoch overflow", "task-conv:abc:99999999999999999999"},
		{"only colons", "::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformed", tt.input, err)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		prefix string
		want   Kind
	}{
		{PrefixTaskMeta, KindTaskMeta},
		{PrefixTaskConv, KindTaskConv},
		{PrefixTaskReview, KindTaskReview},
		{PrefixRoom, KindRoom},
		{"task-metaX", KindUnknown},
		{"Task-Meta", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		if got := KindOf(tt.prefix); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindTaskMeta, "task-meta"},
		{KindTaskConv, "task-conv"},
		{KindTaskReview, "task-review"},
		{KindRoom, "room"},
		{KindUnknown, "unknown"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustParse did not panic on malformed input")
		}
	}()
	MustParse("not-a-docid")
}

func TestMarshalText(t *testing.T) {
	d := MustParse("room:r1:7")
	data, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText error: %v", err)
	}
	var back DocID
	if err := back.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if back != d {
		t.Errorf("round trip = %+v, want %+v", back, d)
	}

	var zero DocID
	data, err = zero.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText zero error: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("zero MarshalText = %q, want empty", data)
	}
}

func TestScan(t *testing.T) {
	var d DocID
	if err := d.Scan("task-conv:t1:1"); err != nil {
		t.Fatalf("Scan string error: %v", err)
	}
	if d.Key != "t1" {
		t.Errorf("Scan Key = %q, want %q", d.Key, "t1")
	}

	if err := d.Scan(nil); err != nil {
		t.Fatalf("Scan nil error: %v", err)
	}
	if !d.IsZero() {
		t.Error("Scan nil should produce zero DocID")
	}

	if err := d.Scan(42); err == nil {
		t.Error("Scan int should error")
	}
}

func TestFormatParseProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	// Colon-free segments; colons are the delimiter and never round trip.
	segment := gen.RegexMatch(`[a-z][a-z0-9-]{0,15}`)

	properties.Property("Format then Parse round trips", prop.ForAll(
		func(prefix, key string, epoch int64) bool {
			parsed, err := Parse(Format(prefix, key, epoch))
			if err != nil {
				return false
			}
			return parsed.Prefix == prefix && parsed.Key == key && parsed.Epoch == epoch
		},
		segment,
		segment,
		gen.Int64Range(1, 1<<62),
	))

	properties.Property("epoch below one never parses", prop.ForAll(
		func(prefix, key string, epoch int64) bool {
			_, err := Parse(Format(prefix, key, epoch))
			return errors.Is(err, ErrMalformed)
		},
		segment,
		segment,
		gen.Int64Range(-1<<32, 0),
	))

	properties.TestingRun(t)
}
