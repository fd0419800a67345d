package envelope

import (
	"reflect"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name    string
		env     Envelope
		want    string
		wantErr bool
	}{
		{name: "string body", env: New("hello"), want: "hello"},
		{name: "precomputed text", env: NewText("hi there"), want: "hi there"},
		{name: "nil body", env: New(nil), want: ""},
		{name: "object body synthesizes JSON", env: New(map[string]int{"a": 1}), want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.env.Text()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Text() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObject(t *testing.T) {
	tests := []struct {
		name    string
		env     Envelope
		want    interface{}
		wantErr bool
	}{
		{name: "json string body", env: New(`{"x":1}`), want: map[string]interface{}{"x": 1.0}},
		{name: "non-json string errors", env: New("not json"), wantErr: true},
		{name: "object body passthrough", env: NewObject(map[string]int{"a": 1}), want: map[string]int{"a": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.env.Object()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Object() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Object() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConversation(t *testing.T) {
	e := New("ping")
	msgs, err := e.Conversation()
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}
	want := []Message{{Role: "user", Content: "ping"}}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("Conversation() = %#v, want %#v", msgs, want)
	}

	empty := New("")
	msgs, err = empty.Conversation()
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}
	if msgs != nil {
		t.Errorf("Conversation() on empty text = %#v, want nil", msgs)
	}
}

func TestWithRepresentationBypassesSynthesis(t *testing.T) {
	e := New(map[string]int{"a": 1}).WithRepresentation(RepText, "custom")
	got, err := e.Text()
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "custom" {
		t.Errorf("Text() = %q, want %q", got, "custom")
	}
}

func TestResolveUnknownRepresentation(t *testing.T) {
	_, err := New("x").Resolve(Representation("bogus"))
	if err == nil {
		t.Fatal("Resolve() with unknown representation: want error, got nil")
	}
}
