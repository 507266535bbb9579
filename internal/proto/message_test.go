package proto

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeRelay(t *testing.T) {
	data, err := json.Marshal(Envelope{Relay: &Relay{Name: "Clever Badger", JSON: `{"type":"offer"}`}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Relay":{"name":"Clever Badger","json":"{\"type\":\"offer\"}"}}`
	if string(data) != want {
		t.Fatalf("got %s\nwant %s", data, want)
	}
}

func TestEncodeRosterWithNulls(t *testing.T) {
	peer := "127.0.0.1:40000"
	data, err := json.Marshal(Envelope{Roster: &Roster{
		Name: "Zany Zebra",
		Clients: []RosterClient{
			{Name: "Zany Zebra", Peer: &peer},
		},
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Roster":{"name":"Zany Zebra","clients":[{"name":"Zany Zebra","peer":"127.0.0.1:40000","user_agent":null}]}}`
	if string(data) != want {
		t.Fatalf("got %s\nwant %s", data, want)
	}
}

func TestEncodeEmptyRosterUsesArray(t *testing.T) {
	data, err := json.Marshal(Envelope{Roster: &Roster{Name: "Alpha"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"Roster":{"name":"Alpha","clients":[]}}`; string(data) != want {
		t.Fatalf("got %s", data)
	}
}

func TestEncodeInvalidEnvelope(t *testing.T) {
	if _, err := json.Marshal(Envelope{}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for empty envelope, got %v", err)
	}
	both := Envelope{Relay: &Relay{}, Roster: &Roster{}}
	if _, err := json.Marshal(both); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for two variants, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "relay", in: `{"Relay":{"name":"Beta","json":"X"}}`, want: TypeRelay},
		{name: "roster", in: `{"Roster":{"name":"Beta","clients":[]}}`, want: TypeRoster},
		{name: "relay with extra fields", in: `{"Relay":{"name":"Beta","json":"X","extra":1}}`, want: TypeRelay},
		{name: "not json", in: `hello`, wantErr: true},
		{name: "array", in: `[1,2]`, wantErr: true},
		{name: "empty object", in: `{}`, wantErr: true},
		{name: "two variants", in: `{"Relay":{"name":"a","json":""},"Roster":{"name":"a","clients":[]}}`, wantErr: true},
		{name: "unknown variant", in: `{"Offer":{}}`, wantErr: true},
		{name: "null body", in: `{"Relay":null}`, wantErr: true},
		{name: "wrong field type", in: `{"Relay":{"name":1,"json":"X"}}`, wantErr: true},
		{name: "lowercase tag", in: `{"relay":{"name":"a","json":"b"}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Decode([]byte(tt.in))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("expected ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Type() != tt.want {
				t.Fatalf("got type %q, want %q", env.Type(), tt.want)
			}
		})
	}
}

func TestDecodeRelayFields(t *testing.T) {
	env, err := Decode([]byte(`{"Relay":{"name":"Beta","json":"{\"sdp\":\"v=0\"}"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Relay.Name != "Beta" || env.Relay.JSON != `{"sdp":"v=0"}` {
		t.Fatalf("unexpected relay: %+v", env.Relay)
	}
}
