package jsonrpc

import (
	"encoding/json"
	"testing"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"jsonrpc":"2.0","method":"ping","id":1}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Method != "ping" {
		t.Fatalf("method = %q", req.Method)
	}
	if req.IsNotification() {
		t.Fatal("request with an ID classified as notification")
	}

	note, err := ParseRequest([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	if err != nil {
		t.Fatalf("parse notification: %v", err)
	}
	if !note.IsNotification() {
		t.Fatal("notification not detected")
	}
}

func TestParseRequest_Rejections(t *testing.T) {
	cases := []string{
		`not json`,
		`{"jsonrpc":"1.0","method":"ping","id":1}`,
		`{"method":"ping","id":1}`,
		`{"jsonrpc":"2.0","id":1}`,
	}
	for _, raw := range cases {
		if _, err := ParseRequest([]byte(raw)); err == nil {
			t.Fatalf("ParseRequest(%s) succeeded, want error", raw)
		}
	}
}

func TestRequestID_RoundTrip(t *testing.T) {
	cases := []struct {
		wire string
		str  string
	}{
		{`1`, "1"},
		{`"abc"`, "abc"},
		{`1.5`, "1.5"},
	}
	for _, tc := range cases {
		var id RequestID
		if err := json.Unmarshal([]byte(tc.wire), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.wire, err)
		}
		if got := id.String(); got != tc.str {
			t.Fatalf("String(%s) = %q, want %q", tc.wire, got, tc.str)
		}
		out, err := json.Marshal(&id)
		if err != nil {
			t.Fatalf("marshal %s: %v", tc.wire, err)
		}
		if string(out) != tc.wire {
			t.Fatalf("round trip %s -> %s", tc.wire, out)
		}
	}

	var id RequestID
	if err := json.Unmarshal([]byte(`{"a":1}`), &id); err == nil {
		t.Fatal("object accepted as request ID")
	}
}

func TestRequestID_Nil(t *testing.T) {
	var id *RequestID
	if !id.IsNil() {
		t.Fatal("nil pointer not nil")
	}
	out, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("marshal nil = %s", out)
	}
	if id.String() != "" {
		t.Fatalf("String() = %q", id.String())
	}
}

func TestNewResultResponse(t *testing.T) {
	id := NewRequestID(7)
	res, err := NewResultResponse(id, map[string]string{"ok": "yes"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.JSONRPCVersion != ProtocolVersion || res.Error != nil {
		t.Fatalf("response = %+v", res)
	}
	var body map[string]string
	if err := json.Unmarshal(res.Result, &body); err != nil || body["ok"] != "yes" {
		t.Fatalf("result = %s (%v)", res.Result, err)
	}

	errRes := NewErrorResponse(id, ErrorCodeMethodNotFound, "no such method")
	if errRes.Error == nil || errRes.Error.Code != ErrorCodeMethodNotFound {
		t.Fatalf("error response = %+v", errRes)
	}
}
