package middleware

import (
	"net/http"
	"testing"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := make(http.Header)
	hdr.Set("Content-Type", "application/json")
	hdr.Add("X-Custom", "a")
	hdr.Add("X-Custom", "b")
	body := []byte(`{"fields":[]}`)

	enc, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(enc)
	if !ok {
		t.Fatal("decode reported failure")
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHdr.Get("Content-Type"))
	}
	if vals := gotHdr.Values("X-Custom"); len(vals) != 2 || vals[0] != "a" || vals[1] != "b" {
		t.Errorf("X-Custom = %v, want [a b]", vals)
	}
	if string(gotBody) != string(body) {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, {}, {1, 2, 3}, {0, 0, 0, 200, 255, 255, 255, 255}} {
		if _, _, _, ok := decodePayload(bs); ok {
			t.Errorf("decode accepted %v", bs)
		}
	}
}
