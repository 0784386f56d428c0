package packet

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"short", []byte("hello")},
		{"max", bytes.Repeat([]byte{0x42}, 1400)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Packet{
				Type:        Data,
				Sequence:    0xdeadbeef,
				TimestampMs: 1700000000123,
				RequiresAck: true,
				Payload:     tc.payload,
			}

			raw := Encode(p)
			got, err := Decode(raw)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			if got.Type != p.Type || got.Sequence != p.Sequence ||
				got.TimestampMs != p.TimestampMs || got.RequiresAck != p.RequiresAck {
				t.Fatalf("header mismatch: got %+v want %+v", got, p)
			}
			if !bytes.Equal(got.Payload, p.Payload) {
				t.Fatalf("payload mismatch: got %x want %x", got.Payload, p.Payload)
			}
		})
	}
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	for n := 0; n < HeaderLength; n++ {
		_, err := Decode(make([]byte, n))
		if _, ok := err.(MalformedPacketError); !ok {
			t.Fatalf("len=%d: expected MalformedPacketError, got %v", n, err)
		}
	}
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	p := &Packet{Type: Data, Payload: []byte("hello world")}
	raw := Encode(p)

	_, err := Decode(raw[:HeaderLength+3])
	if _, ok := err.(MalformedPacketError); !ok {
		t.Fatalf("expected MalformedPacketError, got %v", err)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	raw := Encode(&Packet{Type: Data})
	raw[0] = 0xff

	_, err := Decode(raw)
	if _, ok := err.(UnknownTypeError); !ok {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	raw := Encode(&Packet{Type: Ping, Payload: []byte("x")})
	raw = append(raw, 0, 0, 0, 0, 0) // simulated shaper padding

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got.Payload, []byte("x")) {
		t.Fatalf("payload mismatch: got %x", got.Payload)
	}
}

func TestPongEchoesOriginatorTimestamp(t *testing.T) {
	const pingTs = uint64(1_000_000)
	pong := &Packet{Type: Pong, Sequence: 77, TimestampMs: pingTs}
	raw := Encode(pong)

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.TimestampMs != pingTs {
		t.Fatalf("expected echoed timestamp %d, got %d", pingTs, got.TimestampMs)
	}
}
