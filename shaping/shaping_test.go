package shaping

import (
	"bytes"
	"testing"

	"github.com/x0tta6bl4/shapedmesh/internal/drbg"
)

func mustSeed(t *testing.T) *drbg.Seed {
	t.Helper()
	seed, err := drbg.NewSeed()
	if err != nil {
		t.Fatalf("drbg.NewSeed: %v", err)
	}
	return seed
}

func TestNoneDisablesShaping(t *testing.T) {
	s, err := New(None, nil)
	if err != nil || s != nil {
		t.Fatalf("New(none): got (%v, %v), want (nil, nil)", s, err)
	}
}

func TestUnknownProfileDisablesShaping(t *testing.T) {
	s, err := New("made-up", nil)
	if err != nil || s != nil {
		t.Fatalf("New(made-up): got (%v, %v), want (nil, nil)", s, err)
	}
}

func TestRoundtripAllProfiles(t *testing.T) {
	profiles := []Profile{Gaming, VoiceCall, VideoStreaming, FileDownload}
	payloads := [][]byte{
		nil,
		[]byte("hi"),
		bytes.Repeat([]byte{0x7a}, 1400),
	}

	for _, p := range profiles {
		t.Run(string(p), func(t *testing.T) {
			s, err := New(p, mustSeed(t))
			if err != nil {
				t.Fatalf("New(%s): %v", p, err)
			}
			if s == nil {
				t.Fatalf("New(%s) returned nil shaper", p)
			}
			for _, payload := range payloads {
				wire := s.ShapePacket(payload)
				if len(wire) < len(payload)+lengthPrefixLen {
					t.Fatalf("%s: shaped frame shorter than payload+prefix: got %d want >= %d",
						p, len(wire), len(payload)+lengthPrefixLen)
				}
				got, err := s.UnshapePacket(wire)
				if err != nil {
					t.Fatalf("%s: UnshapePacket: %v", p, err)
				}
				if !bytes.Equal(got, payload) && !(len(got) == 0 && len(payload) == 0) {
					t.Fatalf("%s roundtrip: got %x want %x", p, got, payload)
				}
			}
		})
	}
}

func TestVoiceCallFixedSize(t *testing.T) {
	s, err := New(VoiceCall, mustSeed(t))
	if err != nil || s == nil {
		t.Fatalf("New(voice_call): %v, %v", s, err)
	}
	payload := bytes.Repeat([]byte{0x01}, 50)
	wire := s.ShapePacket(payload)
	if len(wire) != 200+lengthPrefixLen {
		t.Fatalf("voice_call frame size = %d, want %d", len(wire), 200+lengthPrefixLen)
	}
}

func TestShapePacketNeverShrinksBelowPayload(t *testing.T) {
	s, err := New(Gaming, mustSeed(t))
	if err != nil || s == nil {
		t.Fatalf("New(gaming): %v, %v", s, err)
	}
	// A payload larger than the profile's max target size must still
	// round-trip: the frame grows to fit it instead of truncating.
	big := bytes.Repeat([]byte{0x9}, 1000)
	wire := s.ShapePacket(big)
	if len(wire) < len(big)+lengthPrefixLen {
		t.Fatalf("oversized payload was truncated: frame %d, payload+prefix %d", len(wire), len(big)+lengthPrefixLen)
	}
	got, err := s.UnshapePacket(wire)
	if err != nil {
		t.Fatalf("UnshapePacket: %v", err)
	}
	if !bytes.Equal(got, big) {
		t.Fatalf("oversized payload roundtrip mismatch")
	}
}

func TestUnshapePacketRejectsShortBuffer(t *testing.T) {
	s, _ := New(Gaming, mustSeed(t))
	_, err := s.UnshapePacket([]byte{0x01})
	if _, ok := err.(ShortBufferError); !ok {
		t.Fatalf("expected ShortBufferError, got %v", err)
	}
}

func TestUnshapePacketRejectsTruncatedPayload(t *testing.T) {
	s, _ := New(Gaming, mustSeed(t))
	buf := []byte{0x00, 0x0a, 0x01, 0x02} // claims 10 bytes, has 2
	_, err := s.UnshapePacket(buf)
	if _, ok := err.(TruncatedPayloadError); !ok {
		t.Fatalf("expected TruncatedPayloadError, got %v", err)
	}
}

func TestGetSendDelayWithinProfileRange(t *testing.T) {
	cases := []struct {
		profile      Profile
		minMs, maxMs int
	}{
		{Gaming, 10, 33},
		{VoiceCall, 15, 25},
		{VideoStreaming, 5, 20},
		{FileDownload, 0, 2},
	}

	for _, tc := range cases {
		s, err := New(tc.profile, mustSeed(t))
		if err != nil || s == nil {
			t.Fatalf("New(%s): %v, %v", tc.profile, s, err)
		}
		for i := 0; i < 50; i++ {
			d := s.GetSendDelay()
			if d.Milliseconds() < int64(tc.minMs) || d.Milliseconds() > int64(tc.maxMs) {
				t.Fatalf("%s: delay %v outside [%d,%d]ms", tc.profile, d, tc.minMs, tc.maxMs)
			}
		}
	}
}
