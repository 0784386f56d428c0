package holepunch

import (
	"testing"

	"github.com/x0tta6bl4/shapedmesh/peer"
)

type fakeTransport struct {
	holePunches int
	pings       int
	rec         peer.Record
	hasRec      bool
}

func (f *fakeTransport) SendHolePunch(addr peer.Addr) { f.holePunches++ }
func (f *fakeTransport) SendPing(addr peer.Addr)      { f.pings++ }
func (f *fakeTransport) GetPeerInfo(addr peer.Addr) (peer.Record, bool) {
	return f.rec, f.hasRec
}

func TestPunchHoleSucceedsWhenRTTObserved(t *testing.T) {
	ft := &fakeTransport{rec: peer.Record{RTTMillis: 12}, hasRec: true}
	ok := punchHoleFast(ft, peer.Addr{Host: "127.0.0.1", Port: 1}, 2)
	if !ok {
		t.Fatalf("expected PunchHole to report success when a peer record with positive RTT exists")
	}
	if ft.holePunches != 2 {
		t.Fatalf("holePunches = %d, want 2", ft.holePunches)
	}
	if ft.pings != 1 {
		t.Fatalf("pings = %d, want 1 (the final liveness ping)", ft.pings)
	}
}

func TestPunchHoleFailsWithoutPeerRecord(t *testing.T) {
	ft := &fakeTransport{}
	if punchHoleFast(ft, peer.Addr{Host: "127.0.0.1", Port: 1}, 1) {
		t.Fatalf("expected failure with no peer record")
	}
}

func TestPunchHoleFailsWithZeroRTT(t *testing.T) {
	ft := &fakeTransport{rec: peer.Record{RTTMillis: 0}, hasRec: true}
	if punchHoleFast(ft, peer.Addr{Host: "127.0.0.1", Port: 1}, 1) {
		t.Fatalf("expected failure when RTT is zero (no PONG observed yet)")
	}
}
