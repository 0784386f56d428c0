package udptransport

import (
	"errors"
	"net"
	"sync"
	"time"
)

// fakeSwitch is an in-memory UDP fabric: fakeSockets registered on it can
// exchange datagrams without touching a real OS socket, the way a
// sandboxed test environment requires.
type fakeSwitch struct {
	mu    sync.Mutex
	socks map[string]*fakeSocket
}

func newFakeSwitch() *fakeSwitch {
	return &fakeSwitch{socks: make(map[string]*fakeSocket)}
}

func (s *fakeSwitch) register(addr string) *fakeSocket {
	s.mu.Lock()
	defer s.mu.Unlock()
	sock := &fakeSocket{
		sw:    s,
		addr:  &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: parsePort(addr)},
		inbox: make(chan datagram, 64),
	}
	s.socks[addr] = sock
	return sock
}

func parsePort(addr string) int {
	_, portStr, _ := net.SplitHostPort(addr)
	port := 0
	for _, c := range portStr {
		port = port*10 + int(c-'0')
	}
	return port
}

func (s *fakeSwitch) deliver(to string, d datagram) {
	s.mu.Lock()
	sock, ok := s.socks[to]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case sock.inbox <- d:
	default:
	}
}

type datagram struct {
	payload []byte
	from    net.Addr
}

// fakeSocket implements packetSocket entirely in memory via a fakeSwitch.
type fakeSocket struct {
	sw       *fakeSwitch
	addr     *net.UDPAddr
	inbox    chan datagram
	deadline time.Time
	closed   bool
}

func (f *fakeSocket) ReadFrom(b []byte) (int, net.Addr, error) {
	timeout := time.Until(f.deadline)
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	select {
	case d := <-f.inbox:
		n := copy(b, d.payload)
		return n, d.from, nil
	case <-time.After(timeout):
		return 0, nil, &net.OpError{Op: "read", Err: errTimeout{}}
	}
}

func (f *fakeSocket) WriteTo(b []byte, addr net.Addr) (int, error) {
	if f.closed {
		return 0, errors.New("fakeSocket: closed")
	}
	cp := append([]byte(nil), b...)
	f.sw.deliver(addr.String(), datagram{payload: cp, from: f.addr})
	return len(b), nil
}

func (f *fakeSocket) SetReadDeadline(t time.Time) error {
	f.deadline = t
	return nil
}

func (f *fakeSocket) LocalAddr() net.Addr { return f.addr }

func (f *fakeSocket) Close() error {
	f.closed = true
	return nil
}

type errTimeout struct{}

func (errTimeout) Error() string   { return "i/o timeout" }
func (errTimeout) Timeout() bool   { return true }
func (errTimeout) Temporary() bool { return true }
