package event

import (
	"testing"

	"github.com/AdrienChampion/kino/internal/sys"
	"github.com/AdrienChampion/kino/internal/technique"
	"github.com/AdrienChampion/kino/internal/term"
)

func newTestEvent(capacity int) (*Event, chan MsgUp, chan MsgDown) {
	factory := term.NewFactory()
	p := sys.NewProperty(factory.Sym("P"), term.NewSTerm(factory.Bool(true)))
	up := make(chan MsgUp, capacity)
	down := make(chan MsgDown, capacity)
	ev := NewEvent(up, down, technique.Bmc, factory, []*sys.Property{p})
	return ev, up, down
}

func TestKTrueAbsorbedNotReturned(t *testing.T) {
	ev, _, down := newTestEvent(4)
	p := ev.Factory().Sym("P")

	down <- MsgDownKTrue{Syms: []*term.Sym{p}, Offset: 7}

	batch, ok := ev.Recv()
	if !ok {
		t.Fatalf("expected supervisor still connected")
	}
	if len(batch) != 0 {
		t.Fatalf("KTrue message should be absorbed, not returned: got %v", batch)
	}
	got := ev.GetKTrue(p)
	if got == nil || uint32(*got) != 7 {
		t.Fatalf("k-true table not updated: got %v", got)
	}
}

func TestRecvReturnsOtherMessages(t *testing.T) {
	ev, _, down := newTestEvent(4)
	down <- MsgDownForget{Syms: nil}

	batch, ok := ev.Recv()
	if !ok {
		t.Fatalf("expected supervisor still connected")
	}
	if len(batch) != 1 {
		t.Fatalf("expected exactly one message in batch, got %d", len(batch))
	}
	if _, isForget := batch[0].(MsgDownForget); !isForget {
		t.Fatalf("expected MsgDownForget, got %T", batch[0])
	}
}

func TestRecvEmptyIsNonBlocking(t *testing.T) {
	ev, _, _ := newTestEvent(4)
	batch, ok := ev.Recv()
	if !ok || batch != nil {
		t.Fatalf("expected (nil, true) on an empty inbox, got (%v, %v)", batch, ok)
	}
}

func TestRecvDisconnectReturnsNone(t *testing.T) {
	ev, _, down := newTestEvent(4)
	close(down)

	batch, ok := ev.Recv()
	if ok {
		t.Fatalf("expected ok=false after the supervisor drops its sender")
	}
	if batch != nil {
		t.Fatalf("expected a nil batch on disconnect, got %v", batch)
	}
}

func TestGetKTrueUnknownPropertyPanics(t *testing.T) {
	ev, _, _ := newTestEvent(4)
	unknown := ev.Factory().Sym("unknown")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for an unknown property")
		}
	}()
	ev.GetKTrue(unknown)
}
