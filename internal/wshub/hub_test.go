package wshub

import (
	"testing"
	"time"
)

func TestSendToUser(t *testing.T) {
	h := NewHub()

	tab1 := &Client{ID: "c1", UserID: "alice", Send: make(chan []byte, 16)}
	tab2 := &Client{ID: "c2", UserID: "alice", Send: make(chan []byte, 16)}
	other := &Client{ID: "c3", UserID: "bob", Send: make(chan []byte, 16)}

	h.Register(tab1)
	h.Register(tab2)
	h.Register(other)

	delivered, dropped := h.SendToUser("alice", []byte("hi"))
	if delivered != 2 || dropped != 0 {
		t.Fatalf("SendToUser() = %d delivered, %d dropped; want 2, 0", delivered, dropped)
	}

	for _, c := range []*Client{tab1, tab2} {
		select {
		case data := <-c.Send:
			if string(data) != "hi" {
				t.Errorf("%s got %q, want %q", c.ID, data, "hi")
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("%s did not receive message", c.ID)
		}
	}

	select {
	case <-other.Send:
		t.Fatal("bob should not receive alice's message")
	default:
	}
}

func TestSendToUser_NoConnections(t *testing.T) {
	h := NewHub()
	delivered, dropped := h.SendToUser("nobody", []byte("hi"))
	if delivered != 0 || dropped != 0 {
		t.Errorf("SendToUser() = %d, %d; want 0, 0", delivered, dropped)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	c := &Client{ID: "c1", UserID: "alice", Send: make(chan []byte, 16)}
	h.Register(c)

	h.Unregister("c1")

	if _, ok := <-c.Send; ok {
		t.Fatal("c.Send should be closed")
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
	if delivered, _ := h.SendToUser("alice", []byte("late")); delivered != 0 {
		t.Errorf("delivered = %d after unregister, want 0", delivered)
	}
}

func TestUnregisterNonexistent(t *testing.T) {
	h := NewHub()
	// Should not panic
	h.Unregister("nonexistent")
}

func TestSendDropsWhenFull(t *testing.T) {
	h := NewHub()

	c := &Client{ID: "c1", UserID: "alice", Send: make(chan []byte, 1)}
	h.Register(c)
	c.Send <- []byte("filler")

	delivered, dropped := h.SendToUser("alice", []byte("banner"))
	if delivered != 0 || dropped != 1 {
		t.Fatalf("SendToUser() = %d, %d; want 0, 1", delivered, dropped)
	}

	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}
	select {
	case <-c.Send:
		t.Fatal("dropped message must not be queued")
	default:
	}
}
