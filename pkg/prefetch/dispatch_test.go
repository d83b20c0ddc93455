package prefetch

import (
	"testing"
	"time"
)

func TestDispatcherDedup(t *testing.T) {
	doc := newFakeDoc()
	d := NewDispatcher(doc, nil, quietLogger(), "test")

	res := d.Dispatch([]string{"/a", "/b", "/a"})
	if len(res.Dispatched) != 2 || res.Skipped != 1 {
		t.Errorf("Dispatch() = %+v, want 2 dispatched and 1 skipped", res)
	}

	res = d.Dispatch([]string{"/a", "/b"})
	if len(res.Dispatched) != 0 || res.Skipped != 2 {
		t.Errorf("second Dispatch() = %+v, want all skipped", res)
	}
	if got := len(doc.hrefs()); got != 2 {
		t.Errorf("document has %d hints, want 2", got)
	}
}

func TestPrefetchedSet(t *testing.T) {
	s := NewPrefetchedSet()
	if !s.Add("/b") || !s.Add("/a") {
		t.Fatal("Add() should report new entries")
	}
	if s.Add("/b") {
		t.Error("Add() should report duplicates")
	}
	if !s.Has("/a") || s.Has("/c") {
		t.Error("Has() mismatch")
	}

	hrefs := s.Hrefs()
	if s.Len() != 2 || hrefs[0] != "/b" || hrefs[1] != "/a" {
		t.Errorf("Hrefs() = %v, want insertion order [/b /a]", hrefs)
	}
	hrefs[0] = "mutated"
	if s.Hrefs()[0] != "/b" {
		t.Error("Hrefs() should return a copy")
	}
}

func TestHintHTML(t *testing.T) {
	got := NewHint(`/search?q="go"&x=1`).HTML()
	want := `<link rel="prefetch" href="/search?q=&#34;go&#34;&amp;x=1" as="document">`
	if got != want {
		t.Errorf("HTML() = %s, want %s", got, want)
	}
}

func TestGate(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(100*time.Millisecond, clock)

	if !g.Allow() {
		t.Fatal("first call should be allowed")
	}
	clock.Advance(50 * time.Millisecond)
	if g.Allow() {
		t.Error("call within interval should be skipped")
	}
	clock.Advance(50 * time.Millisecond)
	if !g.Allow() {
		t.Error("call at exactly the interval should be allowed")
	}
}
