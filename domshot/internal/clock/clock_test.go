package clock

import (
	"testing"
	"time"
)

func TestFake_FiresInOrder(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	var got []string
	f.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	f.AfterFunc(time.Second, func() { got = append(got, "a") })

	f.Advance(1500 * time.Millisecond)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("after 1.5s: got %v, want [a]", got)
	}
	f.Advance(time.Second)
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("after 2.5s: got %v, want [a b]", got)
	}
	if f.Pending() != 0 {
		t.Fatalf("pending: got %d, want 0", f.Pending())
	}
}

func TestFake_StopAndChained(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	fired := 0
	tm := f.AfterFunc(time.Second, func() { fired++ })
	if !tm.Stop() {
		t.Fatal("first Stop should report true")
	}
	if tm.Stop() {
		t.Fatal("second Stop should report false")
	}

	f.AfterFunc(time.Second, func() {
		f.AfterFunc(200*time.Millisecond, func() { fired += 10 })
	})
	f.Advance(1200 * time.Millisecond)
	if fired != 10 {
		t.Fatalf("fired: got %d, want 10", fired)
	}
	if !f.Now().Equal(time.Unix(0, 0).Add(1200 * time.Millisecond)) {
		t.Fatalf("now: got %v", f.Now())
	}
}
