package notify

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deadline tests.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCenter() (*Center, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewCenterWithClock(clock.now), clock
}

func TestPublishAndExpiry(t *testing.T) {
	c, clock := newTestCenter()

	c.PublishDuplicates([]string{"a.jpg", "b.jpg"})

	n, ok := c.Current()
	if !ok {
		t.Fatal("expected an active notice")
	}
	if n.Total != 2 || len(n.Names) != 2 {
		t.Errorf("notice = %+v", n)
	}

	clock.advance(DismissAfter - time.Millisecond)
	if _, ok := c.Current(); !ok {
		t.Error("notice expired too early")
	}

	clock.advance(2 * time.Millisecond)
	if _, ok := c.Current(); ok {
		t.Error("notice should have expired after the dwell")
	}
}

func TestPublishEmptyIsNoop(t *testing.T) {
	c, _ := newTestCenter()
	c.PublishDuplicates(nil)
	if _, ok := c.Current(); ok {
		t.Error("empty publish should not raise a notice")
	}
}

func TestNameCapRetainsTotal(t *testing.T) {
	c, _ := newTestCenter()

	names := []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg", "7.jpg"}
	c.PublishDuplicates(names)

	n, ok := c.Current()
	if !ok {
		t.Fatal("expected an active notice")
	}
	if len(n.Names) != MaxNamesShown {
		t.Errorf("shown names = %d, want %d", len(n.Names), MaxNamesShown)
	}
	if n.Total != len(names) {
		t.Errorf("Total = %d, want %d", n.Total, len(names))
	}
}

func TestFocusPausesCountdown(t *testing.T) {
	c, clock := newTestCenter()
	c.PublishDuplicates([]string{"a.jpg"})

	c.Focus()
	clock.advance(time.Minute)
	if _, ok := c.Current(); !ok {
		t.Fatal("focused notice must not expire")
	}

	c.Blur()
	clock.advance(DismissAfterBlur - time.Millisecond)
	if _, ok := c.Current(); !ok {
		t.Error("notice expired before the post-blur dwell")
	}
	clock.advance(2 * time.Millisecond)
	if _, ok := c.Current(); ok {
		t.Error("notice should expire after the post-blur dwell")
	}
}

func TestDismiss(t *testing.T) {
	c, _ := newTestCenter()
	c.PublishDuplicates([]string{"a.jpg"})
	c.Dismiss()
	if _, ok := c.Current(); ok {
		t.Error("Dismiss should clear the notice")
	}
}

func TestRepublishRestartsCountdown(t *testing.T) {
	c, clock := newTestCenter()
	c.PublishDuplicates([]string{"a.jpg"})
	clock.advance(4 * time.Second)

	c.PublishDuplicates([]string{"b.jpg"})
	clock.advance(4 * time.Second)

	n, ok := c.Current()
	if !ok {
		t.Fatal("republished notice should still be active")
	}
	if n.Names[0] != "b.jpg" {
		t.Errorf("notice names = %v, want the newer publish", n.Names)
	}
}
