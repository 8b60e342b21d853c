package core

import (
	"sync"
	"testing"
)

func TestBroadcaster(t *testing.T) {
	var b Broadcaster[int]

	var got1, got2 []int
	unsub1 := b.Subscribe(func(v int) { got1 = append(got1, v) })
	unsub2 := b.Subscribe(func(v int) { got2 = append(got2, v) })

	b.Publish(1)
	b.Publish(2)

	unsub1()
	b.Publish(3)

	unsub2()
	unsub2() // idempotent
	b.Publish(4)

	if want := []int{1, 2}; len(got1) != len(want) || got1[0] != 1 || got1[1] != 2 {
		t.Errorf("got1 = %v, want %v", got1, want)
	}
	if want := []int{1, 2, 3}; len(got2) != len(want) || got2[2] != 3 {
		t.Errorf("got2 = %v, want %v", got2, want)
	}
}

func TestBroadcaster_concurrentPublish(t *testing.T) {
	var b Broadcaster[int]

	var mu sync.Mutex
	var count int
	b.Subscribe(func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			b.Publish(v)
		}(i)
	}
	wg.Wait()

	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
}

// a subscriber must be able to unsubscribe from within its own callback
// without deadlocking.
func TestBroadcaster_unsubscribeDuringPublish(t *testing.T) {
	var b Broadcaster[string]

	var calls int
	var unsub func()
	unsub = b.Subscribe(func(string) {
		calls++
		unsub()
	})

	b.Publish("a")
	b.Publish("b")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
