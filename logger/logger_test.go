package logger

import (
	"sync"
	"testing"
)

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) = nil, want a logger")
	}
	l := Get()
	if got := OrNop(l); got != l {
		t.Errorf("OrNop(l) = %p, want %p", got, l)
	}
}

func TestInitOnce(t *testing.T) {
	Init("test")
	first := Get()
	Init("production")
	if got := Get(); got != first {
		t.Error("Init() replaced the logger on a second call")
	}
	Sync()
}

func TestGet_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	got := make([]any, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = Get()
		}()
	}
	wg.Wait()
	for i, l := range got {
		if l != got[0] {
			t.Errorf("Get() #%d = %p, want %p", i, l, got[0])
		}
	}
}
