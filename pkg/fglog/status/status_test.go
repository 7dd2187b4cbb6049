package status

import (
	"sync"
	"testing"
)

func TestStatus_ZeroValue(t *testing.T) {
	var s Status
	if s.InShow() || s.ShowEnded() || s.LastPing() != 0 {
		t.Errorf("zero Status = {%v %v %d}, want all unset", s.InShow(), s.ShowEnded(), s.LastPing())
	}
}

func TestStatus_Concurrent(t *testing.T) {
	var s Status
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetInShow(i%2 == 0)
			s.SetShowEnded(true)
			s.SetLastPing(i)
			_ = s.InShow()
			_ = s.LastPing()
		}(i)
	}
	wg.Wait()

	if !s.ShowEnded() {
		t.Error("ShowEnded() = false, want true")
	}
	if p := s.LastPing(); p < 0 || p > 7 {
		t.Errorf("LastPing() = %d, want 0..7", p)
	}
}
