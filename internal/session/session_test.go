package session

import (
	"sync"
	"testing"

	"github.com/yomasupply/supplierbot/internal/models"
)

func TestGetAbsentReturnsIdle(t *testing.T) {
	st := NewStore()
	s := st.Get(42)
	if s.Mode != ModeIdle {
		t.Errorf("expected idle session for unknown user, got %q", s.Mode)
	}
	if s.PendingName != "" || s.PendingOrder != nil {
		t.Errorf("expected empty scratch fields, got %+v", s)
	}
}

func TestSetReplacesWholeSession(t *testing.T) {
	st := NewStore()
	st.Set(7, Session{Mode: ModeCollectingPhone, PendingName: "Mg Mg"})
	st.Set(7, Session{Mode: ModeCollectingAddress, PendingPhone: "09123"})

	s := st.Get(7)
	if s.Mode != ModeCollectingAddress {
		t.Errorf("expected collecting_address, got %q", s.Mode)
	}
	if s.PendingName != "" {
		t.Errorf("expected whole-value replace to drop earlier scratch, got %q", s.PendingName)
	}
}

func TestClearDropsSession(t *testing.T) {
	st := NewStore()
	st.Set(7, Session{
		Mode:         ModeCollectingName,
		PendingOrder: &models.MessageRef{ChatID: 7, MessageID: 99},
	})
	st.Clear(7)

	s := st.Get(7)
	if s.Mode != ModeIdle || s.PendingOrder != nil {
		t.Errorf("expected idle session after clear, got %+v", s)
	}
}

func TestSessionsIndependentPerUser(t *testing.T) {
	st := NewStore()
	st.Set(1, Session{Mode: ModeCollectingName})
	st.Set(2, Session{Mode: ModeCollectingAddress})
	st.Clear(1)

	if st.Get(2).Mode != ModeCollectingAddress {
		t.Error("clearing one user's session must not touch another's")
	}
}

func TestCollecting(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{ModeIdle, false},
		{ModeCollectingName, true},
		{ModeCollectingPhone, true},
		{ModeCollectingAddress, true},
		{Mode(""), false},
	}
	for _, tt := range tests {
		if got := (Session{Mode: tt.mode}).Collecting(); got != tt.want {
			t.Errorf("Collecting() with mode %q = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	st := NewStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			st.Set(id, Session{Mode: ModeCollectingName})
			st.Get(id)
			st.Clear(id)
		}(int64(i))
	}
	wg.Wait()
}
