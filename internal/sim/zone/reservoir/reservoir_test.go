package reservoir

import "testing"

func TestExtractNeverNegative(t *testing.T) {
	tk := NewTank(Spec{Capacity: 100})
	tk.SetStored(30)
	if got := tk.Extract(50); got != 30 {
		t.Fatalf("extract=%d want 30", got)
	}
	if tk.Stored() != 0 {
		t.Fatalf("stored=%d want 0", tk.Stored())
	}
	if got := tk.Extract(5); got != 0 {
		t.Fatalf("extract from empty=%d", got)
	}
	if got := tk.Extract(-5); got != 0 {
		t.Fatalf("negative extract=%d", got)
	}
}

func TestReceiveLimits(t *testing.T) {
	tk := NewTank(Spec{Capacity: 100, MaxReceive: 40})
	if got := tk.Receive(25); got != 25 {
		t.Fatalf("receive=%d want 25", got)
	}
	if got := tk.Receive(25); got != 15 {
		t.Fatalf("receive over per-tick limit=%d want 15", got)
	}
	if got := tk.Receive(1); got != 0 {
		t.Fatalf("limit exhausted, got %d", got)
	}
	tk.ResetTick()
	tk.SetStored(90)
	if got := tk.Receive(40); got != 10 {
		t.Fatalf("receive over capacity=%d want 10", got)
	}
}

func TestDrainLimits(t *testing.T) {
	tk := NewTank(Spec{Capacity: 100, MaxExtract: 10})
	tk.SetStored(100)
	if got := tk.Drain(25); got != 10 {
		t.Fatalf("drain=%d want 10", got)
	}
	if got := tk.Drain(25); got != 0 {
		t.Fatalf("drain after limit=%d want 0", got)
	}
	// Own consumption is not bound by the drain limit.
	if got := tk.Extract(50); got != 50 {
		t.Fatalf("extract=%d want 50", got)
	}
}

func TestSetStoredClamps(t *testing.T) {
	tk := NewTank(Spec{Capacity: 10})
	tk.SetStored(99)
	if tk.Stored() != 10 {
		t.Fatalf("stored=%d want 10", tk.Stored())
	}
	tk.SetStored(-1)
	if tk.Stored() != 0 {
		t.Fatalf("stored=%d want 0", tk.Stored())
	}
	if tk.Fraction() != 0 {
		t.Fatalf("fraction=%v", tk.Fraction())
	}
}
