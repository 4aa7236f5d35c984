package cpu

import "testing"

func TestPCReadIsPlusFour(t *testing.T) {
	st := NewState()
	st.SetRawPC(0x1000)
	if got := st.Get(PC); got != 0x1004 {
		t.Fatalf("Get(PC) = 0x%X, want 0x1004", got)
	}
}

func TestBankedSP(t *testing.T) {
	st := NewState()
	st.MSP = 0x2000_0400
	st.PSP = 0x2000_0800
	if st.GetSP() != 0x2000_0400 {
		t.Fatalf("expected MSP bank by default")
	}
	st.Bank = BankPSP
	if st.GetSP() != 0x2000_0800 {
		t.Fatalf("expected PSP bank after switch")
	}
}

func TestConditionPassedTable(t *testing.T) {
	var p PSR
	p.Z = true
	if !p.Passed(CondEQ) {
		t.Fatal("EQ should pass when Z set")
	}
	if p.Passed(CondNE) {
		t.Fatal("NE should not pass when Z set")
	}
	if !p.Passed(CondAL) {
		t.Fatal("AL always passes")
	}
}

func TestConditionHIandLS(t *testing.T) {
	var p PSR
	p.C = true
	p.Z = true
	// ARM ARM: HI = C && !Z; with Z set, HI must not pass.
	if p.Passed(CondHI) {
		t.Fatal("HI must be false when Z is set, even with C set")
	}
	if !p.Passed(CondLS) {
		t.Fatal("LS must be true when Z is set")
	}
}

func TestITStateAdvanceAndTermination(t *testing.T) {
	// ITT EQ: firstcond=EQ(0000), mask=0100 (two instructions, both "then")
	it := NewIT(0b0000, 0b0100)
	if !it.Active() {
		t.Fatal("expected IT block active")
	}
	if it.Condition() != CondEQ {
		t.Fatalf("first instruction condition = %v, want EQ", it.Condition())
	}
	it = it.Advance()
	if !it.Active() {
		t.Fatal("expected second instruction still in block")
	}
	if it.Condition() != CondEQ {
		t.Fatalf("second instruction (T) condition = %v, want EQ", it.Condition())
	}
	it = it.Advance()
	if it.Active() {
		t.Fatal("expected IT block to have ended after two instructions")
	}
}

func TestITStateElseFlipsPolarity(t *testing.T) {
	// ITE EQ: firstcond=EQ(0000), mask=1100 (then, else)
	it := NewIT(0b0000, 0b1100)
	if it.Condition() != CondEQ {
		t.Fatalf("first instruction condition = %v, want EQ", it.Condition())
	}
	it = it.Advance()
	if it.Condition() != CondNE {
		t.Fatalf("else-arm instruction condition = %v, want NE", it.Condition())
	}
}
