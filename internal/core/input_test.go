package core

import "testing"

func TestInputFrame(t *testing.T) {
	f := InputOf(ActionLeft, ActionJump)

	if !f.Has(ActionLeft) || !f.Has(ActionJump) {
		t.Fatal("InputOf() should set every given action")
	}
	if f.Has(ActionShoot) {
		t.Error("Has(Shoot) = true, expected false")
	}

	clone := f.Clone()
	f.Clear()
	if f.Has(ActionLeft) {
		t.Error("Clear() should remove all actions")
	}
	if !clone.Has(ActionLeft) {
		t.Error("Clone() should not share storage with the original")
	}

	var zero InputFrame
	if zero.Has(ActionJump) {
		t.Error("zero-value frame should report no actions")
	}
	zero.Set(ActionShoot)
	if !zero.Has(ActionShoot) {
		t.Error("Set() on zero-value frame should allocate")
	}
}

func TestMultiInputFrame(t *testing.T) {
	m := SoloInput(InputOf(ActionRight))

	if !m.Player1().Has(ActionRight) {
		t.Error("Player1() should carry the solo frame")
	}
	if m.Player2().Has(ActionRight) {
		t.Error("Player2() should be empty in a solo frame")
	}

	var empty MultiInputFrame
	if empty.Player(Player1).Has(ActionRight) {
		t.Error("zero-value multi frame should be empty")
	}

	m.SetPlayer(Player2, InputOf(ActionShoot))
	clone := m.Clone()
	if !clone.Player2().Has(ActionShoot) {
		t.Error("Clone() lost Player2 input")
	}
}

func TestActionAndPlayerStrings(t *testing.T) {
	tests := []struct {
		got, expected string
	}{
		{ActionLeft.String(), "Left"},
		{ActionShoot.String(), "Shoot"},
		{ActionMute.String(), "Mute"},
		{Action(99).String(), "Unknown"},
		{Player1.String(), "P1"},
		{Player2.String(), "P2"},
		{PhaseGameOver.String(), "GameOver"},
	}
	for _, tc := range tests {
		if tc.got != tc.expected {
			t.Errorf("String() = %q, expected %q", tc.got, tc.expected)
		}
	}
}
