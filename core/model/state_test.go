package model

import "testing"

func TestConnectionStateString(t *testing.T) {
	cases := map[ConnectionState]string{
		Disconnected:        "disconnected",
		Connecting:          "connecting",
		Connected:           "connected",
		Reconnecting:        "reconnecting",
		ConnectionState(42): "unknown",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Errorf("%d: expected %s got %s", st, want, got)
		}
	}
}

func TestSubscriptionStateString(t *testing.T) {
	if Pending.String() != "pending" || Active.String() != "active" {
		t.Fatalf("unexpected names %s %s", Pending, Active)
	}
}
