package model

import "testing"

func TestIdentityKinds(t *testing.T) {
	reg := RegisteredIdentity(12, "ana@example.com")
	if !reg.IsRegistered() {
		t.Fatal("registered identity should report IsRegistered")
	}
	if reg.Email != "ana@example.com" {
		t.Fatalf("email = %q", reg.Email)
	}

	guest := GuestIdentity("Sam", "sam@example.com")
	if guest.IsRegistered() {
		t.Fatal("guest identity should not report IsRegistered")
	}
	if guest.Name != "Sam" || guest.Email != "sam@example.com" {
		t.Fatalf("guest = %+v", guest)
	}
}
