package models

import "testing"

func TestRatingCallbackRoundTrip(t *testing.T) {
	cb := RatingCallback{Idx: 3, Typ: CallbackTypeEvaluation, RoomID: "abcDEF123"}
	encoded := cb.Encode()
	if encoded == "" {
		t.Fatal("Encode returned empty payload")
	}

	decoded := DecodeRatingCallback(encoded)
	if decoded == nil {
		t.Fatal("DecodeRatingCallback returned nil for valid payload")
	}
	if *decoded != cb {
		t.Errorf("decoded = %+v, want %+v", *decoded, cb)
	}
}

func TestDecodeRatingCallbackRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "Ready!"},
		{"empty", ""},
		{"missing room", `{"idx":1,"typ":2}`},
		{"wrong shape", `[1,2,3]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecodeRatingCallback(tc.data); got != nil {
				t.Errorf("DecodeRatingCallback(%q) = %+v, want nil", tc.data, got)
			}
		})
	}
}

func TestRatingCallbackAxis(t *testing.T) {
	if axis, ok := (&RatingCallback{Typ: CallbackTypeImportance}).Axis(); !ok || axis != AxisImportance {
		t.Errorf("typ 1 axis = %q %v", axis, ok)
	}
	if axis, ok := (&RatingCallback{Typ: CallbackTypeEvaluation}).Axis(); !ok || axis != AxisEvaluation {
		t.Errorf("typ 2 axis = %q %v", axis, ok)
	}
	if _, ok := (&RatingCallback{Typ: 7}).Axis(); ok {
		t.Error("unknown typ should not map to an axis")
	}
}

func TestRoleHelpers(t *testing.T) {
	if RoleCreator.Opposite() != RoleVisitor || RoleVisitor.Opposite() != RoleCreator {
		t.Error("Opposite is not symmetric")
	}
	if Role("observer").Valid() {
		t.Error("unknown role reported valid")
	}

	visitor := "200"
	s := Session{ID: "s", CreatorID: "100", VisitorID: &visitor}
	if role, ok := s.RoleOf("100"); !ok || role != RoleCreator {
		t.Errorf("RoleOf creator = %q %v", role, ok)
	}
	if role, ok := s.RoleOf("200"); !ok || role != RoleVisitor {
		t.Errorf("RoleOf visitor = %q %v", role, ok)
	}
	if _, ok := s.RoleOf("300"); ok {
		t.Error("stranger has a role")
	}
}
