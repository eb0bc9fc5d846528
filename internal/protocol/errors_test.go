package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{
		"",
		ErrProtoBadRequest,
		ErrBadRequest,
		ErrInvalidTarget,
		ErrOverlap,
		ErrStale,
		ErrInternal,
	} {
		if !IsKnownCode(code) {
			t.Fatalf("expected %q to be known", code)
		}
	}
	if IsKnownCode("E_NOT_A_CODE") {
		t.Fatalf("unexpected known code")
	}
}
