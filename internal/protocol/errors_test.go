package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrDomainNotFound,
		ErrEmitterNotFound,
		ErrEmitterExists,
		ErrUnknownKind,
		ErrBadRequest,
		ErrBusy,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestNewErrorAndDecodeBase(t *testing.T) {
	e := NewError(ErrUnknownKind, "plasma")
	if e.Type != TypeError || e.ProtocolVersion != Version {
		t.Fatalf("error msg=%+v", e)
	}
	b, err := DecodeBase([]byte(`{"type":"SUBSCRIBE","protocol_version":"1.0"}`))
	if err != nil || b.Type != TypeSubscribe {
		t.Fatalf("DecodeBase=%+v err=%v", b, err)
	}
}
