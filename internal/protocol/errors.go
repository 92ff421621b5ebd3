package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Domain and emitter addressing.
	ErrDomainNotFound  = "E_DOMAIN_NOT_FOUND"
	ErrEmitterNotFound = "E_EMITTER_NOT_FOUND"
	ErrEmitterExists   = "E_EMITTER_EXISTS"
	ErrUnknownKind     = "E_UNKNOWN_KIND"

	ErrBadRequest = "E_BAD_REQUEST"
	ErrBusy       = "E_BUSY"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrDomainNotFound:  {},
	ErrEmitterNotFound: {},
	ErrEmitterExists:   {},
	ErrUnknownKind:     {},
	ErrBadRequest:      {},
	ErrBusy:            {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
