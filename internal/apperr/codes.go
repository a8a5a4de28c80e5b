package apperr

type Kind string

const (
	KindValidation      Kind = "validation"
	KindDuplicate       Kind = "duplicate"
	KindNotFound        Kind = "not_found"
	KindAlreadyOnline   Kind = "already_online"
	KindWrongPassword   Kind = "wrong_password"
	KindState           Kind = "state"
	KindUnauthenticated Kind = "unauthenticated"
	KindProtocol        Kind = "protocol"
	KindIO              Kind = "io"
	KindInternal        Kind = "internal"
)
