package errno

const (
	StatusOK = 10000
)

const (
	InternalError = 50000 + iota
	InvalidParam
	ProjectNotFound
	CategoryUnavailable
)
