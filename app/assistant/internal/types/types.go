package types

type ChatStreamRequest struct {
	Message string `form:"message,optional"`
}
