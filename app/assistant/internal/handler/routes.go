package handler

import (
	"net/http"

	"CraftMateAI/app/assistant/internal/handler/assistant"
	"CraftMateAI/app/assistant/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/chat_stream",
				Handler: assistant.ChatStreamHandler(serverCtx),
			},
		},
	)
}
