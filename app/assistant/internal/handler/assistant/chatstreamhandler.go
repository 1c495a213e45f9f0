package assistant

import (
	"net/http"

	"CraftMateAI/app/assistant/internal/logic/assistant"
	"CraftMateAI/app/assistant/internal/svc"
	"CraftMateAI/app/assistant/internal/types"
	"CraftMateAI/app/common/consts/errno"
	"CraftMateAI/app/common/response"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// ChatStreamHandler serves GET /chat_stream. A request without the message
// parameter is rejected with a JSON 400 before any streaming begins; an
// empty-but-present message is a valid conversation turn.
func ChatStreamHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, present := r.URL.Query()["message"]; !present {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest,
				response.NewResponse(errno.InvalidParam, "No message provided"))
			return
		}

		var req types.ChatStreamRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest,
				response.NewResponse(errno.InvalidParam, err.Error()))
			return
		}

		l := assistant.NewChatStreamLogic(r.Context(), svcCtx)
		l.ChatStream(w, req.Message)
	}
}
