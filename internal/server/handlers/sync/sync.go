package sync

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynk/mynk/internal/server/handlers/api"
	"github.com/mynk/mynk/internal/server/syncsvc"
	"github.com/mynk/mynk/internal/syncmsg"
)

type SyncHandler struct {
	svc *syncsvc.SyncService
}

func New(svc *syncsvc.SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// Sync handles POST /sync. The response is always a JSON array, empty when the client is current.
func (h *SyncHandler) Sync(ctx *gin.Context) {
	var req syncmsg.SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("malformed body: %w", err))
		return
	}

	directives, err := h.svc.Sync(ctx.Request.Context(), &req)
	if errors.Is(err, syncsvc.ErrInvalidRequest) {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	} else if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}

	if directives == nil {
		directives = syncmsg.SyncResponse{}
	}
	ctx.PureJSON(http.StatusOK, directives)
}
