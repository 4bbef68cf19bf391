package httptransport

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"mailtriage/backend/internal/domain"
	"mailtriage/backend/internal/storage"
)

// ========== Message Handlers ==========

// listMessages 获取已分流的邮件列表，支持按标签过滤。
func (h *Handler) listMessages(c *gin.Context) {
	var label *domain.TriageLabel
	if raw := c.Query("label"); raw != "" {
		parsed := domain.TriageLabel(raw)
		if !parsed.IsValid() {
			BadRequest(c, MsgInvalidLabel)
			return
		}
		label = &parsed
	}

	messages, err := h.messages.List(label)
	if err != nil {
		InternalError(c, MsgMessageListFailed)
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, toMessageResponse(&messages[i]))
	}

	Success(c, messageListResponse{Items: items, Count: len(items)})
}

// getMessage 获取单封邮件详情（含正文）。
func (h *Handler) getMessage(c *gin.Context) {
	message, err := h.messages.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, MsgInternalError)
		return
	}

	Success(c, messageDetailResponse{
		messageResponse: toMessageResponse(message),
		Body:            message.Body,
	})
}

// deleteMessage 删除单封邮件。
func (h *Handler) deleteMessage(c *gin.Context) {
	if err := h.messages.Delete(c.Param("id")); err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, MsgMessageDeleteFailed)
		return
	}
	NoContent(c)
}

// deleteAllMessages 清空全部邮件，返回删除数量。
func (h *Handler) deleteAllMessages(c *gin.Context) {
	count, err := h.messages.DeleteAll()
	if err != nil {
		InternalError(c, MsgMessageDeleteFailed)
		return
	}
	Success(c, gin.H{"deleted": count})
}

// classifyMessage 对已入库的邮件重新执行摘要与分类。
func (h *Handler) classifyMessage(c *gin.Context) {
	message, err := h.messages.Reclassify(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, MsgClassifyFailed)
		return
	}
	Success(c, toMessageResponse(message))
}

// getMessageAction 返回该邮件当前的路由动作。
func (h *Handler) getMessageAction(c *gin.Context) {
	id := c.Param("id")
	action, err := h.messages.ActionFor(id)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, MsgInternalError)
		return
	}
	Success(c, actionResponse{MessageID: id, Action: string(action)})
}

type draftRequest struct {
	FullName string `json:"fullName"`
}

// draftMessage 由模型生成回复草稿并保存。
func (h *Handler) draftMessage(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	id := c.Param("id")
	draft, err := h.messages.DraftReply(c.Request.Context(), id, req.FullName)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, MsgDraftFailed)
		return
	}
	Success(c, draftResponse{MessageID: id, Draft: draft})
}

type saveDraftRequest struct {
	Draft string `json:"draft" binding:"required"`
}

// saveDraft 保存人工编辑后的草稿。
func (h *Handler) saveDraft(c *gin.Context) {
	var req saveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	id := c.Param("id")
	if err := h.messages.UpdateDraft(id, req.Draft); err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, MsgDraftSaveFailed)
		return
	}
	Success(c, draftResponse{MessageID: id, Draft: req.Draft})
}

type rewriteDraftRequest struct {
	Tone string `json:"tone"`
}

// rewriteDraft 按指定语气改写已有草稿。
func (h *Handler) rewriteDraft(c *gin.Context) {
	var req rewriteDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	id := c.Param("id")
	draft, err := h.messages.RewriteDraft(c.Request.Context(), id, req.Tone)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, MsgRewriteFailed)
		return
	}
	Success(c, draftResponse{MessageID: id, Draft: draft})
}

type sendRequest struct {
	To string `json:"to"`
}

// sendMessage 把草稿作为回复发送出去。
func (h *Handler) sendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	sent, err := h.messages.Send(c.Request.Context(), c.Param("id"), req.To)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, MsgSendFailed)
		return
	}
	Success(c, toSentResponse(sent))
}

// listSentMessages 获取发送流水，支持 since 时间过滤。
func (h *Handler) listSentMessages(c *gin.Context) {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(c, MsgInvalidSince)
			return
		}
		since = &parsed
	}

	log, err := h.messages.ListSent(since)
	if err != nil {
		InternalError(c, MsgSentListFailed)
		return
	}

	items := make([]sentResponse, 0, len(log))
	for i := range log {
		items = append(items, toSentResponse(&log[i]))
	}
	Success(c, sentListResponse{Items: items, Count: len(items)})
}
