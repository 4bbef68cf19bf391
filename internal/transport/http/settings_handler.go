package httptransport

import (
	"github.com/gin-gonic/gin"
)

// ========== Settings & Ingest Handlers ==========

type monitoredResponse struct {
	Address string `json:"address"`
}

// getMonitored 获取当前被监控的邮箱地址。
func (h *Handler) getMonitored(c *gin.Context) {
	Success(c, monitoredResponse{Address: h.settings.MonitoredAddress()})
}

type setMonitoredRequest struct {
	Address string `json:"address"`
}

// setMonitored 更新被监控的邮箱地址。空地址表示暂停摄取。
func (h *Handler) setMonitored(c *gin.Context) {
	var req setMonitoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	h.settings.SetMonitoredAddress(req.Address)
	Success(c, monitoredResponse{Address: h.settings.MonitoredAddress()})
}

// runIngest 立即执行一轮邮件摄取。
func (h *Handler) runIngest(c *gin.Context) {
	count, started, err := h.ingest.Run(c.Request.Context())
	if err != nil {
		InternalError(c, MsgIngestFailed)
		return
	}
	if !started {
		Conflict(c, MsgIngestRunning)
		return
	}
	Success(c, gin.H{"ingested": count})
}
