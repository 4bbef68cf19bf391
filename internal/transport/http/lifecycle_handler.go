package httptransport

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"mailtriage/backend/internal/service"
	"mailtriage/backend/internal/session"
	"mailtriage/backend/internal/storage"
)

// sessionID 解析勾选状态的会话标识。
// 客户端通过 X-Session-ID 头携带自选的不透明标识；
// 缺省时退化为按客户端 IP 隔离。
func sessionID(c *gin.Context) string {
	if id := c.GetHeader("X-Session-ID"); id != "" {
		return id
	}
	return "ip:" + c.ClientIP()
}

// ========== Reminder Handlers ==========

type createReminderRequest struct {
	MessageID *string   `json:"messageId"`
	Title     string    `json:"title" binding:"required"`
	DueAt     time.Time `json:"dueAt" binding:"required"`
}

// createReminder 创建提醒，尽力转发到日历。
func (h *Handler) createReminder(c *gin.Context) {
	var req createReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	reminder, warning, err := h.lifecycle.CreateReminder(c.Request.Context(), service.CreateReminderInput{
		MessageID: req.MessageID,
		Title:     req.Title,
		DueAt:     req.DueAt,
	})
	if err != nil {
		InternalError(c, MsgReminderCreateFailed)
		return
	}

	resp := toReminderResponse(reminder, false)
	if warning != "" {
		CreatedWithWarning(c, warning, resp)
		return
	}
	Created(c, resp)
}

// CreatedWithWarning 创建成功但附带警告消息（部分成功）。
func CreatedWithWarning(c *gin.Context, warning string, data interface{}) {
	c.JSON(201, Response{
		Code: CodeCreated,
		Msg:  warning,
		Data: data,
	})
}

// listReminders 获取提醒列表，附带当前会话的勾选状态。
func (h *Handler) listReminders(c *gin.Context) {
	reminders, err := h.lifecycle.ListReminders()
	if err != nil {
		InternalError(c, MsgReminderListFailed)
		return
	}

	sid := sessionID(c)
	items := make([]reminderResponse, 0, len(reminders))
	for i := range reminders {
		done, _ := h.lifecycle.IsDone(c.Request.Context(), session.KindReminder, reminders[i].ID, sid)
		items = append(items, toReminderResponse(&reminders[i], done))
	}
	Success(c, reminderListResponse{Items: items, Count: len(items)})
}

// toggleReminder 推进提醒的勾选状态机。
func (h *Handler) toggleReminder(c *gin.Context) {
	h.toggle(c, session.KindReminder)
}

// ========== Meeting Handlers ==========

type createMeetingRequest struct {
	MessageID string    `json:"messageId" binding:"required"`
	Title     string    `json:"title" binding:"required"`
	Attendees []string  `json:"attendees"`
	StartAt   time.Time `json:"startAt" binding:"required"`
	EndAt     time.Time `json:"endAt" binding:"required"`
}

// createMeeting 通过日历排期会议，成功后落库。
// 日历协作方的错误原样透给调用方，方便排查授权和配额问题。
func (h *Handler) createMeeting(c *gin.Context) {
	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	meeting, err := h.lifecycle.CreateMeeting(c.Request.Context(), service.CreateMeetingInput{
		MessageID: req.MessageID,
		Title:     req.Title,
		Attendees: req.Attendees,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
	})
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			NotFound(c, MsgMessageNotFound)
			return
		}
		InternalError(c, fmt.Sprintf("%s: %v", MsgMeetingCreateFailed, err))
		return
	}
	Created(c, toMeetingResponse(meeting, false))
}

// listAvailability 查询日历占用情况，缺省窗口为未来 7 天。
func (h *Handler) listAvailability(c *gin.Context) {
	start := time.Now().UTC()
	end := start.Add(7 * 24 * time.Hour)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(c, MsgInvalidWindow)
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(c, MsgInvalidWindow)
			return
		}
		end = parsed
	}

	busy, err := h.lifecycle.ListAvailability(c.Request.Context(), start, end)
	if err != nil {
		InternalError(c, fmt.Sprintf("%s: %v", MsgAvailabilityFailed, err))
		return
	}

	intervals := make([]busyIntervalResponse, 0, len(busy))
	for _, interval := range busy {
		intervals = append(intervals, busyIntervalResponse{Start: interval.Start, End: interval.End})
	}
	Success(c, availabilityResponse{WindowStart: start, WindowEnd: end, Busy: intervals})
}

// listMeetings 获取会议列表，附带当前会话的勾选状态。
func (h *Handler) listMeetings(c *gin.Context) {
	meetings, err := h.lifecycle.ListMeetings()
	if err != nil {
		InternalError(c, MsgMeetingListFailed)
		return
	}

	sid := sessionID(c)
	items := make([]meetingResponse, 0, len(meetings))
	for i := range meetings {
		done, _ := h.lifecycle.IsDone(c.Request.Context(), session.KindMeeting, meetings[i].ID, sid)
		items = append(items, toMeetingResponse(&meetings[i], done))
	}
	Success(c, meetingListResponse{Items: items, Count: len(items)})
}

// toggleMeeting 推进会议的勾选状态机。
func (h *Handler) toggleMeeting(c *gin.Context) {
	h.toggle(c, session.KindMeeting)
}

// toggle 执行一次勾选：第一次标记完成，第二次删除记录。
func (h *Handler) toggle(c *gin.Context, kind session.Kind) {
	id := c.Param("id")
	state, err := h.lifecycle.Toggle(c.Request.Context(), kind, id, sessionID(c))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrReminderNotFound):
			NotFound(c, MsgReminderNotFound)
		case errors.Is(err, storage.ErrMeetingNotFound):
			NotFound(c, MsgMeetingNotFound)
		default:
			InternalError(c, MsgToggleFailed)
		}
		return
	}
	Success(c, toggleResponse{ID: id, State: string(state)})
}
