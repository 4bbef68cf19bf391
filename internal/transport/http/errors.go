package httptransport

import (
	"mailtriage/backend/internal/storage"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	storage.ErrMessageNotFound:  "邮件不存在",
	storage.ErrReminderNotFound: "提醒不存在",
	storage.ErrMeetingNotFound:  "会议不存在",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"
	MsgInvalidLabel   = "未知的分流标签"
	MsgInvalidSince   = "时间参数格式无效"
	MsgInvalidWindow  = "时间窗口参数格式无效"

	// 邮件相关
	MsgMessageNotFound     = "邮件不存在"
	MsgMessageListFailed   = "获取邮件列表失败"
	MsgMessageDeleteFailed = "删除邮件失败"
	MsgClassifyFailed      = "重新分类失败"
	MsgDraftFailed         = "生成草稿失败"
	MsgDraftSaveFailed     = "保存草稿失败"
	MsgRewriteFailed       = "改写草稿失败"
	MsgSendFailed          = "发送邮件失败"
	MsgSentListFailed      = "获取发送流水失败"

	// 摄取相关
	MsgIngestFailed  = "摄取失败"
	MsgIngestRunning = "已有摄取任务在运行"

	// 待办相关
	MsgReminderNotFound     = "提醒不存在"
	MsgReminderCreateFailed = "创建提醒失败"
	MsgReminderListFailed   = "获取提醒列表失败"
	MsgMeetingNotFound      = "会议不存在"
	MsgMeetingCreateFailed  = "排期会议失败"
	MsgMeetingListFailed    = "获取会议列表失败"
	MsgAvailabilityFailed   = "查询日历占用失败"
	MsgToggleFailed         = "切换勾选状态失败"

	// 设置相关
	MsgSettingsSaveFailed = "保存设置失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
