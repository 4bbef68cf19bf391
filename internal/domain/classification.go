package domain

import (
	"time"
)

// ClassificationSource 标记分类结果的来源。
type ClassificationSource string

const (
	// SourceParsed 结果解析自模型输出
	SourceParsed ClassificationSource = "parsed"
	// SourceFallback 模型输出不可用时采用的兜底结果
	SourceFallback ClassificationSource = "fallback"
)

// Classification 表示一次邮件分类的完整结果。
type Classification struct {
	Label   TriageLabel
	Subtype TriageSubtype
	DueTime *time.Time
	Source  ClassificationSource
}

// FallbackClassification 返回模型不可用时的兜底分类。
func FallbackClassification() Classification {
	return Classification{
		Label:   LabelNotify,
		Subtype: SubtypeUpcomingEvent,
		Source:  SourceFallback,
	}
}
