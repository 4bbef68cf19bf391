package httptransport

import (
	"time"

	"mailtriage/backend/internal/domain"
)

type messageResponse struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"externalId"`
	Sender     string     `json:"sender"`
	Recipient  string     `json:"recipient,omitempty"`
	Subject    string     `json:"subject"`
	Snippet    string     `json:"snippet,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Label      string     `json:"label"`
	Subtype    string     `json:"subtype"`
	Source     string     `json:"source"`
	DueTime    *time.Time `json:"dueTime,omitempty"`
	DraftReply string     `json:"draftReply,omitempty"`
	MeetingURL string     `json:"meetingUrl,omitempty"`
	Sent       bool       `json:"sent"`
	ReceivedAt time.Time  `json:"receivedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type messageDetailResponse struct {
	messageResponse
	Body string `json:"body,omitempty"`
}

type messageListResponse struct {
	Items []messageResponse `json:"items"`
	Count int               `json:"count"`
}

type actionResponse struct {
	MessageID string `json:"messageId"`
	Action    string `json:"action"`
}

type draftResponse struct {
	MessageID string `json:"messageId"`
	Draft     string `json:"draft"`
}

type sentResponse struct {
	ID        string    `json:"id"`
	MessageID *string   `json:"messageId,omitempty"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	SentAt    time.Time `json:"sentAt"`
}

type sentListResponse struct {
	Items []sentResponse `json:"items"`
	Count int            `json:"count"`
}

type reminderResponse struct {
	ID        string    `json:"id"`
	MessageID *string   `json:"messageId,omitempty"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"dueAt"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
}

type reminderListResponse struct {
	Items []reminderResponse `json:"items"`
	Count int                `json:"count"`
}

type meetingResponse struct {
	ID        string    `json:"id"`
	MessageID string    `json:"messageId"`
	Title     string    `json:"title"`
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt"`
	Attendees string    `json:"attendees,omitempty"`
	MeetURL   string    `json:"meetUrl,omitempty"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
}

type meetingListResponse struct {
	Items []meetingResponse `json:"items"`
	Count int               `json:"count"`
}

type toggleResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type busyIntervalResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type availabilityResponse struct {
	WindowStart time.Time              `json:"windowStart"`
	WindowEnd   time.Time              `json:"windowEnd"`
	Busy        []busyIntervalResponse `json:"busy"`
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Sender:     m.Sender,
		Recipient:  m.Recipient,
		Subject:    m.Subject,
		Snippet:    m.Snippet,
		Summary:    m.Summary,
		Label:      string(m.Label),
		Subtype:    string(m.Subtype),
		Source:     string(m.Source),
		DueTime:    m.ExtractedDueTime,
		DraftReply: m.DraftReply,
		MeetingURL: m.MeetingURL,
		Sent:       m.Sent,
		ReceivedAt: m.ReceivedAt,
		CreatedAt:  m.CreatedAt,
	}
}

func toSentResponse(s *domain.SentMessage) sentResponse {
	return sentResponse{
		ID:        s.ID,
		MessageID: s.MessageID,
		Recipient: s.Recipient,
		Subject:   s.Subject,
		SentAt:    s.SentAt,
	}
}

func toReminderResponse(r *domain.Reminder, done bool) reminderResponse {
	return reminderResponse{
		ID:        r.ID,
		MessageID: r.MessageID,
		Title:     r.Title,
		DueAt:     r.DueAt,
		Done:      done,
		CreatedAt: r.CreatedAt,
	}
}

func toMeetingResponse(m *domain.Meeting, done bool) meetingResponse {
	return meetingResponse{
		ID:        m.ID,
		MessageID: m.MessageID,
		Title:     m.Title,
		StartAt:   m.StartAt,
		EndAt:     m.EndAt,
		Attendees: m.Attendees,
		MeetURL:   m.MeetURL,
		Done:      done,
		CreatedAt: m.CreatedAt,
	}
}
