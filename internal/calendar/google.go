package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// reminderDuration 提醒事件的固定时长。
const reminderDuration = 30 * time.Minute

var requestIDPattern = regexp.MustCompile(`\W+`)

// GoogleScheduler 基于 Google Calendar v3 的排期实现。
type GoogleScheduler struct {
	srv        *calendarapi.Service
	calendarID string
	timezone   string
	organizer  func() string // 组织者地址的读取器，保证被邀请
	logger     *zap.Logger
}

// NewGoogleScheduler 创建 Google Calendar 排期器。
func NewGoogleScheduler(ctx context.Context, credentialsFile, tokenFile, calendarID, timezone string, organizer func() string, logger *zap.Logger) (*GoogleScheduler, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read calendar credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(b, calendarapi.CalendarEventsScope, calendarapi.CalendarFreebusyScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}

	f, err := os.Open(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read calendar token (run the token generator first): %w", err)
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode calendar token: %w", err)
	}

	srv, err := calendarapi.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	if timezone == "" {
		timezone = "UTC"
	}
	return &GoogleScheduler{
		srv:        srv,
		calendarID: calendarID,
		timezone:   timezone,
		organizer:  organizer,
		logger:     logger,
	}, nil
}

// CreateEvent 创建带 Meet 链接的会议事件，组织者始终在参会名单内。
func (g *GoogleScheduler) CreateEvent(ctx context.Context, title string, attendees []string, start, end time.Time) (*Event, error) {
	attendeeList := dedupeAttendees(attendees, g.organizer())

	eventAttendees := make([]*calendarapi.EventAttendee, 0, len(attendeeList))
	for _, email := range attendeeList {
		eventAttendees = append(eventAttendees, &calendarapi.EventAttendee{Email: email})
	}

	event := &calendarapi.Event{
		Summary:   title,
		Start:     &calendarapi.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: g.timezone},
		End:       &calendarapi.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: g.timezone},
		Attendees: eventAttendees,
		Reminders: &calendarapi.EventReminders{
			UseDefault: false,
			Overrides: []*calendarapi.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ConferenceData: &calendarapi.ConferenceData{
			CreateRequest: &calendarapi.CreateConferenceRequest{
				RequestId:             generateRequestID(title, start),
				ConferenceSolutionKey: &calendarapi.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	result, err := g.srv.Events.Insert(g.calendarID, event).
		SendUpdates("all").
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}

	g.logger.Info("calendar event created",
		zap.String("event_id", result.Id),
		zap.String("meet_url", result.HangoutLink))
	return &Event{EventID: result.Id, MeetURL: result.HangoutLink}, nil
}

// CreateReminder 创建一个 30 分钟的提醒事件，带邮件与弹窗提醒。
func (g *GoogleScheduler) CreateReminder(ctx context.Context, title string, start time.Time) (*ReminderEvent, error) {
	end := start.Add(reminderDuration)

	event := &calendarapi.Event{
		Summary: title,
		Start:   &calendarapi.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: g.timezone},
		End:     &calendarapi.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: g.timezone},
		Reminders: &calendarapi.EventReminders{
			UseDefault: false,
			Overrides: []*calendarapi.EventReminder{
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	result, err := g.srv.Events.Insert(g.calendarID, event).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert reminder event: %w", err)
	}

	g.logger.Info("reminder event created", zap.String("event_id", result.Id))
	return &ReminderEvent{EventID: result.Id, Link: result.HtmlLink}, nil
}

// ListBusy 通过 freebusy 接口查询窗口内已被占用的时间段。
func (g *GoogleScheduler) ListBusy(ctx context.Context, start, end time.Time) ([]BusyInterval, error) {
	resp, err := g.srv.Freebusy.Query(&calendarapi.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: g.timezone,
		Items:    []*calendarapi.FreeBusyRequestItem{{Id: g.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("query freebusy: %w", err)
	}

	cal, ok := resp.Calendars[g.calendarID]
	if !ok {
		return nil, nil
	}

	busy := make([]BusyInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		from, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		to, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		busy = append(busy, BusyInterval{Start: from, End: to})
	}
	return busy, nil
}

// dedupeAttendees 合并参会人与组织者并去重，保持输入顺序。
func dedupeAttendees(attendees []string, organizer string) []string {
	seen := make(map[string]struct{}, len(attendees)+1)
	out := make([]string, 0, len(attendees)+1)
	for _, email := range attendees {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	organizer = strings.ToLower(strings.TrimSpace(organizer))
	if organizer != "" {
		if _, ok := seen[organizer]; !ok {
			out = append(out, organizer)
		}
	}
	return out
}

// generateRequestID 由标题与开始时间派生稳定的会议创建请求 ID。
func generateRequestID(title string, start time.Time) string {
	base := requestIDPattern.ReplaceAllString(strings.ToLower(title), "")
	if len(base) > 20 {
		base = base[:20]
	}
	stamp := start.UTC().Format("200601021504")
	return base + "-" + stamp
}

var _ Scheduler = (*GoogleScheduler)(nil)
