package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailtriage/backend/internal/domain"
	"mailtriage/backend/internal/storage"
)

// PoolConfig 连接池参数
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig 返回默认连接池参数。
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Store 关系型数据库存储实现
type Store struct {
	db *gorm.DB
}

// NewStore 创建 PostgreSQL 存储实例
func NewStore(dsn string, pool PoolConfig) (*Store, error) {
	return NewStoreWithDialector(postgres.Open(dsn), pool)
}

// NewMySQLStore 创建 MySQL 存储实例
func NewMySQLStore(dsn string, pool PoolConfig) (*Store, error) {
	return NewStoreWithDialector(mysql.Open(dsn), pool)
}

// NewStoreWithDialector 使用指定的 GORM dialector 创建存储实例
func NewStoreWithDialector(dialector gorm.Dialector, pool PoolConfig) (*Store, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // 静默模式
		TranslateError: true,                                  // 将驱动错误归一为 gorm.ErrDuplicatedKey 等
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate 自动迁移数据库表结构
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&domain.Message{},
		&domain.Reminder{},
		&domain.Meeting{},
		&domain.SentMessage{},
	)
}

// ========== Message Repository ==========

// refreshColumns 重复写入时允许刷新的列，分流字段不在其中。
var refreshColumns = []string{"snippet", "body", "received_at", "updated_at"}

// UpsertMessage 以 ExternalID 为幂等键写入邮件。
// 幂等性最终由 external_id 上的唯一索引兜底：并发插入撞到唯一约束时
// 回退为对已有行的刷新，分流字段保持首次分类结果。
func (s *Store) UpsertMessage(message *domain.Message) (storage.UpsertResult, error) {
	var result storage.UpsertResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.Message
		err := tx.Where("external_id = ?", message.ExternalID).First(&existing).Error
		if err == nil {
			return s.refreshExisting(tx, &existing, message, &result)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if message.ID == "" {
			message.ID = uuid.NewString()
		}
		if err := tx.Create(message).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 并发写入先到一步，改为刷新已有行
				if ferr := tx.Where("external_id = ?", message.ExternalID).First(&existing).Error; ferr != nil {
					return ferr
				}
				return s.refreshExisting(tx, &existing, message, &result)
			}
			return err
		}
		result.Created = true
		return nil
	})

	return result, err
}

func (s *Store) refreshExisting(tx *gorm.DB, existing, incoming *domain.Message, result *storage.UpsertResult) error {
	updates := map[string]interface{}{
		"snippet":     incoming.Snippet,
		"body":        incoming.Body,
		"received_at": incoming.ReceivedAt,
	}
	if err := tx.Model(existing).Select(refreshColumns).Updates(updates).Error; err != nil {
		return err
	}
	existing.Snippet = incoming.Snippet
	existing.Body = incoming.Body
	existing.ReceivedAt = incoming.ReceivedAt
	*incoming = *existing
	result.Created = false
	return nil
}

// GetMessage 根据 ID 获取邮件
func (s *Store) GetMessage(id string) (*domain.Message, error) {
	var message domain.Message
	err := s.db.Where("id = ?", id).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

// GetMessageByExternalID 根据外部 ID 获取邮件
func (s *Store) GetMessageByExternalID(externalID string) (*domain.Message, error) {
	var message domain.Message
	err := s.db.Where("external_id = ?", externalID).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

// ListMessages 返回邮件列表，label 非空时按标签过滤，按接收时间倒序
func (s *Store) ListMessages(label *domain.TriageLabel) ([]domain.Message, error) {
	var messages []domain.Message
	query := s.db.Order("received_at DESC")
	if label != nil {
		query = query.Where("label = ?", *label)
	}
	err := query.Find(&messages).Error
	return messages, err
}

// UpdateClassification 覆盖一封邮件的分流字段与摘要
func (s *Store) UpdateClassification(id string, c domain.Classification, summary string) error {
	result := s.db.Model(&domain.Message{}).Where("id = ?", id).Updates(map[string]interface{}{
		"label":              c.Label,
		"subtype":            c.Subtype,
		"source":             c.Source,
		"extracted_due_time": c.DueTime,
		"summary":            summary,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// UpdateDraft 保存邮件的回复草稿
func (s *Store) UpdateDraft(id string, draft string) error {
	result := s.db.Model(&domain.Message{}).Where("id = ?", id).Update("draft_reply", draft)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// SetMeetingURL 记录由该邮件排期产生的会议链接
func (s *Store) SetMeetingURL(id string, url string) error {
	result := s.db.Model(&domain.Message{}).Where("id = ?", id).Update("meeting_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// MarkSent 将邮件标记为已发送
func (s *Store) MarkSent(id string) error {
	result := s.db.Model(&domain.Message{}).Where("id = ?", id).Update("sent", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// DeleteMessage 删除指定邮件。关联的提醒与会议记录保持原样。
func (s *Store) DeleteMessage(id string) error {
	result := s.db.Where("id = ?", id).Delete(&domain.Message{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// DeleteAllMessages 清空全部邮件，返回删除数量
func (s *Store) DeleteAllMessages() (int, error) {
	result := s.db.Where("1 = 1").Delete(&domain.Message{})
	return int(result.RowsAffected), result.Error
}

// ========== Reminder Repository ==========

// CreateReminder 保存提醒记录
func (s *Store) CreateReminder(reminder *domain.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	return s.db.Create(reminder).Error
}

// GetReminder 根据 ID 获取提醒
func (s *Store) GetReminder(id string) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := s.db.Where("id = ?", id).First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrReminderNotFound
		}
		return nil, err
	}
	return &reminder, nil
}

// ListReminders 返回全部提醒，按到期时间升序
func (s *Store) ListReminders() ([]domain.Reminder, error) {
	var reminders []domain.Reminder
	err := s.db.Order("due_at ASC").Find(&reminders).Error
	return reminders, err
}

// DeleteReminder 删除指定提醒
func (s *Store) DeleteReminder(id string) error {
	result := s.db.Where("id = ?", id).Delete(&domain.Reminder{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrReminderNotFound
	}
	return nil
}

// ========== Meeting Repository ==========

// CreateMeeting 保存会议记录
func (s *Store) CreateMeeting(meeting *domain.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	return s.db.Create(meeting).Error
}

// GetMeeting 根据 ID 获取会议
func (s *Store) GetMeeting(id string) (*domain.Meeting, error) {
	var meeting domain.Meeting
	err := s.db.Where("id = ?", id).First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

// ListMeetings 返回全部会议，按开始时间升序
func (s *Store) ListMeetings() ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	err := s.db.Order("start_at ASC").Find(&meetings).Error
	return meetings, err
}

// DeleteMeeting 删除指定会议
func (s *Store) DeleteMeeting(id string) error {
	result := s.db.Where("id = ?", id).Delete(&domain.Meeting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMeetingNotFound
	}
	return nil
}

// ========== SentMessage Repository ==========

// LogSentMessage 追加一条发送流水
func (s *Store) LogSentMessage(sent *domain.SentMessage) error {
	if sent.ID == "" {
		sent.ID = uuid.NewString()
	}
	if sent.SentAt.IsZero() {
		sent.SentAt = time.Now().UTC()
	}
	return s.db.Create(sent).Error
}

// ListSentMessages 返回发送流水，since 非空时只返回此后的记录
func (s *Store) ListSentMessages(since *time.Time) ([]domain.SentMessage, error) {
	var sent []domain.SentMessage
	query := s.db.Order("sent_at DESC")
	if since != nil {
		query = query.Where("sent_at >= ?", *since)
	}
	err := query.Find(&sent).Error
	return sent, err
}

// ========== 工具方法 ==========

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 数据库健康检查
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
