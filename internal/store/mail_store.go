package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/harmonicsheet/internal/model"
)

// attachmentMeta is the cached form of an attachment; contents are not
// kept locally.
type attachmentMeta struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
}

const messageColumns = `id, uid, from_name, from_address, to_addresses, subject,
	body, date, is_read, has_attachment, attachments`

// UpsertMessages inserts or refreshes a batch of messages for account.
// Existing rows keep their local ID.
func (s *SQLiteStore) UpsertMessages(
	ctx context.Context, account string, msgs []model.MailMessage,
) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO messages (
			id, account, uid, from_name, from_address, to_addresses,
			subject, body, date, is_read, has_attachment, attachments,
			fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account, uid) DO UPDATE SET
			from_name      = excluded.from_name,
			from_address   = excluded.from_address,
			to_addresses   = excluded.to_addresses,
			subject        = excluded.subject,
			body           = CASE WHEN excluded.body = '' THEN messages.body ELSE excluded.body END,
			date           = excluded.date,
			is_read        = excluded.is_read,
			has_attachment = excluded.has_attachment,
			attachments    = excluded.attachments,
			fetched_at     = excluded.fetched_at`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, m := range msgs {
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}

		metas := make([]attachmentMeta, 0, len(m.Attachments))
		for _, a := range m.Attachments {
			metas = append(metas, attachmentMeta{FileName: a.FileName, Size: a.Size, MIMEType: a.MIMEType})
		}
		attachments, err := json.Marshal(metas)
		if err != nil {
			return fmt.Errorf("marshaling attachments for uid %d: %w", m.UID, err)
		}

		_, err = stmt.ExecContext(ctx,
			id, account, m.UID, m.From, m.FromAddress, m.To,
			m.Subject, m.Body, m.Date.UTC(), boolToInt(m.IsRead),
			boolToInt(m.HasAttachment), string(attachments),
			now,
		)
		if err != nil {
			return fmt.Errorf("upserting message uid %d: %w", m.UID, err)
		}
	}

	return tx.Commit()
}

// GetMessages returns cached messages for an account, newest first.
func (s *SQLiteStore) GetMessages(
	ctx context.Context, filter MessageFilter,
) ([]model.MailMessage, error) {
	conditions := []string{"account = ?"}
	args := []interface{}{filter.Account}

	if filter.UnreadOnly {
		conditions = append(conditions, "is_read = 0")
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(subject LIKE ? OR body LIKE ? OR from_name LIKE ? OR from_address LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q, q, q)
	}

	query := "SELECT " + messageColumns + " FROM messages WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY date DESC, uid DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.MailMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessageByUID returns a single cached message, or nil if absent.
func (s *SQLiteStore) GetMessageByUID(
	ctx context.Context, account string, uid uint32,
) (*model.MailMessage, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE account = ? AND uid = ?",
		account, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("querying message uid %d: %w", uid, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	m, err := scanMessage(rows)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkMessageRead flags a cached message as read.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, account string, uid uint32) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE messages SET is_read = 1 WHERE account = ? AND uid = ?",
		account, uid,
	)
	if err != nil {
		return fmt.Errorf("marking message uid %d read: %w", uid, err)
	}
	return nil
}

// CountUnread returns the number of unread cached messages.
func (s *SQLiteStore) CountUnread(ctx context.Context, account string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM messages WHERE account = ? AND is_read = 0", account)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return n, nil
}

// PruneMessages deletes cached messages of account whose UID is not in
// keep. An empty keep list clears the account.
func (s *SQLiteStore) PruneMessages(ctx context.Context, account string, keep []uint32) error {
	if len(keep) == 0 {
		_, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE account = ?", account)
		if err != nil {
			return fmt.Errorf("clearing messages: %w", err)
		}
		return nil
	}

	query, args, err := sqlx.In(
		"DELETE FROM messages WHERE account = ? AND uid NOT IN (?)", account, keep,
	)
	if err != nil {
		return fmt.Errorf("building prune query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("pruning messages: %w", err)
	}
	return nil
}

// RecordSent appends a message to the sent log.
func (s *SQLiteStore) RecordSent(ctx context.Context, msg SentMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sent_messages (id, account, to_addresses, subject, body, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Account, msg.To, msg.Subject, msg.Body, msg.SentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording sent message: %w", err)
	}
	return nil
}

// GetSent returns the sent log for account, newest first.
func (s *SQLiteStore) GetSent(ctx context.Context, account string, limit int) ([]SentMessage, error) {
	query := `SELECT id, account, to_addresses, subject, body, sent_at
		FROM sent_messages WHERE account = ? ORDER BY sent_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("querying sent messages: %w", err)
	}
	defer rows.Close()

	var out []SentMessage
	for rows.Next() {
		var m SentMessage
		if err := rows.Scan(&m.ID, &m.Account, &m.To, &m.Subject, &m.Body, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scanning sent row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// scanMessage scans a message row from a sqlx.Rows result set.
func scanMessage(rows *sqlx.Rows) (model.MailMessage, error) {
	var (
		m             model.MailMessage
		isRead        int
		hasAttachment int
		attachments   string
		date          time.Time
	)

	err := rows.Scan(
		&m.ID, &m.UID, &m.From, &m.FromAddress, &m.To, &m.Subject,
		&m.Body, &date, &isRead, &hasAttachment, &attachments,
	)
	if err != nil {
		return model.MailMessage{}, fmt.Errorf("scanning message row: %w", err)
	}

	m.Date = date
	m.IsRead = isRead != 0
	m.HasAttachment = hasAttachment != 0

	if attachments != "" {
		var metas []attachmentMeta
		if err := json.Unmarshal([]byte(attachments), &metas); err != nil {
			return model.MailMessage{}, fmt.Errorf("unmarshaling attachments: %w", err)
		}
		for _, a := range metas {
			m.Attachments = append(m.Attachments, model.MailAttachment{
				FileName: a.FileName, Size: a.Size, MIMEType: a.MIMEType,
			})
		}
	}

	return m, nil
}
