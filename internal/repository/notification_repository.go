package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository handles notification data access.
type NotificationRepository interface {
	// InsertJobs persists every job in one round trip and returns the created rows.
	InsertJobs(ctx context.Context, jobs []model.NotificationJob) ([]model.Notification, error)
	List(ctx context.Context, recipientID int, unreadOnly bool, limit, offset int) ([]model.Notification, int, error)
	UnreadCount(ctx context.Context, recipientID int) (int, error)
	MarkRead(ctx context.Context, recipientID, id int) error
	MarkAllRead(ctx context.Context, recipientID int) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, institution_id, recipient_id, title, message, kind, read_at, created_at`

const insertNotificationsSQL = `INSERT INTO notifications (institution_id, recipient_id, title, message, kind)
	SELECT $1, r, $2, $3, $4 FROM unnest($5::int[]) AS r
	RETURNING ` + notificationColumns

func scanNotification(row rowScanner, n *model.Notification) error {
	return row.Scan(&n.ID, &n.InstitutionID, &n.RecipientID, &n.Title, &n.Message, &n.Kind, &n.ReadAt, &n.CreatedAt)
}

func (r *notificationRepository) InsertJobs(ctx context.Context, jobs []model.NotificationJob) ([]model.Notification, error) {
	batch := &pgx.Batch{}
	for _, j := range jobs {
		batch.Queue(insertNotificationsSQL, j.InstitutionID, j.Title, j.Message, j.Kind, j.RecipientIDs)
	}

	br := conn(ctx, r.pool).SendBatch(ctx, batch)
	defer br.Close()

	created := []model.Notification{}
	for range jobs {
		rows, err := br.Query()
		if err != nil {
			return nil, mapError(err)
		}
		for rows.Next() {
			var n model.Notification
			if err := scanNotification(rows, &n); err != nil {
				rows.Close()
				return nil, err
			}
			created = append(created, n)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, mapError(err)
		}
	}
	return created, nil
}

func (r *notificationRepository) List(ctx context.Context, recipientID int, unreadOnly bool, limit, offset int) ([]model.Notification, int, error) {
	db := conn(ctx, r.pool)

	w := &whereBuilder{}
	w.and("recipient_id = " + w.arg(recipientID))
	if unreadOnly {
		w.and("read_at IS NULL")
	}

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx, `SELECT `+notificationColumns+` FROM notifications`+w.sql()+
		` ORDER BY created_at DESC, id DESC`+w.page(limit, offset), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, 0, err
		}
		list = append(list, n)
	}
	return list, total, rows.Err()
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID int) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read_at IS NULL`, recipientID).Scan(&n)
	return n, err
}

// MarkRead sets read_at once; reading an already read notification is a no-op.
func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id int) error {
	return affected(conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, NOW()) WHERE recipient_id = $1 AND id = $2`,
		recipientID, id))
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID int) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE recipient_id = $1 AND read_at IS NULL`, recipientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
