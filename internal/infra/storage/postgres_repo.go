// Package storage - postgres_repo.go
// PostgreSQL implementations of the repositories, reached through the
// pgx stdlib driver. Same semantics as the SQLite versions; only the
// placeholder syntax and upsert spelling differ.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phantomguild/system-server/internal/domain/item"
	"github.com/phantomguild/system-server/internal/domain/player"
	"github.com/phantomguild/system-server/internal/events"
	"github.com/phantomguild/system-server/internal/narrator"
)

// PostgresPlayerRepository implements PlayerRepository using PostgreSQL.
type PostgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

func (r *PostgresPlayerRepository) SavePlayer(ctx context.Context, p *player.Player) error {
	stats, equipment, history, err := marshalPlayerColumns(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO players (email, username, level, current_xp, required_xp, gold, streak, rank, class, title, stats, equipment, history, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (email) DO UPDATE SET
			username=EXCLUDED.username,
			level=EXCLUDED.level,
			current_xp=EXCLUDED.current_xp,
			required_xp=EXCLUDED.required_xp,
			gold=EXCLUDED.gold,
			streak=EXCLUDED.streak,
			rank=EXCLUDED.rank,
			class=EXCLUDED.class,
			title=EXCLUDED.title,
			stats=EXCLUDED.stats,
			equipment=EXCLUDED.equipment,
			history=EXCLUDED.history,
			last_updated=EXCLUDED.last_updated
	`
	_, err = r.db.ExecContext(ctx, query,
		p.Email, p.Username, p.Level, p.CurrentXP, p.RequiredXP, p.Gold, p.Streak,
		string(p.Rank), string(p.Class), p.Title, stats, equipment, history, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

func (r *PostgresPlayerRepository) LoadPlayer(ctx context.Context, email string) (*player.Player, error) {
	query := `SELECT email, username, level, current_xp, required_xp, gold, streak, rank, class, title, stats, equipment, history FROM players WHERE email = $1`

	var p player.Player
	var rank, class, stats, equipment, history string
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&p.Email, &p.Username, &p.Level, &p.CurrentXP, &p.RequiredXP, &p.Gold, &p.Streak,
		&rank, &class, &p.Title, &stats, &equipment, &history,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	if err := unmarshalPlayerColumns(&p, rank, class, stats, equipment, history); err != nil {
		return nil, err
	}
	return &p, nil
}

// PostgresInventoryRepository implements InventoryRepository using PostgreSQL.
type PostgresInventoryRepository struct {
	db *sql.DB
}

func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

func (r *PostgresInventoryRepository) SaveInventory(ctx context.Context, email string, inv []item.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin inventory tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}

	query := `
		INSERT INTO inventory_items (item_id, email, name, description, item_type, rarity, slot, bonuses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, it := range inv {
		bonuses, err := json.Marshal(it.Bonuses)
		if err != nil {
			return fmt.Errorf("failed to marshal bonuses: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			it.ID, email, it.Name, it.Desc, string(it.Type), string(it.Rarity), string(it.Slot), string(bonuses),
		); err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PostgresInventoryRepository) LoadInventory(ctx context.Context, email string) ([]item.Item, error) {
	query := `SELECT item_id, name, description, item_type, rarity, slot, bonuses FROM inventory_items WHERE email = $1`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	defer rows.Close()

	var inv []item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		inv = append(inv, it)
	}
	return inv, rows.Err()
}

// PostgresChatRepository implements ChatRepository using PostgreSQL.
type PostgresChatRepository struct {
	db *sql.DB
}

func NewPostgresChatRepository(db *sql.DB) *PostgresChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) AppendMessage(ctx context.Context, email, role, content string) error {
	query := `INSERT INTO chat_messages (email, role, content, timestamp) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, email, role, content, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (r *PostgresChatRepository) History(ctx context.Context, email string, limit int) ([]narrator.ChatMessage, error) {
	query := `SELECT role, content, timestamp FROM chat_messages WHERE email = $1 ORDER BY id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	var msgs []narrator.ChatMessage
	for rows.Next() {
		var m narrator.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) Append(ctx context.Context, event events.SystemEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO system_events (id, player_id, date, timestamp, event_type, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.PlayerID, event.Date, event.Timestamp, string(event.Type), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *PostgresEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]events.SystemEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []events.SystemEvent
	for rows.Next() {
		var e events.SystemEvent
		var eventType string
		var payload []byte
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Date, &e.Timestamp, &eventType, &payload); err != nil {
			return nil, err
		}
		e.Type = events.EventType(eventType)
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *PostgresEventRepository) GetByPlayer(ctx context.Context, email string) ([]events.SystemEvent, error) {
	query := `SELECT id, player_id, date, timestamp, event_type, payload FROM system_events WHERE player_id = $1 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, email)
}

func (r *PostgresEventRepository) GetByDate(ctx context.Context, date string) ([]events.SystemEvent, error) {
	query := `SELECT id, player_id, date, timestamp, event_type, payload FROM system_events WHERE date = $1 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, date)
}

// Interface checks
var (
	_ PlayerRepository    = (*PostgresPlayerRepository)(nil)
	_ InventoryRepository = (*PostgresInventoryRepository)(nil)
	_ ChatRepository      = (*PostgresChatRepository)(nil)
	_ EventRepository     = (*PostgresEventRepository)(nil)
)
