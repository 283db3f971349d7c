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

// SQLitePlayerRepository implements PlayerRepository for SQLite.
// Stats, equipment and history are stored as JSON columns: they are
// always read and written as a unit with the rest of the snapshot.
type SQLitePlayerRepository struct {
	db *sql.DB
}

func NewSQLitePlayerRepository(db *sql.DB) *SQLitePlayerRepository {
	return &SQLitePlayerRepository{db: db}
}

func (r *SQLitePlayerRepository) SavePlayer(ctx context.Context, p *player.Player) error {
	stats, equipment, history, err := marshalPlayerColumns(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO players (email, username, level, current_xp, required_xp, gold, streak, rank, class, title, stats, equipment, history, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			username=excluded.username,
			level=excluded.level,
			current_xp=excluded.current_xp,
			required_xp=excluded.required_xp,
			gold=excluded.gold,
			streak=excluded.streak,
			rank=excluded.rank,
			class=excluded.class,
			title=excluded.title,
			stats=excluded.stats,
			equipment=excluded.equipment,
			history=excluded.history,
			last_updated=excluded.last_updated
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

func (r *SQLitePlayerRepository) LoadPlayer(ctx context.Context, email string) (*player.Player, error) {
	query := `SELECT email, username, level, current_xp, required_xp, gold, streak, rank, class, title, stats, equipment, history FROM players WHERE email = ?`

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

// SQLiteInventoryRepository implements InventoryRepository for SQLite.
// Items are rows; a save replaces the hunter's full collection in one
// transaction so the stored set always matches one in-memory snapshot.
type SQLiteInventoryRepository struct {
	db *sql.DB
}

func NewSQLiteInventoryRepository(db *sql.DB) *SQLiteInventoryRepository {
	return &SQLiteInventoryRepository{db: db}
}

func (r *SQLiteInventoryRepository) SaveInventory(ctx context.Context, email string, inv []item.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin inventory tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE email = ?`, email); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}

	query := `
		INSERT INTO inventory_items (item_id, email, name, description, item_type, rarity, slot, bonuses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
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

func (r *SQLiteInventoryRepository) LoadInventory(ctx context.Context, email string) ([]item.Item, error) {
	query := `SELECT item_id, name, description, item_type, rarity, slot, bonuses FROM inventory_items WHERE email = ?`
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

// SQLiteChatRepository implements ChatRepository for SQLite.
type SQLiteChatRepository struct {
	db *sql.DB
}

func NewSQLiteChatRepository(db *sql.DB) *SQLiteChatRepository {
	return &SQLiteChatRepository{db: db}
}

func (r *SQLiteChatRepository) AppendMessage(ctx context.Context, email, role, content string) error {
	query := `INSERT INTO chat_messages (email, role, content, timestamp) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, email, role, content, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (r *SQLiteChatRepository) History(ctx context.Context, email string, limit int) ([]narrator.ChatMessage, error) {
	// Newest rows first, then reversed so the caller gets chronological
	// order with the limit applied to the tail of the conversation.
	query := `SELECT role, content, timestamp FROM chat_messages WHERE email = ? ORDER BY id DESC LIMIT ?`
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

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event events.SystemEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO system_events (id, player_id, date, timestamp, event_type, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.PlayerID, event.Date, event.Timestamp, string(event.Type), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]events.SystemEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []events.SystemEvent
	for rows.Next() {
		var e events.SystemEvent
		var eventType, payload string
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Date, &e.Timestamp, &eventType, &payload); err != nil {
			return nil, err
		}
		e.Type = events.EventType(eventType)
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *SQLiteEventRepository) GetByPlayer(ctx context.Context, email string) ([]events.SystemEvent, error) {
	query := `SELECT id, player_id, date, timestamp, event_type, payload FROM system_events WHERE player_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, email)
}

func (r *SQLiteEventRepository) GetByDate(ctx context.Context, date string) ([]events.SystemEvent, error) {
	query := `SELECT id, player_id, date, timestamp, event_type, payload FROM system_events WHERE date = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, date)
}

// Shared row helpers.

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (item.Item, error) {
	var it item.Item
	var itemType, rarity, slot, bonuses string
	if err := row.Scan(&it.ID, &it.Name, &it.Desc, &itemType, &rarity, &slot, &bonuses); err != nil {
		return item.Item{}, fmt.Errorf("failed to scan item: %w", err)
	}
	it.Type = item.Type(itemType)
	it.Rarity = item.Rarity(rarity)
	it.Slot = player.EquipmentSlot(slot)
	if bonuses != "" && bonuses != "null" {
		if err := json.Unmarshal([]byte(bonuses), &it.Bonuses); err != nil {
			return item.Item{}, fmt.Errorf("failed to unmarshal bonuses: %w", err)
		}
	}
	return it, nil
}

func marshalPlayerColumns(p *player.Player) (stats, equipment, history string, err error) {
	s, err := json.Marshal(p.Stats)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal stats: %w", err)
	}
	e, err := json.Marshal(p.Equipment)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal equipment: %w", err)
	}
	h, err := json.Marshal(p.History)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal history: %w", err)
	}
	return string(s), string(e), string(h), nil
}

func unmarshalPlayerColumns(p *player.Player, rank, class, stats, equipment, history string) error {
	p.Rank = player.Rank(rank)
	p.Class = player.Class(class)
	if err := json.Unmarshal([]byte(stats), &p.Stats); err != nil {
		return fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	if err := json.Unmarshal([]byte(equipment), &p.Equipment); err != nil {
		return fmt.Errorf("failed to unmarshal equipment: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &p.History); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return nil
}

// Interface checks
var (
	_ PlayerRepository    = (*SQLitePlayerRepository)(nil)
	_ InventoryRepository = (*SQLiteInventoryRepository)(nil)
	_ ChatRepository      = (*SQLiteChatRepository)(nil)
	_ EventRepository     = (*SQLiteEventRepository)(nil)
)
