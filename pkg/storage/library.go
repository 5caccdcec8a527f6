package storage

import (
	"context"
)

// ReplaceLibrary swaps the stored card library for a new snapshot in one
// transaction. The library is treated as the full set held at analysis
// time, so partial updates don't exist.
func (d *DB) ReplaceLibrary(ctx context.Context, cards []CardRecord) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM library_cards"); err != nil {
		return err
	}
	for _, c := range cards {
		_, err = tx.ExecContext(ctx, `INSERT INTO library_cards(card_id, player_name, play_type, series, team, rarity, raw_text) VALUES(?,?,?,?,?,?,?)`,
			c.CardID, c.PlayerName, nullIfEmpty(c.PlayType), nullIfEmpty(c.Series), nullIfEmpty(c.Team), c.Rarity, nullIfEmpty(c.RawText))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListLibrary returns the stored card library in insertion order.
func (d *DB) ListLibrary(ctx context.Context) ([]CardRecord, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT card_id, player_name, COALESCE(play_type,''), COALESCE(series,''), COALESCE(team,''), rarity, COALESCE(raw_text,'') FROM library_cards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CardRecord
	for rows.Next() {
		var c CardRecord
		if err := rows.Scan(&c.CardID, &c.PlayerName, &c.PlayType, &c.Series, &c.Team, &c.Rarity, &c.RawText); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetLibraryCount returns the number of stored library cards.
func (d *DB) GetLibraryCount(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM library_cards").Scan(&n)
	return n, err
}
