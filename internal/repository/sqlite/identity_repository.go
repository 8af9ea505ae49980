package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"facecounter/internal/model"
)

// IdentityRepository implements repository.IdentityRepository for SQLite.
type IdentityRepository struct {
	db *DB
}

// NewIdentityRepository creates a new SQLite identity repository.
func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// GetAll returns every known identity in match order.
func (r *IdentityRepository) GetAll() ([]model.KnownIdentity, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, embedding, last_seen
		FROM identities ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query identities: %w", err)
	}
	defer rows.Close()

	var identities []model.KnownIdentity
	for rows.Next() {
		var (
			k        model.KnownIdentity
			raw      []byte
			lastSeen string
		)
		if err := rows.Scan(&k.ID, &raw, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		if k.Embedding, err = decodeEmbedding(raw); err != nil {
			return nil, fmt.Errorf("identity %d: %w", k.ID, err)
		}
		if k.LastSeen, err = model.ParseDate(lastSeen); err != nil {
			return nil, fmt.Errorf("identity %d: %w", k.ID, err)
		}
		identities = append(identities, k)
	}

	return identities, rows.Err()
}

// ReplaceAll swaps the stored identities for the given ones in one transaction.
func (r *IdentityRepository) ReplaceAll(identities []model.KnownIdentity) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceIdentities(tx, identities); err != nil {
		return err
	}
	return tx.Commit()
}

// Count returns the number of stored identities.
func (r *IdentityRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM identities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count identities: %w", err)
	}
	return count, nil
}

func replaceIdentities(ex execer, identities []model.KnownIdentity) error {
	if _, err := ex.Exec(`DELETE FROM identities`); err != nil {
		return fmt.Errorf("failed to clear identities: %w", err)
	}

	stmt, err := ex.Prepare(`
		INSERT INTO identities (id, position, embedding, last_seen)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, k := range identities {
		if _, err := stmt.Exec(k.ID, i, encodeEmbedding(k.Embedding), k.LastSeen.String()); err != nil {
			return fmt.Errorf("failed to insert identity %d: %w", k.ID, err)
		}
	}
	return nil
}

func encodeEmbedding(e model.Embedding) []byte {
	buf := make([]byte, 4*len(e))
	for i, v := range e {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) (model.Embedding, error) {
	var e model.Embedding
	if len(buf) != 4*len(e) {
		return e, fmt.Errorf("embedding has %d bytes, want %d", len(buf), 4*len(e))
	}
	for i := range e {
		e[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return e, nil
}
