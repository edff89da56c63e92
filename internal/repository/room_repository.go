package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// RoomRepository reads the room registry.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByIDs loads the requested rooms. Missing ids are simply absent from the result.
func (r *RoomRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, capacity, active, created_at, updated_at FROM rooms WHERE id = ANY($1)`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	return rooms, nil
}
