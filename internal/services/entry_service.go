package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moodlog/moodlog-be/internal/models"
)

// EntryInput carries the caller-supplied fields of a diary entry. The id,
// owner, date and time are always assigned by the service.
type EntryInput struct {
	Mood         int
	Sleep        int
	Irritability int
	Medications  []models.Medication
	Diet         []models.DietItem
	Exercise     string
	Notes        string
}

// EntryServiceProvider defines the interface for entry services.
type EntryServiceProvider interface {
	Create(ctx context.Context, owner string, input EntryInput) (int64, error)
	GetLatest(ctx context.Context, owner string) ([]models.Entry, error)
	DeleteLatest(ctx context.Context, owner string) error
	List(ctx context.Context, owner string) ([]models.Entry, error)
	Update(ctx context.Context, id int64, caller string, input EntryInput) error
}

// EntryService provides CRUD for diary entries, always scoped by the
// authenticated owner identity.
type EntryService struct {
	db  *sql.DB
	seq SequenceServiceProvider
}

// NewEntryService creates a new EntryService.
func NewEntryService(db *sql.DB, seq SequenceServiceProvider) *EntryService {
	return &EntryService{db: db, seq: seq}
}

// Create persists a new entry owned by the given identity. Date and time are
// stamped from the current UTC clock; the id comes from the entry counter.
func (s *EntryService) Create(ctx context.Context, owner string, input EntryInput) (int64, error) {
	id, err := s.seq.Next(ctx, CounterEntryID)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	medications, diet, err := marshalLists(input)
	if err != nil {
		return 0, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (id, posted_by, date, time, mood, sleep, irritability, medications_json, diet_json, exercise, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner, now.Format("2006-01-02"), now.Format("15:04:05"),
		input.Mood, input.Sleep, input.Irritability, medications, diet, input.Exercise, input.Notes)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetLatest returns the entry with the highest id among those owned by the
// given identity, as a list of zero or one entries.
func (s *EntryService) GetLatest(ctx context.Context, owner string) ([]models.Entry, error) {
	return s.query(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE posted_by = ? ORDER BY id DESC LIMIT 1", owner)
}

// DeleteLatest deletes the entry GetLatest would return. ErrNotFound when the
// user has no entries.
func (s *EntryService) DeleteLatest(ctx context.Context, owner string) error {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM entries WHERE posted_by = ? ORDER BY id DESC LIMIT 1", owner).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	return err
}

// List returns every entry owned by the given identity in insertion order.
func (s *EntryService) List(ctx context.Context, owner string) ([]models.Entry, error) {
	return s.query(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE posted_by = ? ORDER BY id", owner)
}

// Update replaces the payload fields of an existing entry. The entry's id,
// owner, date and time are preserved from the stored record. Only the owner
// may update an entry; updating a nonexistent id is ErrNotFound.
func (s *EntryService) Update(ctx context.Context, id int64, caller string, input EntryInput) error {
	var owner string
	err := s.db.QueryRowContext(ctx, "SELECT posted_by FROM entries WHERE id = ?", id).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != caller {
		return ErrForbidden
	}

	medications, diet, err := marshalLists(input)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE entries
		SET mood = ?, sleep = ?, irritability = ?, medications_json = ?, diet_json = ?, exercise = ?, notes = ?
		WHERE id = ?`,
		input.Mood, input.Sleep, input.Irritability, medications, diet, input.Exercise, input.Notes, id)
	return err
}

const entryColumns = "id, posted_by, date, time, mood, sleep, irritability, medications_json, diet_json, exercise, notes"

func (s *EntryService) query(ctx context.Context, query string, args ...any) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var entry models.Entry
		var medications, diet []byte
		if err := rows.Scan(&entry.ID, &entry.PostedBy, &entry.Date, &entry.Time,
			&entry.Mood, &entry.Sleep, &entry.Irritability, &medications, &diet,
			&entry.Exercise, &entry.Notes); err != nil {
			return nil, err
		}
		if err := unmarshalList(medications, &entry.Medications); err != nil {
			return nil, err
		}
		if err := unmarshalList(diet, &entry.Diet); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func marshalLists(input EntryInput) (medications, diet []byte, err error) {
	if medications, err = json.Marshal(input.Medications); err != nil {
		return nil, nil, fmt.Errorf("encoding medications: %w", err)
	}
	if diet, err = json.Marshal(input.Diet); err != nil {
		return nil, nil, fmt.Errorf("encoding diet: %w", err)
	}
	return medications, diet, nil
}

func unmarshalList(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
