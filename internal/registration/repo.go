package registration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"varna/internal/store"
)

// Repository persists registrations. Rows are only ever inserted and listed.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// InsertIndividual writes a new individual registration, assigning an id when missing.
func (r *Repository) InsertIndividual(ctx context.Context, reg *Individual) error {
	client, err := r.db.Client()
	if err != nil {
		return err
	}
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	_, err = client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO `+store.TableIndividual+` (id, student_name, grade, category, style, school_name,
			taluk, district, parent_name, parent_email, parent_phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), reg.ID, reg.StudentName, reg.Grade, reg.Category, reg.Style, reg.SchoolName,
		reg.Taluk, reg.District, reg.ParentName, reg.ParentEmail, reg.ParentPhone, reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert individual registration: %w", err)
	}
	return nil
}

// InsertSchool writes a new school registration, assigning an id when missing.
func (r *Repository) InsertSchool(ctx context.Context, reg *School) error {
	client, err := r.db.Client()
	if err != nil {
		return err
	}
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	_, err = client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO `+store.TableSchool+` (id, org_name, coord_name, coord_email, coord_phone, taluk,
			district, file_name, file_path, download_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), reg.ID, reg.OrgName, reg.CoordName, reg.CoordEmail, reg.CoordPhone, reg.Taluk,
		reg.District, reg.FileName, reg.FilePath, reg.DownloadURL, reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert school registration: %w", err)
	}
	return nil
}

// ListIndividuals returns every individual registration, newest first.
func (r *Repository) ListIndividuals(ctx context.Context) ([]Individual, error) {
	client, err := r.db.Client()
	if err != nil {
		return nil, err
	}
	rows, err := client.QueryContext(ctx, `
		SELECT id, student_name, grade, category, style, school_name, taluk, district,
			parent_name, parent_email, parent_phone, created_at
		FROM `+store.TableIndividual+`
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Individual{}
	for rows.Next() {
		var reg Individual
		if err := rows.Scan(&reg.ID, &reg.StudentName, &reg.Grade, &reg.Category, &reg.Style, &reg.SchoolName,
			&reg.Taluk, &reg.District, &reg.ParentName, &reg.ParentEmail, &reg.ParentPhone, &reg.CreatedAt); err != nil {
			return nil, err
		}
		reg.CreatedAt = reg.CreatedAt.UTC()
		res = append(res, reg)
	}
	return res, rows.Err()
}

// ListSchools returns every school registration, newest first.
func (r *Repository) ListSchools(ctx context.Context) ([]School, error) {
	client, err := r.db.Client()
	if err != nil {
		return nil, err
	}
	rows, err := client.QueryContext(ctx, `
		SELECT id, org_name, coord_name, coord_email, coord_phone, taluk, district,
			file_name, file_path, download_url, created_at
		FROM `+store.TableSchool+`
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []School{}
	for rows.Next() {
		reg, err := scanSchool(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, reg)
	}
	return res, rows.Err()
}

func scanSchool(rows *sql.Rows) (School, error) {
	var reg School
	err := rows.Scan(&reg.ID, &reg.OrgName, &reg.CoordName, &reg.CoordEmail, &reg.CoordPhone, &reg.Taluk,
		&reg.District, &reg.FileName, &reg.FilePath, &reg.DownloadURL, &reg.CreatedAt)
	reg.CreatedAt = reg.CreatedAt.UTC()
	return reg, err
}
