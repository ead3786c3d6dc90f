package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resqnet/incident-server/internal/models"
)

// GeoLocator is the spatial index consulted by the Postgres user directory
// for proximity queries. Satisfied by geo.RedisIndex.
type GeoLocator interface {
	Upsert(ctx context.Context, userID string, lon, lat float64) error
	Remove(ctx context.Context, userID string) error
	Near(ctx context.Context, lon, lat, radiusMeters float64, excludeID string) ([]string, error)
}

// PostgresReportStore persists reports in PostgreSQL via pgx.
type PostgresReportStore struct {
	db *pgxpool.Pool
}

func NewPostgresReportStore(db *pgxpool.Pool) *PostgresReportStore {
	return &PostgresReportStore{db: db}
}

const reportColumns = `id, title, description, longitude, latitude, categories, image_urls,
	owner_id, status, date, ratings_important, liked_by,
	rejection_reason, rejection_date, resubmission_deadline, resubmission_count,
	verified_by, verification_date, resolved_by, resolution_date, anonymous`

func (s *PostgresReportStore) Save(ctx context.Context, r models.Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			longitude = EXCLUDED.longitude,
			latitude = EXCLUDED.latitude,
			categories = EXCLUDED.categories,
			image_urls = EXCLUDED.image_urls,
			owner_id = EXCLUDED.owner_id,
			status = EXCLUDED.status,
			date = EXCLUDED.date,
			ratings_important = EXCLUDED.ratings_important,
			liked_by = EXCLUDED.liked_by,
			rejection_reason = EXCLUDED.rejection_reason,
			rejection_date = EXCLUDED.rejection_date,
			resubmission_deadline = EXCLUDED.resubmission_deadline,
			resubmission_count = EXCLUDED.resubmission_count,
			verified_by = EXCLUDED.verified_by,
	        verification_date = EXCLUDED.verification_date,
			resolved_by = EXCLUDED.resolved_by,
			resolution_date = EXCLUDED.resolution_date,
			anonymous = EXCLUDED.anonymous
	`

	_, err := s.db.Exec(ctx, query,
		r.ID, r.Title, r.Description, r.Location.Longitude, r.Location.Latitude,
		r.Categories, r.ImageURLs, r.OwnerID, r.Status, r.Date,
		r.RatingsImportant, r.LikedBy,
		r.RejectionReason, r.RejectionDate, r.ResubmissionDeadline, r.ResubmissionCount,
		r.VerifiedBy, r.VerificationDate, r.ResolvedBy, r.ResolutionDate, r.Anonymous,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *PostgresReportStore) FindByID(ctx context.Context, id string) (models.Report, error) {
	row := s.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Report{}, ErrNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("find report: %w", err)
	}
	return report, nil
}

func (s *PostgresReportStore) FindAllByIDs(ctx context.Context, ids []string) ([]models.Report, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer rows.Close()
	return collectReports(rows)
}

func (s *PostgresReportStore) DeleteByID(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Query narrows on the indexed predicates in SQL and applies the remaining
// ones (category overlap, radius) in Go so the semantics match the in-memory
// store exactly.
func (s *PostgresReportStore) Query(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE 1=1`
	args := []any{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(` AND UPPER(status) = UPPER($%d)`, len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	candidates, err := collectReports(rows)
	if err != nil {
		return nil, err
	}

	var matched []models.Report
	for _, report := range candidates {
		if MatchesFilter(report, filter) {
			matched = append(matched, report)
		}
	}
	return matched, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (models.Report, error) {
	var r models.Report
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Location.Longitude, &r.Location.Latitude,
		&r.Categories, &r.ImageURLs, &r.OwnerID, &r.Status, &r.Date,
		&r.RatingsImportant, &r.LikedBy,
		&r.RejectionReason, &r.RejectionDate, &r.ResubmissionDeadline, &r.ResubmissionCount,
		&r.VerifiedBy, &r.VerificationDate, &r.ResolvedBy, &r.ResolutionDate, &r.Anonymous,
	)
	return r, err
}

func collectReports(rows pgx.Rows) ([]models.Report, error) {
	var reports []models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// PostgresUserDirectory persists users in PostgreSQL and keeps the spatial
// index in sync for proximity queries.
type PostgresUserDirectory struct {
	db      *pgxpool.Pool
	locator GeoLocator
}

func NewPostgresUserDirectory(db *pgxpool.Pool, locator GeoLocator) *PostgresUserDirectory {
	return &PostgresUserDirectory{db: db, locator: locator}
}

const userColumns = `id, name, email, password_hash, role, longitude, latitude,
	active, deactivation_date, reports, liked_reports`

func (d *PostgresUserDirectory) Save(ctx context.Context, u models.User) error {
	var lon, lat *float64
	if u.Location != nil {
		lon, lat = &u.Location.Longitude, &u.Location.Latitude
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			longitude = EXCLUDED.longitude,
			latitude = EXCLUDED.latitude,
			active = EXCLUDED.active,
			deactivation_date = EXCLUDED.deactivation_date,
			reports = EXCLUDED.reports,
			liked_reports = EXCLUDED.liked_reports
	`

	_, err := d.db.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, lon, lat,
		u.Active, u.DeactivationDate, u.Reports, u.LikedReports,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	// Mirror the location into the spatial index. Inactive users and users
	// without a location are not discoverable by proximity search.
	if u.Location != nil && u.Active {
		return d.locator.Upsert(ctx, u.ID, u.Location.Longitude, u.Location.Latitude)
	}
	return d.locator.Remove(ctx, u.ID)
}

func (d *PostgresUserDirectory) FindByID(ctx context.Context, id string) (models.User, error) {
	row := d.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (d *PostgresUserDirectory) FindNear(ctx context.Context, lon, lat, radiusMeters float64, excludeID string) ([]models.User, error) {
	ids, err := d.locator.Near(ctx, lon, lat, radiusMeters, excludeID)
	if err != nil {
		return nil, fmt.Errorf("spatial index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := d.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) AND active`, ids)
	if err != nil {
		return nil, fmt.Errorf("load nearby users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var lon, lat *float64
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &lon, &lat,
		&u.Active, &u.DeactivationDate, &u.Reports, &u.LikedReports,
	)
	if err != nil {
		return models.User{}, err
	}
	if lon != nil && lat != nil {
		u.Location = &models.Point{Longitude: *lon, Latitude: *lat}
	}
	return u, nil
}

// PostgresCommentStore persists report comments in PostgreSQL.
type PostgresCommentStore struct {
	db *pgxpool.Pool
}

func NewPostgresCommentStore(db *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{db: db}
}

const commentColumns = `id, report_id, author_id, content, date`

func (s *PostgresCommentStore) Save(ctx context.Context, c models.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content
	`
	if _, err := s.db.Exec(ctx, query, c.ID, c.ReportID, c.AuthorID, c.Content, c.Date); err != nil {
		return fmt.Errorf("save comment: %w", err)
	}
	return nil
}

func (s *PostgresCommentStore) ListByReport(ctx context.Context, reportID string) ([]models.Comment, error) {
	return s.listWhere(ctx, `report_id`, reportID)
}

func (s *PostgresCommentStore) ListByUser(ctx context.Context, userID string) ([]models.Comment, error) {
	return s.listWhere(ctx, `author_id`, userID)
}

func (s *PostgresCommentStore) listWhere(ctx context.Context, column, value string) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE ` + column + ` = $1 ORDER BY date`
	rows, err := s.db.Query(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ReportID, &c.AuthorID, &c.Content, &c.Date); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// PostgresCategoryCatalog persists categories in PostgreSQL.
type PostgresCategoryCatalog struct {
	db *pgxpool.Pool
}

func NewPostgresCategoryCatalog(db *pgxpool.Pool) *PostgresCategoryCatalog {
	return &PostgresCategoryCatalog{db: db}
}

func (c *PostgresCategoryCatalog) Save(ctx context.Context, category models.Category) error {
	query := `
		INSERT INTO categories (id, name, active)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active
	`
	if _, err := c.db.Exec(ctx, query, category.ID, category.Name, category.Active); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func (c *PostgresCategoryCatalog) FindByID(ctx context.Context, id string) (models.Category, error) {
	var category models.Category
	err := c.db.QueryRow(ctx, `SELECT id, name, active FROM categories WHERE id = $1`, id).
		Scan(&category.ID, &category.Name, &category.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("find category: %w", err)
	}
	return category, nil
}

func (c *PostgresCategoryCatalog) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := c.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND active)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return exists, nil
}

func (c *PostgresCategoryCatalog) ListActive(ctx context.Context) ([]models.Category, error) {
	rows, err := c.db.Query(ctx, `SELECT id, name, active FROM categories WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (c *PostgresCategoryCatalog) Deactivate(ctx context.Context, id string) error {
	tag, err := c.db.Exec(ctx, `UPDATE categories SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
