package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
	"github.com/noah-isme/lostfound-api/pkg/identity"
)

const reportColumns = `doc_key, report_id, type, category, title, description, location_building,
       latitude, longitude, image_url, created_by_name, created_by_email, created_by_phone,
       created_at, updated_at, status, reviewed_at, reviewed_by`

const uniqueViolation = "23505"

// QueryObserver receives the duration of each repository query.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// ReportRepository persists reports in Postgres.
type ReportRepository struct {
	db         *sqlx.DB
	reconciler *identity.Reconciler
	observer   QueryObserver
}

// NewReportRepository constructs the repository. Rows without a stored logical
// id are resolved through reconciler.
func NewReportRepository(db *sqlx.DB, reconciler *identity.Reconciler) *ReportRepository {
	if reconciler == nil {
		reconciler = identity.NewReconciler()
	}
	return &ReportRepository{db: db, reconciler: reconciler}
}

// WithObserver attaches query timing.
func (r *ReportRepository) WithObserver(observer QueryObserver) *ReportRepository {
	r.observer = observer
	return r
}

func (r *ReportRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// Create inserts a new report and fills CreatedAt from the database clock.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	defer r.observe("report_create", time.Now())
	if report.DocKey == "" {
		report.DocKey = report.ID
	}
	const query = `INSERT INTO reports
	(doc_key, report_id, type, category, title, description, location_building, latitude, longitude,
	 image_url, created_by_name, created_by_email, created_by_phone, status, reviewed_at, reviewed_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING created_at`
	var createdAt time.Time
	err := r.db.QueryRowxContext(ctx, query, insertArgs(report)...).Scan(&createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "a report with this id already exists")
		}
		return fmt.Errorf("create report: %w", err)
	}
	report.CreatedAt = createdAt.UTC()
	return nil
}

// Import inserts a report carrying its own createdAt. Existing doc keys are
// skipped and reported as not inserted.
func (r *ReportRepository) Import(ctx context.Context, report *models.Report) (bool, error) {
	defer r.observe("report_import", time.Now())
	if report.DocKey == "" {
		report.DocKey = report.ID
	}
	const query = `INSERT INTO reports
	(doc_key, report_id, type, category, title, description, location_building, latitude, longitude,
	 image_url, created_by_name, created_by_email, created_by_phone, status, reviewed_at, reviewed_by,
	 created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (doc_key) DO NOTHING`
	args := append(insertArgs(report), report.CreatedAt, report.UpdatedAt)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, appErrors.Clone(appErrors.ErrConflict, "a report with this id already exists")
		}
		return false, fmt.Errorf("import report: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check import rows: %w", err)
	}
	return rows > 0, nil
}

// GetByID resolves a logical id in any letter case, or a native key verbatim. Legacy rows that predate the
// report_id column are matched on their reconciled id.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	defer r.observe("report_get", time.Now())
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, sql.ErrNoRows
	}
	logical := strings.ToLower(id)
	if parsed, err := uuid.Parse(id); err == nil {
		logical = parsed.String()
	}
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id = $1 OR doc_key = $2 LIMIT 1`
	var row reportRow
	err := r.db.GetContext(ctx, &row, query, logical, id)
	if err == nil {
		return row.toModel(r.reconciler)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r.findLegacy(ctx, logical)
}

func (r *ReportRepository) findLegacy(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id IS NULL`
	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("scan legacy reports: %w", err)
	}
	for _, row := range rows {
		assigned, err := r.reconciler.ReconcileString(row.DocKey, "")
		if err != nil || assigned != id {
			continue
		}
		return row.toModel(r.reconciler)
	}
	return nil, sql.ErrNoRows
}

// List returns reports matching filter, newest first.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	defer r.observe("report_list", time.Now())
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	builder.WriteString(`SELECT ` + reportColumns + ` FROM reports`)

	conditions := make([]string, 0, 5)
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.CreatedByEmail != "" {
		args = append(args, strings.ToLower(filter.CreatedByEmail))
		conditions = append(conditions, fmt.Sprintf("lower(created_by_email) = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC, doc_key ASC")
	if filter.Limit > 0 {
		builder.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	reports := make([]models.Report, 0, len(rows))
	for _, row := range rows {
		report, err := row.toModel(r.reconciler)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// UpdateReportStatusParams is a status change guarded by the expected current
// status. All four mutable columns are written together.
type UpdateReportStatusParams struct {
	DocKey     string
	Expected   models.ReportStatus
	Status     models.ReportStatus
	ReviewedAt *time.Time
	ReviewedBy *string
	UpdatedAt  *time.Time
}

// UpdateStatus applies params only when the row is still in params.Expected.
// It returns sql.ErrNoRows when nothing matched.
func (r *ReportRepository) UpdateStatus(ctx context.Context, params UpdateReportStatusParams) error {
	defer r.observe("report_update_status", time.Now())
	const query = `UPDATE reports SET status = $1, reviewed_at = $2, reviewed_by = $3, updated_at = $4
	WHERE doc_key = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query,
		string(params.Status),
		params.ReviewedAt,
		params.ReviewedBy,
		params.UpdatedAt,
		params.DocKey,
		string(params.Expected),
	)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check report update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a report by native key.
func (r *ReportRepository) Delete(ctx context.Context, docKey string) error {
	defer r.observe("report_delete", time.Now())
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE doc_key = $1`, docKey)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check report delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountVisible groups reports in statuses by category and building.
func (r *ReportRepository) CountVisible(ctx context.Context, statuses []models.ReportStatus) ([]models.ReportCount, error) {
	defer r.observe("report_count", time.Now())
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	const query = `SELECT category, location_building, COUNT(*) AS total
	FROM reports WHERE status = ANY($1)
	GROUP BY category, location_building
	ORDER BY category, location_building`
	var counts []models.ReportCount
	if err := r.db.SelectContext(ctx, &counts, query, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	return counts, nil
}

func insertArgs(report *models.Report) []interface{} {
	var lat, lng *float64
	if report.LocationCoordinates != nil {
		lat = &report.LocationCoordinates.Latitude
		lng = &report.LocationCoordinates.Longitude
	}
	return []interface{}{
		report.DocKey,
		report.ID,
		string(report.Type),
		string(report.Category),
		report.Title,
		report.Description,
		report.LocationBuilding,
		lat,
		lng,
		report.ImageURL,
		report.CreatedByName,
		report.CreatedByEmail,
		report.CreatedByPhone,
		string(report.Status),
		report.ReviewedAt,
		report.ReviewedBy,
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// reportRow is the raw column set. toModel is the only way out of it.
type reportRow struct {
	DocKey           string          `db:"doc_key"`
	ReportID         sql.NullString  `db:"report_id"`
	Type             string          `db:"type"`
	Category         string          `db:"category"`
	Title            string          `db:"title"`
	Description      sql.NullString  `db:"description"`
	LocationBuilding string          `db:"location_building"`
	Latitude         sql.NullFloat64 `db:"latitude"`
	Longitude        sql.NullFloat64 `db:"longitude"`
	ImageURL         sql.NullString  `db:"image_url"`
	CreatedByName    string          `db:"created_by_name"`
	CreatedByEmail   string          `db:"created_by_email"`
	CreatedByPhone   sql.NullString  `db:"created_by_phone"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        sql.NullTime    `db:"updated_at"`
	Status           string          `db:"status"`
	ReviewedAt       sql.NullTime    `db:"reviewed_at"`
	ReviewedBy       sql.NullString  `db:"reviewed_by"`
}

func (row reportRow) toModel(reconciler *identity.Reconciler) (*models.Report, error) {
	id, err := reconciler.ReconcileString(row.DocKey, row.ReportID.String)
	if err != nil {
		return nil, appErrors.Decode("id", err.Error())
	}
	reportType, ok := models.ParseReportType(row.Type)
	if !ok {
		return nil, appErrors.Decode("type", fmt.Sprintf("report %s has unknown type %q", id, row.Type))
	}
	category, ok := models.ParseReportCategory(row.Category)
	if !ok {
		return nil, appErrors.Decode("category", fmt.Sprintf("report %s has unknown category %q", id, row.Category))
	}
	status, ok := models.ParseReportStatus(row.Status)
	if !ok {
		return nil, appErrors.Decode("status", fmt.Sprintf("report %s has unknown status %q", id, row.Status))
	}
	if strings.TrimSpace(row.Title) == "" {
		return nil, appErrors.Decode("title", fmt.Sprintf("report %s has an empty title", id))
	}
	if row.ReviewedAt.Valid != row.ReviewedBy.Valid {
		return nil, appErrors.Decode("reviewedAt", fmt.Sprintf("report %s has partial review metadata", id))
	}
	if status == models.ReportStatusPending && row.ReviewedAt.Valid {
		return nil, appErrors.Decode("reviewedAt", fmt.Sprintf("pending report %s carries review metadata", id))
	}
	if row.Latitude.Valid != row.Longitude.Valid {
		return nil, appErrors.Decode("locationCoordinates", fmt.Sprintf("report %s has a partial coordinate pair", id))
	}

	report := &models.Report{
		ID:               id,
		DocKey:           row.DocKey,
		Type:             reportType,
		Category:         category,
		Title:            row.Title,
		Description:      nullString(row.Description),
		LocationBuilding: row.LocationBuilding,
		ImageURL:         nullString(row.ImageURL),
		CreatedByName:    row.CreatedByName,
		CreatedByEmail:   row.CreatedByEmail,
		CreatedByPhone:   nullString(row.CreatedByPhone),
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        nullTime(row.UpdatedAt),
		Status:           status,
		ReviewedAt:       nullTime(row.ReviewedAt),
		ReviewedBy:       nullString(row.ReviewedBy),
	}
	if row.Latitude.Valid {
		report.LocationCoordinates = &models.Coordinates{Latitude: row.Latitude.Float64, Longitude: row.Longitude.Float64}
	}
	return report, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
