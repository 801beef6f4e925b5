package db

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"easynetes/internal/models"
)

type hostRow struct {
	bun.BaseModel `bun:"table:hosts,alias:h"`

	ID            int64     `bun:"id,pk,autoincrement"`
	HostID        string    `bun:"host_id,notnull,unique,type:varchar(64)"`
	HostName      string    `bun:"host_name,notnull,type:varchar(128)"`
	HostIP        string    `bun:"host_ip,notnull,type:varchar(64)"`
	UserName      string    `bun:"user_name,type:varchar(64)"`
	SSHPort       int       `bun:"ssh_port,notnull"`
	HostType      string    `bun:"host_type,type:varchar(32)"`
	Status        bool      `bun:"status,notnull"`
	Comment       string    `bun:"comment,type:varchar(512)"`
	CPUCores      int       `bun:"cpu_cores"`
	MemSize       int64     `bun:"mem_size"`
	OSName        string    `bun:"os_name,type:varchar(64)"`
	KernelVersion string    `bun:"kernel_version,type:varchar(64)"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

func hostRowFromModel(h *models.HostRecord) *hostRow {
	return &hostRow{
		ID:            h.ID,
		HostID:        h.HostID,
		HostName:      h.HostName,
		HostIP:        h.HostIP,
		UserName:      h.UserName,
		SSHPort:       h.HostSSHPort,
		HostType:      h.HostType,
		Status:        h.Status,
		Comment:       h.Comment,
		CPUCores:      h.CPUCores,
		MemSize:       h.MemSize,
		OSName:        h.OSName,
		KernelVersion: h.KernelVersion,
		CreatedAt:     h.CreatedTime.Time,
		UpdatedAt:     h.UpdatedTime.Time,
	}
}

func (r *hostRow) toModel() *models.HostRecord {
	return &models.HostRecord{
		ID:            r.ID,
		HostID:        r.HostID,
		HostName:      r.HostName,
		HostIP:        r.HostIP,
		UserName:      r.UserName,
		HostSSHPort:   r.SSHPort,
		HostType:      r.HostType,
		Status:        r.Status,
		Comment:       r.Comment,
		CPUCores:      r.CPUCores,
		MemSize:       r.MemSize,
		OSName:        r.OSName,
		KernelVersion: r.KernelVersion,
		CreatedTime:   models.NewTimestamp(r.CreatedAt),
		UpdatedTime:   models.NewTimestamp(r.UpdatedAt),
	}
}

// NewHostID returns a fresh host identifier.
func NewHostID() string {
	return "host-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// HostStore persists CMDB host records.
type HostStore struct {
	db  *bun.DB
	now func() time.Time
}

func (s *HostStore) timestamp() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().Truncate(time.Second)
}

func likePattern(s string) string {
	return "%" + s + "%"
}

func applyHostFilters(q *bun.SelectQuery, f models.HostQuery) *bun.SelectQuery {
	if f.HostName != "" {
		q = q.Where("h.host_name LIKE ?", likePattern(f.HostName))
	}
	if f.HostIP != "" {
		q = q.Where("h.host_ip LIKE ?", likePattern(f.HostIP))
	}
	if f.HostType != "" {
		q = q.Where("h.host_type = ?", f.HostType)
	}
	if f.Status != nil {
		q = q.Where("h.status = ?", *f.Status)
	}
	return q
}

// List returns one page of hosts ordered by id plus the filtered total.
func (s *HostStore) List(ctx context.Context, f models.HostQuery) ([]*models.HostRecord, int64, error) {
	f.Normalize()
	var rows []hostRow
	q := s.db.NewSelect().Model(&rows)
	q = applyHostFilters(q, f)
	total, err := q.OrderExpr("h.id ASC").Limit(f.PageSize).Offset(f.Offset()).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, MapDBError(err)
	}
	out := make([]*models.HostRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, int64(total), nil
}

// Get loads a host by primary key.
func (s *HostStore) Get(ctx context.Context, id int64) (*models.HostRecord, error) {
	row := new(hostRow)
	if err := s.db.NewSelect().Model(row).Where("h.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return row.toModel(), nil
}

// Create inserts h and returns the stored record. ID and timestamps are
// assigned here; an empty HostID is generated.
func (s *HostStore) Create(ctx context.Context, h *models.HostRecord) (*models.HostRecord, error) {
	row := hostRowFromModel(h)
	row.ID = 0
	if strings.TrimSpace(row.HostID) == "" {
		row.HostID = NewHostID()
	}
	if row.SSHPort == 0 {
		row.SSHPort = models.DefaultSSHPort
	}
	now := s.timestamp()
	row.CreatedAt, row.UpdatedAt = now, now
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return row.toModel(), nil
}

// Update replaces the mutable fields of host id. CreatedAt is preserved and
// an empty HostID keeps the stored one.
func (s *HostStore) Update(ctx context.Context, id int64, h *models.HostRecord) (*models.HostRecord, error) {
	var out *models.HostRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := new(hostRow)
		if err := tx.NewSelect().Model(existing).Where("h.id = ?", id).Limit(1).Scan(ctx); err != nil {
			return MapDBError(err)
		}
		row := hostRowFromModel(h)
		row.ID = id
		row.CreatedAt = existing.CreatedAt
		if strings.TrimSpace(row.HostID) == "" {
			row.HostID = existing.HostID
		}
		if row.SSHPort == 0 {
			row.SSHPort = models.DefaultSSHPort
		}
		row.UpdatedAt = s.timestamp()
		if _, err := tx.NewUpdate().Model(row).WherePK().Exec(ctx); err != nil {
			return MapDBError(err)
		}
		out = row.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes host id and returns the deleted record.
func (s *HostStore) Delete(ctx context.Context, id int64) (*models.HostRecord, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.db.NewDelete().Model((*hostRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return nil, MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return existing, nil
}

// Count returns the number of stored hosts.
func (s *HostStore) Count(ctx context.Context) (int64, error) {
	n, err := s.db.NewSelect().Model((*hostRow)(nil)).Count(ctx)
	if err != nil {
		return 0, MapDBError(err)
	}
	return int64(n), nil
}
