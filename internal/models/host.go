package models

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the wire format used for audit timestamps.
const TimeLayout = "2006-01-02 15:04:05"

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
	DefaultSSHPort  = 22
)

// Timestamp serializes as TimeLayout; the zero value encodes as an empty string.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(strconv.Quote(t.Format(TimeLayout))), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		// Accept RFC3339 as sent by generic API clients.
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

// HostRecord is a CMDB inventory entry.
type HostRecord struct {
	ID            int64     `json:"id"`
	HostID        string    `json:"hostID" validate:"omitempty,max=64"`
	HostName      string    `json:"hostName" validate:"required,max=128"`
	HostIP        string    `json:"hostIP" validate:"required,ip"`
	UserName      string    `json:"userName" validate:"omitempty,max=64"`
	HostSSHPort   int       `json:"hostSSHPort" validate:"omitempty,min=1,max=65535"`
	HostType      string    `json:"hostType" validate:"omitempty,max=32"`
	Status        bool      `json:"status"`
	Comment       string    `json:"comment" validate:"omitempty,max=512"`
	CPUCores      int       `json:"cpuCores,omitempty" validate:"omitempty,min=0,max=4096"`
	MemSize       int64     `json:"memSize,omitempty" validate:"omitempty,min=0"`
	OSName        string    `json:"osName,omitempty" validate:"omitempty,max=64"`
	KernelVersion string    `json:"kernelVersion,omitempty" validate:"omitempty,max=64"`
	CreatedTime   Timestamp `json:"createdTime"`
	UpdatedTime   Timestamp `json:"updatedTime"`
}

// HostQuery carries list paging and filter parameters.
type HostQuery struct {
	Current  int
	PageSize int
	HostName string
	HostIP   string
	HostType string
	Status   *bool
}

// ParseHostQuery reads current/pageSize and the optional filters from a query string.
// Malformed numbers fall back to defaults.
func ParseHostQuery(values url.Values) HostQuery {
	q := HostQuery{
		HostName: strings.TrimSpace(values.Get("hostName")),
		HostIP:   strings.TrimSpace(values.Get("hostIP")),
		HostType: strings.TrimSpace(values.Get("hostType")),
	}
	q.Current, _ = strconv.Atoi(values.Get("current"))
	q.PageSize, _ = strconv.Atoi(values.Get("pageSize"))
	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			q.Status = &b
		}
	}
	q.Normalize()
	return q
}

// Normalize applies defaults and clamps the page size.
func (q *HostQuery) Normalize() {
	if q.Current < 1 {
		q.Current = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	// Keeps Current*PageSize within int; such a page is past any real table.
	if limit := math.MaxInt / q.PageSize; q.Current > limit {
		q.Current = limit
	}
}

func (q HostQuery) Offset() int {
	if q.Current <= 1 {
		return 0
	}
	return (q.Current - 1) * q.PageSize
}

// Page slices items according to the query. Out-of-range pages are empty.
func Page[T any](items []T, q HostQuery) []T {
	start := q.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + q.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
