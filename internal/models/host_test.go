package models

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"
)

func TestParseHostQueryDefaults(t *testing.T) {
	q := ParseHostQuery(url.Values{})
	if q.Current != 1 || q.PageSize != DefaultPageSize {
		t.Fatalf("expected defaults 1/%d, got %d/%d", DefaultPageSize, q.Current, q.PageSize)
	}
	if q.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", q.Offset())
	}
	if q.Status != nil {
		t.Fatalf("expected nil status filter")
	}
}

func TestParseHostQueryClampsAndFilters(t *testing.T) {
	q := ParseHostQuery(url.Values{
		"current":  {"3"},
		"pageSize": {"1000"},
		"status":   {"false"},
		"hostName": {" mysql "},
	})
	if q.PageSize != MaxPageSize {
		t.Fatalf("expected page size clamp to %d, got %d", MaxPageSize, q.PageSize)
	}
	if q.Offset() != 2*MaxPageSize {
		t.Fatalf("unexpected offset %d", q.Offset())
	}
	if q.Status == nil || *q.Status {
		t.Fatalf("expected status=false filter, got %v", q.Status)
	}
	if q.HostName != "mysql" {
		t.Fatalf("expected trimmed hostName, got %q", q.HostName)
	}
}

func TestPage(t *testing.T) {
	items := make([]int, 30)
	for i := range items {
		items[i] = i + 1
	}
	got := Page(items, HostQuery{Current: 2, PageSize: 10})
	if len(got) != 10 || got[0] != 11 || got[9] != 20 {
		t.Fatalf("unexpected second page: %v", got)
	}
	got = Page(items, HostQuery{Current: 4, PageSize: 10})
	if len(got) != 0 {
		t.Fatalf("expected empty page past the end, got %v", got)
	}
	got = Page(items, HostQuery{Current: 3, PageSize: 12})
	if len(got) != 6 {
		t.Fatalf("expected short last page of 6, got %d", len(got))
	}

	huge := ParseHostQuery(url.Values{"current": {"46116860184273881"}, "pageSize": {"200"}})
	if huge.Offset() < 0 {
		t.Fatalf("offset overflowed: %d", huge.Offset())
	}
	got = Page(items, huge)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty page for huge current, got %v", got)
	}
}

func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2023, 12, 5, 15, 30, 0, 0, time.Local))
	b, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2023-12-05 15:30:00"` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var back Timestamp
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(ts.Time) {
		t.Fatalf("expected %v, got %v", ts.Time, back.Time)
	}
	var zero Timestamp
	b, _ = json.Marshal(zero)
	if string(b) != `""` {
		t.Fatalf("expected empty string for zero time, got %s", b)
	}
}

func TestEnvelopeShapes(t *testing.T) {
	b, _ := json.Marshal(SuccessList(0, []int{}))
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if _, ok := m["total"]; !ok {
		t.Fatalf("list envelope must carry total even when zero: %s", b)
	}
	if m["code"].(float64) != CodeOK || m["status"] != StatusOK {
		t.Fatalf("unexpected success envelope %s", b)
	}

	b, _ = json.Marshal(Success(nil))
	m = nil
	_ = json.Unmarshal(b, &m)
	if _, ok := m["total"]; ok {
		t.Fatalf("plain envelope must not carry total: %s", b)
	}

	fail := Fail(nil, "boom", 0)
	if fail.Code != CodeFail || fail.Status != StatusFail {
		t.Fatalf("unexpected fail envelope %+v", fail)
	}
	nf := SCodeNotFound.Envelope(nil, "")
	if nf.Status != StatusFail || nf.Code != 20001 || nf.Msg != SCodeNotFound.Msg {
		t.Fatalf("unexpected not found envelope %+v", nf)
	}
}
