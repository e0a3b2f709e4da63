package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/run"
	"github.com/treasuryhq/gringotts/internal/snapshot"
)

type fakeSnapshots struct {
	latest    *snapshot.Snapshot
	generated int
}

func (f *fakeSnapshots) Generate(ctx context.Context) (*run.Report, error) {
	f.generated++
	summary := domain.NewPortfolioSummary()
	v := decimal.RequireFromString("70")
	summary.AddAsset("Acme", "SOL", decimal.RequireFromString("3.5"), &v)
	return &run.Report{Summary: summary, GeneratedAt: time.Now().UTC()}, nil
}

func (f *fakeSnapshots) Latest(ctx context.Context) (*snapshot.Snapshot, error) {
	if f.latest == nil {
		return nil, snapshot.ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeSnapshots) ByDate(ctx context.Context, date time.Time) (*snapshot.Snapshot, error) {
	if f.latest == nil || !date.Equal(f.latest.SnapshotDate) {
		return nil, snapshot.ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeSnapshots) History(ctx context.Context, limit int) ([]snapshot.Snapshot, error) {
	if f.latest == nil {
		return nil, nil
	}
	return []snapshot.Snapshot{*f.latest}, nil
}

func testServer(t *testing.T, snapshots SnapshotService, apiKey string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewServer("0", snapshots, apiKey).Handler)
	t.Cleanup(server.Close)
	return server
}

func storedSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		ID:           1,
		Scope:        snapshot.DefaultScope,
		SnapshotDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Data:         json.RawMessage(`{"summary":{"organizations":{},"totalUsdValue":"0"}}`),
	}
}

func TestGetLatestSnapshot(t *testing.T) {
	server := testServer(t, &fakeSnapshots{latest: storedSnapshot()}, "")

	resp, err := http.Get(server.URL + "/api/v1/snapshots/latest")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var s snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if s.ID != 1 {
		t.Errorf("snapshot ID = %d, want 1", s.ID)
	}
}

func TestGetLatestSnapshotNotFound(t *testing.T) {
	server := testServer(t, &fakeSnapshots{}, "")

	resp, err := http.Get(server.URL + "/api/v1/snapshots/latest")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetSnapshotByDate(t *testing.T) {
	server := testServer(t, &fakeSnapshots{latest: storedSnapshot()}, "")

	resp, err := http.Get(server.URL + "/api/v1/snapshots/2026-03-14")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGetSnapshotByDateInvalid(t *testing.T) {
	server := testServer(t, &fakeSnapshots{latest: storedSnapshot()}, "")

	resp, err := http.Get(server.URL + "/api/v1/snapshots/not-a-date")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGenerateRequiresAuth(t *testing.T) {
	snapshots := &fakeSnapshots{}
	server := testServer(t, snapshots, "secret-key")

	resp, err := http.Post(server.URL+"/api/v1/snapshots/generate", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", resp.StatusCode)
	}
	if snapshots.generated != 0 {
		t.Errorf("generated = %d, want 0", snapshots.generated)
	}

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/v1/snapshots/generate", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status with token = %d, want 200", resp.StatusCode)
	}
	if snapshots.generated != 1 {
		t.Errorf("generated = %d, want 1", snapshots.generated)
	}
}

func TestListSnapshots(t *testing.T) {
	server := testServer(t, &fakeSnapshots{latest: storedSnapshot()}, "")

	resp, err := http.Get(server.URL + "/api/v1/snapshots?limit=5")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var list []snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("snapshots = %d, want 1", len(list))
	}
}
