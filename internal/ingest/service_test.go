// internal/ingest/service_test.go
package ingest

import (
	"context"
	"testing"

	"github.com/edusupply/backend-go/internal/domain"
	"github.com/edusupply/backend-go/internal/storage"
)

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var infos []storage.ObjectInfo
	for key, data := range f.objects {
		infos = append(infos, storage.ObjectInfo{Key: key, Size: int64(len(data))})
	}
	return infos, nil
}

func (f *fakeStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	return f.objects[key], nil
}

func (f *fakeStore) UploadObject(ctx context.Context, key string, data []byte) error {
	f.objects[key] = data
	return nil
}

type fakeIngestRepo struct {
	records []domain.Record
	schools []domain.School
}

func (f *fakeIngestRepo) UpsertRecords(ctx context.Context, records []domain.Record) (int, error) {
	f.records = append(f.records, records...)
	return len(records), nil
}

func (f *fakeIngestRepo) UpsertSchools(ctx context.Context, schools []domain.School) (int, error) {
	f.schools = append(f.schools, schools...)
	return len(schools), nil
}

func TestIngestObject(t *testing.T) {
	dump := `{
		"kind": "distribution",
		"records": [
			{"id": "d1", "warehouseId": "wh-1", "quantity": 10,
			 "items": [{"quantity": 6}, {"quantity": 4}]},
			{"recordId": "d2", "councilId": "c-1", "quantity": 5},
			{"quantity": 3}
		],
		"schools": [
			{"id": "sch-1", "name": "Hill Primary", "councilId": "c-1", "type": "primary"},
			{"name": "No Id School"}
		]
	}`

	store := &fakeStore{objects: map[string][]byte{"dumps/distributions.json": []byte(dump)}}
	repo := &fakeIngestRepo{}
	svc := NewService(store, repo, nil, "dumps/")

	result, err := svc.IngestObject(context.Background(), "dumps/distributions.json")
	if err != nil {
		t.Fatalf("IngestObject: %v", err)
	}

	if result.Records != 2 {
		t.Errorf("records = %d, want 2", result.Records)
	}
	if result.Schools != 1 {
		t.Errorf("schools = %d, want 1", result.Schools)
	}
	// One record and one school arrive without an id.
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", result.Skipped)
	}

	if len(repo.records) != 2 {
		t.Fatalf("stored records = %d, want 2", len(repo.records))
	}
	first := repo.records[0]
	if first.ID != "d1" || first.Kind != domain.KindDistribution {
		t.Errorf("first record = %s/%s, want d1/distribution", first.ID, first.Kind)
	}
	if len(first.Items) != 2 {
		t.Errorf("line items = %d, want 2", len(first.Items))
	}
	if repo.records[1].ID != "d2" {
		t.Errorf("second record id = %s, want d2 (recordId fallback)", repo.records[1].ID)
	}

	if len(repo.schools) != 1 || repo.schools[0].ID != "sch-1" {
		t.Fatalf("stored schools = %+v, want sch-1 only", repo.schools)
	}
	if repo.schools[0].CouncilID != "c-1" {
		t.Errorf("school council = %s, want c-1", repo.schools[0].CouncilID)
	}
}

func TestIngestObjectUnknownKind(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"dumps/bad.json": []byte(`{"kind": "transfer", "records": []}`),
	}}
	svc := NewService(store, &fakeIngestRepo{}, nil, "dumps/")

	if _, err := svc.IngestObject(context.Background(), "dumps/bad.json"); err == nil {
		t.Fatal("expected unknown kind error, got nil")
	}
}

func TestIngestAllSkipsNonJSON(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"dumps/receipts.json": []byte(`{"kind": "receipt", "records": [{"id": "r1"}]}`),
		"dumps/readme.txt":    []byte("not a dump"),
	}}
	repo := &fakeIngestRepo{}
	svc := NewService(store, repo, nil, "dumps/")

	result, err := svc.IngestAll(context.Background())
	if err != nil {
		t.Fatalf("IngestAll: %v", err)
	}
	if result.Objects != 1 {
		t.Errorf("objects = %d, want 1", result.Objects)
	}
	if result.Records != 1 {
		t.Errorf("records = %d, want 1", result.Records)
	}
	if len(repo.records) != 1 || repo.records[0].Kind != domain.KindReceipt {
		t.Fatalf("stored records = %+v, want one receipt", repo.records)
	}
}
