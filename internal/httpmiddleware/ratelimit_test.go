package httpmiddleware

import "testing"

func TestSimpleTokenBucket_Take(t *testing.T) {
	l := NewSimpleTokenBucket(3, 60)
	for i := 0; i < 3; i++ {
		if !l.take("1.2.3.4", 1) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.take("1.2.3.4", 1) {
		t.Error("request over capacity should be rejected")
	}
	// Other clients have their own bucket.
	if !l.take("5.6.7.8", 1) {
		t.Error("fresh client should be allowed")
	}
}

func TestRequestCost(t *testing.T) {
	if got := requestCost("/api/attendance/scan"); got != 1 {
		t.Errorf("scan cost = %d, want 1", got)
	}
	if got := requestCost("/api/admin/export/excel"); got != exportCost {
		t.Errorf("export cost = %d, want %d", got, exportCost)
	}
}

func TestSimpleTokenBucket_ExportDrainsFaster(t *testing.T) {
	l := NewSimpleTokenBucket(exportCost*2, 60)
	if !l.take("1.2.3.4", requestCost("/api/admin/export/excel")) {
		t.Fatal("first export should be allowed")
	}
	if !l.take("1.2.3.4", requestCost("/api/admin/export/excel")) {
		t.Fatal("second export should be allowed")
	}
	if l.take("1.2.3.4", requestCost("/api/admin/export/excel")) {
		t.Error("third export should exhaust the bucket")
	}
	// Cheap requests are also out of tokens now.
	if l.take("1.2.3.4", requestCost("/api/attendance/scan")) {
		t.Error("drained bucket should reject cheap requests too")
	}
}
