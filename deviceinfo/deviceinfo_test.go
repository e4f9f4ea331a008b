package deviceinfo

import "testing"

func TestCollect(t *testing.T) {
	info, err := Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if info.OS == "" {
		t.Fatal("expected OS to be populated")
	}
}
