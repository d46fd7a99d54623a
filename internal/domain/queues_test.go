package domain

import "testing"

func testQueueSet() QueueSet {
	return NewQueueSet([]string{"Male", "female"}, map[string][]string{
		"male":   {"Haircut", "Beard Trim"},
		"female": {"Haircut", "Facial"},
	})
}

func TestQueueSetContains(t *testing.T) {
	queues := testQueueSet()
	if !queues.Contains("male") || !queues.Contains("female") {
		t.Fatal("configured categories must be present")
	}
	if queues.Contains("unisex") {
		t.Fatal("unconfigured category must be absent")
	}
}

func TestQueueSetHasService(t *testing.T) {
	queues := testQueueSet()
	if !queues.HasService("male", "Beard Trim") {
		t.Fatal("catalog service must be offered")
	}
	if queues.HasService("male", "Facial") {
		t.Fatal("service from another catalog must not be offered")
	}

	open := NewQueueSet([]string{"male"}, nil)
	if !open.HasService("male", "Anything") {
		t.Fatal("empty catalog accepts any non-empty label")
	}
	if open.HasService("male", "") {
		t.Fatal("empty label is never offered")
	}
}

func TestQueueSetServicesForCopies(t *testing.T) {
	queues := testQueueSet()
	labels := queues.ServicesFor("male")
	labels[0] = "mutated"
	if queues.ServicesFor("male")[0] != "Haircut" {
		t.Fatal("ServicesFor must return a copy")
	}
}
