package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Orders.UndoWindow != 5*time.Minute {
		t.Fatalf("expected default undo window, got %s", cfg.Orders.UndoWindow)
	}
	if cfg.Orders.OrderNumberCounter != "orders" {
		t.Fatalf("expected default counter id, got %s", cfg.Orders.OrderNumberCounter)
	}
	if cfg.PubSub.OrderEventsTopic != "order-events" {
		t.Fatalf("expected default topic, got %s", cfg.PubSub.OrderEventsTopic)
	}
}

func TestLoadEnvMapPrecedence(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"FIRESTORE_PROJECT_ID": "proj-test",
		"ORDER_UNDO_WINDOW":    "90s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Firestore.ProjectID != "proj-test" {
		t.Fatalf("expected project from env map, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Orders.UndoWindow != 90*time.Second {
		t.Fatalf("expected 90s undo window, got %s", cfg.Orders.UndoWindow)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport ORDER_EVENTS_TOPIC=orders-test\nFIRESTORE_EMULATOR_HOST=\"localhost:8200\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PubSub.OrderEventsTopic != "orders-test" {
		t.Fatalf("expected topic from dotenv, got %s", cfg.PubSub.OrderEventsTopic)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Fatalf("expected quoted value unwrapped, got %s", cfg.Firestore.EmulatorHost)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"ORDER_UNDO_WINDOW": "not-a-duration",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Orders.UndoWindow != 5*time.Minute {
		t.Fatalf("expected fallback undo window, got %s", cfg.Orders.UndoWindow)
	}
}
