package command

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/snapback/internal/cli/connection"
)

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "snapback-cli" {
		t.Errorf("Name = %q, want snapback-cli", app.Name)
	}

	commands := make(map[string]bool)
	for _, cmd := range app.Commands {
		commands[cmd.Name] = true
	}
	for _, name := range []string{"user", "system"} {
		if !commands[name] {
			t.Errorf("missing command: %s", name)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, name := range []string{"server", "output"} {
		if !flags[name] {
			t.Errorf("missing flag: %s", name)
		}
	}
}

func TestApp_InvalidOutput(t *testing.T) {
	srv := newTestServer(t)
	if _, _, err := run(t, srv.URL, "-o", "xml", "user", "list"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func decodeUsers(t *testing.T, out string) []userView {
	t.Helper()
	var users []userView
	if err := json.Unmarshal([]byte(out), &users); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return users
}

func TestUser_RollbackScenario(t *testing.T) {
	srv := newTestServer(t)

	out, _, err := run(t, srv.URL, "-o", "json", "user", "create", "--email", "ann@example.com", "--name", "Ann")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if users := decodeUsers(t, out); len(users) != 1 || users[0].Name != "Ann" {
		t.Fatalf("after create = %+v", users)
	}

	out, _, err = run(t, srv.URL, "-o", "json", "user", "update", "--email", "ann@example.com", "--name", "Anna")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if users := decodeUsers(t, out); len(users) != 1 || users[0].Name != "Anna" {
		t.Fatalf("after update = %+v", users)
	}

	out, _, err = run(t, srv.URL, "-o", "json", "user", "rollback", "ann@example.com")
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if users := decodeUsers(t, out); len(users) != 1 || users[0].Name != "Ann" {
		t.Fatalf("after rollback = %+v", users)
	}

	// The snapshot is consumed, so a second rollback changes nothing.
	out, _, err = run(t, srv.URL, "-o", "json", "user", "rollback", "ann@example.com")
	if err != nil {
		t.Fatalf("second rollback: %v", err)
	}
	if users := decodeUsers(t, out); users[0].Name != "Ann" {
		t.Errorf("after second rollback = %+v", users)
	}
}

func TestUser_ListTable(t *testing.T) {
	srv := newTestServer(t)

	if _, _, err := run(t, srv.URL, "user", "create", "--email", "bob@example.com", "--name", "Bob"); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, srv.URL, "user", "list")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if f := strings.Fields(lines[0]); f[0] != "EMAIL" || f[1] != "NAME" {
		t.Errorf("header = %q", lines[0])
	}
	if f := strings.Fields(lines[1]); f[0] != "bob@example.com" || f[1] != "Bob" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestUser_ListYAML(t *testing.T) {
	srv := newTestServer(t)

	out, _, err := run(t, srv.URL, "-o", "yaml", "user", "list")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("empty listing = %q, want []", out)
	}
}

func TestUser_UpdateEmailArgument(t *testing.T) {
	srv := newTestServer(t)

	if _, _, err := run(t, srv.URL, "user", "create", "-e", "ann@example.com", "-n", "Ann"); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, srv.URL, "-o", "json", "user", "update", "--name", "Anna", "ann@example.com")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if users := decodeUsers(t, out); len(users) != 1 || users[0].Name != "Anna" {
		t.Fatalf("after update = %+v", users)
	}

	// Flags after EMAIL are positional arguments, so --name is never set.
	if _, _, err := run(t, srv.URL, "user", "update", "ann@example.com", "--name", "Ann"); err == nil {
		t.Error("expected error when --name follows EMAIL")
	}
	if _, _, err := run(t, srv.URL, "user", "update", "-e", "ann@example.com", "-n", "Ann", "bob@example.com"); err == nil {
		t.Error("expected error when EMAIL is given twice")
	}
}

func TestUser_UpdateRequiresEmail(t *testing.T) {
	srv := newTestServer(t)

	if _, _, err := run(t, srv.URL, "user", "update", "--name", "Anna"); err == nil {
		t.Error("expected error without EMAIL argument")
	}
	if _, _, err := run(t, srv.URL, "user", "rollback"); err == nil {
		t.Error("expected error without EMAIL argument")
	}
}

func TestUser_CreateRejectedByServer(t *testing.T) {
	srv := newTestServer(t)

	_, _, err := run(t, srv.URL, "user", "create", "--email", "", "--name", "Ann")
	var apiErr *connection.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *connection.APIError", err)
	}
	if apiErr.Status != 400 {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
}

func TestSystem_Health(t *testing.T) {
	srv := newTestServer(t)

	out, _, err := run(t, srv.URL, "system", "health")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Server is healthy") || !strings.Contains(out, srv.URL) {
		t.Errorf("output = %q", out)
	}

	out, _, err = run(t, srv.URL, "-o", "json", "system", "health")
	if err != nil {
		t.Fatal(err)
	}
	var h healthView
	if err := json.Unmarshal([]byte(out), &h); err != nil || h.Status != "healthy" {
		t.Errorf("health = %+v, err = %v", h, err)
	}
}

func TestSystem_HealthUnreachable(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL
	srv.Close()

	_, stderr, err := run(t, url, "system", "health")
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if !strings.Contains(stderr, "health check failed") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSystem_Status(t *testing.T) {
	srv := newTestServer(t)

	if _, _, err := run(t, srv.URL, "user", "create", "--email", "ann@example.com", "--name", "Ann"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, srv.URL, "user", "update", "-e", "ann@example.com", "-n", "Anna"); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, srv.URL, "-o", "json", "system", "status")
	if err != nil {
		t.Fatal(err)
	}
	var status statusView
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatal(err)
	}
	if status.Engine != "memory" || status.Entities != 1 || status.PendingSnapshots != 1 {
		t.Errorf("status = %+v", status)
	}

	out, _, err = run(t, srv.URL, "system", "status")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Engine", "memory", "Pending snapshots"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q: %q", want, out)
		}
	}
}
