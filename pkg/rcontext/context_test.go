package rcontext

import (
	"testing"

	"rapido/pkg/tx"
)

func TestDecodeMessageUsesSuppliedDecoder(t *testing.T) {
	transaction := tx.New([]byte("sender"), "person_app", []byte("alice:30"), 0)
	ctx := New(transaction)

	type createPerson struct {
		Name string
		Age  string
	}
	decode := func(payload []byte) (createPerson, error) {
		return createPerson{Name: "alice", Age: "30"}, nil
	}

	msg, err := DecodeMessage(ctx, decode)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Name != "alice" {
		t.Fatalf("unexpected decoded message: %+v", msg)
	}
}

func TestEmitEventNamespacesType(t *testing.T) {
	transaction := tx.New([]byte("sender"), "person_app", []byte("payload"), 0)
	ctx := New(transaction)

	ctx.EmitEvent("person_created", Attr("name", "alice"))
	events := ctx.DrainEvents()

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != "person_app.person_created" {
		t.Fatalf("expected namespaced event type, got %q", events[0].Type)
	}
}

func TestDrainEventsClearsBuffer(t *testing.T) {
	transaction := tx.New([]byte("sender"), "person_app", []byte("payload"), 0)
	ctx := New(transaction)

	ctx.EmitEvent("one")
	ctx.DrainEvents()
	if events := ctx.DrainEvents(); len(events) != 0 {
		t.Fatalf("expected drained buffer to stay empty, got %d events", len(events))
	}
}
