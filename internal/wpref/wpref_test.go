package wpref

import "testing"

func TestParse_HashToken(t *testing.T) {
	t.Parallel()

	ref, ok := Parse("Fixed bug #482")
	if !ok {
		t.Fatalf("expected a reference, got none")
	}
	if ref.ID != 482 {
		t.Fatalf("expected id 482, got %d", ref.ID)
	}
	if ref.Raw != "#482" {
		t.Fatalf("expected raw token %q, got %q", "#482", ref.Raw)
	}
	if ref.Text != "Fixed bug" {
		t.Fatalf("expected text %q, got %q", "Fixed bug", ref.Text)
	}
}

func TestParse_BracketedLegacyToken(t *testing.T) {
	t.Parallel()

	ref, ok := Parse("[OP#123] Standup meeting")
	if !ok {
		t.Fatalf("expected a reference, got none")
	}
	if ref.ID != 123 {
		t.Fatalf("expected id 123, got %d", ref.ID)
	}
	if ref.Raw != "OP#123" {
		t.Fatalf("expected raw token %q, got %q", "OP#123", ref.Raw)
	}
	if ref.Text != "Standup meeting" {
		t.Fatalf("expected text %q, got %q", "Standup meeting", ref.Text)
	}
}

func TestParse_BracketedTokenMidSentence(t *testing.T) {
	t.Parallel()

	ref, ok := Parse("Review [OP#9] comments")
	if !ok {
		t.Fatalf("expected a reference, got none")
	}
	if ref.ID != 9 {
		t.Fatalf("expected id 9, got %d", ref.ID)
	}
	if ref.Text != "Review comments" {
		t.Fatalf("expected brackets removed from text, got %q", ref.Text)
	}
}

func TestParse_FirstMatchWins(t *testing.T) {
	t.Parallel()

	ref, ok := Parse("started on #11 then moved to #22 and #33")
	if !ok {
		t.Fatalf("expected a reference, got none")
	}
	if ref.ID != 11 {
		t.Fatalf("expected first reference 11, got %d", ref.ID)
	}
}

func TestParse_CaseInsensitivePrefix(t *testing.T) {
	t.Parallel()

	ref, ok := Parse("op#77 retro notes")
	if !ok {
		t.Fatalf("expected a reference, got none")
	}
	if ref.ID != 77 {
		t.Fatalf("expected id 77, got %d", ref.ID)
	}
	if ref.Raw != "op#77" {
		t.Fatalf("expected raw token %q, got %q", "op#77", ref.Raw)
	}
}

func TestParse_NoReference(t *testing.T) {
	t.Parallel()

	if _, ok := Parse("No reference here"); ok {
		t.Fatalf("expected no reference")
	}
	if _, ok := Parse(""); ok {
		t.Fatalf("expected no reference for empty description")
	}
	if _, ok := Parse("issue 42 without token"); ok {
		t.Fatalf("expected no reference without hash token")
	}
}

func TestParse_ZeroIDRejected(t *testing.T) {
	t.Parallel()

	if _, ok := Parse("placeholder #0 entry"); ok {
		t.Fatalf("expected zero id to be rejected")
	}
}

func TestParse_TokenOnly(t *testing.T) {
	t.Parallel()

	ref, ok := Parse("#512")
	if !ok {
		t.Fatalf("expected a reference, got none")
	}
	if ref.ID != 512 {
		t.Fatalf("expected id 512, got %d", ref.ID)
	}
	if ref.Text != "" {
		t.Fatalf("expected empty text, got %q", ref.Text)
	}
}
