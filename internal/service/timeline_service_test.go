package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/civicaid/intake-service/internal/domain"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

func newTimelineFixture() (*communityFixture, *TimelineService) {
	f := newCommunityFixture()
	return f, NewTimelineService(f.tickets, f.history)
}

func TestTimelineService_TokenRoundTrip(t *testing.T) {
	f, svc := newTimelineFixture()
	f.makeDefaultOrg(true, "general")
	ctx := context.Background()

	sub, err := f.svc.CreatePublicTicket(ctx, PublicTicketInput{
		Citizen: domain.CitizenContact{Name: "Jane", Email: "jane@example.org", Phone: "555-0101"},
		Content: "fallen tree blocking sidewalk",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	timeline, err := svc.GetByToken(ctx, sub.Token)
	if err != nil {
		t.Fatalf("timeline lookup: %v", err)
	}
	if timeline.Ticket.ID != sub.Ticket.ID {
		t.Errorf("token resolved the wrong ticket: %+v", timeline.Ticket)
	}
	if len(timeline.History) != 1 || timeline.History[0].NewStatus != domain.TicketStatusOpen {
		t.Errorf("expected the submission entry, got %+v", timeline.History)
	}
}

func TestTimelineService_MalformedToken(t *testing.T) {
	_, svc := newTimelineFixture()

	// Malformed tokens fail the format check before any lookup and are
	// indistinguishable from unknown ones.
	for _, token := range []string{"", "not-a-uuid", "1234", strings.Repeat("a", 36)} {
		if _, err := svc.GetByToken(context.Background(), token); !apperrors.IsCode(err, "NOT_FOUND") {
			t.Errorf("token %q: expected NOT_FOUND, got %v", token, err)
		}
	}
}

func TestTimelineService_WrongToken(t *testing.T) {
	f, svc := newTimelineFixture()
	f.makeDefaultOrg(true, "general")

	if _, err := f.svc.CreatePublicTicket(context.Background(), PublicTicketInput{
		Citizen: domain.CitizenContact{Name: "Jane"},
		Content: "something",
	}); err != nil {
		t.Fatal(err)
	}

	// A well-formed token that matches no ticket must not resolve.
	if _, err := svc.GetByToken(context.Background(), uuid.NewString()); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND for unknown token, got %v", err)
	}
}

func TestTimelineService_NoContactLeak(t *testing.T) {
	f, svc := newTimelineFixture()
	f.makeDefaultOrg(true, "general")
	ctx := context.Background()

	sub, err := f.svc.CreatePublicTicket(ctx, PublicTicketInput{
		Citizen: domain.CitizenContact{Name: "Jane Citizen", Email: "jane@example.org", Phone: "555-0101"},
		Content: "pothole",
	})
	if err != nil {
		t.Fatal(err)
	}

	timeline, err := svc.GetByToken(ctx, sub.Token)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(timeline)
	if err != nil {
		t.Fatal(err)
	}
	for _, secret := range []string{"Jane Citizen", "jane@example.org", "555-0101", sub.Token} {
		if strings.Contains(string(raw), secret) {
			t.Errorf("timeline leaked %q: %s", secret, raw)
		}
	}
}
