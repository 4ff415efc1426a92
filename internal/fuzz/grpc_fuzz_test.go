package fuzz

import (
	"context"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	grpcserver "github.com/Billy-Davies-2/teamforge/internal/grpc"
)

func newServer() *grpcserver.Server {
	svc, ps := newService(7)
	return grpcserver.NewServer(svc, ps, nil)
}

// noInternal fails when a handler maps client input to codes.Internal
func noInternal(t *testing.T, err error) {
	t.Helper()
	if status.Code(err) == codes.Internal {
		t.Fatalf("internal error for client input: %v", err)
	}
}

// FuzzGRPCAddMember fuzzes the AddMember endpoint
func FuzzGRPCAddMember(f *testing.F) {
	f.Add("newbie", "剣士", 1500)
	f.Add("m0", "knight", 10)
	f.Add("", "", -1)
	f.Add("tab\tname", "sage", 0)

	f.Fuzz(func(t *testing.T, name, profession string, power int) {
		_, err := newServer().AddMember(context.Background(), &grpcserver.AddMemberRequest{
			Name:       name,
			Profession: profession,
			Power:      power,
		})
		noInternal(t, err)
	})
}

// FuzzGRPCRosterEdits fuzzes rename, set_power and swap_power on one roster
func FuzzGRPCRosterEdits(f *testing.F) {
	f.Add("m1", "renamed", 100, "m2")
	f.Add("ghost", "m2", -1, "ghost")
	f.Add("", "", 0, "")

	f.Fuzz(func(t *testing.T, oldName, newName string, power int, other string) {
		s := newServer()
		ctx := context.Background()

		_, err := s.RenameMember(ctx, &grpcserver.RenameMemberRequest{OldName: oldName, NewName: newName})
		noInternal(t, err)
		_, err = s.SetPower(ctx, &grpcserver.SetPowerRequest{Name: newName, Power: power})
		noInternal(t, err)
		_, err = s.SwapPower(ctx, &grpcserver.SwapPowerRequest{A: newName, B: other})
		noInternal(t, err)
		_, err = s.RemoveMember(ctx, &grpcserver.RemoveMemberRequest{Name: other})
		noInternal(t, err)
	})
}

// FuzzGRPCFormTeams fuzzes FormTeams and checks no member lands in two teams
func FuzzGRPCFormTeams(f *testing.F) {
	f.Add("op", "balance", 0.5, 1, 1)
	f.Add("op", "high_power", 1.0, 0, 0)
	f.Add("op", "carry", 0.0, 4, 4)
	f.Add("", "nonsense", -1.0, -1, 99)

	f.Fuzz(func(t *testing.T, operator, strategy string, probability float64, maxSages, maxKnights int) {
		req := &grpcserver.FormTeamsRequest{OperatorID: operator, Strategy: strategy}
		req.Probability = &probability
		req.MaxSages = &maxSages
		req.MaxKnights = &maxKnights

		entry, err := newServer().FormTeams(context.Background(), req)
		noInternal(t, err)
		if err != nil {
			return
		}

		seen := make(map[string]bool)
		for _, team := range entry.Result.Teams {
			for _, p := range team.Members {
				if seen[p.ID] {
					t.Fatalf("player %s placed twice", p.Name)
				}
				seen[p.ID] = true
			}
		}
	})
}
