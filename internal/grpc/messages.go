package grpc

import (
	"github.com/Billy-Davies-2/teamforge/internal/commands"
)

type AddMemberRequest struct {
	Name       string `json:"name"`
	Profession string `json:"profession"`
	Power      int    `json:"power"`
}

type RemoveMemberRequest struct {
	Name string `json:"name"`
}

type RenameMemberRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

type SetPowerRequest struct {
	Name  string `json:"name"`
	Power int    `json:"power"`
}

type SwapPowerRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type ListMembersRequest struct{}

// FormTeamsRequest is auto_create_group. The operator comes from the
// x-operator-id metadata when present, else from OperatorID.
type FormTeamsRequest = commands.FormRequest

// StreamEventsRequest asks for up to Replay recent events before live ones
type StreamEventsRequest struct {
	Replay int `json:"replay"`
}
