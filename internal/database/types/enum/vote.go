package enum

import (
	"errors"
	"strconv"
)

// ErrInvalidVoteValue is returned when a vote value is anything other than +1 or -1.
var ErrInvalidVoteValue = errors.New("vote value must be 1 (upvote) or -1 (downvote)")

// VoteState represents a voter's current vote on an answer.
// The absence of a vote record is VoteStateNone.
//
//go:generate go tool enumer -type=VoteState -trimprefix=VoteState -transform=lower
type VoteState int

const (
	// VoteStateNone indicates the voter has no vote on the answer.
	VoteStateNone VoteState = iota
	// VoteStateUp indicates an upvote (+1).
	VoteStateUp
	// VoteStateDown indicates a downvote (-1).
	VoteStateDown
)

// FromValue converts a wire/database vote value into a VoteState.
// Only +1 and -1 are accepted; 0 is never a stored vote.
func FromValue(value int) (VoteState, error) {
	switch value {
	case 1:
		return VoteStateUp, nil
	case -1:
		return VoteStateDown, nil
	default:
		return VoteStateNone, ErrInvalidVoteValue
	}
}

// Value returns the signed value persisted for the state.
func (s VoteState) Value() int {
	switch s {
	case VoteStateUp:
		return 1
	case VoteStateDown:
		return -1
	case VoteStateNone:
		return 0
	default:
		return 0
	}
}

// IsNone reports whether no vote is held.
func (s VoteState) IsNone() bool {
	return s == VoteStateNone
}

// MarshalJSON encodes the state the way API clients expect it: 1, -1 or null.
func (s VoteState) MarshalJSON() ([]byte, error) {
	if s == VoteStateNone {
		return []byte("null"), nil
	}

	return []byte(strconv.Itoa(s.Value())), nil
}

// UnmarshalJSON decodes 1, -1 or null.
func (s *VoteState) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = VoteStateNone
		return nil
	}

	value, err := strconv.Atoi(string(data))
	if err != nil {
		return ErrInvalidVoteValue
	}

	state, err := FromValue(value)
	if err != nil {
		return err
	}

	*s = state

	return nil
}
