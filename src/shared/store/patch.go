package store

import (
	"fmt"

	"github.com/stake-plus/link-curator/src/shared/types"
)

// PatchOp is the explicit settings-update operation.
type PatchOp int

const (
	OpSet PatchOp = iota
	OpUnset
	OpAdd
	OpSubtract
)

// ListField names a mergeable array field of ChannelConfig.
type ListField string

const (
	FieldSubmissionTypes    ListField = "submission_types"
	FieldApproverRoles      ListField = "approver_roles"
	FieldApproverUsers      ListField = "approver_users"
	FieldSubmitterRoles     ListField = "submitter_roles"
	FieldAllowedToVoteRoles ListField = "allowed_to_vote_roles"
)

// mergeableListFields is the whitelist of fields OpAdd/OpSubtract may touch.
var mergeableListFields = map[ListField]bool{
	FieldSubmissionTypes:    true,
	FieldApproverRoles:      true,
	FieldApproverUsers:      true,
	FieldSubmitterRoles:     true,
	FieldAllowedToVoteRoles: true,
}

// ConfigPatch is a typed partial update of ChannelConfig. Scalar
// pointers apply under OpSet (OpUnset zeroes them); Lists apply under
// OpSet/OpAdd/OpSubtract.
type ConfigPatch struct {
	Op PatchOp

	AwardedRoleID          *string
	VotingThreshold        *int
	VotingAgainstThreshold *int
	ApprovalThreshold      *int
	SubmissionThreshold    *int
	MessageColor           *int
	Title                  *string

	Lists map[ListField][]string
}

// ApplyPatch merges patch into cfg. It is pure so it can run inside a
// row-locked transaction of any store implementation.
func ApplyPatch(cfg *types.ChannelConfig, patch ConfigPatch) error {
	for field := range patch.Lists {
		if !mergeableListFields[field] {
			return fmt.Errorf("patch: unknown list field %q", field)
		}
	}

	switch patch.Op {
	case OpSet:
		applyScalars(cfg, patch, false)
		for field, values := range patch.Lists {
			setList(cfg, field, values)
		}
	case OpUnset:
		applyScalars(cfg, patch, true)
		for field := range patch.Lists {
			setList(cfg, field, nil)
		}
	case OpAdd, OpSubtract:
		if hasScalars(patch) {
			return fmt.Errorf("patch: add/subtract applies to list fields only")
		}
		for field, values := range patch.Lists {
			current := getList(cfg, field)
			if patch.Op == OpAdd {
				setList(cfg, field, mergeUnique(current, values))
			} else {
				setList(cfg, field, subtract(current, values))
			}
		}
	default:
		return fmt.Errorf("patch: unknown op %d", patch.Op)
	}
	return nil
}

func hasScalars(p ConfigPatch) bool {
	return p.AwardedRoleID != nil || p.VotingThreshold != nil ||
		p.VotingAgainstThreshold != nil || p.ApprovalThreshold != nil ||
		p.SubmissionThreshold != nil || p.MessageColor != nil || p.Title != nil
}

func applyScalars(cfg *types.ChannelConfig, p ConfigPatch, unset bool) {
	if p.AwardedRoleID != nil {
		cfg.AwardedRoleID = zeroIf(unset, *p.AwardedRoleID)
	}
	if p.VotingThreshold != nil {
		cfg.VotingThreshold = zeroIntIf(unset, *p.VotingThreshold)
	}
	if p.VotingAgainstThreshold != nil {
		cfg.VotingAgainstThreshold = zeroIntIf(unset, *p.VotingAgainstThreshold)
	}
	if p.ApprovalThreshold != nil {
		cfg.ApprovalThreshold = zeroIntIf(unset, *p.ApprovalThreshold)
	}
	if p.SubmissionThreshold != nil {
		cfg.SubmissionThreshold = zeroIntIf(unset, *p.SubmissionThreshold)
	}
	if p.MessageColor != nil {
		cfg.MessageColor = zeroIntIf(unset, *p.MessageColor)
	}
	if p.Title != nil {
		cfg.Title = zeroIf(unset, *p.Title)
	}
}

func zeroIf(unset bool, v string) string {
	if unset {
		return ""
	}
	return v
}

func zeroIntIf(unset bool, v int) int {
	if unset {
		return 0
	}
	return v
}

func getList(cfg *types.ChannelConfig, field ListField) []string {
	switch field {
	case FieldSubmissionTypes:
		out := make([]string, len(cfg.SubmissionTypes))
		for i, t := range cfg.SubmissionTypes {
			out[i] = string(t)
		}
		return out
	case FieldApproverRoles:
		return cfg.ApproverRoles
	case FieldApproverUsers:
		return cfg.ApproverUsers
	case FieldSubmitterRoles:
		return cfg.SubmitterRoles
	case FieldAllowedToVoteRoles:
		return cfg.AllowedToVoteRoles
	}
	return nil
}

func setList(cfg *types.ChannelConfig, field ListField, values []string) {
	switch field {
	case FieldSubmissionTypes:
		if values == nil {
			cfg.SubmissionTypes = nil
			return
		}
		out := make([]types.SubmissionType, len(values))
		for i, v := range values {
			out[i] = types.SubmissionType(v)
		}
		cfg.SubmissionTypes = out
	case FieldApproverRoles:
		cfg.ApproverRoles = values
	case FieldApproverUsers:
		cfg.ApproverUsers = values
	case FieldSubmitterRoles:
		cfg.SubmitterRoles = values
	case FieldAllowedToVoteRoles:
		cfg.AllowedToVoteRoles = values
	}
}

func mergeUnique(current, add []string) []string {
	seen := make(map[string]bool, len(current))
	out := make([]string, 0, len(current)+len(add))
	for _, v := range current {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range add {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func subtract(current, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, v := range remove {
		drop[v] = true
	}
	out := make([]string, 0, len(current))
	for _, v := range current {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}
