// Package admission decides what happens to an inbound channel message:
// ignored, silently rejected, stored as archive, or opened for voting.
package admission

import (
	"github.com/stake-plus/link-curator/src/shared/discord"
	"github.com/stake-plus/link-curator/src/shared/types"
)

// Verdict is the admission outcome. Rejections are modeled as outcomes,
// not errors; none of them is surfaced to the submitter.
type Verdict int

const (
	RejectAuthorBot Verdict = iota
	RejectSubmitterNotPermitted
	RejectNoContent
	RejectTypeNotAllowed
	Duplicate
	AcceptArchived
	AcceptCandidate
)

func (v Verdict) String() string {
	switch v {
	case RejectAuthorBot:
		return "reject-author-is-bot"
	case RejectSubmitterNotPermitted:
		return "reject-submitter-not-permitted"
	case RejectNoContent:
		return "reject-no-classifiable-content"
	case RejectTypeNotAllowed:
		return "reject-type-not-allowed"
	case Duplicate:
		return "duplicate-link"
	case AcceptArchived:
		return "accept-as-archived"
	case AcceptCandidate:
		return "accept-as-candidate"
	}
	return "unknown"
}

// Request is the snapshot the decision runs on.
type Request struct {
	AuthorIsBot      bool
	SubmitterRoles   []string
	HoldsAwardedRole bool
	// Classified reports whether any URL or attachment classified to an
	// allowed kind; DisallowedType that something classified but the
	// channel does not accept that kind.
	Classified     bool
	DisallowedType bool
	AlreadyStored  bool
}

// Decide is the pure admission function over one message snapshot.
func Decide(cfg types.ChannelConfig, req Request) Verdict {
	switch {
	case req.AuthorIsBot:
		return RejectAuthorBot
	case !discord.HasAnyRole(req.SubmitterRoles, cfg.SubmitterRoles):
		return RejectSubmitterNotPermitted
	case !req.Classified && req.DisallowedType:
		return RejectTypeNotAllowed
	case !req.Classified:
		return RejectNoContent
	case req.AlreadyStored:
		return Duplicate
	case req.HoldsAwardedRole:
		return AcceptArchived
	default:
		return AcceptCandidate
	}
}
