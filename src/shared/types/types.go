package types

import "time"

// Submission kinds
type SubmissionType string

const (
	TypeGoogleDoc   SubmissionType = "gdoc"
	TypeGoogleSheet SubmissionType = "gsheet"
	TypeTweet       SubmissionType = "tweet"
	TypeYouTube     SubmissionType = "ytvideo"
	TypeAudio       SubmissionType = "audio"
	TypeImage       SubmissionType = "image"
)

// AllSubmissionTypes lists every kind the classifier can produce.
var AllSubmissionTypes = []SubmissionType{
	TypeGoogleDoc, TypeGoogleSheet, TypeTweet, TypeYouTube, TypeAudio, TypeImage,
}

// ChannelConfig is the per-channel curation policy, stored as the JSON
// data column of ChannelSettings.
type ChannelConfig struct {
	AwardedRoleID          string           `json:"awarded_role_id"`
	VotingThreshold        int              `json:"voting_threshold"`
	VotingAgainstThreshold int              `json:"voting_against_threshold"`
	ApprovalThreshold      int              `json:"approval_threshold"`
	SubmissionThreshold    int              `json:"submission_threshold"`
	SubmissionTypes        []SubmissionType `json:"submission_types,omitempty"`
	ApproverRoles          []string         `json:"approver_roles,omitempty"`
	ApproverUsers          []string         `json:"approver_users,omitempty"`
	SubmitterRoles         []string         `json:"submitter_roles,omitempty"`
	AllowedToVoteRoles     []string         `json:"allowed_to_vote_roles,omitempty"`
	MessageColor           int              `json:"message_color,omitempty"`
	Title                  string           `json:"title,omitempty"`
}

// ApprovalActive reports whether the approve/dismiss feature is enabled.
// It is driven purely by approver presence; the threshold only decides
// whether approvals gate acceptance.
func (c ChannelConfig) ApprovalActive() bool {
	return len(c.ApproverRoles) > 0 || len(c.ApproverUsers) > 0
}

// TypeAllowed reports whether a submission kind is accepted in this
// channel. An empty set allows every kind.
func (c ChannelConfig) TypeAllowed(t SubmissionType) bool {
	if len(c.SubmissionTypes) == 0 {
		return true
	}
	for _, allowed := range c.SubmissionTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

// Channel settings
type ChannelSettings struct {
	ID        uint64        `gorm:"primaryKey"`
	ChannelID string        `gorm:"size:64;uniqueIndex;not null"`
	GuildID   string        `gorm:"size:64"`
	Disabled  bool          `gorm:"default:false"`
	Data      ChannelConfig `gorm:"type:json;serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Submissions, keyed by canonical link
type Submission struct {
	ID                uint64         `gorm:"primaryKey"`
	Link              string         `gorm:"size:512;uniqueIndex;not null"`
	ChannelSettingsID uint64         `gorm:"index;not null"`
	Type              SubmissionType `gorm:"size:16;not null"`
	Title             string         `gorm:"size:256"`
	Description       string         `gorm:"size:1024"`
	UserID            string         `gorm:"size:64;index;not null"`
	UserTag           string         `gorm:"size:64"`
	IsCandidate       bool           `gorm:"default:true;index"`
	BotMessageID      string         `gorm:"size:64;index"`
	UserMessageID     string         `gorm:"size:64"`
	Hash              uint64         `gorm:"default:0"`
	CreatedAt         time.Time
}

// Ballots, one row per (message, user, kind)
type Ballot struct {
	ID         uint64 `gorm:"primaryKey"`
	MessageID  string `gorm:"size:64;not null;uniqueIndex:idx_msg_user_kind,priority:1"`
	UserID     string `gorm:"size:64;not null;uniqueIndex:idx_msg_user_kind,priority:2"`
	IsApproval bool   `gorm:"uniqueIndex:idx_msg_user_kind,priority:3"`
	InFavor    bool   `gorm:"not null"`
	CreatedAt  time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
