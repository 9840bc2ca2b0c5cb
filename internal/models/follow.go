package models

// FollowResult is the state of an edge after a follow operation.
type FollowResult struct {
	IsFollowing    bool `json:"isFollowing"`
	FollowersCount int  `json:"followersCount"`
}

// FollowSummary lists both sides of a user's follow relations.
type FollowSummary struct {
	Followers []UserRef `json:"followers"`
	Following []UserRef `json:"following"`
}
